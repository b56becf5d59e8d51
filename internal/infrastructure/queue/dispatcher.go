package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentahome/kyc-service/internal/api/metrics"
	"github.com/rentahome/kyc-service/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	processTimeout = 30 * time.Second
)

// CompletionProcessor runs the side effects of one completion event.
type CompletionProcessor interface {
	Process(ctx context.Context, event domain.CompletionEvent) error
}

// Dispatcher runs completion side effects off the request path. Events are
// sharded by user ID so one user's completions are processed in order.
type Dispatcher struct {
	workers   []chan domain.CompletionEvent
	processor CompletionProcessor
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor CompletionProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.CompletionEvent, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CompletionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands event to its worker without blocking. When the worker's
// buffer is full the event is dropped and logged.
func (d *Dispatcher) Enqueue(event domain.CompletionEvent) {
	idx := d.shardIndex(event.UserID)
	select {
	case d.workers[idx] <- event:
		metrics.DispatchQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.SideEffectsTotal.WithLabelValues("event", "dropped").Inc()
		d.log.Warn().
			Str("user_id", event.UserID).
			Str("tier", string(event.Tier)).
			Int("worker_id", idx).
			Msg("completion queue full, event dropped")
	}
}

func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CompletionEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			metrics.DispatchQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			pctx, cancel := context.WithTimeout(ctx, processTimeout)
			err := d.processor.Process(pctx, event)
			cancel()
			if err != nil {
				d.log.Warn().Err(err).
					Str("user_id", event.UserID).
					Str("tier", string(event.Tier)).
					Int("worker_id", id).
					Msg("completion side effects failed")
			}
		}
	}
}
