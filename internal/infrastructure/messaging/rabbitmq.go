// Package messaging publishes KYC completion events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

const (
	RoutingTierVerified     = "kyc.tier.verified"
	RoutingReferralVerified = "kyc.referral.verified"

	dialTimeout = 10 * time.Second
)

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON messages to a durable topic exchange. A Publisher
// built without a broker URL only logs what it would have sent.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      zerolog.Logger
}

// NewPublisher dials the broker and declares the exchange. An empty URL
// yields a log-only publisher so local development needs no broker.
func NewPublisher(rawURL, exchange string, log zerolog.Logger) (*Publisher, error) {
	p := &Publisher{exchange: exchange, log: log}
	if strings.TrimSpace(rawURL) == "" {
		log.Warn().Msg("AMQP_URL not set; completion events will only be logged")
		return p, nil
	}

	clean, err := sanitizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	conn, err := amqp.DialConfig(clean, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	p.conn = conn
	p.ch = ch
	if err := p.declare(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func newPublisherWithChannel(ch channel, exchange string, log zerolog.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log}
}

func (p *Publisher) declare() error {
	if err := p.ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp declare %s: %w", p.exchange, err)
	}
	return nil
}

type tierVerifiedMessage struct {
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	Tier       string    `json:"tier"`
	OccurredAt time.Time `json:"occurred_at"`
}

type referralMessage struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (p *Publisher) PublishTierVerified(ctx context.Context, event domain.CompletionEvent) error {
	return p.publish(ctx, RoutingTierVerified, tierVerifiedMessage{
		UserID:     event.UserID,
		Role:       event.Role,
		Tier:       string(event.Tier),
		OccurredAt: event.OccurredAt,
	})
}

// MarkReferralVerified tells the referral subsystem that the referred user
// finished tier1. Consumers must treat repeats as no-ops.
func (p *Publisher) MarkReferralVerified(ctx context.Context, userID string) error {
	return p.publish(ctx, RoutingReferralVerified, referralMessage{
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("amqp encode %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		p.log.Info().Str("routing_key", routingKey).RawJSON("body", payload).Msg("event not published: no broker configured")
		return nil
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err != nil && p.conn != nil && !p.conn.IsClosed() {
		// channel errors close the channel; reopen once and retry
		p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("amqp publish failed, reopening channel")
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return fmt.Errorf("amqp publish %s: %w", routingKey, errors.Join(err, chErr))
		}
		p.ch = ch
		if err := p.declare(); err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", routingKey, err)
	}

	p.log.Debug().Str("routing_key", routingKey).Msg("event published")
	return nil
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("amqp url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("amqp url: scheme must be amqp or amqps")
	}
	return clean, nil
}
