package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter.
// Key format: kyc:rl:<scope>:<subject>:<window_start_unix>
type RateLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client redis.Cmdable, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window, now: time.Now}
}

// Allow counts one hit for subject in scope. It returns false with the time
// until the window resets once the limit is exceeded.
func (l *RateLimiter) Allow(ctx context.Context, scope, subject string) (bool, time.Duration, error) {
	now := l.now()
	start := now.Truncate(l.window)
	key := keyPrefix + "rl:" + scope + ":" + subject + ":" + strconv.FormatInt(start.Unix(), 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit: %w", err)
	}

	if incr.Val() > l.limit {
		return false, start.Add(l.window).Sub(now), nil
	}
	return true, 0, nil
}
