package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

const defaultLockTTL = 2 * time.Minute

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by another request is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmissionLocker serializes KYC submissions per user.
// Key format: kyc:lock:<user_id>
type SubmissionLocker struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewSubmissionLocker creates a locker whose locks expire after ttl. The TTL
// must outlive a full provider round trip including retries.
func NewSubmissionLocker(client redis.Cmdable, ttl time.Duration) *SubmissionLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SubmissionLocker{client: client, ttl: ttl}
}

// Lock acquires the user's lock or returns domain.ErrConflict if it is held.
func (l *SubmissionLocker) Lock(ctx context.Context, userID string) (func(context.Context) error, error) {
	key := l.key(userID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrConflict
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release lock: %w", err)
		}
		return nil
	}, nil
}

func (l *SubmissionLocker) key(userID string) string {
	return keyPrefix + "lock:" + userID
}
