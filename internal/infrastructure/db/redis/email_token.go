package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// EmailTokenStore keeps hashed email verification tokens until they expire
// or are consumed.
// Key format: kyc:email_token:<sha256_hex>
type EmailTokenStore struct {
	client redis.Cmdable
}

func NewEmailTokenStore(client redis.Cmdable) *EmailTokenStore {
	return &EmailTokenStore{client: client}
}

func (s *EmailTokenStore) Save(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(tokenHash), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save email token: %w", err)
	}
	return nil
}

// Lookup returns the owner of the token without deleting it.
func (s *EmailTokenStore) Lookup(ctx context.Context, tokenHash string) (string, error) {
	userID, err := s.client.Get(ctx, s.key(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("lookup email token: %w", err)
	}
	return userID, nil
}

// Consume deletes the token. A token that is already gone is ErrInvalidToken.
func (s *EmailTokenStore) Consume(ctx context.Context, tokenHash string) error {
	n, err := s.client.Del(ctx, s.key(tokenHash)).Result()
	if err != nil {
		return fmt.Errorf("consume email token: %w", err)
	}
	if n == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

func (s *EmailTokenStore) key(tokenHash string) string {
	return keyPrefix + "email_token:" + tokenHash
}
