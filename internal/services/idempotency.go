package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyFormat = "idem:order:create:%s:%s"
	idempotencyPending   = "pending"
	idempotencyTTL       = 24 * time.Hour
)

// IdempotencyStore keys are scoped per user; two users sending the same key
// never see each other's orders.
type IdempotencyStore interface {
	// Reserve claims key for userID. When the key was already claimed it
	// returns the stored order id, or ErrOrderInProgress while the first
	// request runs.
	Reserve(ctx context.Context, userID, key string) (existingOrderID string, reserved bool, err error)
	Complete(ctx context.Context, userID, key, orderID string) error
	Release(ctx context.Context, userID, key string) error
}

type RedisIdempotencyStore struct {
	client redis.Cmdable
}

func NewRedisIdempotencyStore(client redis.Cmdable) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, userID, key string) (string, bool, error) {
	redisKey := idempotencyKey(userID, key)
	ok, err := s.client.SetNX(ctx, redisKey, idempotencyPending, idempotencyTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	existing, err := s.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		// Expired or released between the two calls; let the caller retry.
		return "", false, ErrOrderInProgress
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	if existing == idempotencyPending {
		return "", false, ErrOrderInProgress
	}
	return existing, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, userID, key, orderID string) error {
	return s.client.Set(ctx, idempotencyKey(userID, key), orderID, idempotencyTTL).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, userID, key string) error {
	return s.client.Del(ctx, idempotencyKey(userID, key)).Err()
}

func idempotencyKey(userID, key string) string {
	return fmt.Sprintf(idempotencyKeyFormat, userID, key)
}
