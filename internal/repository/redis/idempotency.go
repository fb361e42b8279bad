package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ironfuel/cartapi/internal/domain"
)

const keyPrefix = "checkout:idempotency:"

// IdempotencyStore implements repository.IdempotencyStore on Redis.
type IdempotencyStore struct {
	client redis.UniversalClient
}

// NewIdempotencyStore creates a Redis-backed idempotency store.
func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Get returns the session stored under key, or nil when there is none.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*domain.CheckoutSession, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get idempotency key: %w", err)
	}

	var session domain.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal checkout session: %w", err)
	}
	return &session, nil
}

// Put stores session under key for ttl unless the key is already taken.
func (s *IdempotencyStore) Put(ctx context.Context, key string, session domain.CheckoutSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal checkout session: %w", err)
	}
	if err := s.client.SetNX(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set idempotency key: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
