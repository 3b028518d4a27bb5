package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// Redis key layout: sc:{instance}:{namespace-hex}:{key-hex}. The instance
// address scopes every key so instances sharing one Redis deployment stay
// isolated; the namespace hex keeps the three regions apart.
const redisKeyPrefix = "sc"

// RedisStore is a Redis-backed Store scoped to a single instance address.
// Recommended for deployments where several service replicas serve the same
// instances and need shared state.
type RedisStore struct {
	client   *redis.Client
	instance domain.Address
}

// NewRedisStore constructs a Redis-backed store for one instance.
func NewRedisStore(client *redis.Client, instance domain.Address) *RedisStore {
	return &RedisStore{client: client, instance: instance}
}

// NewRedisProvider returns a Provider that scopes stores onto one shared
// Redis client by instance address.
func NewRedisProvider(client *redis.Client) Provider {
	return ProviderFunc(func(instance domain.Address) Store {
		return NewRedisStore(client, instance)
	})
}

// Get returns the stored value, or a zero-length slice when absent.
func (s *RedisStore) Get(ctx context.Context, ns Namespace, key []byte) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set overwrites the key unconditionally, with no expiry: credential records
// have no retention window.
func (s *RedisStore) Set(ctx context.Context, ns Namespace, key []byte, value []byte) error {
	if err := s.client.Set(ctx, s.key(ns, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) key(ns Namespace, key []byte) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		redisKeyPrefix,
		s.instance,
		hex.EncodeToString(ns[:]),
		hex.EncodeToString(key),
	)
}
