package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/feedbridge/backend/internal/infrastructure/config"
)

const defaultKeyPrefix = "feedbridge:"

// fingerprintTTL bounds how long a cached fingerprint survives without a
// refresh. Stale entries only cost one redundant resolution pass.
const fingerprintTTL = 24 * time.Hour

// RedisStore implements Store using Redis. It is the right choice for
// distributed deployments where multiple instances share cache state.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis using the given configuration and
// verifies the connection before returning.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisStoreWithClient wraps an existing Redis client. Useful for tests
// and for sharing a client across components.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached fingerprint for a record, or "" on a miss.
func (s *RedisStore) Get(ctx context.Context, tenantID, recordID uuid.UUID) (string, error) {
	val, err := s.client.Get(ctx, fingerprintKey(s.keyPrefix, tenantID, recordID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return val, nil
}

// Set stores a record fingerprint with the standard TTL.
func (s *RedisStore) Set(ctx context.Context, tenantID, recordID uuid.UUID, fingerprint string) error {
	err := s.client.Set(ctx, fingerprintKey(s.keyPrefix, tenantID, recordID), fingerprint, fingerprintTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to store fingerprint: %w", err)
	}
	return nil
}

// Invalidate drops the cached fingerprint for a record.
func (s *RedisStore) Invalidate(ctx context.Context, tenantID, recordID uuid.UUID) error {
	if err := s.client.Del(ctx, fingerprintKey(s.keyPrefix, tenantID, recordID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate fingerprint: %w", err)
	}
	return nil
}

// MarkDelivery marks a webhook delivery as seen using SETNX so that the
// check-and-mark is a single atomic operation.
func (s *RedisStore) MarkDelivery(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, deliveryKey(s.keyPrefix, deliveryID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery: %w", err)
	}
	return ok, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
