package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/infrastructure/config"
)

// StoreFactory creates cache stores based on configuration.
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory.
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory.
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory.
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore tries to create a Redis store first and falls back to the
// in-memory store when Redis is unavailable and fallback is allowed.
// An in-memory store does not share state across instances, so webhook
// deliveries may be processed twice in distributed deployments.
func (f *StoreFactory) CreateStore() (Store, error) {
	store, err := NewRedisStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis cache store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for caching but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache store",
		zap.Error(err),
	)
	return NewInMemoryStore(), nil
}
