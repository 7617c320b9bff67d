package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// PreviewCacheFactory builds the preview cache, preferring Redis and falling
// back to the in-memory implementation when Redis is unreachable
type PreviewCacheFactory struct {
	redisConfig   RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

type PreviewCacheFactoryOption func(*PreviewCacheFactory)

func WithLogger(logger *zap.Logger) PreviewCacheFactoryOption {
	return func(f *PreviewCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache instead of failing startup. Default is true.
func WithInMemoryFallback(allow bool) PreviewCacheFactoryOption {
	return func(f *PreviewCacheFactory) {
		f.allowFallback = allow
	}
}

func NewPreviewCacheFactory(cfg RedisConfig, opts ...PreviewCacheFactoryOption) *PreviewCacheFactory {
	f := &PreviewCacheFactory{
		redisConfig:   cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *PreviewCacheFactory) Create() (PreviewCache, error) {
	cache, err := NewRedisPreviewCache(f.redisConfig)
	if err == nil {
		f.logger.Info("using redis preview cache")
		return cache, nil
	}

	if !f.allowFallback {
		return nil, fmt.Errorf("redis required for preview cache but unavailable: %w", err)
	}

	f.logger.Warn("redis unavailable, falling back to in-memory preview cache",
		zap.Error(err),
	)
	return NewInMemoryPreviewCache(), nil
}
