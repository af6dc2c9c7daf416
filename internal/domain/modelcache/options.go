package modelcache

import "github.com/okian/matchday/pkg/logger"

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithMaxSize sets the maximum number of artifacts kept per freshness token.
// If maxSize > 0: bounded mode, the oldest artifact is evicted first.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(c *Cache) {
		c.maxSize = maxSize
	}
}

// WithTrainOnDemand controls whether a miss triggers a build. When disabled,
// misses return ErrModelUnavailable.
func WithTrainOnDemand(enabled bool) Option {
	return func(c *Cache) {
		c.onDemand = enabled
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}
