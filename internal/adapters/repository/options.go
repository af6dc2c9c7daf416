package repository

import "github.com/okian/matchday/pkg/logger"

// Option configures a store.
type Option func(*base)

// WithLogger sets the logger used for data-quality reports.
func WithLogger(l logger.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}
