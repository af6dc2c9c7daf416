package modelcache

import "errors"

// Sentinel kinds for cache errors.
var (
	// ErrModelUnavailable means no artifact exists for the requested key and
	// the cache is not allowed to build one.
	ErrModelUnavailable = errors.New("model unavailable")
)
