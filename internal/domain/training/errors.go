package training

import "errors"

// Sentinel kinds for training errors.
var (
	// ErrInsufficientData means no feature rows could be built. Callers
	// surface it as "no data" and do not retry.
	ErrInsufficientData = errors.New("insufficient data")
)
