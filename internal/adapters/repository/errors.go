package repository

import "errors"

// Sentinel errors for the data-access layer.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrReadSource    = errors.New("read data source")
	ErrNoSource      = errors.New("no data source configured")
)
