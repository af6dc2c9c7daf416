package service

import (
	"errors"
	"fmt"

	"github.com/okian/matchday/internal/domain/training"
)

var (
	// ErrNoTeamData means the team has no games in the match table. It wraps
	// training.ErrInsufficientData so callers can treat both as "no data".
	ErrNoTeamData = fmt.Errorf("no games for team: %w", training.ErrInsufficientData)

	// ErrNotStarted is returned by operations called before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
)
