package synth

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/pkg/logger"
)

// File names written by WriteLeague.
const (
	EventsFile  = "raw_data.csv"
	MatchesFile = "match_info.csv"

	directoryPermission = 0750
)

// WriteLeague writes the league's event and match tables into dir and
// returns their paths.
func WriteLeague(ctx context.Context, dir string, league *League) (eventsPath, matchesPath string, err error) {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return "", "", fmt.Errorf("create %s: %w", dir, err)
	}
	eventsPath = filepath.Join(dir, EventsFile)
	matchesPath = filepath.Join(dir, MatchesFile)

	if err := writeFile(eventsPath, func(w io.Writer) error {
		return repository.WriteEvents(w, league.Events)
	}); err != nil {
		return "", "", err
	}
	if err := writeFile(matchesPath, func(w io.Writer) error {
		return repository.WriteMatches(w, league.Matches)
	}); err != nil {
		return "", "", err
	}

	logger.Get().Info(ctx, "league written",
		logger.String("events", eventsPath),
		logger.String("matches", matchesPath),
		logger.Int("rows", len(league.Events)),
		logger.Int("games", len(league.Matches)))
	return eventsPath, matchesPath, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path chosen by the operator
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
