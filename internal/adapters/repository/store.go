// Package repository is the data-access layer: it loads raw event and match
// tables, normalizes them once and publishes immutable datasets stamped with
// a freshness token.
package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/spadl"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// WarnNonMonotonicGame counts games whose rows are not in chronological order.
const WarnNonMonotonicGame = "non_monotonic_game"

// Dataset is an immutable, normalized snapshot of the source tables.
// Actions are side-flipped so every team attacks towards x=105.
type Dataset struct {
	Token       string
	Actions     []model.Action
	Matches     []model.Match
	Report      *spadl.Report
	SkippedRows int
	LoadedAt    time.Time

	matches map[int64]model.Match
}

// Match looks up a game of the match table.
func (d *Dataset) Match(gameID int64) (model.Match, bool) {
	m, ok := d.matches[gameID]
	return m, ok
}

// GameActions returns the actions of the given games in dataset order.
func (d *Dataset) GameActions(games []int64) []model.Action {
	want := make(map[int64]struct{}, len(games))
	for _, g := range games {
		want[g] = struct{}{}
	}
	var out []model.Action
	for i := range d.Actions {
		if _, ok := want[d.Actions[i].GameID]; ok {
			out = append(out, d.Actions[i])
		}
	}
	return out
}

// Store provides the current dataset.
type Store interface {
	// Current returns the latest published dataset; never nil.
	Current() *Dataset
	// Refresh reloads the source. changed reports whether a new dataset, and
	// therefore a new token, was published.
	Refresh(ctx context.Context) (ds *Dataset, changed bool, err error)
}

type base struct {
	logger  logger.Logger
	current atomic.Pointer[Dataset]
}

func (b *base) init(opts []Option) {
	b.logger = logger.Get().Named("repository")
	for _, opt := range opts {
		opt(b)
	}
	b.current.Store(&Dataset{
		Token:   uuid.NewString(),
		Report:  spadl.NewReport(),
		matches: map[int64]model.Match{},
	})
}

// Current returns the latest published dataset.
func (b *base) Current() *Dataset {
	return b.current.Load()
}

func (b *base) publish(ctx context.Context, events []model.RawEvent, matches []model.Match, skipped int) *Dataset {
	actions, report := spadl.Normalize(events)
	idx := spadl.IndexMatches(matches)
	actions, unknown := spadl.FlipSides(actions, idx)
	report.Add(spadl.WarnUnknownSide, unknown)
	report.Add(WarnNonMonotonicGame, nonMonotonicGames(actions))

	ds := &Dataset{
		Token:       uuid.NewString(),
		Actions:     actions,
		Matches:     matches,
		Report:      report,
		SkippedRows: skipped,
		LoadedAt:    time.Now().UTC(),
		matches:     idx,
	}
	b.current.Store(ds)

	metrics.UpdateDatasetSize(len(actions), len(matches))
	for _, kind := range report.Kinds() {
		n := report.Counts[kind]
		metrics.RecordDataIntegrityWarning(kind, n)
		b.logger.Warn(ctx, "data integrity warning",
			logger.String("kind", kind),
			logger.Int("count", n))
	}
	b.logger.Info(ctx, "dataset published",
		logger.String("token", ds.Token),
		logger.Int("actions", len(actions)),
		logger.Int("matches", len(matches)),
		logger.Int("dropped_annotations", report.Dropped),
		logger.Int("skipped_rows", skipped))
	return ds
}

// nonMonotonicGames counts games whose rows go back in (period, time).
func nonMonotonicGames(actions []model.Action) int {
	type pos struct {
		period int
		t      float64
	}
	last := make(map[int64]pos)
	bad := make(map[int64]struct{})
	for i := range actions {
		a := &actions[i]
		cur := pos{a.Period, a.TimeSeconds}
		if prev, ok := last[a.GameID]; ok {
			if cur.period < prev.period || (cur.period == prev.period && cur.t < prev.t) {
				bad[a.GameID] = struct{}{}
			}
		}
		last[a.GameID] = cur
	}
	return len(bad)
}

// MemoryStore serves tables handed to it in memory.
type MemoryStore struct {
	base
}

// NewMemoryStore normalizes and publishes the given tables.
func NewMemoryStore(ctx context.Context, events []model.RawEvent, matches []model.Match, opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	s.init(opts)
	s.publish(ctx, events, matches, 0)
	return s
}

// Replace publishes new tables under a new token.
func (s *MemoryStore) Replace(ctx context.Context, events []model.RawEvent, matches []model.Match) *Dataset {
	return s.publish(ctx, events, matches, 0)
}

// Refresh is a no-op for in-memory tables.
func (s *MemoryStore) Refresh(context.Context) (*Dataset, bool, error) {
	return s.Current(), false, nil
}
