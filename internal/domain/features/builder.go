// Package features builds leakage-safe per-action feature rows and
// look-ahead labels from a normalized action stream.
package features

import (
	"math"
	"sort"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/spadl"
)

const (
	periodSeconds = 2700.0
	matchSeconds  = 5400.0
)

// Row is one feature vector plus its labels and identifying keys.
type Row struct {
	GameID   int64
	ActionID int64
	TeamID   int64
	PlayerID int64

	Categorical [NumCategorical]string
	Numeric     [NumNumeric]float64

	Scores   bool // a goal for TeamID within the next K actions
	Concedes bool // a goal against TeamID within the next K actions
}

// Set is the output of Build. Actions are in the same chronological order as Rows.
type Set struct {
	Rows    []Row
	Actions []model.Action
	// DedupMismatches counts shot/goal pairs by different players that the
	// same-player policy kept as two goals.
	DedupMismatches int
}

// Builder turns actions into feature rows.
type Builder struct {
	lookahead int
	dedup     DedupPolicy
}

// NewBuilder creates a Builder with K=10 and the same-player dedup policy.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{lookahead: defaultLookahead, dedup: DedupSamePlayer}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Lookahead returns K.
func (b *Builder) Lookahead() int { return b.lookahead }

// Build sorts actions chronologically within each game and emits one row per
// action. Windows, context and labels never cross a game boundary.
func (b *Builder) Build(actions []model.Action) *Set {
	sorted := SortActions(actions)
	set := &Set{
		Rows:    make([]Row, 0, len(sorted)),
		Actions: sorted,
	}
	for _, game := range splitGames(sorted) {
		marks, mismatches := AttributeGoals(game, b.dedup)
		set.DedupMismatches += mismatches
		set.Rows = append(set.Rows, b.buildGame(game, marks)...)
	}
	return set
}

func (b *Builder) buildGame(game []model.Action, marks []GoalMark) []Row {
	n := len(game)
	slots := make([]slot, n)
	for i := range game {
		slots[i] = describe(&game[i])
	}

	fold := newGameFold(game)
	rows := make([]Row, n)
	for i := range game {
		a := &game[i]
		ctx := fold.step(a, marks[i])

		row := &rows[i]
		row.GameID, row.ActionID, row.TeamID, row.PlayerID = a.GameID, a.ActionID, a.TeamID, a.PlayerID

		for s := 0; s < WindowSize; s++ {
			idx := i - (WindowSize - 1) + s
			src := noneDescriptor
			if idx >= 0 {
				src = slots[idx]
			}
			copy(row.Categorical[s*catPerSlot:], src.cat[:])
			copy(row.Numeric[s*numPerSlot:], src.num[:])
		}
		copy(row.Numeric[WindowSize*numPerSlot:], ctx[:])

		row.Scores, row.Concedes = label(game, marks, i, b.lookahead)
	}
	return rows
}

// label scans actions i+1..i+K of the same game.
func label(game []model.Action, marks []GoalMark, i, k int) (scores, concedes bool) {
	team := game[i].TeamID
	end := min(i+k, len(game)-1)
	for j := i + 1; j <= end; j++ {
		if !marks[j].Counted {
			continue
		}
		if marks[j].TeamID == team {
			scores = true
		} else {
			concedes = true
		}
		if scores && concedes {
			break
		}
	}
	return scores, concedes
}

type slot struct {
	cat [catPerSlot]string
	num [numPerSlot]float64
}

var noneDescriptor = slot{cat: [catPerSlot]string{noneSlot, noneSlot, noneSlot, noneSlot}} //nolint:gochecknoglobals // zero window slot

func describe(a *model.Action) slot {
	period := float64(max(a.Period, 1))
	timeAbs := a.TimeSeconds + (period-1)*periodSeconds
	return slot{
		cat: [catPerSlot]string{string(a.Type), string(a.Result), a.BodyPart, a.Subtype},
		num: [numPerSlot]float64{
			a.StartX, a.StartY, a.EndX, a.EndY, a.DX, a.DY,
			math.Hypot(a.DX, a.DY),
			spadl.GoalDistance(a.StartX, a.StartY),
			spadl.GoalDistance(a.EndX, a.EndY),
			spadl.GoalAngle(a.EndX, a.EndY),
			timeAbs / matchSeconds,
			period,
		},
	}
}

// SortActions returns a copy ordered by game, period, time and action id.
func SortActions(actions []model.Action) []model.Action {
	out := make([]model.Action, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.TimeSeconds != b.TimeSeconds {
			return a.TimeSeconds < b.TimeSeconds
		}
		return a.ActionID < b.ActionID
	})
	return out
}

// splitGames cuts a sorted slice into per-game sub-slices.
func splitGames(sorted []model.Action) [][]model.Action {
	var games [][]model.Action
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].GameID != sorted[start].GameID {
			games = append(games, sorted[start:i])
			start = i
		}
	}
	return games
}
