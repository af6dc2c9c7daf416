// Package training fits the scoring and conceding classifiers on historical
// actions with a chronological, game-level train/validation split.
package training

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/domain/features"
	"github.com/okian/matchday/internal/domain/learn"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Trainer builds Artifacts. It holds no per-run state and is safe for concurrent use.
type Trainer struct {
	builder     *features.Builder
	split       float64
	isotonicMin int
	fitOpts     []learn.FitOption
	logger      logger.Logger
	now         func() time.Time
}

// NewTrainer creates a Trainer with an 80/20 split and isotonic calibration
// from 50 validation positives.
func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		builder:     features.NewBuilder(),
		split:       defaultTrainSplit,
		isotonicMin: defaultIsotonicMinPositives,
		logger:      logger.Get().Named("trainer"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Builder returns the feature builder used for training.
func (t *Trainer) Builder() *features.Builder { return t.builder }

// Train fits both classifiers on normalized, side-flipped actions. matches
// supplies dates for the cutoff and the split. It returns
// ErrInsufficientData when no feature rows survive filtering.
func (t *Trainer) Train(ctx context.Context, actions []model.Action, matches []model.Match, opts Options) (*Artifact, error) {
	start := t.now()
	opts = opts.Normalized()
	dates := matchDates(matches)

	selected, relaxed := selectActions(actions, matches, opts)
	if relaxed {
		t.logger.Warn(ctx, "cutoff matched no games, training without it",
			logger.String("cutoff", opts.Cutoff.Format(time.RFC3339)),
			logger.Int("excluded", len(opts.Exclude)))
	}

	set := t.builder.Build(selected)
	if len(set.Rows) == 0 {
		return nil, fmt.Errorf("build features for %q: %w", opts.Key(), ErrInsufficientData)
	}
	if set.DedupMismatches > 0 {
		t.logger.Warn(ctx, "shot/goal pairs credited to different players kept as separate goals",
			logger.Int("pairs", set.DedupMismatches))
		metrics.RecordDataIntegrityWarning("goal_dedup_mismatch", set.DedupMismatches)
	}

	part := splitRows(set.Rows, dates, t.split)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("train %q: %w", opts.Key(), err)
	}

	enc := learn.FitEncoder(part.train)
	xTrain := enc.TransformAll(part.train)
	xVal := enc.TransformAll(part.val)
	yScoreTrain, yConcedeTrain := labels(part.train)
	yScoreVal, yConcedeVal := labels(part.val)

	scoring := learn.FitCalibrated(xTrain, yScoreTrain, xVal, yScoreVal, enc.CategoricalWidth(), t.isotonicMin, t.fitOpts...)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("train %q: %w", opts.Key(), err)
	}
	conceding := learn.FitCalibrated(xTrain, yConcedeTrain, xVal, yConcedeVal, enc.CategoricalWidth(), t.isotonicMin, t.fitOpts...)

	art := &Artifact{
		ID:              uuid.NewString(),
		Key:             opts.Key(),
		Options:         opts,
		TrainedAt:       t.now(),
		CutoffRelaxed:   relaxed,
		Columns:         features.Columns(),
		Scoring:         scoring,
		Conceding:       conceding,
		TrainGames:      part.trainGames,
		ValidationGames: part.valGames,
		TrainRows:       len(part.train),
		ValidationRows:  len(part.val),
		encoder:         enc,
		builder:         t.builder,
	}
	art.Metrics = newMetrics(
		learn.Evaluate(scoring.PredictAll(xVal), yScoreVal),
		learn.Evaluate(conceding.PredictAll(xVal), yConcedeVal),
	)

	took := t.now().Sub(start)
	scoreMethod, concedeMethod := art.Methods()
	t.logger.Info(ctx, "trained action-value models",
		logger.String("id", art.ID),
		logger.String("key", art.Key),
		logger.Int("train_rows", art.TrainRows),
		logger.Int("validation_rows", art.ValidationRows),
		logger.Int("train_games", len(art.TrainGames)),
		logger.Int("validation_games", len(art.ValidationGames)),
		logger.String("score_calibration", scoreMethod),
		logger.String("concede_calibration", concedeMethod),
		logger.Float64("score_auc", art.Metrics.ScoreAUC),
		logger.Float64("concede_auc", art.Metrics.ConcedeAUC),
		logger.Bool("cutoff_relaxed", relaxed),
		logger.Duration("took", took))
	metrics.RecordTrainingDuration(float64(took.Milliseconds()))
	metrics.UpdateTrainingRows(art.TrainRows)
	metrics.UpdateValidationAUC("scoring", art.Metrics.ScoreAUC)
	metrics.UpdateValidationAUC("conceding", art.Metrics.ConcedeAUC)
	return art, nil
}

// selectActions applies the cutoff and exclusions. Without either, every
// action is used. With a filter, only games in the match table that pass it
// survive; a cutoff that leaves nothing is dropped and reported as relaxed.
func selectActions(actions []model.Action, matches []model.Match, opts Options) ([]model.Action, bool) {
	if opts.Cutoff.IsZero() && len(opts.Exclude) == 0 {
		return actions, false
	}
	excluded := make(map[int64]struct{}, len(opts.Exclude))
	for _, id := range opts.Exclude {
		excluded[id] = struct{}{}
	}
	allowed := func(cutoff time.Time) map[int64]struct{} {
		out := make(map[int64]struct{})
		for _, m := range matches {
			if _, skip := excluded[m.GameID]; skip {
				continue
			}
			if !cutoff.IsZero() && (m.Date.IsZero() || m.Date.After(cutoff)) {
				continue
			}
			out[m.GameID] = struct{}{}
		}
		return out
	}

	games := allowed(opts.Cutoff)
	relaxed := false
	if len(games) == 0 && !opts.Cutoff.IsZero() {
		games = allowed(time.Time{})
		relaxed = true
	}
	out := make([]model.Action, 0, len(actions))
	for i := range actions {
		if _, ok := games[actions[i].GameID]; ok {
			out = append(out, actions[i])
		}
	}
	return out, relaxed
}

type partition struct {
	train, val           []features.Row
	trainGames, valGames []int64
}

// splitRows orders games by date when at least two are dated (undated games
// are then left out), by id when there are at least two games, and falls back
// to a row split for a single game.
func splitRows(rows []features.Row, dates map[int64]time.Time, split float64) partition {
	seen := make(map[int64]struct{})
	var all, dated []int64
	for i := range rows {
		id := rows[i].GameID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		all = append(all, id)
		if d, ok := dates[id]; ok && !d.IsZero() {
			dated = append(dated, id)
		}
	}

	var order []int64
	switch {
	case len(dated) >= 2:
		sort.SliceStable(dated, func(i, j int) bool {
			di, dj := dates[dated[i]], dates[dated[j]]
			if !di.Equal(dj) {
				return di.Before(dj)
			}
			return dated[i] < dated[j]
		})
		order = dated
	case len(all) >= 2:
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		order = all
	}

	if order == nil {
		idx := splitIndex(len(rows), split)
		p := partition{train: rows[:idx], val: rows[idx:]}
		if len(all) == 1 {
			p.trainGames = all
			p.valGames = all
		}
		return p
	}

	idx := splitIndex(len(order), split)
	p := partition{trainGames: order[:idx], valGames: order[idx:]}
	inTrain := make(map[int64]bool, len(order))
	for i, id := range order {
		inTrain[id] = i < idx
	}
	for i := range rows {
		train, ok := inTrain[rows[i].GameID]
		switch {
		case !ok:
		case train:
			p.train = append(p.train, rows[i])
		default:
			p.val = append(p.val, rows[i])
		}
	}
	return p
}

// splitIndex is int(n*split) clamped to [1, n-1].
func splitIndex(n int, split float64) int {
	idx := int(float64(n) * split)
	return max(1, min(n-1, idx))
}

func labels(rows []features.Row) (scores, concedes []bool) {
	scores = make([]bool, len(rows))
	concedes = make([]bool, len(rows))
	for i := range rows {
		scores[i] = rows[i].Scores
		concedes[i] = rows[i].Concedes
	}
	return scores, concedes
}

func matchDates(matches []model.Match) map[int64]time.Time {
	out := make(map[int64]time.Time, len(matches))
	for _, m := range matches {
		out[m.GameID] = m.Date
	}
	return out
}
