// Package vaep turns per-action scoring/conceding probabilities into
// possession-aware action values and aggregates them per player and team.
package vaep

import (
	"github.com/okian/matchday/internal/domain/features"
	"github.com/okian/matchday/internal/domain/model"
)

// Predictor scores feature rows. *training.Artifact implements it.
type Predictor interface {
	Builder() *features.Builder
	Predict(rows []features.Row) (pScore, pConcede []float64)
}

// Value builds features for actions with the predictor's own builder, scores
// them and applies the value recurrence. Output is in chronological order.
func Value(actions []model.Action, p Predictor) []model.ValuedAction {
	if len(actions) == 0 {
		return []model.ValuedAction{}
	}
	set := p.Builder().Build(actions)
	pScore, pConcede := p.Predict(set.Rows)
	return Attribute(set.Actions, pScore, pConcede)
}

// Attribute walks chronologically sorted actions once per game. The previous
// probabilities are zero at the start of a game, reused as-is while the same
// team keeps acting, and swapped (score <-> concede) on a change of team.
func Attribute(actions []model.Action, pScore, pConcede []float64) []model.ValuedAction {
	out := make([]model.ValuedAction, len(actions))
	var (
		started     bool
		prevGame    int64
		prevTeam    int64
		prevScore   float64
		prevConcede float64
		baseScore   float64
		baseConcede float64
	)
	for i := range actions {
		a := actions[i]
		if !started || a.GameID != prevGame {
			baseScore, baseConcede = 0, 0
		} else if a.TeamID == prevTeam {
			baseScore, baseConcede = prevScore, prevConcede
		} else {
			baseScore, baseConcede = prevConcede, prevScore
		}

		off := pScore[i] - baseScore
		def := -(pConcede[i] - baseConcede)
		out[i] = model.ValuedAction{
			Action:    a,
			PScore:    pScore[i],
			PConcede:  pConcede[i],
			Offensive: off,
			Defensive: def,
			Total:     off + def,
		}

		started = true
		prevGame, prevTeam = a.GameID, a.TeamID
		prevScore, prevConcede = pScore[i], pConcede[i]
	}
	return out
}
