// Package rating estimates per-match expected-goals rates for a team from its
// recent valued actions, discounting older matches exponentially.
package rating

import (
	"math"
	"sort"

	"github.com/okian/matchday/internal/domain/model"
)

// Default estimator settings.
const (
	defaultDecay = 0.85
	defaultFloor = 0.2
)

// TeamRate summarizes a team's recent matches.
type TeamRate struct {
	TeamID int64
	Games  int

	// Decayed expected goals per match, never below the floor.
	XGFor     float64
	XGAgainst float64

	Shots             int
	ShotsAgainst      int
	Goals             int
	GoalsAgainst      int
	ShotConversion    float64
	OppShotConversion float64

	PassSuccess    float64
	OppPassSuccess float64
	// Possession is the decayed share of all actions performed by the team.
	Possession float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithDecay sets the per-rank recency factor in (0, 1].
func WithDecay(decay float64) Option {
	return func(e *Estimator) {
		if decay > 0 && decay <= 1 {
			e.decay = decay
		}
	}
}

// WithFloor sets the minimum expected goals per match.
func WithFloor(floor float64) Option {
	return func(e *Estimator) {
		if floor > 0 {
			e.floor = floor
		}
	}
}

// Estimator computes TeamRate values.
type Estimator struct {
	decay float64
	floor float64
}

// NewEstimator creates an Estimator with decay 0.85 and a 0.2 floor.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{decay: defaultDecay, floor: defaultFloor}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate rates teamID over the games present in values. Games are ranked
// most recent first by match date (then by game id); rank r weighs decay^r.
// Shots taken by the team add p_score*weight to expected goals for, shots by
// the opponent to expected goals against. Vendor "Goal" annotation rows are
// not counted as shots.
func (e *Estimator) Estimate(values []model.ValuedAction, matches []model.Match, teamID int64) TeamRate {
	weights := e.gameWeights(values, matches)
	r := TeamRate{TeamID: teamID, Games: len(weights)}

	var xgFor, xgAgainst, ownWeight, allWeight float64
	var passes, passesOK, oppPasses, oppPassesOK int
	for i := range values {
		v := &values[i]
		w := weights[v.GameID]
		allWeight += w
		own := v.TeamID == teamID
		if own {
			ownWeight += w
		}

		switch {
		case v.Type == model.TypeShot && v.RawType != "Goal":
			goal := v.Result == model.ResultGoal
			if own {
				xgFor += v.PScore * w
				r.Shots++
				if goal {
					r.Goals++
				}
			} else {
				xgAgainst += v.PScore * w
				r.ShotsAgainst++
				if goal {
					r.GoalsAgainst++
				}
			}
		case v.Type == model.TypePass:
			ok := v.Result == model.ResultSuccess
			if own {
				passes++
				if ok {
					passesOK++
				}
			} else {
				oppPasses++
				if ok {
					oppPassesOK++
				}
			}
		}
	}

	games := float64(max(r.Games, 1))
	r.XGFor = math.Max(e.floor, xgFor/games)
	r.XGAgainst = math.Max(e.floor, xgAgainst/games)
	r.ShotConversion = ratio(r.Goals, r.Shots)
	r.OppShotConversion = ratio(r.GoalsAgainst, r.ShotsAgainst)
	r.PassSuccess = ratio(passesOK, passes)
	r.OppPassSuccess = ratio(oppPassesOK, oppPasses)
	if allWeight > 0 {
		r.Possession = ownWeight / allWeight
	}
	return r
}

func (e *Estimator) gameWeights(values []model.ValuedAction, matches []model.Match) map[int64]float64 {
	dates := make(map[int64]model.Match, len(matches))
	for _, m := range matches {
		dates[m.GameID] = m
	}
	seen := make(map[int64]struct{})
	var games []int64
	for i := range values {
		if _, ok := seen[values[i].GameID]; !ok {
			seen[values[i].GameID] = struct{}{}
			games = append(games, values[i].GameID)
		}
	}
	sort.Slice(games, func(i, j int) bool {
		di, dj := dates[games[i]].Date, dates[games[j]].Date
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return games[i] > games[j]
	})
	weights := make(map[int64]float64, len(games))
	for rank, id := range games {
		weights[id] = math.Pow(e.decay, float64(rank))
	}
	return weights
}

// RecentGames returns up to n matches teamID played, most recent first.
// n <= 0 returns all of them.
func RecentGames(matches []model.Match, teamID int64, n int) []model.Match {
	var out []model.Match
	for _, m := range matches {
		if m.HomeTeamID == teamID || m.AwayTeamID == teamID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].GameID > out[j].GameID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func ratio(num, den int) float64 {
	return float64(num) / float64(max(den, 1))
}
