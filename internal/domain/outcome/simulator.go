package outcome

import (
	"github.com/okian/matchday/internal/domain/rating"
	"github.com/okian/matchday/internal/domain/types"
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithRho sets the correlation factor of the shared goal component.
func WithRho(rho float64) Option {
	return func(s *Simulator) {
		if rho >= 0 {
			s.rho = rho
		}
	}
}

// WithMaxGoals sets the largest goal count kept in the table.
func WithMaxGoals(n int) Option {
	return func(s *Simulator) {
		if n >= 1 {
			s.maxGoals = n
		}
	}
}

// WithRules replaces the tactic rules.
func WithRules(rules ...Rule) Option {
	return func(s *Simulator) {
		s.rules = rules
	}
}

// Simulator evaluates matchups and tactics. It holds no mutable state and
// is safe for concurrent use.
type Simulator struct {
	rho      float64
	maxGoals int
	rules    []Rule
	index    map[string]Rule
}

// NewSimulator creates a Simulator with rho 0.08, goals 0..7 and the
// default rules.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{rho: DefaultRho, maxGoals: DefaultMaxGoals, rules: DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	s.index = make(map[string]Rule, len(s.rules))
	for _, r := range s.rules {
		s.index[r.Key()] = r
	}
	return s
}

// Keys returns the rule keys in evaluation order followed by all_tactics.
func (s *Simulator) Keys() []string {
	keys := make([]string, 0, len(s.rules)+1)
	for _, r := range s.rules {
		keys = append(keys, r.Key())
	}
	return append(keys, KeyAllTactics)
}

// Lambdas cross-averages two team rates into the expected goals of our team
// (lambdaFor) and of the opponent (lambdaAgainst).
func Lambdas(our, opponent rating.TeamRate) (lambdaFor, lambdaAgainst float64) {
	return (our.XGFor + opponent.XGAgainst) / 2, (opponent.XGFor + our.XGAgainst) / 2
}

// Probabilities returns win, draw and lose fractions for the given rates.
func (s *Simulator) Probabilities(lambdaFor, lambdaAgainst float64) (win, draw, lose float64) {
	return NewTable(lambdaFor, lambdaAgainst, s.rho, s.maxGoals).Outcome()
}

// Predict returns the prediction for a matchup with the given rules applied
// in sequence.
func (s *Simulator) Predict(state State, rules ...Rule) types.Prediction {
	lf, la := Lambdas(state.Our, state.Opponent)
	applied := make([]types.TacticDetail, 0, len(rules))
	for _, r := range rules {
		e := r.Apply(state)
		lf *= e.For
		la *= e.Against
		applied = append(applied, types.TacticDetail{
			Key:         r.Key(),
			Name:        e.Name,
			Effect:      e.Label,
			Description: e.Description,
		})
	}
	return s.prediction(lf, la, applied)
}

func (s *Simulator) prediction(lf, la float64, applied []types.TacticDetail) types.Prediction {
	w, d, _ := s.Probabilities(lf, la)
	win := types.Percent(w)
	draw := types.Percent(d)
	return types.Prediction{
		Win:            win,
		Draw:           draw,
		Lose:           types.Round(100-win-draw, 1),
		LambdaFor:      types.Round(lf, 3),
		LambdaAgainst:  types.Round(la, 3),
		TacticsApplied: applied,
	}
}

// Case evaluates one scenario against the unmodified baseline. Unknown keys
// evaluate every rule, as all_tactics does.
func (s *Simulator) Case(state State, key string) types.Scenario {
	before := s.Predict(state)

	rules := s.rules
	name, summary := "All tactics applied", "Every analysis-based tactic applied together"
	if r, ok := s.index[key]; ok {
		rules = []Rule{r}
		e := r.Apply(state)
		name, summary = e.Scenario, e.Summary
	} else {
		key = KeyAllTactics
	}

	after := s.Predict(state, rules...)
	change := types.Round(after.Win-before.Win, 1)
	level, text := Recommend(change)
	return types.Scenario{
		Key:            key,
		Scenario:       name,
		Description:    summary,
		Before:         before,
		After:          after,
		WinChange:      change,
		Level:          level,
		Recommendation: text,
	}
}

// Simulate produces the pre-match report: baseline, every rule combined,
// each scenario and the suggestions.
func (s *Simulator) Simulate(our, opponent rating.TeamRate) types.Simulation {
	state := State{Our: our, Opponent: opponent}
	base := s.Predict(state)
	optimal := s.Predict(state, s.rules...)

	keys := s.Keys()
	scenarios := make([]types.Scenario, 0, len(keys))
	for _, k := range keys {
		scenarios = append(scenarios, s.Case(state, k))
	}

	return types.Simulation{
		OurTeamID:           our.TeamID,
		OpponentID:          opponent.TeamID,
		BasePrediction:      base,
		OptimalPrediction:   optimal,
		WinImprovement:      types.Round(optimal.Win-base.Win, 1),
		TacticalSuggestions: Suggestions(state),
		Scenarios:           scenarios,
	}
}
