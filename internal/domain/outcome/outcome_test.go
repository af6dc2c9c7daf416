package outcome_test

import (
	"testing"

	"github.com/okian/matchday/internal/domain/outcome"
	"github.com/okian/matchday/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given a range of positive rates", t, func() {
		rates := []float64{0.2, 0.5, 0.95, 1.45, 2.3, 3.5}

		Convey("Then every table sums to one", func() {
			for _, lf := range rates {
				for _, la := range rates {
					tb := outcome.NewTable(lf, la, outcome.DefaultRho, outcome.DefaultMaxGoals)
					So(tb.Sum(), ShouldAlmostEqual, 1, 1e-9)
					w, d, l := tb.Outcome()
					So(w+d+l, ShouldAlmostEqual, 1, 1e-9)
				}
			}
		})

		Convey("Then the table covers goals 0..7 on both sides", func() {
			tb := outcome.NewTable(1.2, 1.1, outcome.DefaultRho, outcome.DefaultMaxGoals)
			So(tb.P, ShouldHaveLength, 8)
			So(tb.P[7], ShouldHaveLength, 8)
		})
	})

	Convey("Given lambda_against held fixed", t, func() {
		sim := outcome.NewSimulator()

		Convey("Then raising lambda_for never lowers the win probability", func() {
			prev := -1.0
			for lf := 0.2; lf <= 3.0; lf += 0.1 {
				w, _, _ := sim.Probabilities(lf, 1.2)
				So(w, ShouldBeGreaterThanOrEqualTo, prev-1e-12)
				prev = w
			}
		})
	})

	Convey("Given equal rates", t, func() {
		w, d, l := outcome.NewTable(1.3, 1.3, outcome.DefaultRho, outcome.DefaultMaxGoals).Outcome()

		Convey("Then win and lose are symmetric", func() {
			So(w, ShouldAlmostEqual, l, 1e-12)
			So(d, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given degenerate rates", t, func() {
		tb := outcome.NewTable(0, -1, outcome.DefaultRho, 0)

		Convey("Then the table is still a distribution", func() {
			So(tb.Sum(), ShouldAlmostEqual, 1, 1e-9)
			So(tb.P[0][0], ShouldAlmostEqual, 1, 1e-6)
		})
	})
}

func rate(team int64, xgFor, xgAgainst float64) rating.TeamRate {
	return rating.TeamRate{
		TeamID: team, Games: 5, XGFor: xgFor, XGAgainst: xgAgainst,
		PassSuccess: 0.7, OppPassSuccess: 0.7, Possession: 0.5, ShotConversion: 0.1,
	}
}

func TestPredict(t *testing.T) {
	Convey("Given team A (1.6/0.9) and team B (1.0/1.3)", t, func() {
		a := rate(1, 1.6, 0.9)
		b := rate(2, 1.0, 1.3)
		sim := outcome.NewSimulator()

		Convey("Then the rates cross-average to 1.45 and 0.95", func() {
			lf, la := outcome.Lambdas(a, b)
			So(lf, ShouldAlmostEqual, 1.45, 1e-12)
			So(la, ShouldAlmostEqual, 0.95, 1e-12)
		})

		Convey("Then A is favoured over B's perspective", func() {
			pa := sim.Predict(outcome.State{Our: a, Opponent: b})
			pb := sim.Predict(outcome.State{Our: b, Opponent: a})
			So(pa.Win, ShouldBeGreaterThan, pb.Win)
			So(pa.Win+pa.Draw+pa.Lose, ShouldAlmostEqual, 100, 0.1)
			So(pb.Win+pb.Draw+pb.Lose, ShouldAlmostEqual, 100, 0.1)
			So(pa.LambdaFor, ShouldEqual, 1.45)
		})

		Convey("Then all tactics beat any single rule", func() {
			state := outcome.State{Our: a, Opponent: b}
			all := sim.Case(state, outcome.KeyAllTactics)
			for _, r := range outcome.DefaultRules() {
				single := sim.Case(state, r.Key())
				So(all.After.Win, ShouldBeGreaterThanOrEqualTo, single.After.Win)
			}
		})
	})
}

func TestCase(t *testing.T) {
	sim := outcome.NewSimulator()
	state := outcome.State{Our: rate(1, 1.2, 1.1), Opponent: rate(2, 1.1, 1.2)}

	Convey("Given a single rule scenario", t, func() {
		sc := sim.Case(state, outcome.KeyPressHub)

		Convey("Then it is measured against the baseline", func() {
			So(sc.Key, ShouldEqual, outcome.KeyPressHub)
			So(sc.Before.TacticsApplied, ShouldBeEmpty)
			So(sc.After.TacticsApplied, ShouldHaveLength, 1)
			So(sc.After.Win, ShouldBeGreaterThan, sc.Before.Win)
			So(sc.WinChange, ShouldAlmostEqual, sc.After.Win-sc.Before.Win, 1e-9)
			So(sc.Level, ShouldNotBeBlank)
		})
	})

	Convey("Given an unknown scenario key", t, func() {
		sc := sim.Case(state, "park_the_bus")

		Convey("Then every rule is applied", func() {
			all := sim.Case(state, outcome.KeyAllTactics)
			So(sc.Key, ShouldEqual, outcome.KeyAllTactics)
			So(sc.After, ShouldResemble, all.After)
		})
	})

	Convey("Given an opponent that passes well", t, func() {
		strong := state
		strong.Opponent.PassSuccess = 0.8

		Convey("Then hub pressure cuts their rate harder", func() {
			So(outcome.PressHub{}.Apply(strong).Against, ShouldEqual, 0.88)
			So(outcome.PressHub{}.Apply(state).Against, ShouldEqual, 0.92)
			So(outcome.PressHub{}.Apply(state).For, ShouldEqual, 1.03)
		})
	})

	Convey("Given a clinical opponent", t, func() {
		clinical := state
		clinical.Opponent.ShotConversion = 0.2

		Convey("Then the set-piece counter cuts their rate harder", func() {
			So(outcome.CounterSetPiece{}.Key(), ShouldEqual, outcome.KeyCounterSetPiece)
			So(outcome.CounterSetPiece{}.Apply(clinical).Against, ShouldEqual, 0.92)
			So(outcome.CounterSetPiece{}.Apply(state).Against, ShouldEqual, 0.95)
			So(outcome.CounterSetPiece{}.Apply(state).For, ShouldEqual, 1.0)
		})
	})

	Convey("Given a team expecting little of the ball", t, func() {
		sitting := state
		sitting.Our.Possession = 0.4
		holding := state
		holding.Our.Possession = 0.55

		Convey("Then pattern exploitation lifts their rate more", func() {
			So(outcome.ExploitPattern{}.Key(), ShouldEqual, outcome.KeyExploitPattern)
			So(outcome.ExploitPattern{}.Apply(sitting).For, ShouldEqual, 1.08)
			So(outcome.ExploitPattern{}.Apply(holding).For, ShouldEqual, 1.06)
			So(outcome.ExploitPattern{}.Apply(holding).Against, ShouldEqual, 1.0)
		})
	})
}

func TestRecommend(t *testing.T) {
	Convey("Given win-probability changes", t, func() {
		cases := map[float64]string{
			12:   outcome.LevelStrong,
			10:   outcome.LevelStrong,
			9.9:  outcome.LevelRecommend,
			5:    outcome.LevelRecommend,
			4.9:  outcome.LevelMarginal,
			0:    outcome.LevelMarginal,
			-0.1: outcome.LevelCaution,
		}

		Convey("Then the thresholds are 10, 5 and 0 points", func() {
			for change, want := range cases {
				level, text := outcome.Recommend(change)
				So(level, ShouldEqual, want)
				So(text, ShouldNotBeBlank)
			}
		})
	})
}

func TestSuggestions(t *testing.T) {
	Convey("Given a dominant opponent", t, func() {
		state := outcome.State{Our: rate(1, 1, 1), Opponent: rate(2, 1, 1)}
		state.Opponent.PassSuccess = 0.8
		state.Opponent.ShotConversion = 0.2
		state.Our.Possession = 0.4
		got := outcome.Suggestions(state)

		Convey("Then three suggestions come back by priority", func() {
			So(got, ShouldHaveLength, 3)
			So(got[0].Priority, ShouldEqual, 1)
			So(got[0].Reason, ShouldContainSubstring, "80%")
			So(got[1].WinProbChange, ShouldEqual, "+3%p")
			So(got[2].Priority, ShouldEqual, 3)
		})
	})

	Convey("Given an even matchup", t, func() {
		got := outcome.Suggestions(outcome.State{Our: rate(1, 1, 1), Opponent: rate(2, 1, 1)})

		Convey("Then a balanced approach is suggested", func() {
			So(got, ShouldHaveLength, 1)
			So(got[0].WinProbChange, ShouldEqual, "±0%p")
		})
	})
}

func TestSimulate(t *testing.T) {
	Convey("Given two rated teams", t, func() {
		sim := outcome.NewSimulator()
		report := sim.Simulate(rate(1, 1.6, 0.9), rate(2, 1.0, 1.3))

		Convey("Then every scenario plus the combination is reported", func() {
			So(report.Scenarios, ShouldHaveLength, 4)
			So(report.Scenarios[3].Key, ShouldEqual, outcome.KeyAllTactics)
			So(report.OptimalPrediction.TacticsApplied, ShouldHaveLength, 3)
		})

		Convey("Then the improvement is the optimal minus the base win", func() {
			So(report.WinImprovement, ShouldAlmostEqual, report.OptimalPrediction.Win-report.BasePrediction.Win, 1e-9)
			So(report.WinImprovement, ShouldBeGreaterThanOrEqualTo, 0)
			So(report.TacticalSuggestions, ShouldNotBeEmpty)
		})

		Convey("Then repeated runs agree", func() {
			So(sim.Simulate(rate(1, 1.6, 0.9), rate(2, 1.0, 1.3)), ShouldResemble, report)
		})
	})
}
