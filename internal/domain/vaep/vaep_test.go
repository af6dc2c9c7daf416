package vaep_test

import (
	"testing"

	"github.com/okian/matchday/internal/domain/features"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/vaep"
	. "github.com/smartystreets/goconvey/convey"
)

func act(game, id, team, player int64, t float64) model.Action {
	return model.Action{
		GameID: game, Period: 1, TimeSeconds: t, ActionID: id, TeamID: team, PlayerID: player,
		Type: model.TypePass, Result: model.ResultSuccess, BodyPart: "foot", Subtype: "Pass", RawType: "Pass",
		StartX: float64(10 * id), StartY: 34, EndX: float64(10*id + 5), EndY: 34,
	}
}

// xPredictor scores an action by where it starts.
type xPredictor struct{ b *features.Builder }

func (p xPredictor) Builder() *features.Builder { return p.b }

func (p xPredictor) Predict(rows []features.Row) ([]float64, []float64) {
	x := features.NumericColumns()
	col := 0
	for i, name := range x {
		if name == "a4_start_x" {
			col = i
		}
	}
	ps := make([]float64, len(rows))
	pc := make([]float64, len(rows))
	for i := range rows {
		ps[i] = rows[i].Numeric[col] / 1000
		pc[i] = 0.05 - rows[i].Numeric[col]/10000
	}
	return ps, pc
}

func TestAttribute(t *testing.T) {
	Convey("Given a sequence with a possession change", t, func() {
		actions := []model.Action{
			act(1, 1, 10, 101, 1),
			act(1, 2, 10, 102, 2),
			act(1, 3, 20, 201, 3),
			act(2, 4, 20, 201, 1),
		}
		ps := []float64{0.10, 0.25, 0.07, 0.30}
		pc := []float64{0.02, 0.01, 0.12, 0.04}
		values := vaep.Attribute(actions, ps, pc)

		Convey("Then the first action of a game is valued against zero", func() {
			So(values[0].Offensive, ShouldEqual, 0.10)
			So(values[0].Defensive, ShouldEqual, -0.02)
		})

		Convey("Then a retained possession differences the team's own probabilities", func() {
			So(values[1].Offensive, ShouldEqual, ps[1]-ps[0])
			So(values[1].Defensive, ShouldEqual, -(pc[1] - pc[0]))
		})

		Convey("Then a possession switch swaps the frame of reference", func() {
			So(values[2].Offensive, ShouldEqual, ps[2]-pc[1])
			So(values[2].Defensive, ShouldEqual, -(pc[2] - ps[1]))
			So(values[2].Total, ShouldEqual, values[2].Offensive+values[2].Defensive)
		})

		Convey("Then a new game resets the previous probabilities", func() {
			So(values[3].Offensive, ShouldEqual, 0.30)
		})

		Convey("Then repeated runs are bit-identical", func() {
			again := vaep.Attribute(actions, ps, pc)
			So(again, ShouldResemble, values)
		})
	})

	Convey("Given a lone shot that scores", t, func() {
		shot := act(1, 1, 10, 101, 1)
		shot.Type, shot.Result, shot.RawType = model.TypeShot, model.ResultGoal, "Shot"
		values := vaep.Attribute([]model.Action{shot}, []float64{0.42}, []float64{0.01})

		Convey("Then its offensive value is its scoring probability", func() {
			So(values[0].Offensive, ShouldEqual, 0.42)
		})
	})
}

func TestValue(t *testing.T) {
	Convey("Given unordered actions and a predictor", t, func() {
		actions := []model.Action{
			act(1, 3, 20, 201, 3),
			act(1, 1, 10, 101, 1),
			act(1, 2, 10, 102, 2),
		}
		values := vaep.Value(actions, xPredictor{b: features.NewBuilder()})

		Convey("Then values come back in chronological order", func() {
			So(values, ShouldHaveLength, 3)
			So(values[0].ActionID, ShouldEqual, 1)
			So(values[2].ActionID, ShouldEqual, 3)
		})

		Convey("Then the recurrence uses the predicted probabilities", func() {
			So(values[0].PScore, ShouldAlmostEqual, 0.01, 1e-12)
			So(values[1].Offensive, ShouldAlmostEqual, 0.02-0.01, 1e-12)
			So(values[2].Offensive, ShouldAlmostEqual, values[2].PScore-values[1].PConcede, 1e-12)
		})
	})

	Convey("Given no actions", t, func() {
		values := vaep.Value(nil, xPredictor{b: features.NewBuilder()})

		Convey("Then an empty, non-nil slice is returned", func() {
			So(values, ShouldNotBeNil)
			So(values, ShouldBeEmpty)
		})
	})
}

func valued(id, team, player int64, total, off float64) model.ValuedAction {
	return model.ValuedAction{
		Action:    model.Action{GameID: 1, ActionID: id, TeamID: team, PlayerID: player, PlayerName: "p"},
		Offensive: off,
		Defensive: total - off,
		Total:     total,
	}
}

func TestSummarize(t *testing.T) {
	Convey("Given valued actions of two teams", t, func() {
		values := []model.ValuedAction{
			valued(1, 10, 101, 0.05, 0.04),
			valued(2, 10, 102, 0.20, 0.01),
			valued(3, 10, 101, 0.05, 0.06),
			valued(4, 20, 201, 0.90, 0.90),
			valued(5, 10, 103, 0.20, 0.20),
		}
		s := vaep.Summarize(values, 10, 2)

		Convey("Then only the team's players are ranked", func() {
			So(s.Players, ShouldHaveLength, 3)
			So(s.TopPlayers, ShouldHaveLength, 2)
			So(s.TopPlayers[0].PlayerID, ShouldEqual, 102)
			So(s.TopPlayers[1].PlayerID, ShouldEqual, 103)
		})

		Convey("Then player sums and averages are kept", func() {
			p := s.Players[2]
			So(p.PlayerID, ShouldEqual, 101)
			So(p.Actions, ShouldEqual, 2)
			So(p.Total, ShouldAlmostEqual, 0.10, 1e-12)
			So(p.Average(), ShouldAlmostEqual, 0.05, 1e-12)
		})

		Convey("Then team totals sum the players", func() {
			So(s.Total, ShouldAlmostEqual, 0.50, 1e-12)
			So(s.Offensive, ShouldAlmostEqual, 0.31, 1e-12)
		})

		Convey("Then side rankings are sorted by their own value", func() {
			So(s.TopOffensive[0].PlayerID, ShouldEqual, 103)
			So(s.TopDefensive[0].PlayerID, ShouldEqual, 102)
		})

		Convey("Then top actions break ties by earliest action id", func() {
			So(s.TopActions[0].ActionID, ShouldEqual, 2)
			So(s.TopActions[1].ActionID, ShouldEqual, 5)
			So(s.TopActions[2].ActionID, ShouldEqual, 1)
		})
	})

	Convey("Given no valued actions", t, func() {
		s := vaep.Summarize(nil, 10, 5)

		Convey("Then the summary is zero-filled", func() {
			So(s.Total, ShouldEqual, 0)
			So(s.TopPlayers, ShouldBeEmpty)
			So(s.TopOffensive, ShouldNotBeNil)
			So(s.TopActions, ShouldBeEmpty)
		})
	})
}
