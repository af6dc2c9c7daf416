package rating_test

import (
	"testing"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func shot(game, team int64, p float64, result model.Result) model.ValuedAction {
	return model.ValuedAction{
		Action: model.Action{GameID: game, TeamID: team, Type: model.TypeShot, Result: result, RawType: "Shot"},
		PScore: p,
	}
}

func pass(game, team int64, ok bool) model.ValuedAction {
	res := model.ResultFail
	if ok {
		res = model.ResultSuccess
	}
	return model.ValuedAction{Action: model.Action{GameID: game, TeamID: team, Type: model.TypePass, Result: res, RawType: "Pass"}}
}

func TestEstimate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC) }
	matches := []model.Match{
		{GameID: 1, HomeTeamID: 10, AwayTeamID: 20, Date: day(1)},
		{GameID: 2, HomeTeamID: 30, AwayTeamID: 10, Date: day(8)},
	}

	Convey("Given two games of team 10", t, func() {
		values := []model.ValuedAction{
			shot(1, 10, 0.5, model.ResultGoal),
			shot(2, 10, 0.4, model.ResultOffTarget),
			shot(2, 30, 0.2, model.ResultOnTarget),
			pass(2, 10, true),
			pass(2, 10, false),
			pass(2, 30, true),
		}
		r := rating.NewEstimator().Estimate(values, matches, 10)

		Convey("Then the latest game weighs 1 and the older one 0.85", func() {
			So(r.Games, ShouldEqual, 2)
			So(r.XGFor, ShouldAlmostEqual, (0.4+0.5*0.85)/2, 1e-12)
		})

		Convey("Then opponent shots feed expected goals against with the floor applied", func() {
			So(r.XGAgainst, ShouldAlmostEqual, 0.2, 1e-12)
			So(r.ShotsAgainst, ShouldEqual, 1)
		})

		Convey("Then counts and rates are reported", func() {
			So(r.Shots, ShouldEqual, 2)
			So(r.Goals, ShouldEqual, 1)
			So(r.ShotConversion, ShouldEqual, 0.5)
			So(r.PassSuccess, ShouldEqual, 0.5)
			So(r.OppPassSuccess, ShouldEqual, 1)
		})

		Convey("Then possession is the decayed action share", func() {
			// game 1 actions weigh 0.85, game 2 actions weigh 1.
			So(r.Possession, ShouldAlmostEqual, (0.85+3)/(0.85+5), 1e-12)
		})
	})

	Convey("Given a team without shots", t, func() {
		r := rating.NewEstimator().Estimate([]model.ValuedAction{pass(1, 10, true)}, matches, 10)

		Convey("Then both rates sit on the floor", func() {
			So(r.XGFor, ShouldEqual, 0.2)
			So(r.XGAgainst, ShouldEqual, 0.2)
		})
	})

	Convey("Given no actions at all", t, func() {
		r := rating.NewEstimator(rating.WithFloor(0.3)).Estimate(nil, matches, 10)

		Convey("Then the rate is well-defined", func() {
			So(r.Games, ShouldEqual, 0)
			So(r.XGFor, ShouldEqual, 0.3)
			So(r.Possession, ShouldEqual, 0)
		})
	})

	Convey("Given a goal annotation row", t, func() {
		note := shot(2, 10, 0.9, model.ResultGoal)
		note.RawType = "Goal"
		r := rating.NewEstimator().Estimate([]model.ValuedAction{shot(2, 10, 0.4, model.ResultGoal), note}, matches, 10)

		Convey("Then it is not counted as a second shot", func() {
			So(r.Shots, ShouldEqual, 1)
			So(r.XGFor, ShouldAlmostEqual, 0.4, 1e-12)
		})
	})
}

func TestRecentGames(t *testing.T) {
	Convey("Given a season", t, func() {
		day := func(d int) time.Time { return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC) }
		matches := []model.Match{
			{GameID: 1, HomeTeamID: 10, AwayTeamID: 20, Date: day(1)},
			{GameID: 2, HomeTeamID: 20, AwayTeamID: 30, Date: day(2)},
			{GameID: 3, HomeTeamID: 30, AwayTeamID: 10, Date: day(3)},
			{GameID: 4, HomeTeamID: 10, AwayTeamID: 30, Date: day(4)},
		}

		Convey("Then the team's latest games come first", func() {
			got := rating.RecentGames(matches, 10, 2)
			So(got, ShouldHaveLength, 2)
			So(got[0].GameID, ShouldEqual, 4)
			So(got[1].GameID, ShouldEqual, 3)
		})

		Convey("Then n <= 0 returns every game", func() {
			So(rating.RecentGames(matches, 10, 0), ShouldHaveLength, 3)
		})

		Convey("Then an unknown team has none", func() {
			So(rating.RecentGames(matches, 99, 5), ShouldBeEmpty)
		})
	})
}
