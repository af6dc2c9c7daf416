package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/matchday/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRound(t *testing.T) {
	Convey("Given values to round", t, func() {
		Convey("Then halves round away from zero", func() {
			So(types.Round(0.12345, 4), ShouldEqual, 0.1235)
			So(types.Round(-0.0005, 3), ShouldEqual, -0.001)
			So(types.Round(1.2344, 3), ShouldEqual, 1.234)
		})

		Convey("Then fractions become one-decimal percentages", func() {
			So(types.Percent(0.45678), ShouldEqual, 45.7)
			So(types.Percent(0), ShouldEqual, 0)
			So(types.Percent(1), ShouldEqual, 100)
		})
	})
}

func TestJSONShape(t *testing.T) {
	Convey("Given a player row", t, func() {
		row := types.PlayerValue{PlayerID: 7, PlayerName: "Kim", TotalVAEP: 0.123, Actions: 4, AvgVAEP: 0.0308}
		raw, err := json.Marshal(row)
		So(err, ShouldBeNil)

		Convey("Then it uses the snake_case field names", func() {
			var m map[string]any
			So(json.Unmarshal(raw, &m), ShouldBeNil)
			So(m, ShouldContainKey, "total_vaep")
			So(m, ShouldContainKey, "avg_vaep")
			So(m["player_name"], ShouldEqual, "Kim")
		})
	})

	Convey("Given an empty summary", t, func() {
		raw, err := json.Marshal(types.TeamSummary{Methodology: "VAEP"})
		So(err, ShouldBeNil)

		Convey("Then metrics keep their names", func() {
			So(string(raw), ShouldContainSubstring, `"score_auc":0`)
			So(string(raw), ShouldContainSubstring, `"methodology":"VAEP"`)
		})
	})
}
