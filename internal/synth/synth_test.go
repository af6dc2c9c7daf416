package synth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/internal/synth"
	"github.com/okian/matchday/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestGenerate(t *testing.T) {
	Convey("Given a four team double round robin", t, func() {
		league := synth.Generate(synth.WithTeams(4), synth.WithRounds(2), synth.WithActionsPerGame(80))

		Convey("Then every pairing is played twice", func() {
			So(league.Teams, ShouldHaveLength, 4)
			So(league.Matches, ShouldHaveLength, 12)
		})

		Convey("Then games are dated in order", func() {
			for i := 1; i < len(league.Matches); i++ {
				So(league.Matches[i].Date.After(league.Matches[i-1].Date), ShouldBeTrue)
			}
		})

		Convey("Then every row belongs to a scheduled game and team", func() {
			games := map[int64]bool{}
			for _, m := range league.Matches {
				games[m.GameID] = true
			}
			So(len(league.Events), ShouldBeGreaterThanOrEqualTo, 12*80)
			for _, e := range league.Events {
				So(games[e.GameID], ShouldBeTrue)
				So(e.TeamID, ShouldBeBetweenOrEqual, 10, 13)
			}
		})

		Convey("Then the same seed reproduces the league", func() {
			again := synth.Generate(synth.WithTeams(4), synth.WithRounds(2), synth.WithActionsPerGame(80))
			So(again.Events, ShouldResemble, league.Events)
			So(again.Matches, ShouldResemble, league.Matches)
		})

		Convey("Then a different seed changes the events", func() {
			other := synth.Generate(synth.WithTeams(4), synth.WithRounds(2), synth.WithActionsPerGame(80), synth.WithSeed(99))
			So(other.Events, ShouldNotResemble, league.Events)
		})
	})
}

func TestWriteLeague(t *testing.T) {
	Convey("Given a generated league", t, func() {
		league := synth.Generate(synth.WithTeams(2), synth.WithRounds(1), synth.WithActionsPerGame(40))
		dir := t.TempDir()

		Convey("When it is written to disk", func() {
			eventsPath, matchesPath, err := synth.WriteLeague(context.Background(), dir, league)
			So(err, ShouldBeNil)

			Convey("Then the repository reads it back", func() {
				f, err := os.Open(eventsPath)
				So(err, ShouldBeNil)
				defer f.Close()
				events, skipped, err := repository.ReadEvents(f)
				So(err, ShouldBeNil)
				So(skipped, ShouldEqual, 0)
				So(events, ShouldHaveLength, len(league.Events))

				m, err := os.Open(matchesPath)
				So(err, ShouldBeNil)
				defer m.Close()
				matches, _, err := repository.ReadMatches(m)
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 1)
				So(matches[0].HomeScore, ShouldEqual, league.Matches[0].HomeScore)
			})
		})
	})
}

// fakeAPI answers the smoke run's requests. Team 13 has no data and the
// first train call is rejected as backpressure.
func fakeAPI(trainCalls *int32) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/models/train", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(trainCalls, 1) == 1 {
			write(w, http.StatusTooManyRequests, map[string]string{"code": "backpressure"})
			return
		}
		write(w, http.StatusOK, types.ModelInfo{ModelID: "m-1", Key: "none|"})
	})
	mux.HandleFunc("/api/teams/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/teams/13/") {
			write(w, http.StatusNotFound, map[string]string{"code": "no_data"})
			return
		}
		if strings.HasSuffix(r.URL.Path, "/rate") {
			write(w, http.StatusOK, types.TeamRate{TeamID: 10, Games: 3})
			return
		}
		write(w, http.StatusOK, types.TeamSummary{TeamID: 10, Methodology: "VAEP"})
	})
	mux.HandleFunc("/api/simulation/pre-match", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Our int64 `json:"our_team_id"`
			Opp int64 `json:"opponent_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		write(w, http.StatusOK, types.Simulation{OurTeamID: req.Our, OpponentID: req.Opp})
	})
	mux.HandleFunc("/api/models/runs", func(w http.ResponseWriter, _ *http.Request) {
		write(w, http.StatusOK, []types.TrainingRun{{ID: "r-1", Status: types.RunSucceeded}})
	})
	return mux
}

func TestRun(t *testing.T) {
	Convey("Given a live API", t, func() {
		var trainCalls int32
		srv := httptest.NewServer(fakeAPI(&trainCalls))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		Convey("When a smoke run covers three teams", func() {
			report, err := synth.Run(ctx, synth.RunConfig{
				BaseURL:        srv.URL,
				Teams:          []int64{10, 11, 13},
				NGames:         3,
				Timeout:        5 * time.Second,
				HealthWait:     5 * time.Second,
				RequestsPerSec: 100,
			})

			Convey("Then backpressure is retried and missing teams are recorded", func() {
				So(err, ShouldBeNil)
				So(atomic.LoadInt32(&trainCalls), ShouldEqual, 2)
				So(report.Model.ModelID, ShouldEqual, "m-1")
				So(report.Summaries, ShouldHaveLength, 2)
				So(report.Rates, ShouldHaveLength, 2)
				So(report.MissingData, ShouldResemble, []int64{13})
				So(report.Simulation, ShouldNotBeNil)
				So(report.Simulation.OpponentID, ShouldEqual, 11)
				So(report.Runs, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given no service", t, func() {
		client := synth.NewClient("http://127.0.0.1:1", time.Second, 10)

		Convey("Then waiting for health gives up", func() {
			err := client.WaitHealthy(context.Background(), 300*time.Millisecond)
			So(err, ShouldNotBeNil)
		})
	})
}
