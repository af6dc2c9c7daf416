package repository_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/spadl"
	"github.com/okian/matchday/internal/synth"
	"github.com/okian/matchday/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestReadEvents(t *testing.T) {
	Convey("Given a vendor export with aliased columns", t, func() {
		src := strings.Join([]string{
			"game_id,period_id,time_seconds,team_id,player_id,player_name_ko,action_id,type_name,result_name,sub_type_name,body_part_name,start_x,start_y,end_x,end_y,dx,dy",
			"1,1,3.5,10,101,Kim,0,Pass,Successful,,Right Foot,50,34,60,30,10,-4",
			"1,1,5.0,10,102.0,Lee,1,Shot,Goal,Shot,Head,,34,105,34,,",
			"x,1,6,10,101,Kim,2,Pass,Successful,,,1,1,1,1,0,0",
		}, "\n")
		rows, skipped, err := repository.ReadEvents(strings.NewReader(src))

		Convey("Then aliases resolve to canonical fields", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].PlayerName, ShouldEqual, "Kim")
			So(rows[0].BodyPart, ShouldEqual, "Right Foot")
			So(rows[1].Subtype, ShouldEqual, "Shot")
		})

		Convey("Then float-formatted ids are accepted", func() {
			So(rows[1].PlayerID, ShouldEqual, 102)
		})

		Convey("Then blank numbers become NaN and bad ids skip the row", func() {
			So(math.IsNaN(rows[1].StartX), ShouldBeTrue)
			So(math.IsNaN(rows[1].DX), ShouldBeTrue)
			So(skipped, ShouldEqual, 1)
		})
	})

	Convey("Given an export without a team column", t, func() {
		_, _, err := repository.ReadEvents(strings.NewReader("game_id,type_name\n1,Pass\n"))

		Convey("Then a missing column error is returned", func() {
			So(errors.Is(err, repository.ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given an empty file", t, func() {
		_, _, err := repository.ReadMatches(strings.NewReader(""))

		Convey("Then it is a read error", func() {
			So(errors.Is(err, repository.ErrReadSource), ShouldBeTrue)
		})
	})
}

func TestReadMatches(t *testing.T) {
	Convey("Given a match table with mixed date formats", t, func() {
		src := strings.Join([]string{
			"game_id,game_date,home_team_id,away_team_id,home_team_name,away_team_name,home_score,away_score",
			"1,2024-03-02 15:00:00,10,20,A,B,2,1",
			"2,2024-03-05,20,10,B,A,0,0",
			"3,not a date,10,30,A,C,1,1",
		}, "\n")
		matches, skipped, err := repository.ReadMatches(strings.NewReader(src))

		Convey("Then every row is parsed", func() {
			So(err, ShouldBeNil)
			So(skipped, ShouldEqual, 0)
			So(matches, ShouldHaveLength, 3)
			So(matches[0].Date, ShouldEqual, time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC))
			So(matches[1].Date, ShouldEqual, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
			So(matches[0].HomeScore, ShouldEqual, 2)
		})

		Convey("Then an unparseable date is left unknown", func() {
			So(matches[2].Date.IsZero(), ShouldBeTrue)
		})
	})
}

func TestWriteRead(t *testing.T) {
	Convey("Given a generated league written to CSV", t, func() {
		league := synth.Generate(synth.WithTeams(2), synth.WithRounds(1), synth.WithActionsPerGame(40))
		var events, matches bytes.Buffer
		So(repository.WriteEvents(&events, league.Events), ShouldBeNil)
		So(repository.WriteMatches(&matches, league.Matches), ShouldBeNil)

		Convey("Then reading it back yields the same tables", func() {
			rows, skipped, err := repository.ReadEvents(&events)
			So(err, ShouldBeNil)
			So(skipped, ShouldEqual, 0)
			So(rows, ShouldHaveLength, len(league.Events))
			So(rows[0].TypeName, ShouldEqual, league.Events[0].TypeName)
			So(rows[len(rows)-1].ActionID, ShouldEqual, league.Events[len(rows)-1].ActionID)

			ms, _, err := repository.ReadMatches(&matches)
			So(err, ShouldBeNil)
			So(ms, ShouldResemble, league.Matches)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	matches := []model.Match{{GameID: 1, HomeTeamID: 10, AwayTeamID: 20}}
	events := []model.RawEvent{
		{GameID: 1, Period: 1, TimeSeconds: 1, TeamID: 10, ActionID: 1, TypeName: "Pass", ResultName: "Successful", StartX: 10, StartY: 10, EndX: 20, EndY: 10, DX: 10, DY: 0},
		{GameID: 1, Period: 1, TimeSeconds: 2, TeamID: 20, ActionID: 2, TypeName: "Pass Received", StartX: 1, StartY: 1, EndX: 1, EndY: 1},
		{GameID: 1, Period: 1, TimeSeconds: 3, TeamID: 20, ActionID: 3, TypeName: "Pass", ResultName: "Successful", StartX: 10, StartY: 10, EndX: 20, EndY: 10, DX: 10, DY: 0},
		{GameID: 1, Period: 1, TimeSeconds: 2.5, TeamID: 30, ActionID: 4, TypeName: "Clearance", StartX: math.NaN(), StartY: 5, EndX: 5, EndY: 5, DX: 0, DY: 0},
	}

	Convey("Given a memory store", t, func() {
		store := repository.NewMemoryStore(ctx, events, matches)
		ds := store.Current()

		Convey("Then annotations are dropped and away actions flipped", func() {
			So(ds.Actions, ShouldHaveLength, 3)
			So(ds.Report.Dropped, ShouldEqual, 1)
			So(ds.Actions[0].StartX, ShouldEqual, 10)
			So(ds.Actions[1].StartX, ShouldEqual, spadl.PitchLength-10)
			So(ds.Actions[1].DX, ShouldEqual, -10)
		})

		Convey("Then defects are reported by kind", func() {
			So(ds.Report.Counts[spadl.WarnUnknownSide], ShouldEqual, 1)
			So(ds.Report.Counts[spadl.WarnMissingCoordinate], ShouldEqual, 1)
			So(ds.Report.Counts[repository.WarnNonMonotonicGame], ShouldEqual, 1)
		})

		Convey("Then matches and game actions are indexed", func() {
			m, ok := ds.Match(1)
			So(ok, ShouldBeTrue)
			So(m.AwayTeamID, ShouldEqual, 20)
			_, ok = ds.Match(2)
			So(ok, ShouldBeFalse)
			So(ds.GameActions([]int64{1}), ShouldHaveLength, 3)
			So(ds.GameActions([]int64{9}), ShouldBeEmpty)
		})

		Convey("When the tables are replaced", func() {
			next := store.Replace(ctx, events[:1], matches)

			Convey("Then a new token is published", func() {
				So(next.Token, ShouldNotEqual, ds.Token)
				So(store.Current(), ShouldEqual, next)
			})
		})

		Convey("When refreshed", func() {
			same, changed, err := store.Refresh(ctx)

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(changed, ShouldBeFalse)
				So(same.Token, ShouldEqual, ds.Token)
			})
		})
	})
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given CSV files on disk", t, func() {
		dir := t.TempDir()
		league := synth.Generate(synth.WithTeams(2), synth.WithRounds(1), synth.WithActionsPerGame(40))
		eventsPath := filepath.Join(dir, "events.csv")
		matchesPath := filepath.Join(dir, "matches.csv")
		write := func(path string, fn func(*bytes.Buffer) error) {
			var buf bytes.Buffer
			So(fn(&buf), ShouldBeNil)
			So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)
		}
		write(eventsPath, func(b *bytes.Buffer) error { return repository.WriteEvents(b, league.Events) })
		write(matchesPath, func(b *bytes.Buffer) error { return repository.WriteMatches(b, league.Matches) })

		store := repository.NewFileStore(eventsPath, matchesPath)
		empty := store.Current()
		ds, err := store.Load(ctx)
		So(err, ShouldBeNil)

		Convey("Then the dataset replaces the empty one", func() {
			So(empty.Actions, ShouldBeEmpty)
			So(ds.Token, ShouldNotEqual, empty.Token)
			So(ds.Actions, ShouldNotBeEmpty)
			So(ds.Matches, ShouldHaveLength, len(league.Matches))
		})

		Convey("Then refreshing unchanged files keeps the token", func() {
			again, changed, err := store.Refresh(ctx)
			So(err, ShouldBeNil)
			So(changed, ShouldBeFalse)
			So(again.Token, ShouldEqual, ds.Token)
		})

		Convey("Then refreshing modified files publishes a new token", func() {
			write(matchesPath, func(b *bytes.Buffer) error { return repository.WriteMatches(b, league.Matches[:0]) })
			later := time.Now().Add(time.Minute)
			So(os.Chtimes(matchesPath, later, later), ShouldBeNil)

			next, changed, err := store.Refresh(ctx)
			So(err, ShouldBeNil)
			So(changed, ShouldBeTrue)
			So(next.Token, ShouldNotEqual, ds.Token)
			So(next.Matches, ShouldBeEmpty)
		})
	})

	Convey("Given no configured files", t, func() {
		_, err := repository.NewFileStore("", "").Load(ctx)

		Convey("Then ErrNoSource is returned", func() {
			So(errors.Is(err, repository.ErrNoSource), ShouldBeTrue)
		})
	})

	Convey("Given a missing file", t, func() {
		_, _, err := repository.NewFileStore("/nonexistent/e.csv", "/nonexistent/m.csv").Refresh(ctx)

		Convey("Then a read error is returned", func() {
			So(errors.Is(err, repository.ErrReadSource), ShouldBeTrue)
		})
	})
}
