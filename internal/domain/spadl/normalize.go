package spadl

import (
	"sort"
	"strings"

	"github.com/okian/matchday/internal/domain/model"
)

// Data-integrity warning kinds.
const (
	WarnMissingCoordinate = "missing_coordinate"
	WarnMissingDelta      = "missing_delta"
	WarnMissingTime       = "missing_time"
	WarnInvalidPeriod     = "invalid_period"
	WarnUnknownType       = "unknown_type"
	WarnUnknownResult     = "unknown_result"
	WarnMissingBodyPart   = "missing_body_part"
	WarnDuplicateActionID = "duplicate_action_id"
	WarnUnknownSide       = "unknown_side"
)

// Report counts row-level defects that were absorbed with a default value.
type Report struct {
	Counts  map[string]int
	Dropped int // annotation rows removed from the stream
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{Counts: make(map[string]int)}
}

// Add records n defects of kind.
func (r *Report) Add(kind string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.Counts[kind] += n
}

// Merge folds other into r.
func (r *Report) Merge(other *Report) {
	if r == nil || other == nil {
		return
	}
	for k, n := range other.Counts {
		r.Counts[k] += n
	}
	r.Dropped += other.Dropped
}

// Total is the number of recorded defects.
func (r *Report) Total() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Kinds returns the recorded kinds in sorted order.
func (r *Report) Kinds() []string {
	if r == nil {
		return nil
	}
	kinds := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Normalize converts raw vendor rows to canonical actions. Annotation rows are
// dropped; malformed fields degrade to neutral defaults and are counted in the
// report. Row order is preserved.
func Normalize(rows []model.RawEvent) ([]model.Action, *Report) {
	report := NewReport()
	out := make([]model.Action, 0, len(rows))
	type actionKey struct {
		game, team, id int64
		period         int
	}
	seen := make(map[actionKey]struct{}, len(rows))

	for i := range rows {
		raw := &rows[i]
		typeName := strings.TrimSpace(raw.TypeName)
		actionType, isAction := MapType(typeName)
		if !isAction {
			report.Dropped++
			continue
		}
		if actionType == model.TypeOther {
			report.Add(WarnUnknownType, 1)
		}

		resultName := strings.TrimSpace(raw.ResultName)
		result := MapResult(resultName)
		if result == model.ResultUnknown && resultName != "" {
			report.Add(WarnUnknownResult, 1)
		}

		period := raw.Period
		if period <= 0 {
			report.Add(WarnInvalidPeriod, 1)
			period = 1
		}
		ts := raw.TimeSeconds
		if !finite(ts) {
			report.Add(WarnMissingTime, 1)
			ts = 0
		}

		body := strings.TrimSpace(raw.BodyPart)
		if body == "" {
			report.Add(WarnMissingBodyPart, 1)
			body = "unknown"
		}
		subtype := strings.TrimSpace(raw.Subtype)
		if subtype == "" {
			subtype = typeName
		}
		if subtype == "" {
			subtype = "unknown"
		}

		a := model.Action{
			GameID:      raw.GameID,
			Period:      period,
			TimeSeconds: ts,
			ActionID:    raw.ActionID,
			TeamID:      raw.TeamID,
			PlayerID:    raw.PlayerID,
			PlayerName:  raw.PlayerName,
			Type:        actionType,
			Result:      result,
			BodyPart:    body,
			Subtype:     subtype,
			RawType:     typeName,
		}

		missing := 0
		a.StartX, missing = coord(raw.StartX, missing)
		a.StartY, missing = coord(raw.StartY, missing)
		a.EndX, missing = coord(raw.EndX, missing)
		a.EndY, missing = coord(raw.EndY, missing)
		report.Add(WarnMissingCoordinate, missing)

		a.DX, a.DY = raw.DX, raw.DY
		if !finite(a.DX) || !finite(a.DY) {
			report.Add(WarnMissingDelta, 1)
			a.DX = a.EndX - a.StartX
			a.DY = a.EndY - a.StartY
		}

		key := actionKey{game: a.GameID, team: a.TeamID, id: a.ActionID, period: a.Period}
		if _, dup := seen[key]; dup {
			report.Add(WarnDuplicateActionID, 1)
		}
		seen[key] = struct{}{}

		out = append(out, a)
	}
	return out, report
}

func coord(v float64, missing int) (float64, int) {
	if !finite(v) {
		return 0, missing + 1
	}
	return v, missing
}

// FlipSides mirrors every away-team action of a known match so both teams
// attack towards increasing x. Actions whose game is unknown, or whose team is
// neither side of the match, pass through unchanged and are counted.
func FlipSides(actions []model.Action, matches map[int64]model.Match) ([]model.Action, int) {
	out := make([]model.Action, len(actions))
	unknown := 0
	for i, a := range actions {
		m, ok := matches[a.GameID]
		switch {
		case !ok || (a.TeamID != m.HomeTeamID && a.TeamID != m.AwayTeamID):
			unknown++
		case a.TeamID == m.AwayTeamID:
			a = Mirror(a)
		}
		out[i] = a
	}
	return out, unknown
}

// Mirror rotates an action by 180 degrees around the centre spot.
func Mirror(a model.Action) model.Action {
	a.StartX = PitchLength - a.StartX
	a.EndX = PitchLength - a.EndX
	a.StartY = PitchWidth - a.StartY
	a.EndY = PitchWidth - a.EndY
	a.DX = -a.DX
	a.DY = -a.DY
	return a
}

// IndexMatches builds a game_id lookup; later duplicates overwrite earlier rows.
func IndexMatches(matches []model.Match) map[int64]model.Match {
	idx := make(map[int64]model.Match, len(matches))
	for _, m := range matches {
		idx[m.GameID] = m
	}
	return idx
}

// IsGoal reports whether the action itself records a goal (own goals included).
func IsGoal(a *model.Action) bool {
	return a.Result == model.ResultGoal || a.Result == model.ResultOwnGoal || a.RawType == "Goal"
}
