package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/matchday/internal/domain/model"
)

// Event export columns, in write order.
var eventColumns = []string{
	"game_id", "period_id", "time_seconds", "team_id", "player_id", "player_name",
	"action_id", "type_name", "result_name", "subtype", "body_part",
	"start_x", "start_y", "end_x", "end_y", "dx", "dy",
}

// Match table columns, in write order.
var matchColumns = []string{
	"game_id", "game_date", "home_team_id", "away_team_id",
	"home_team_name", "away_team_name", "home_score", "away_score",
}

// columnAliases maps vendor spellings to canonical column names.
var columnAliases = map[string]string{
	"player_name_ko":    "player_name",
	"sub_type_name":     "subtype",
	"subtype_name":      "subtype",
	"body_part_name":    "body_part",
	"spadl_body_part":   "body_part",
	"period":            "period_id",
	"original_event_id": "action_id",
	"home_team_name_ko": "home_team_name",
	"away_team_name_ko": "away_team_name",
	"home_team_score":   "home_score",
	"away_team_score":   "away_score",
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// header resolves column positions, applying aliases. The first occurrence
// of a canonical name wins.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	names, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrReadSource)
		}
		return nil, fmt.Errorf("%w: %w", ErrReadSource, err)
	}
	h := make(header, len(names))
	for i, name := range names {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return h, nil
}

func (h header) str(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) int64(rec []string, col string) (int64, bool) {
	s := h.str(rec, col)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	// ids exported as floats, e.g. "126283.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func (h header) float(rec []string, col string) float64 {
	s := h.str(rec, col)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ReadEvents parses an event export. Rows without a usable game or team id
// are skipped and counted; other malformed numbers become NaN and are left
// for the normalizer to default.
func ReadEvents(r io.Reader) ([]model.RawEvent, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	h, err := readHeader(cr, "game_id", "team_id", "type_name")
	if err != nil {
		return nil, 0, err
	}

	var out []model.RawEvent
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("%w: %w", ErrReadSource, err)
		}
		game, okGame := h.int64(rec, "game_id")
		team, okTeam := h.int64(rec, "team_id")
		if !okGame || !okTeam {
			skipped++
			continue
		}
		player, _ := h.int64(rec, "player_id")
		action, _ := h.int64(rec, "action_id")
		period, _ := h.int64(rec, "period_id")
		out = append(out, model.RawEvent{
			GameID:      game,
			Period:      int(period),
			TimeSeconds: h.float(rec, "time_seconds"),
			TeamID:      team,
			PlayerID:    player,
			PlayerName:  h.str(rec, "player_name"),
			ActionID:    action,
			TypeName:    h.str(rec, "type_name"),
			ResultName:  h.str(rec, "result_name"),
			Subtype:     h.str(rec, "subtype"),
			BodyPart:    h.str(rec, "body_part"),
			StartX:      h.float(rec, "start_x"),
			StartY:      h.float(rec, "start_y"),
			EndX:        h.float(rec, "end_x"),
			EndY:        h.float(rec, "end_y"),
			DX:          h.float(rec, "dx"),
			DY:          h.float(rec, "dy"),
		})
	}
	return out, skipped, nil
}

// ReadMatches parses a match table. Rows without a usable game id are
// skipped and counted; an unparseable date is left zero.
func ReadMatches(r io.Reader) ([]model.Match, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	h, err := readHeader(cr, "game_id", "home_team_id", "away_team_id")
	if err != nil {
		return nil, 0, err
	}

	var out []model.Match
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("%w: %w", ErrReadSource, err)
		}
		game, ok := h.int64(rec, "game_id")
		if !ok {
			skipped++
			continue
		}
		home, _ := h.int64(rec, "home_team_id")
		away, _ := h.int64(rec, "away_team_id")
		hs, _ := h.int64(rec, "home_score")
		as, _ := h.int64(rec, "away_score")
		out = append(out, model.Match{
			GameID:     game,
			HomeTeamID: home,
			AwayTeamID: away,
			HomeName:   h.str(rec, "home_team_name"),
			AwayName:   h.str(rec, "away_team_name"),
			HomeScore:  int(hs),
			AwayScore:  int(as),
			Date:       parseDate(h.str(rec, "game_date")),
		})
	}
	return out, skipped, nil
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// WriteEvents writes rows with the canonical event header.
func WriteEvents(w io.Writer, rows []model.RawEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(eventColumns); err != nil {
		return err
	}
	rec := make([]string, len(eventColumns))
	for i := range rows {
		e := &rows[i]
		rec[0] = strconv.FormatInt(e.GameID, 10)
		rec[1] = strconv.Itoa(e.Period)
		rec[2] = formatFloat(e.TimeSeconds)
		rec[3] = strconv.FormatInt(e.TeamID, 10)
		rec[4] = strconv.FormatInt(e.PlayerID, 10)
		rec[5] = e.PlayerName
		rec[6] = strconv.FormatInt(e.ActionID, 10)
		rec[7] = e.TypeName
		rec[8] = e.ResultName
		rec[9] = e.Subtype
		rec[10] = e.BodyPart
		rec[11] = formatFloat(e.StartX)
		rec[12] = formatFloat(e.StartY)
		rec[13] = formatFloat(e.EndX)
		rec[14] = formatFloat(e.EndY)
		rec[15] = formatFloat(e.DX)
		rec[16] = formatFloat(e.DY)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMatches writes the match table with the canonical header. Dates are
// written as RFC 3339; unknown dates are left empty.
func WriteMatches(w io.Writer, matches []model.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(matchColumns); err != nil {
		return err
	}
	for _, m := range matches {
		date := ""
		if !m.Date.IsZero() {
			date = m.Date.UTC().Format(time.RFC3339)
		}
		rec := []string{
			strconv.FormatInt(m.GameID, 10),
			date,
			strconv.FormatInt(m.HomeTeamID, 10),
			strconv.FormatInt(m.AwayTeamID, 10),
			m.HomeName,
			m.AwayName,
			strconv.Itoa(m.HomeScore),
			strconv.Itoa(m.AwayScore),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
