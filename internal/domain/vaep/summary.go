package vaep

import (
	"sort"

	"github.com/okian/matchday/internal/domain/model"
)

// Summary list sizes.
const (
	DefaultTopPlayers = 10
	TopSideCount      = 5
	DefaultTopActions = 5
)

// PlayerValue is one player's aggregated value.
type PlayerValue struct {
	PlayerID   int64
	PlayerName string
	Total      float64
	Offensive  float64
	Defensive  float64
	Actions    int
}

// Average is the total value per action.
func (p PlayerValue) Average() float64 {
	return p.Total / float64(max(p.Actions, 1))
}

// TeamSummary aggregates a team's valued actions.
type TeamSummary struct {
	TeamID       int64
	Total        float64
	Offensive    float64
	Defensive    float64
	Players      []PlayerValue
	TopPlayers   []PlayerValue
	TopOffensive []PlayerValue
	TopDefensive []PlayerValue
	TopActions   []model.ValuedAction
}

// PlayerValues sums values per player of teamID, highest total first. Ties
// keep ascending player id.
func PlayerValues(values []model.ValuedAction, teamID int64) []PlayerValue {
	idx := make(map[int64]int)
	var players []PlayerValue
	for i := range values {
		v := &values[i]
		if v.TeamID != teamID {
			continue
		}
		j, ok := idx[v.PlayerID]
		if !ok {
			j = len(players)
			idx[v.PlayerID] = j
			players = append(players, PlayerValue{PlayerID: v.PlayerID})
		}
		p := &players[j]
		if p.PlayerName == "" {
			p.PlayerName = v.PlayerName
		}
		p.Total += v.Total
		p.Offensive += v.Offensive
		p.Defensive += v.Defensive
		p.Actions++
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	sort.SliceStable(players, func(i, j int) bool { return players[i].Total > players[j].Total })
	return players
}

// TopActions returns the n most valuable actions of teamID by total value,
// earliest action id first on ties.
func TopActions(values []model.ValuedAction, teamID int64, n int) []model.ValuedAction {
	var team []model.ValuedAction
	for i := range values {
		if values[i].TeamID == teamID {
			team = append(team, values[i])
		}
	}
	sort.SliceStable(team, func(i, j int) bool {
		if team[i].Total != team[j].Total {
			return team[i].Total > team[j].Total
		}
		return team[i].ActionID < team[j].ActionID
	})
	if n >= 0 && len(team) > n {
		team = team[:n]
	}
	return team
}

// Summarize builds the team summary. An empty input yields a zero summary
// with empty lists.
func Summarize(values []model.ValuedAction, teamID int64, topN int) TeamSummary {
	if topN <= 0 {
		topN = DefaultTopPlayers
	}
	players := PlayerValues(values, teamID)
	s := TeamSummary{
		TeamID:     teamID,
		Players:    players,
		TopPlayers: head(players, topN),
		TopActions: TopActions(values, teamID, DefaultTopActions),
	}
	for _, p := range players {
		s.Total += p.Total
		s.Offensive += p.Offensive
		s.Defensive += p.Defensive
	}

	byOff := append([]PlayerValue(nil), players...)
	sort.SliceStable(byOff, func(i, j int) bool { return byOff[i].Offensive > byOff[j].Offensive })
	s.TopOffensive = head(byOff, TopSideCount)

	byDef := append([]PlayerValue(nil), players...)
	sort.SliceStable(byDef, func(i, j int) bool { return byDef[i].Defensive > byDef[j].Defensive })
	s.TopDefensive = head(byDef, TopSideCount)
	return s
}

func head(players []PlayerValue, n int) []PlayerValue {
	if len(players) > n {
		players = players[:n]
	}
	return append([]PlayerValue{}, players...)
}
