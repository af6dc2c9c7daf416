package features

import (
	"sort"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/spadl"
)

// GoalMark says whether an action counts as a goal and for which team.
type GoalMark struct {
	Counted bool
	TeamID  int64
}

// AttributeGoals marks the goals of one chronologically sorted game. Own goals
// are credited to the other team of the game; with fewer than two known teams
// an own goal stays unattributed. It also returns the number of shot/goal
// pairs by different players that the same-player policy refused to collapse.
func AttributeGoals(game []model.Action, policy DedupPolicy) ([]GoalMark, int) {
	teams := gameTeams(game)
	marks := make([]GoalMark, len(game))
	for i := range game {
		a := &game[i]
		if !spadl.IsGoal(a) {
			continue
		}
		if a.Result == model.ResultOwnGoal {
			if len(teams) != 2 {
				continue
			}
			other := teams[0]
			if a.TeamID == teams[0] {
				other = teams[1]
			}
			marks[i] = GoalMark{Counted: true, TeamID: other}
			continue
		}
		marks[i] = GoalMark{Counted: true, TeamID: a.TeamID}
	}

	mismatches := 0
	if policy == DedupOff {
		return marks, mismatches
	}
	for i := 1; i < len(game); i++ {
		cur, prev := &game[i], &game[i-1]
		if cur.RawType != "Goal" || prev.RawType != "Shot" {
			continue
		}
		if prev.Result != model.ResultGoal && prev.Result != model.ResultOwnGoal {
			continue
		}
		if policy == DedupSamePlayer && cur.PlayerID != prev.PlayerID {
			mismatches++
			continue
		}
		marks[i] = GoalMark{}
	}
	return marks, mismatches
}

func gameTeams(game []model.Action) []int64 {
	seen := make(map[int64]struct{}, 2)
	teams := make([]int64, 0, 2)
	for i := range game {
		if _, ok := seen[game[i].TeamID]; ok {
			continue
		}
		seen[game[i].TeamID] = struct{}{}
		teams = append(teams, game[i].TeamID)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	return teams
}
