package features

import "github.com/okian/matchday/internal/domain/model"

// gameFold carries the running per-game state of the single forward pass.
type gameFold struct {
	teamA, teamB int64
	hasB         bool
	scoreA       int
	scoreB       int

	started  bool
	prevTime float64
	prevTeam int64
}

func newGameFold(game []model.Action) *gameFold {
	f := &gameFold{}
	teams := gameTeams(game)
	if len(teams) > 0 {
		f.teamA = teams[0]
	}
	if len(teams) > 1 {
		f.teamB, f.hasB = teams[1], true
	}
	return f
}

// step folds action a into the state and returns its context scalars:
// time since previous, possession change, score for, score against, score diff.
func (f *gameFold) step(a *model.Action, mark GoalMark) [numContext]float64 {
	if mark.Counted {
		switch {
		case mark.TeamID == f.teamA:
			f.scoreA++
		case f.hasB && mark.TeamID == f.teamB:
			f.scoreB++
		}
	}

	var scoreFor, scoreAgainst int
	if a.TeamID == f.teamA {
		scoreFor, scoreAgainst = f.scoreA, f.scoreB
	} else {
		scoreFor, scoreAgainst = f.scoreB, f.scoreA
	}

	timeAbs := a.TimeSeconds + float64(max(a.Period, 1)-1)*periodSeconds
	var sincePrev, changed float64
	if f.started {
		sincePrev = max(0, timeAbs-f.prevTime)
		if a.TeamID != f.prevTeam {
			changed = 1
		}
	}
	f.started = true
	f.prevTime = timeAbs
	f.prevTeam = a.TeamID

	return [numContext]float64{
		sincePrev,
		changed,
		float64(scoreFor),
		float64(scoreAgainst),
		float64(scoreFor - scoreAgainst),
	}
}
