// Package model contains domain models passed between layers.
package model

import "time"

// ActionType is the canonical on-ball action vocabulary.
type ActionType string

// Canonical action types.
const (
	TypePass            ActionType = "pass"
	TypeCross           ActionType = "cross"
	TypeDribble         ActionType = "dribble"
	TypeShot            ActionType = "shot"
	TypeTackle          ActionType = "tackle"
	TypeInterception    ActionType = "interception"
	TypeClearance       ActionType = "clearance"
	TypeBlock           ActionType = "block"
	TypeDuel            ActionType = "duel"
	TypeFoul            ActionType = "foul"
	TypeKeeperSave      ActionType = "keeper_save"
	TypeKeeperClaim     ActionType = "keeper_claim"
	TypeKeeperPunch     ActionType = "keeper_punch"
	TypeCornerCrossed   ActionType = "corner_crossed"
	TypeFreekickCrossed ActionType = "freekick_crossed"
	TypeThrowIn         ActionType = "throw_in"
	TypeGoalKick        ActionType = "goal_kick"
	TypeError           ActionType = "error"
	TypeOther           ActionType = "other"
)

// Result is the canonical action outcome.
type Result string

// Canonical results.
const (
	ResultSuccess    Result = "success"
	ResultFail       Result = "fail"
	ResultGoal       Result = "goal"
	ResultOwnGoal    Result = "owngoal"
	ResultOffTarget  Result = "offtarget"
	ResultOnTarget   Result = "ontarget"
	ResultBlocked    Result = "blocked"
	ResultYellowCard Result = "yellow_card"
	ResultRedCard    Result = "red_card"
	ResultUnknown    Result = "unknown"
)

// RawEvent is one row of a vendor event export, before normalization.
// Missing numeric values are NaN.
type RawEvent struct {
	GameID      int64
	Period      int
	TimeSeconds float64
	TeamID      int64
	PlayerID    int64
	PlayerName  string
	ActionID    int64
	TypeName    string
	ResultName  string
	Subtype     string
	BodyPart    string
	StartX      float64
	StartY      float64
	EndX        float64
	EndY        float64
	DX          float64
	DY          float64
}

// Action is one atomic on-ball event in the canonical schema.
// Coordinates are on a 105x68 pitch with the acting team attacking towards x=105
// once FlipSides has been applied.
type Action struct {
	GameID      int64
	Period      int
	TimeSeconds float64
	ActionID    int64
	TeamID      int64
	PlayerID    int64
	PlayerName  string

	Type     ActionType
	Result   Result
	BodyPart string
	Subtype  string

	StartX float64
	StartY float64
	EndX   float64
	EndY   float64
	DX     float64
	DY     float64

	// RawType keeps the vendor type name; goal dedup keys on it.
	RawType string
}

// Match is one game of the match table.
type Match struct {
	GameID     int64
	HomeTeamID int64
	AwayTeamID int64
	HomeName   string
	AwayName   string
	HomeScore  int
	AwayScore  int
	// Date is zero when unknown.
	Date time.Time
}

// Opponent returns the other side of the match, or false when teamID did not play.
func (m Match) Opponent(teamID int64) (int64, bool) {
	switch teamID {
	case m.HomeTeamID:
		return m.AwayTeamID, true
	case m.AwayTeamID:
		return m.HomeTeamID, true
	}
	return 0, false
}

// ValuedAction is an Action with model probabilities and VAEP values attached.
type ValuedAction struct {
	Action

	PScore    float64
	PConcede  float64
	Offensive float64
	Defensive float64
	Total     float64
}
