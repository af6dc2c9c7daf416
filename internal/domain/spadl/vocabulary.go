// Package spadl maps vendor event rows onto the canonical action schema and
// normalizes pitch direction so every team attacks towards x=105.
package spadl

import "github.com/okian/matchday/internal/domain/model"

// typeMap maps vendor type names to canonical types. A nil entry marks an
// annotation row that is not an on-ball action.
var typeMap = map[string]*model.ActionType{ //nolint:gochecknoglobals // static vocabulary
	"Pass":             ptr(model.TypePass),
	"Pass_Corner":      ptr(model.TypeCornerCrossed),
	"Pass_Freekick":    ptr(model.TypeFreekickCrossed),
	"Cross":            ptr(model.TypeCross),
	"Throw-In":         ptr(model.TypeThrowIn),
	"Goal Kick":        ptr(model.TypeGoalKick),
	"Carry":            ptr(model.TypeDribble),
	"Take-On":          ptr(model.TypeDribble),
	"Shot":             ptr(model.TypeShot),
	"Goal":             ptr(model.TypeShot),
	"Foul":             ptr(model.TypeFoul),
	"Handball_Foul":    ptr(model.TypeFoul),
	"Tackle":           ptr(model.TypeTackle),
	"Interception":     ptr(model.TypeInterception),
	"Intervention":     ptr(model.TypeInterception),
	"Recovery":         ptr(model.TypeInterception),
	"Clearance":        ptr(model.TypeClearance),
	"Aerial Clearance": ptr(model.TypeClearance),
	"Block":            ptr(model.TypeBlock),
	"Duel":             ptr(model.TypeDuel),
	"Catch":            ptr(model.TypeKeeperClaim),
	"Parry":            ptr(model.TypeKeeperSave),
	"Hit":              ptr(model.TypeKeeperPunch),
	"Error":            ptr(model.TypeError),

	"Pass Received":          nil,
	"Ball Received":          nil,
	"Pause":                  nil,
	"Defensive Line Support": nil,
	"Out":                    nil,
	"Offside":                nil,
}

var resultMap = map[string]model.Result{ //nolint:gochecknoglobals // static vocabulary
	"Successful":         model.ResultSuccess,
	"Unsuccessful":       model.ResultFail,
	"Off Target":         model.ResultOffTarget,
	"On Target":          model.ResultOnTarget,
	"Blocked":            model.ResultBlocked,
	"Goal":               model.ResultGoal,
	"Yellow_Card":        model.ResultYellowCard,
	"Direct_Red_Card":    model.ResultRedCard,
	"Second_Yellow_Card": model.ResultRedCard,
	"Own Goal":           model.ResultOwnGoal,
}

func ptr(t model.ActionType) *model.ActionType { return &t }

// MapType returns the canonical type for a vendor type name. ok is false for
// annotation rows that must be dropped; unmapped names resolve to "other".
func MapType(typeName string) (t model.ActionType, ok bool) {
	mapped, known := typeMap[typeName]
	if !known {
		return model.TypeOther, true
	}
	if mapped == nil {
		return "", false
	}
	return *mapped, true
}

// MapResult returns the canonical result; unmapped names resolve to "unknown".
func MapResult(resultName string) model.Result {
	if r, ok := resultMap[resultName]; ok {
		return r
	}
	return model.ResultUnknown
}

// ActionTypes lists the closed canonical vocabulary in a stable order.
func ActionTypes() []model.ActionType {
	return []model.ActionType{
		model.TypePass, model.TypeCross, model.TypeDribble, model.TypeShot,
		model.TypeTackle, model.TypeInterception, model.TypeClearance, model.TypeBlock,
		model.TypeDuel, model.TypeFoul, model.TypeKeeperSave, model.TypeKeeperClaim,
		model.TypeKeeperPunch, model.TypeCornerCrossed, model.TypeFreekickCrossed,
		model.TypeThrowIn, model.TypeGoalKick, model.TypeError, model.TypeOther,
	}
}
