package features

import "fmt"

// Window geometry.
const (
	WindowSize = 5

	catPerSlot = 4
	numPerSlot = 12
	numContext = 5

	NumCategorical = WindowSize * catPerSlot
	NumNumeric     = WindowSize*numPerSlot + numContext
)

// noneSlot fills categorical window slots before the first action of a game.
const noneSlot = "none"

var (
	catSuffixes = [catPerSlot]string{"type", "result", "body", "subtype"} //nolint:gochecknoglobals // column layout
	numSuffixes = [numPerSlot]string{                                     //nolint:gochecknoglobals // column layout
		"start_x", "start_y", "end_x", "end_y", "dx", "dy", "dist",
		"dist_goal_start", "dist_goal_end", "angle_goal_end", "time_norm", "period",
	}
	contextColumns = [numContext]string{ //nolint:gochecknoglobals // column layout
		"time_since_prev", "possession_change", "score_for", "score_against", "score_diff",
	}
)

// CategoricalColumns names the categorical features; a0 is the oldest slot, a4 the current action.
func CategoricalColumns() []string {
	cols := make([]string, 0, NumCategorical)
	for slot := 0; slot < WindowSize; slot++ {
		for _, s := range catSuffixes {
			cols = append(cols, fmt.Sprintf("a%d_%s", slot, s))
		}
	}
	return cols
}

// NumericColumns names the numeric features: window slots, then context scalars.
func NumericColumns() []string {
	cols := make([]string, 0, NumNumeric)
	for slot := 0; slot < WindowSize; slot++ {
		for _, s := range numSuffixes {
			cols = append(cols, fmt.Sprintf("a%d_%s", slot, s))
		}
	}
	return append(cols, contextColumns[:]...)
}

// Columns is the full feature column list in vector order.
func Columns() []string {
	return append(CategoricalColumns(), NumericColumns()...)
}
