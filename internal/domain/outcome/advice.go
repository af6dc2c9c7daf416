package outcome

import (
	"fmt"
	"sort"

	"github.com/okian/matchday/internal/domain/types"
)

// Recommendation levels.
const (
	LevelStrong    = "strong_recommend"
	LevelRecommend = "recommend"
	LevelMarginal  = "marginal"
	LevelCaution   = "caution"
)

// Recommend maps a win-probability change in percentage points to a level
// and its text.
func Recommend(change float64) (level, text string) {
	switch {
	case change >= 10:
		return LevelStrong, "Strongly recommended: this combination raises the win probability substantially."
	case change >= 5:
		return LevelRecommend, "Recommended: an improvement in win probability is expected."
	case change >= 0:
		return LevelMarginal, "Note: only a marginal improvement in win probability."
	default:
		return LevelCaution, "Caution: this tactic may not suit the current matchup."
	}
}

// Suggestions derives tactical hints from the matchup, ordered by priority.
func Suggestions(state State) []types.Suggestion {
	var out []types.Suggestion
	if p := state.Opponent.PassSuccess; p > 0.75 {
		out = append(out, types.Suggestion{
			Priority:       1,
			Tactic:         "Intensify midfield pressing",
			Reason:         fmt.Sprintf("Opponent pass success is high at %.0f%%", p*100),
			ExpectedEffect: "Opponent pass success expected to drop 10-15%",
			WinProbChange:  "+5%p",
		})
	}
	if c := state.Opponent.ShotConversion; c > 0.15 {
		out = append(out, types.Suggestion{
			Priority:       2,
			Tactic:         "Drop the defensive line",
			Reason:         fmt.Sprintf("Opponent shot conversion is high at %.0f%%", c*100),
			ExpectedEffect: "Fewer shooting chances conceded",
			WinProbChange:  "+3%p",
		})
	}
	if p := state.Our.Possession; p < 0.45 {
		out = append(out, types.Suggestion{
			Priority:       3,
			Tactic:         "Focus on counter-attacks",
			Reason:         fmt.Sprintf("Expected possession is low at %.0f%%", p*100),
			ExpectedEffect: "Exploit fast transitions",
			WinProbChange:  "+4%p",
		})
	}
	if len(out) == 0 {
		out = append(out, types.Suggestion{
			Priority:       1,
			Tactic:         "Keep a balanced approach",
			Reason:         "Both sides are evenly matched",
			ExpectedEffect: "Stable game management",
			WinProbChange:  "±0%p",
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
