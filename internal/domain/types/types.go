// Package types contains the response records shared by the service and the API.
package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/matchday/internal/domain/training"
)

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Percent converts a fraction to a percentage with one decimal.
func Percent(fraction float64) float64 {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

// PlayerValue is one player's VAEP row. Totals carry 3 decimals, the average 4.
type PlayerValue struct {
	PlayerID      int64   `json:"player_id"`
	PlayerName    string  `json:"player_name"`
	TotalVAEP     float64 `json:"total_vaep"`
	OffensiveVAEP float64 `json:"offensive_vaep"`
	DefensiveVAEP float64 `json:"defensive_vaep"`
	Actions       int     `json:"actions"`
	AvgVAEP       float64 `json:"avg_vaep"`
}

// ActionValue is one highly valued action with its pitch coordinates.
type ActionValue struct {
	GameID         int64   `json:"game_id"`
	ActionID       int64   `json:"action_id"`
	PlayerID       int64   `json:"player_id"`
	Player         string  `json:"player"`
	Action         string  `json:"action"`
	Value          float64 `json:"value"`
	OffensiveValue float64 `json:"offensive_value"`
	StartX         float64 `json:"start_x"`
	StartY         float64 `json:"start_y"`
	EndX           float64 `json:"end_x"`
	EndY           float64 `json:"end_y"`
}

// TeamSummary is the VAEP report for one team over a set of games.
type TeamSummary struct {
	TeamID             int64            `json:"team_id"`
	Games              []int64          `json:"games"`
	TeamTotalVAEP      float64          `json:"team_total_vaep"`
	OffensiveVAEP      float64          `json:"offensive_vaep"`
	DefensiveVAEP      float64          `json:"defensive_vaep"`
	TopPlayers         []PlayerValue    `json:"top_players"`
	TopOffensive       []PlayerValue    `json:"top_offensive"`
	TopDefensive       []PlayerValue    `json:"top_defensive"`
	TopValuableActions []ActionValue    `json:"top_valuable_actions"`
	Methodology        string           `json:"methodology"`
	ModelID            string           `json:"model_id,omitempty"`
	CutoffRelaxed      bool             `json:"cutoff_relaxed"`
	Metrics            training.Metrics `json:"metrics"`
}

// TeamRate is the recent-form rate of a team.
type TeamRate struct {
	TeamID            int64   `json:"team_id"`
	Games             int     `json:"games"`
	XGForPerGame      float64 `json:"xg_for_pg"`
	XGAgainstPerGame  float64 `json:"xg_against_pg"`
	Shots             int     `json:"shots"`
	ShotsAgainst      int     `json:"shots_against"`
	Goals             int     `json:"goals"`
	GoalsAgainst      int     `json:"goals_against"`
	ShotConversion    float64 `json:"shot_conversion"`
	OppShotConversion float64 `json:"opp_shot_conversion"`
	PassSuccess       float64 `json:"pass_success"`
	OppPassSuccess    float64 `json:"opp_pass_success"`
	Possession        float64 `json:"possession"`
	ModelID           string  `json:"model_id,omitempty"`
}

// TacticDetail describes one applied tactic.
type TacticDetail struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Effect      string `json:"effect"`
	Description string `json:"description"`
}

// Prediction holds win/draw/lose percentages with one decimal.
type Prediction struct {
	Win            float64        `json:"win"`
	Draw           float64        `json:"draw"`
	Lose           float64        `json:"lose"`
	LambdaFor      float64        `json:"lambda_for"`
	LambdaAgainst  float64        `json:"lambda_against"`
	TacticsApplied []TacticDetail `json:"tactics_applied"`
}

// Scenario is a what-if evaluation of one tactic (or all of them).
type Scenario struct {
	Key            string     `json:"key"`
	Scenario       string     `json:"scenario"`
	Description    string     `json:"description"`
	Before         Prediction `json:"before"`
	After          Prediction `json:"after"`
	WinChange      float64    `json:"win_change"`
	Level          string     `json:"level"`
	Recommendation string     `json:"recommendation"`
}

// Suggestion is a tactical hint derived from the matchup statistics.
type Suggestion struct {
	Priority       int    `json:"priority"`
	Tactic         string `json:"tactic"`
	Reason         string `json:"reason"`
	ExpectedEffect string `json:"expected_effect"`
	WinProbChange  string `json:"win_prob_change"`
}

// Simulation is the pre-match report.
type Simulation struct {
	OurTeamID           int64        `json:"our_team_id"`
	OpponentID          int64        `json:"opponent_id"`
	OurRate             TeamRate     `json:"our_rate"`
	OpponentRate        TeamRate     `json:"opponent_rate"`
	BasePrediction      Prediction   `json:"base_prediction"`
	OptimalPrediction   Prediction   `json:"optimal_prediction"`
	WinImprovement      float64      `json:"win_improvement"`
	TacticalSuggestions []Suggestion `json:"tactical_suggestions"`
	Scenarios           []Scenario   `json:"scenarios"`
}

// ModelInfo describes a trained artifact.
type ModelInfo struct {
	ModelID            string           `json:"model_id"`
	Key                string           `json:"key"`
	Token              string           `json:"token"`
	TrainedAt          time.Time        `json:"trained_at"`
	Cutoff             *time.Time       `json:"cutoff,omitempty"`
	ExcludeGames       []int64          `json:"exclude_games"`
	CutoffRelaxed      bool             `json:"cutoff_relaxed"`
	TrainRows          int              `json:"train_rows"`
	ValidationRows     int              `json:"validation_rows"`
	TrainGames         int              `json:"train_games"`
	ValidationGames    int              `json:"validation_games"`
	ScoreCalibration   string           `json:"score_calibration"`
	ConcedeCalibration string           `json:"concede_calibration"`
	Metrics            training.Metrics `json:"metrics"`
}

// Training run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// TrainingRun is one ledger row.
type TrainingRun struct {
	ID         string    `json:"id"`
	ModelID    string    `json:"model_id,omitempty"`
	Key        string    `json:"key"`
	Token      string    `json:"token"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
	Games      int       `json:"games"`
	ScoreAUC   float64   `json:"score_auc"`
	ConcedeAUC float64   `json:"concede_auc"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats is the service status snapshot.
type Stats struct {
	Token         string `json:"token"`
	Actions       int    `json:"actions"`
	Matches       int    `json:"matches"`
	CachedModels  int64  `json:"cached_models"`
	QueueLength   int    `json:"queue_length"`
	QueueCapacity int    `json:"queue_capacity"`
	Workers       int    `json:"workers"`
	Started       bool   `json:"started"`
	Ready         bool   `json:"ready"`
	DataWarnings  int    `json:"data_warnings"`
	DroppedRows   int    `json:"dropped_rows"`
}

// Refresh reports the dataset published by a data reload.
type Refresh struct {
	Token        string `json:"token"`
	Changed      bool   `json:"changed"`
	Actions      int    `json:"actions"`
	Matches      int    `json:"matches"`
	SkippedRows  int    `json:"skipped_rows"`
	DataWarnings int    `json:"data_warnings"`
}
