// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional dotenv file, an optional YAML file and env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
)

// Goal dedup policies understood by the feature builder.
const (
	GoalDedupSamePlayer = "same_player"
	GoalDedupAdjacent   = "adjacent"
	GoalDedupOff        = "off"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// CORSOrigins lists allowed origins for the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// EventsFile and MatchesFile point at the raw event and match CSV exports.
	// Both empty means the service starts with an empty dataset.
	EventsFile  string `koanf:"events_file"`
	MatchesFile string `koanf:"matches_file"`

	// LedgerPath is the sqlite file recording training runs. Empty disables the ledger.
	LedgerPath string `koanf:"ledger_path"`

	// WorkerCount sets the number of trainer workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds pending training jobs.
	QueueSize int `koanf:"queue_size"`
	// ModelCacheSize bounds cached model artifacts.
	ModelCacheSize int `koanf:"model_cache_size"`

	LookaheadActions     int     `koanf:"lookahead_actions"`
	TrainSplit           float64 `koanf:"train_split"`
	IsotonicMinPositives int     `koanf:"isotonic_min_positives"`
	TrainEpochs          int     `koanf:"train_epochs"`
	LearningRate         float64 `koanf:"learning_rate"`
	L2                   float64 `koanf:"l2"`
	GoalDedup            string  `koanf:"goal_dedup"`

	RecentGames   int     `koanf:"recent_games"`
	Decay         float64 `koanf:"decay"`
	ShotRateFloor float64 `koanf:"shot_rate_floor"`
	Rho           float64 `koanf:"rho"`
	MaxGoals      int     `koanf:"max_goals"`
	TopN          int     `koanf:"top_n"`

	// TrainOnDemand lets a cache miss start a training run instead of failing.
	TrainOnDemand bool `koanf:"train_on_demand"`
	// TrainRatePerMinute throttles POST /api/models/train.
	TrainRatePerMinute int `koanf:"train_rate_per_minute"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		CORSOrigins:          []string{"*"},
		LedgerPath:           "",
		WorkerCount:          max(2, runtime.NumCPU()/2),
		QueueSize:            16,
		ModelCacheSize:       32,
		LookaheadActions:     10,
		TrainSplit:           0.8,
		IsotonicMinPositives: 50,
		TrainEpochs:          200,
		LearningRate:         0.5,
		L2:                   1e-4,
		GoalDedup:            GoalDedupSamePlayer,
		RecentGames:          5,
		Decay:                0.85,
		ShotRateFloor:        0.2,
		Rho:                  0.08,
		MaxGoals:             7,
		TopN:                 10,
		TrainOnDemand:        true,
		TrainRatePerMinute:   6,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TrainSplit <= 0 || c.TrainSplit >= 1:
		return fmt.Errorf("%w: train_split must be in (0,1), got %v", ErrInvalidConfig, c.TrainSplit)
	case c.Decay <= 0 || c.Decay > 1:
		return fmt.Errorf("%w: decay must be in (0,1], got %v", ErrInvalidConfig, c.Decay)
	case c.Rho < 0:
		return fmt.Errorf("%w: rho must not be negative", ErrInvalidConfig)
	case c.MaxGoals < 1:
		return fmt.Errorf("%w: max_goals must be at least 1", ErrInvalidConfig)
	case c.LookaheadActions < 1:
		return fmt.Errorf("%w: lookahead_actions must be at least 1", ErrInvalidConfig)
	case c.RecentGames < 1:
		return fmt.Errorf("%w: recent_games must be at least 1", ErrInvalidConfig)
	}
	switch c.GoalDedup {
	case GoalDedupSamePlayer, GoalDedupAdjacent, GoalDedupOff:
	default:
		return fmt.Errorf("%w: unknown goal_dedup policy %q", ErrInvalidConfig, c.GoalDedup)
	}
	return nil
}
