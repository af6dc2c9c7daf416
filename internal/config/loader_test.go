package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/matchday/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.LookaheadActions, convey.ShouldEqual, 10)
				convey.So(cfg.TrainSplit, convey.ShouldEqual, 0.8)
				convey.So(cfg.IsotonicMinPositives, convey.ShouldEqual, 50)
				convey.So(cfg.Decay, convey.ShouldEqual, 0.85)
				convey.So(cfg.Rho, convey.ShouldEqual, 0.08)
				convey.So(cfg.MaxGoals, convey.ShouldEqual, 7)
				convey.So(cfg.GoalDedup, convey.ShouldEqual, config.GoalDedupSamePlayer)
				convey.So(cfg.TrainOnDemand, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MATCHDAY_ADDR", ":8080")
			_ = os.Setenv("MATCHDAY_QUEUE_SIZE", "64")
			_ = os.Setenv("MATCHDAY_ISOTONIC_MIN_POSITIVES", "20")
			_ = os.Setenv("MATCHDAY_GOAL_DEDUP", "adjacent")
			_ = os.Setenv("MATCHDAY_TRAIN_ON_DEMAND", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.IsotonicMinPositives, convey.ShouldEqual, 20)
				convey.So(cfg.GoalDedup, convey.ShouldEqual, config.GoalDedupAdjacent)
				convey.So(cfg.TrainOnDemand, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
recent_games: 8
rho: 0.1
events_file: "/data/raw_data.csv"
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHDAY_CONFIG", tmpFile)
			_ = os.Setenv("MATCHDAY_ADDR", ":8081")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.RecentGames, convey.ShouldEqual, 8)
				convey.So(cfg.Rho, convey.ShouldEqual, 0.1)
				convey.So(cfg.EventsFile, convey.ShouldEqual, "/data/raw_data.csv")
				convey.So(cfg.MaxGoals, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When a dotenv file is given", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "test.env")
			convey.So(os.WriteFile(path, []byte("MATCHDAY_TOP_N=3\nMATCHDAY_DECAY=0.9\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("MATCHDAY_ENV_FILE", path)
			_ = os.Setenv("MATCHDAY_DECAY", "0.7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset values without overriding the real env", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopN, convey.ShouldEqual, 3)
				convey.So(cfg.Decay, convey.ShouldEqual, 0.7)
			})
		})

		convey.Convey("When the dotenv file is missing", func() {
			_ = os.Setenv("MATCHDAY_ENV_FILE", "/non/existent/.env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHDAY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MATCHDAY_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MATCHDAY_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"MATCHDAY_CONFIG",
		"MATCHDAY_ENV_FILE",
		"MATCHDAY_ADDR",
		"MATCHDAY_QUEUE_SIZE",
		"MATCHDAY_ISOTONIC_MIN_POSITIVES",
		"MATCHDAY_GOAL_DEDUP",
		"MATCHDAY_TRAIN_ON_DEMAND",
		"MATCHDAY_TOP_N",
		"MATCHDAY_DECAY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "matchday-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
