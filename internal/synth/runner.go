package synth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/pkg/logger"
)

// RunConfig drives a smoke run against a live service.
type RunConfig struct {
	BaseURL        string
	Teams          []int64
	NGames         int
	Timeout        time.Duration
	HealthWait     time.Duration
	RequestsPerSec int
}

// Report summarizes a smoke run.
type Report struct {
	Model       types.ModelInfo
	Summaries   []types.TeamSummary
	Rates       []types.TeamRate
	Simulation  *types.Simulation
	Runs        []types.TrainingRun
	MissingData []int64
	Duration    time.Duration
}

// Run waits for the service, trains a model, then requests every team's
// summary and rate and a pre-match simulation for the first two teams.
// Teams without data are recorded rather than failing the run.
func Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	start := time.Now()
	log := logger.Get().Named("smoke")
	client := NewClient(cfg.BaseURL, cfg.Timeout, cfg.RequestsPerSec)
	report := &Report{}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("teams", len(cfg.Teams)),
		logger.Int("nGames", cfg.NGames))

	if err := client.WaitHealthy(ctx, cfg.HealthWait); err != nil {
		return nil, err
	}

	if err := client.Post(ctx, "/api/models/train", struct{}{}, &report.Model); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	log.Info(ctx, "model trained",
		logger.String("model", report.Model.ModelID),
		logger.Int("rows", report.Model.TrainRows),
		logger.Float64("scoreAUC", report.Model.Metrics.ScoreAUC),
		logger.Float64("concedeAUC", report.Model.Metrics.ConcedeAUC))

	for _, team := range cfg.Teams {
		var summary types.TeamSummary
		err := client.Get(ctx, fmt.Sprintf("/api/teams/%d/vaep?n_games=%d", team, cfg.NGames), &summary)
		if IsStatus(err, http.StatusNotFound) {
			report.MissingData = append(report.MissingData, team)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("team %d summary: %w", team, err)
		}
		report.Summaries = append(report.Summaries, summary)

		var rate types.TeamRate
		if err := client.Get(ctx, fmt.Sprintf("/api/teams/%d/rate?n_games=%d", team, cfg.NGames), &rate); err != nil {
			return nil, fmt.Errorf("team %d rate: %w", team, err)
		}
		report.Rates = append(report.Rates, rate)
	}

	if len(cfg.Teams) >= 2 {
		req := map[string]any{
			"our_team_id": cfg.Teams[0],
			"opponent_id": cfg.Teams[1],
			"n_games":     cfg.NGames,
		}
		var sim types.Simulation
		if err := client.Post(ctx, "/api/simulation/pre-match", req, &sim); err != nil {
			return nil, fmt.Errorf("pre-match: %w", err)
		}
		report.Simulation = &sim
		log.Info(ctx, "pre-match simulated",
			logger.Int64("our", sim.OurTeamID),
			logger.Int64("opponent", sim.OpponentID),
			logger.Float64("win", sim.BasePrediction.Win),
			logger.Float64("draw", sim.BasePrediction.Draw),
			logger.Float64("lose", sim.BasePrediction.Lose))
	}

	if err := client.Get(ctx, "/api/models/runs?limit=10", &report.Runs); err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}

	report.Duration = time.Since(start)
	log.Info(ctx, "smoke run completed",
		logger.Int("summaries", len(report.Summaries)),
		logger.Int("missing", len(report.MissingData)),
		logger.Duration("duration", report.Duration))
	return report, nil
}
