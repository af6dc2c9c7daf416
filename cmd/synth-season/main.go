package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/matchday/internal/synth"
	"github.com/okian/matchday/pkg/logger"
)

// Default configuration constants.
const (
	defaultTeams       = 8
	defaultRounds      = 2
	defaultActions     = 360
	defaultSeed        = 7
	defaultNGames      = 5
	defaultTimeout     = 2 * time.Minute
	defaultHealthWait  = 30 * time.Second
	defaultRatePerSec  = 5
	defaultTestTimeout = 15 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		outDir  = flag.String("out", "data", "Directory for the generated CSV files")
		teams   = flag.Int("teams", defaultTeams, "Number of clubs")
		rounds  = flag.Int("rounds", defaultRounds, "Number of round robins")
		actions = flag.Int("actions", defaultActions, "On-ball actions per game")
		seed    = flag.Int64("seed", defaultSeed, "Random seed")
		baseURL = flag.String("url", "", "When set, run a smoke test against this service after writing")
		nGames  = flag.Int("games", defaultNGames, "Recent games per team for the smoke test")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		rps     = flag.Int("rps", defaultRatePerSec, "Client requests per second")
		format  = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	league := synth.Generate(
		synth.WithTeams(*teams),
		synth.WithRounds(*rounds),
		synth.WithActionsPerGame(*actions),
		synth.WithSeed(*seed),
	)
	if _, _, err := synth.WriteLeague(ctx, *outDir, league); err != nil {
		log.Error(ctx, "failed to write league", logger.Error(err))
		return 1
	}

	if *baseURL == "" {
		return 0
	}

	ids := make([]int64, 0, len(league.Teams))
	for _, t := range league.Teams {
		ids = append(ids, t.ID)
	}
	report, err := synth.Run(ctx, synth.RunConfig{
		BaseURL:        *baseURL,
		Teams:          ids,
		NGames:         *nGames,
		Timeout:        *timeout,
		HealthWait:     defaultHealthWait,
		RequestsPerSec: *rps,
	})
	if err != nil {
		log.Error(ctx, "smoke run failed", logger.Error(err))
		return 1
	}
	for _, s := range report.Summaries {
		log.Info(ctx, "team",
			logger.Int64("team", s.TeamID),
			logger.Int("games", len(s.Games)),
			logger.Float64("vaep", s.TeamTotalVAEP))
	}
	return 0
}
