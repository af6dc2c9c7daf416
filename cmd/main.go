package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/matchday/internal/adapters/http/api"
	"github.com/okian/matchday/internal/adapters/ledger"
	"github.com/okian/matchday/internal/adapters/repository"
	app "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/config"
	"github.com/okian/matchday/internal/domain/features"
	"github.com/okian/matchday/internal/domain/learn"
	"github.com/okian/matchday/internal/domain/outcome"
	"github.com/okian/matchday/internal/domain/rating"
	"github.com/okian/matchday/internal/domain/training"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants. Training requests can run for a while, so
// the write timeout is generous.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 120 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We collect our own system metrics instead of the default collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> dotenv -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, closer, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Error(ctx, "failed to close ledger", logger.Error(err))
		}
	}()

	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithTrainRate(cfg.TrainRatePerMinute),
		api.WithLogger(log.Named("api")),
	)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildService wires the data source, ledger and models from cfg. The
// returned closer releases the ledger and must be called after Stop.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, io.Closer, error) {
	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	builder := features.NewBuilder(
		features.WithLookahead(cfg.LookaheadActions),
		features.WithDedupPolicy(features.DedupPolicy(cfg.GoalDedup)),
	)
	trainer := training.NewTrainer(
		training.WithFeatureBuilder(builder),
		training.WithTrainSplit(cfg.TrainSplit),
		training.WithIsotonicMinPositives(cfg.IsotonicMinPositives),
		training.WithFitOptions(
			learn.WithEpochs(cfg.TrainEpochs),
			learn.WithLearningRate(cfg.LearningRate),
			learn.WithL2(cfg.L2),
		),
		training.WithLogger(log.Named("training")),
	)

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithTrainer(trainer),
		app.WithEstimator(rating.NewEstimator(rating.WithDecay(cfg.Decay), rating.WithFloor(cfg.ShotRateFloor))),
		app.WithSimulator(outcome.NewSimulator(outcome.WithRho(cfg.Rho), outcome.WithMaxGoals(cfg.MaxGoals))),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithModelCacheSize(cfg.ModelCacheSize),
		app.WithTrainOnDemand(cfg.TrainOnDemand),
		app.WithRecentGames(cfg.RecentGames),
		app.WithTopN(cfg.TopN),
		app.WithWarmUp(true),
	}

	var closer io.Closer = nopCloser{}
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(ctx, cfg.LedgerPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, app.WithLedger(l))
		closer = l
	}
	return app.New(opts...), closer, nil
}

// buildStore loads the configured CSV exports, or starts empty when none
// are configured.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	rlog := repository.WithLogger(log.Named("repository"))
	if cfg.EventsFile == "" && cfg.MatchesFile == "" {
		log.Warn(ctx, "no data files configured; starting with an empty dataset")
		return repository.NewMemoryStore(ctx, nil, nil, rlog), nil
	}
	store := repository.NewFileStore(cfg.EventsFile, cfg.MatchesFile, rlog)
	if _, err := store.Load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	metrics.UpdateDatasetSize(stats.Actions, stats.Matches)
	if stats.QueueCapacity > 0 {
		metrics.UpdateQueueCapacity(stats.QueueCapacity)
		metrics.UpdateQueueUtilization(float64(stats.QueueLength) / float64(stats.QueueCapacity))
	}
}
