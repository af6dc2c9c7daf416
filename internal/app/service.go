// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/adapters/mq/worker"
	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/modelcache"
	"github.com/okian/matchday/internal/domain/outcome"
	"github.com/okian/matchday/internal/domain/rating"
	"github.com/okian/matchday/internal/domain/training"
	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Default service configuration.
const (
	defaultWorkerCount = 2
	defaultQueueSize   = 16
	defaultCacheSize   = 32
	defaultRecentGames = 5
	defaultTopN        = 10
)

// Ledger persists and lists training runs.
type Ledger interface {
	worker.Recorder
	List(ctx context.Context, limit int) ([]types.TrainingRun, error)
}

// Service implements the API dependencies for valuation and simulation.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ledger    Ledger
	trainer   *training.Trainer
	estimator *rating.Estimator
	simulator *outcome.Simulator
	cache     *modelcache.Cache
	jobs      *queue.InMemoryQueue
	pool      *worker.Pool

	// Configuration
	workerCount   int
	queueSize     int
	cacheSize     int
	trainOnDemand bool
	warmUp        bool
	recentGames   int
	topN          int

	// State
	started bool
	ready   atomic.Bool
	cancel  context.CancelFunc
	runCtx  context.Context
	bg      sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the data-access collaborator. Defaults to an empty memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLedger records every training run.
func WithLedger(l Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

// WithTrainer sets the model trainer used by the worker pool.
func WithTrainer(t *training.Trainer) Option {
	return func(s *Service) {
		if t != nil {
			s.trainer = t
		}
	}
}

// WithEstimator sets the team rate estimator.
func WithEstimator(e *rating.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithSimulator sets the outcome simulator.
func WithSimulator(sim *outcome.Simulator) Option {
	return func(s *Service) {
		if sim != nil {
			s.simulator = sim
		}
	}
}

// WithWorkerCount sets the number of trainer workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending training jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithModelCacheSize bounds the number of cached artifacts.
func WithModelCacheSize(size int) Option {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// WithTrainOnDemand controls whether a cache miss trains a model.
func WithTrainOnDemand(enabled bool) Option {
	return func(s *Service) {
		s.trainOnDemand = enabled
	}
}

// WithWarmUp trains the unbounded model in the background on Start and after
// every data change.
func WithWarmUp(enabled bool) Option {
	return func(s *Service) {
		s.warmUp = enabled
	}
}

// WithRecentGames sets how many recent games a team is rated on by default.
func WithRecentGames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentGames = n
		}
	}
}

// WithTopN sets the default number of top players in a team summary.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   defaultWorkerCount,
		queueSize:     defaultQueueSize,
		cacheSize:     defaultCacheSize,
		trainOnDemand: true,
		recentGames:   defaultRecentGames,
		topN:          defaultTopN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the components, starts the trainer pool and, when
// enabled, warms up the unbounded model.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting matchday service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, nil, nil)
	}
	if s.trainer == nil {
		s.trainer = training.NewTrainer()
	}
	if s.estimator == nil {
		s.estimator = rating.NewEstimator()
	}
	if s.simulator == nil {
		s.simulator = outcome.NewSimulator()
	}

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	wopts := []worker.Option{worker.WithLogger(s.logger.Named("worker"))}
	if s.ledger != nil {
		wopts = append(wopts, worker.WithRecorder(s.ledger))
	}
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.trainer, wopts...)
	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cache = modelcache.New(s.queueBuilder(s.runCtx.Done()),
		modelcache.WithMaxSize(s.cacheSize),
		modelcache.WithTrainOnDemand(s.trainOnDemand),
		modelcache.WithLogger(s.logger.Named("modelcache")),
	)
	ds := s.store.Current()
	s.cache.Invalidate(ctx, ds.Token)

	s.pool.Start(s.runCtx)
	s.ready.Store(false)
	s.started = true

	if s.warmUp {
		s.startWarmUp(s.runCtx)
	}

	s.logger.Info(ctx, "matchday service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("cacheSize", s.cacheSize),
		logger.String("token", ds.Token),
		logger.Int("actions", len(ds.Actions)),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping matchday service...")

	s.cancel()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "trainer pool shutdown failed", logger.Error(err))
	}
	s.bg.Wait()

	s.started = false
	s.ready.Store(false)
	s.logger.Info(ctx, "matchday service stopped")
}

// Ready reports whether the unbounded model is trained for the current data.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// startWarmUp trains the unbounded model in the background. Must be called
// with s.mu held.
func (s *Service) startWarmUp(ctx context.Context) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ds := s.store.Current()
		art, err := s.cache.GetOrBuild(withDataset(ctx, ds), ds.Token, training.Options{})
		if err != nil {
			s.logger.Warn(ctx, "model warm-up failed",
				logger.String("token", ds.Token),
				logger.Error(err))
			return
		}
		if s.store.Current().Token == ds.Token {
			s.ready.Store(true)
		}
		s.logger.Info(ctx, "model warm-up done",
			logger.String("model", art.ID),
			logger.String("token", ds.Token),
			logger.Int("rows", art.TrainRows+art.ValidationRows))
	}()
}

type datasetKey struct{}

// withDataset pins the dataset a build must train on, so the artifact matches
// the token it is cached under.
func withDataset(ctx context.Context, ds *repository.Dataset) context.Context {
	return context.WithValue(ctx, datasetKey{}, ds)
}

// queueBuilder returns a build that hands a training job to the worker pool
// and waits for it. Waiting ends early when ctx ends or stopped closes.
func (s *Service) queueBuilder(stopped <-chan struct{}) modelcache.BuildFunc {
	return func(ctx context.Context, opts training.Options) (*training.Artifact, error) {
		ds, ok := ctx.Value(datasetKey{}).(*repository.Dataset)
		if !ok || ds == nil {
			ds = s.store.Current()
		}
		job := queue.NewJob(ds.Token, ds.Actions, ds.Matches, opts)
		if err := s.jobs.Enqueue(ctx, job); err != nil {
			metrics.RecordErrorByComponent("service", "enqueue_error")
			return nil, fmt.Errorf("enqueue training %q: %w", job.Key, err)
		}
		metrics.UpdateQueueSize(s.jobs.Len(ctx))

		select {
		case res := <-job.Done:
			if res.Err != nil {
				return nil, fmt.Errorf("train %q: %w", job.Key, res.Err)
			}
			return res.Artifact, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stopped:
			return nil, fmt.Errorf("train %q: %w", job.Key, ErrNotStarted)
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Workers: s.workerCount,
		Started: s.started,
		Ready:   s.ready.Load(),
	}
	if s.store != nil {
		ds := s.store.Current()
		stats.Token = ds.Token
		stats.Actions = len(ds.Actions)
		stats.Matches = len(ds.Matches)
		stats.DataWarnings = ds.Report.Total()
		stats.DroppedRows = ds.Report.Dropped + ds.SkippedRows
	}
	if s.started {
		ctx := context.Background()
		stats.QueueLength = s.jobs.Len(ctx)
		stats.QueueCapacity = s.jobs.Cap()
		stats.CachedModels = s.cache.Size()
		stats.Workers = s.pool.Size()

		metrics.UpdateQueueSize(stats.QueueLength)
		metrics.UpdateModelCacheSize(int(stats.CachedModels))
	}
	return stats
}
