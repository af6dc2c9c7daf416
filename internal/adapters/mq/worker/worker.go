// Package worker runs training jobs taken off the queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/training"
	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
	recordTimeout       = 5 * time.Second
)

// Trainer fits an artifact.
type Trainer interface {
	Train(ctx context.Context, actions []model.Action, matches []model.Match, opts training.Options) (*training.Artifact, error)
}

// Recorder persists finished training runs.
type Recorder interface {
	Record(ctx context.Context, run types.TrainingRun) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker trains models for queued jobs.
type InMemoryWorker struct {
	queue    Queue
	trainer  Trainer
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, trainer Trainer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		trainer:  trainer,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			job.Done <- w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process trains one job and records the run.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) queue.Result { //nolint:gocritic // hugeParam: Job is passed by value through the channel
	start := time.Now()
	art, err := w.trainer.Train(ctx, job.Actions, job.Matches, job.Options)
	took := time.Since(start)
	metrics.RecordWorkerProcessingLatency(float64(took.Milliseconds()))

	run := types.TrainingRun{
		ID:         uuid.NewString(),
		Key:        job.Key,
		Token:      job.Token,
		DurationMs: took.Milliseconds(),
		CreatedAt:  start,
	}
	if err != nil {
		run.Status = types.RunFailed
		run.Error = err.Error()
		metrics.RecordTrainingRun(types.RunFailed)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "training_error")
		w.logger.Error(ctx, "training job failed",
			logger.String("job", job.ID),
			logger.String("key", job.Key),
			logger.Error(err))
	} else {
		run.Status = types.RunSucceeded
		run.ModelID = art.ID
		run.Rows = art.TrainRows + art.ValidationRows
		run.Games = len(art.TrainGames) + len(art.ValidationGames)
		run.ScoreAUC = art.Metrics.ScoreAUC
		run.ConcedeAUC = art.Metrics.ConcedeAUC
		metrics.RecordTrainingRun(types.RunSucceeded)
		w.logger.Debug(ctx, "training job done",
			logger.String("job", job.ID),
			logger.String("model", art.ID),
			logger.Duration("queued", start.Sub(job.Enqueued)))
	}
	w.record(ctx, run)
	return queue.Result{Artifact: art, Err: err}
}

func (w *InMemoryWorker) record(ctx context.Context, run types.TrainingRun) { //nolint:gocritic // hugeParam
	if w.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := w.recorder.Record(rctx, run); err != nil {
		metrics.RecordErrorByComponent("worker", "ledger_error")
		w.logger.Warn(ctx, "could not record training run",
			logger.String("run", run.ID),
			logger.Error(err))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int32

	logger logger.Logger
}

// NewPool creates a pool of workerCount trainers sharing q.
func NewPool(workerCount int, q Queue, trainer Trainer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, trainer, wopts...)
	}
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.active.Add(1)
		metrics.UpdateWorkerActiveCount(int(p.active.Load()))
		go func(w *InMemoryWorker) {
			defer func() {
				metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
			}()
			w.Run(ctx)
		}(w)
	}
	p.logger.Info(ctx, "trainer pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, stops every worker and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
