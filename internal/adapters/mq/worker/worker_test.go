package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/matchday/internal/adapters/mq/queue"
	worker "github.com/okian/matchday/internal/adapters/mq/worker"
	model "github.com/okian/matchday/internal/domain/model"
	training "github.com/okian/matchday/internal/domain/training"
	types "github.com/okian/matchday/internal/domain/types"
	logging "github.com/okian/matchday/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockTrainer struct {
	mu    sync.Mutex
	calls []training.Options
	err   error
}

func (mt *mockTrainer) Train(ctx context.Context, actions []model.Action, matches []model.Match, opts training.Options) (*training.Artifact, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.calls = append(mt.calls, opts)
	if mt.err != nil {
		return nil, mt.err
	}
	return &training.Artifact{
		ID:              "model-1",
		Key:             opts.Key(),
		Options:         opts,
		TrainRows:       80,
		ValidationRows:  20,
		TrainGames:      []int64{1, 2, 3, 4},
		ValidationGames: []int64{5},
		Metrics:         training.Metrics{ScoreAUC: 0.71, ConcedeAUC: 0.64},
	}, nil
}

func (mt *mockTrainer) callCount() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return len(mt.calls)
}

type mockRecorder struct {
	mu   sync.Mutex
	runs []types.TrainingRun
	err  error
}

func (mr *mockRecorder) Record(ctx context.Context, run types.TrainingRun) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.runs = append(mr.runs, run)
	return mr.err
}

func (mr *mockRecorder) all() []types.TrainingRun {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return append([]types.TrainingRun(nil), mr.runs...)
}

func await(t *testing.T, j queue.Job) queue.Result {
	select {
	case r := <-j.Done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
		return queue.Result{}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		trainer := &mockTrainer{}
		recorder := &mockRecorder{}
		w := worker.NewInMemoryWorker(q, trainer, worker.WithName("test-worker"), worker.WithRecorder(recorder))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job succeeds", func() {
			job := queue.NewJob("tok", nil, nil, training.Options{Exclude: []int64{7}})
			q.jobs <- job
			res := await(t, job)

			convey.Convey("Then the artifact is returned on the job", func() {
				convey.So(res.Err, convey.ShouldBeNil)
				convey.So(res.Artifact.ID, convey.ShouldEqual, "model-1")
				convey.So(trainer.callCount(), convey.ShouldEqual, 1)
			})

			convey.Convey("Then the run is recorded", func() {
				runs := recorder.all()
				convey.So(runs, convey.ShouldHaveLength, 1)
				convey.So(runs[0].Status, convey.ShouldEqual, types.RunSucceeded)
				convey.So(runs[0].Key, convey.ShouldEqual, "none|7")
				convey.So(runs[0].Token, convey.ShouldEqual, "tok")
				convey.So(runs[0].Rows, convey.ShouldEqual, 100)
				convey.So(runs[0].Games, convey.ShouldEqual, 5)
				convey.So(runs[0].ModelID, convey.ShouldEqual, "model-1")
			})
		})

		convey.Convey("When training fails", func() {
			trainer.err = training.ErrInsufficientData
			job := queue.NewJob("tok", nil, nil, training.Options{})
			q.jobs <- job
			res := await(t, job)

			convey.Convey("Then the error reaches the caller and the ledger", func() {
				convey.So(errors.Is(res.Err, training.ErrInsufficientData), convey.ShouldBeTrue)
				runs := recorder.all()
				convey.So(runs, convey.ShouldHaveLength, 1)
				convey.So(runs[0].Status, convey.ShouldEqual, types.RunFailed)
				convey.So(runs[0].Error, convey.ShouldContainSubstring, "insufficient data")
			})
		})

		convey.Convey("When the ledger rejects a run", func() {
			recorder.err = errors.New("disk full")
			job := queue.NewJob("tok", nil, nil, training.Options{})
			q.jobs <- job

			convey.Convey("Then the job still succeeds", func() {
				convey.So(await(t, job).Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then the worker stops", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		trainer := &mockTrainer{}
		pool := worker.NewPool(3, q, trainer)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When several jobs are queued", func() {
			jobs := make([]queue.Job, 6)
			for i := range jobs {
				jobs[i] = queue.NewJob("tok", nil, nil, training.Options{Exclude: []int64{int64(i)}})
				convey.So(q.Enqueue(ctx, jobs[i]), convey.ShouldBeNil)
			}

			convey.Convey("Then every job gets a result", func() {
				for _, j := range jobs {
					convey.So(await(t, j).Err, convey.ShouldBeNil)
				}
				convey.So(trainer.callCount(), convey.ShouldEqual, 6)
				convey.So(pool.Size(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the pool shuts down", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the queue is closed", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				err := q.Enqueue(ctx, queue.NewJob("tok", nil, nil, training.Options{}))
				convey.So(errors.Is(err, queue.ErrQueueClosed), convey.ShouldBeTrue)
			})
		})
	})
}
