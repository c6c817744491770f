package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"service-dispatch/internal/logx"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/transport/kafka"
)

// WorkerRunner runs the event worker
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun starts the worker using the provided DI container
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

type workerIn struct {
	dig.In

	Ctx         context.Context
	Logger      logx.Logger
	Pool        *pgxpool.Pool
	Consumer    *kafka.Consumer
	Interval    sweepInterval
	Coordinator *dispatch.Coordinator
	Queue       *notify.Queue
	Closers     []closer `group:"closers"`
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(in workerIn) error {
	if in.Consumer == nil {
		return fmt.Errorf("kafka consumer is nil: worker container misconfigured")
	}
	defer closeWorker(in)

	if in.Queue != nil {
		in.Queue.Start(context.Background())
	}
	if in.Coordinator != nil {
		startSweepLoop(in.Ctx, in.Logger, in.Coordinator, time.Duration(in.Interval))
	}

	in.Logger.Info("service-dispatch-worker started")
	return in.Consumer.Run(in.Ctx)
}

func closeWorker(in workerIn) {
	if err := in.Consumer.Close(); err != nil {
		in.Logger.Error("kafka close error", logx.Err(err))
	}
	if in.Coordinator != nil {
		in.Coordinator.Wait()
	}
	if in.Queue != nil {
		in.Queue.Close()
	}
	closeAll(in.Logger, in.Closers)
	if in.Pool != nil {
		in.Pool.Close()
	}
}
