package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"service-dispatch/internal/logx"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/service/dispatch"
)

// Runner runs the HTTP process
type Runner struct {
	runFn func(*dig.Container) error
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run}
}

// MustRun starts the HTTP server using the provided DI container
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}
	logger := loggerFrom(container)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		panic(err)
	}
}

func loggerFrom(container *dig.Container) logx.Logger {
	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })
	return logger
}

type appIn struct {
	dig.In

	Ctx         context.Context
	Logger      logx.Logger
	Pool        *pgxpool.Pool
	Server      *http.Server
	Pprof       *http.Server `name:"pprof_server" optional:"true"`
	Interval    sweepInterval
	Coordinator *dispatch.Coordinator
	Queue       *notify.Queue
	Closers     []closer `group:"closers"`
}

func run(container *dig.Container) error {
	return container.Invoke(appRun)
}

func appRun(in appIn) error {
	in.Queue.Start(context.Background())
	startSweepLoop(in.Ctx, in.Logger, in.Coordinator, time.Duration(in.Interval))

	errCh := make(chan error, 2)
	startServer(in.Server, in.Logger, "service-dispatch", errCh)
	if in.Pprof != nil {
		startServer(in.Pprof, in.Logger, "pprof", errCh)
	}

	var runErr error
	select {
	case <-in.Ctx.Done():
		in.Logger.Info("shutting down service-dispatch")
		runErr = in.Ctx.Err()
	case runErr = <-errCh:
		in.Logger.Error("server stopped", logx.Err(runErr))
	}

	gracefulShutdown(in.Server, in.Logger, 15*time.Second)
	if in.Pprof != nil {
		gracefulShutdown(in.Pprof, in.Logger, time.Second)
	}
	in.Coordinator.Wait()
	in.Queue.Close()
	closeAll(in.Logger, in.Closers)
	if in.Pool != nil {
		in.Pool.Close()
	}
	return runErr
}

func startServer(server *http.Server, logger logx.Logger, name string, errCh chan<- error) {
	go func() {
		logger.Info("listening", logx.String("server", name), logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
	}
}

type sweeper interface {
	Sweep(ctx context.Context) (dispatch.SweepStats, error)
}

// startSweepLoop re-dispatches outstanding orders every interval until ctx is done.
func startSweepLoop(ctx context.Context, logger logx.Logger, s sweeper, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
					logger.Error("periodic sweep failed", logx.Err(err))
				}
			}
		}
	}()
}
