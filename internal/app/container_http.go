package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/http/handlers"
	"service-dispatch/internal/http/pprofserver"
	"service-dispatch/internal/http/router"
	"service-dispatch/internal/logx"
)

// newHandlers probes only postgres; Redis is optional and falls back to stored positions.
func newHandlers(logger logx.Logger, pool *pgxpool.Pool) *handlers.Handlers {
	return handlers.New(logger, map[string]handlers.Probe{"postgres": pool.Ping})
}

type pprofOut struct {
	dig.Out

	Server *http.Server `name:"pprof_server"`
}

func newPprofServer(cfg *config.Config) pprofOut {
	if !cfg.Pprof.Enabled {
		return pprofOut{}
	}
	return pprofOut{Server: pprofserver.NewServer(pprofserver.Config{
		Addr: cfg.Pprof.Addr,
		User: cfg.Pprof.User,
		Pass: cfg.Pprof.Pass,
	})}
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		newHandlers,
		handlers.NewDispatchUsecase,
		handlers.NewDispatchHandler,
		handlers.NewCourierUsecase,
		handlers.NewCourierHandler,
		handlers.NewSessionRegistry,
		handlers.NewWSHandler,
		newRateLimiter,
		newRateLimitMiddleware,
		router.New,
		serverProvider,
		newPprofServer,
	)
}
