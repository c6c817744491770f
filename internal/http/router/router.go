package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-dispatch/internal/http/handlers"
	obs "service-dispatch/internal/http/middleware"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	h *handlers.Handlers,
	d *handlers.DispatchHandler,
	c *handlers.CourierHandler,
	ws *handlers.WSHandler,
	rl *ratelimit.Middleware,
	logger logx.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.Observability(logger))

	r.Get("/ping", h.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(h.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())

	// long-lived, stays outside the request timeout
	r.Get("/couriers/{id}/ws", ws.Stream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		if rl != nil {
			r.Use(rl.Handler())
		}

		r.Route("/orders/{id}", func(r chi.Router) {
			r.Post("/dispatch", d.Dispatch)
			r.Post("/accept", d.Accept)
			r.Post("/reject", d.Reject)
			r.Post("/cancel", d.Cancel)
			r.Post("/complete", d.Complete)
		})

		r.Route("/couriers/{id}", func(r chi.Router) {
			r.Post("/online", d.Online)
			r.Post("/offline", d.Offline)
			r.Get("/offers", d.Offers)
			r.Post("/heartbeat", c.Heartbeat)
			r.Put("/location", c.UpdateLocation)
			r.Get("/online-duration", c.OnlineDuration)
		})
	})

	r.NotFound(http.HandlerFunc(h.NotFound))

	return r
}
