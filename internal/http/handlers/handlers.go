package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"service-dispatch/internal/logx"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

// Handlers serves the service endpoints that sit outside dispatch.
type Handlers struct {
	Logger logx.Logger
	probes map[string]Probe
}

// New creates a Handlers instance. probes are consulted by the healthcheck.
func New(logger logx.Logger, probes map[string]Probe) *Handlers {
	return &Handlers{Logger: logger, probes: probes}
}

// Ping handles GET /ping and returns 200 with {"message":"pong"}.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.Logger, w, r, http.StatusOK, map[string]string{"message": "pong"})
}

// HealthcheckHead handles HEAD /healthcheck: 204 when every probe passes, 503 otherwise.
func (h *Handlers) HealthcheckHead(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := h.probes[name](ctx)
		cancel()
		if err != nil {
			loggerOrNop(h.Logger).Warn("healthcheck failed",
				logx.String("req_id", reqID(r.Context())),
				logx.String("probe", name),
				logx.Err(err),
			)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotFound returns a JSON 404 error for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusNotFound, "route not found")
}
