package handlers

import (
	"net/http"
	"time"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

const dayLayout = "2006-01-02"

// CourierHandler serves HTTP endpoints for courier sessions and locations.
type CourierHandler struct {
	usecase courierUsecase
	logger  logx.Logger
	now     func() time.Time
}

// NewCourierHandler creates a new CourierHandler.
func NewCourierHandler(logger logx.Logger, uc courierUsecase) *CourierHandler {
	return &CourierHandler{usecase: uc, logger: logger, now: time.Now}
}

// Heartbeat handles POST /couriers/{id}/heartbeat.
func (h *CourierHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.usecase.Heartbeat(r.Context(), id); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateLocation handles PUT /couriers/{id}/location.
func (h *CourierHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req locationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	loc := domain.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := h.usecase.UpdateLocation(r.Context(), id, loc); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OnlineDuration handles GET /couriers/{id}/online-duration?day=YYYY-MM-DD (UTC, default today).
func (h *CourierHandler) OnlineDuration(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	day := h.now().UTC()
	if s := r.URL.Query().Get("day"); s != "" {
		day, err = time.Parse(dayLayout, s)
		if err != nil {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid day")
			return
		}
	}
	d, err := h.usecase.OnlineDuration(r.Context(), id, day)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, onlineDurationResponse{
		CourierID: id,
		Day:       day.Format(dayLayout),
		Seconds:   int64(d / time.Second),
	})
}
