package handlers

import (
	"net/http"

	"service-dispatch/internal/logx"
)

// DispatchHandler serves HTTP endpoints for order dispatch.
type DispatchHandler struct {
	usecase dispatchUsecase
	logger  logx.Logger
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(logger logx.Logger, uc dispatchUsecase) *DispatchHandler {
	return &DispatchHandler{usecase: uc, logger: logger}
}

// Dispatch handles POST /orders/{id}/dispatch. id may be an order id or a group id.
func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	round, err := h.usecase.OnOrderCreated(r.Context(), id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, roundToResponse(round))
}

// Accept handles POST /orders/{id}/accept.
func (h *DispatchHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.courierAction(w, r)
	if !ok {
		return
	}
	res, err := h.usecase.OnAccept(r.Context(), id, req.CourierID)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, acceptToResponse(res))
}

// Reject handles POST /orders/{id}/reject.
func (h *DispatchHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.courierAction(w, r)
	if !ok {
		return
	}
	if _, err := h.usecase.OnReject(r.Context(), id, req.CourierID); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, statusResponse{Status: "rejected"})
}

// Cancel handles POST /orders/{id}/cancel.
func (h *DispatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	rel, err := h.usecase.Cancel(r.Context(), id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, releaseToResponse("cancelled", rel))
}

// Complete handles POST /orders/{id}/complete.
func (h *DispatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	rel, err := h.usecase.Complete(r.Context(), id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, releaseToResponse("completed", rel))
}

// Online handles POST /couriers/{id}/online and returns the stats of the triggered sweep.
func (h *DispatchHandler) Online(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	stats, err := h.usecase.OnCourierOnline(r.Context(), id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, sweepToResponse(stats))
}

// Offline handles POST /couriers/{id}/offline.
func (h *DispatchHandler) Offline(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.usecase.OnCourierOffline(r.Context(), id); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, statusResponse{Status: "offline"})
}

// Offers handles GET /couriers/{id}/offers.
func (h *DispatchHandler) Offers(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	orders, err := h.usecase.ListAvailableOffers(r.Context(), id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(orders))
}

func (h *DispatchHandler) courierAction(w http.ResponseWriter, r *http.Request) (string, courierRequest, bool) {
	var req courierRequest
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return "", req, false
	}
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return "", req, false
	}
	if req.CourierID == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "courier_id is required")
		return "", req, false
	}
	return id, req, true
}
