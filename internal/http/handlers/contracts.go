package handlers

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/service/courier"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/offer"
)

type dispatchUsecase interface {
	OnOrderCreated(ctx context.Context, id string) (dispatch.Round, error)
	OnAccept(ctx context.Context, id, courierRef string) (dispatch.AcceptResult, error)
	OnReject(ctx context.Context, orderID, courierRef string) (dispatch.Round, error)
	Cancel(ctx context.Context, id string) (offer.Release, error)
	Complete(ctx context.Context, id string) (offer.Release, error)
	OnCourierOnline(ctx context.Context, courierRef string) (dispatch.SweepStats, error)
	OnCourierOffline(ctx context.Context, courierRef string) error
	ListAvailableOffers(ctx context.Context, courierRef string) ([]domain.Order, error)
}

// NewDispatchUsecase wires a dispatch Coordinator into a dispatchUsecase.
func NewDispatchUsecase(c *dispatch.Coordinator) dispatchUsecase {
	return c
}

type courierUsecase interface {
	Get(ctx context.Context, ref string) (*domain.Courier, error)
	Heartbeat(ctx context.Context, ref string) error
	UpdateLocation(ctx context.Context, ref string, loc domain.Location) error
	OnlineDuration(ctx context.Context, ref string, day time.Time) (time.Duration, error)
}

// NewCourierUsecase wires a courier Service into a courierUsecase.
func NewCourierUsecase(s *courier.Service) courierUsecase {
	return s
}

type sessionRegistry interface {
	Register(id domain.CourierID, conn *websocket.Conn)
	Unregister(id domain.CourierID, conn *websocket.Conn)
}

// NewSessionRegistry wires a notify Hub into a sessionRegistry.
func NewSessionRegistry(h *notify.Hub) sessionRegistry {
	return h
}
