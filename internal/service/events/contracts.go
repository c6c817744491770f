//go:generate mockgen -source=contracts.go -destination=events_mocks_test.go -package=events_test

package events

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/offer"
)

// OrderRegistry stores orders announced by the marketplace.
type OrderRegistry interface {
	RegisterOrder(ctx context.Context, o domain.Order) error
}

// DispatchPort is the subset of the dispatch coordinator driven by lifecycle events.
type DispatchPort interface {
	OnOrderCreated(ctx context.Context, id string) (dispatch.Round, error)
	OnCourierOnline(ctx context.Context, courierRef string) (dispatch.SweepStats, error)
	OnCourierOffline(ctx context.Context, courierRef string) error
	Cancel(ctx context.Context, id string) (offer.Release, error)
	Complete(ctx context.Context, id string) (offer.Release, error)
}
