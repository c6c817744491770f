package dispatch

import (
	"context"
	"time"

	"service-dispatch/internal/domain"
)

type orderStore interface {
	GetGroup(ctx context.Context, id string) (domain.Group, error)
	ListOutstanding(ctx context.Context, limit int) ([]domain.Order, error)
	ListStaleOffers(ctx context.Context, cutoff time.Time, limit int) ([]domain.Order, error)
	ListAvailableOffers(ctx context.Context, id domain.CourierID) ([]domain.Order, error)
}

type courierDirectory interface {
	FindEligible(ctx context.Context, excluding []domain.CourierID) ([]domain.Courier, error)
}

type courierStatus interface {
	Get(ctx context.Context, id domain.CourierID) (*domain.Courier, error)
	Resolve(ctx context.Context, ref string) (*domain.Courier, error)
	SetOnline(ctx context.Context, id domain.CourierID, at time.Time) error
	SetOffline(ctx context.Context, id domain.CourierID, at time.Time) error
}
