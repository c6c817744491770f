package dispatchtx

import (
	"context"

	"service-dispatch/internal/domain"
)

// Repository is the transaction-scoped view of the dispatch store.
// Rows returned by LockGroup and GetCourier stay locked until the transaction ends.
type Repository interface {
	// LockGroup locks and returns every order of the group that id belongs to.
	// id may be an order id or a group id. An empty result means not found.
	LockGroup(ctx context.Context, id string) ([]domain.Order, error)
	// SaveOrders writes the dispatch fields of the given orders.
	SaveOrders(ctx context.Context, orders []domain.Order) error
	// GetCourier locks and returns a courier by store id; nil when absent.
	GetCourier(ctx context.Context, id domain.CourierID) (*domain.Courier, error)
	// SetCourierAvailable sets the available flag of a courier.
	SetCourierAvailable(ctx context.Context, id domain.CourierID, available bool) error
	// CountAccepted counts accepted, not yet completed orders held by the courier.
	CountAccepted(ctx context.Context, id domain.CourierID) (int, error)
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
