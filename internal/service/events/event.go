package events

import (
	"time"

	"service-dispatch/internal/domain"
)

// List of lifecycle event types
const (
	TypeOrderCreated   = "order.created"
	TypeOrderCancelled = "order.cancelled"
	TypeOrderCompleted = "order.completed"
	TypeCourierOnline  = "courier.online"
	TypeCourierOffline = "courier.offline"
)

// Event is a single order or courier lifecycle event
type Event struct {
	Type       string
	OrderID    string
	GroupID    string
	CourierID  string
	Origin     *domain.Location
	OccurredAt time.Time
}

// Order builds the order announced by an order.created event.
func (e Event) Order() domain.Order {
	o := domain.Order{
		ID:               e.OrderID,
		Origin:           e.Origin,
		Status:           domain.OrderPending,
		AssignmentStatus: domain.AssignmentSearching,
		CreatedAt:        e.OccurredAt,
		UpdatedAt:        e.OccurredAt,
	}
	if e.GroupID != "" {
		g := e.GroupID
		o.GroupID = &g
	}
	return o
}
