package domain

type (
	// OrderStatus is the lifecycle status of an order.
	OrderStatus string
	// AssignmentStatus tracks the progress of courier search for an order.
	AssignmentStatus string
	// OfferState is the dispatch state derived from an order group.
	OfferState string
)

// List of order statuses relevant to dispatch
const (
	OrderPending           OrderStatus = "pending"
	OrderRequestingCourier OrderStatus = "requesting_courier"
	OrderAccepted          OrderStatus = "accepted"
	OrderCompleted         OrderStatus = "completed"
	OrderCancelled         OrderStatus = "cancelled"
)

// List of assignment statuses
const (
	AssignmentSearching  AssignmentStatus = "searching"
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentNoCouriers AssignmentStatus = "no_couriers_available"
)

// List of offer states
const (
	StateSearching     OfferState = "searching"
	StateOffered       OfferState = "offered"
	StateAccepted      OfferState = "accepted"
	StateUnfulfillable OfferState = "unfulfillable"
	StateClosed        OfferState = "closed"
)

// Terminal reports whether the status ends the order's dispatch life.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Valid checks if the OrderStatus is known
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderRequestingCourier, OrderAccepted, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}
