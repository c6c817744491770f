package offer

import (
	"context"
	"errors"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/dispatchtx"
)

// ErrStale is returned when the group moved on between the dispatch snapshot and the locked write.
// Nothing is written in that case.
var ErrStale = errors.New("offer: group state changed")

// Machine applies offer state transitions to order groups.
// Every transition locks the whole group and writes all active members in one transaction.
type Machine struct {
	runner dispatchtx.Runner
	now    func() time.Time
}

// NewMachine creates a new Machine.
func NewMachine(runner dispatchtx.Runner) *Machine {
	return &Machine{
		runner: runner,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, used by tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Release describes the effect of closing orders.
type Release struct {
	Orders []domain.Order
	// Courier is set when the courier holding the orders became free again.
	Courier *domain.CourierID
}

// Open makes the group claimable by any eligible courier.
func (m *Machine) Open(ctx context.Context, id string) (domain.Group, error) {
	return m.transition(ctx, id, func(_ dispatchtx.Repository, g *domain.Group) error {
		if err := requireDispatchable(g); err != nil {
			return err
		}
		now := m.now()
		g.Apply(func(o *domain.Order) {
			o.OfferedTo = nil
			o.OfferedAt = nil
			o.Status = domain.OrderPending
			o.AssignmentStatus = domain.AssignmentSearching
			o.UpdatedAt = now
		})
		return nil
	})
}

// OfferTo pins the group to a single courier.
func (m *Machine) OfferTo(ctx context.Context, id string, courier domain.Courier) (domain.Group, error) {
	return m.transition(ctx, id, func(_ dispatchtx.Repository, g *domain.Group) error {
		if err := requireDispatchable(g); err != nil {
			return err
		}
		if g.HasRejected(courier.ID) {
			return ErrStale
		}
		now := m.now()
		g.Apply(func(o *domain.Order) {
			pinned := courier.ID
			at := now
			o.OfferedTo = &pinned
			o.OfferedAt = &at
			o.Status = domain.OrderRequestingCourier
			o.AssignmentStatus = domain.AssignmentAssigned
			o.UpdatedAt = now
		})
		return nil
	})
}

// MarkUnfulfillable records that an offer round found no eligible courier.
func (m *Machine) MarkUnfulfillable(ctx context.Context, id string) (domain.Group, error) {
	return m.transition(ctx, id, func(_ dispatchtx.Repository, g *domain.Group) error {
		if err := requireDispatchable(g); err != nil {
			return err
		}
		now := m.now()
		g.Apply(func(o *domain.Order) {
			o.OfferedTo = nil
			o.OfferedAt = nil
			o.Status = domain.OrderPending
			o.AssignmentStatus = domain.AssignmentNoCouriers
			o.UpdatedAt = now
		})
		return nil
	})
}

// Reject records that the courier declined the group and returns it to searching.
// Rejecting twice is a no-op on rejectedBy.
func (m *Machine) Reject(ctx context.Context, id string, courier domain.Courier) (domain.Group, error) {
	return m.transition(ctx, id, func(_ dispatchtx.Repository, g *domain.Group) error {
		switch g.State() {
		case domain.StateClosed, domain.StateAccepted:
			return apperr.ErrNotEligible
		}
		if pinned := g.OfferedTo(); pinned != nil && !courier.Matches(*pinned) {
			return apperr.ErrNotEligible
		}
		decline(g, courier.ID, m.now())
		return nil
	})
}

// Expire treats a pin older than cutoff as a rejection by the pinned courier.
// It returns the courier whose pin expired.
func (m *Machine) Expire(ctx context.Context, id string, cutoff time.Time) (domain.Group, domain.CourierID, error) {
	var expired domain.CourierID
	g, err := m.transition(ctx, id, func(_ dispatchtx.Repository, g *domain.Group) error {
		if g.State() != domain.StateOffered {
			return ErrStale
		}
		at := g.OfferedAt()
		if at != nil && at.After(cutoff) {
			return ErrStale
		}
		expired = *g.OfferedTo()
		decline(g, expired, m.now())
		return nil
	})
	return g, expired, err
}

// Accept assigns every active member of the group to the courier, all or nothing.
// A repeated accept by the winning courier only picks up members that are still unassigned.
func (m *Machine) Accept(ctx context.Context, id string, courierID domain.CourierID) (domain.Group, error) {
	return m.transition(ctx, id, func(tx dispatchtx.Repository, g *domain.Group) error {
		switch g.State() {
		case domain.StateClosed:
			return apperr.ErrNotEligible
		case domain.StateAccepted:
			if *g.AssignedCourier() != courierID {
				return apperr.ErrAlreadyAssigned
			}
			now := m.now()
			g.Apply(func(o *domain.Order) {
				if o.AssignedCourier == nil {
					domain.Assign(o, courierID, now)
				}
			})
			return nil
		}
		if g.HasRejected(courierID) {
			return apperr.ErrNotEligible
		}

		courier, err := tx.GetCourier(ctx, courierID)
		if err != nil {
			return err
		}
		if courier == nil {
			return apperr.ErrNotFound
		}
		if pinned := g.OfferedTo(); pinned != nil && !courier.Matches(*pinned) {
			return apperr.ErrNotEligible
		}
		if !courier.Online || !courier.Available {
			return apperr.ErrNotEligible
		}

		now := m.now()
		g.Apply(func(o *domain.Order) {
			domain.Assign(o, courier.ID, now)
		})
		return tx.SetCourierAvailable(ctx, courier.ID, false)
	})
}

// Cancel moves the order, or every active member when id is a group id, to cancelled.
func (m *Machine) Cancel(ctx context.Context, id string) (Release, error) {
	return m.close(ctx, id, domain.OrderCancelled)
}

// Complete moves an accepted order, or every accepted member when id is a group id, to completed.
func (m *Machine) Complete(ctx context.Context, id string) (Release, error) {
	return m.close(ctx, id, domain.OrderCompleted)
}

func (m *Machine) close(ctx context.Context, id string, status domain.OrderStatus) (Release, error) {
	var rel Release
	err := m.runner.WithTx(ctx, func(tx dispatchtx.Repository) error {
		orders, err := tx.LockGroup(ctx, id)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return apperr.ErrNotFound
		}
		g := domain.NewGroup(orders)

		targets, single := targetsOf(&g, id)
		now := m.now()
		var changed []domain.Order
		var holder *domain.CourierID
		for _, o := range targets {
			if o.Status == status {
				continue
			}
			if o.Status.Terminal() {
				if single {
					return apperr.ErrConflict
				}
				continue
			}
			if status == domain.OrderCompleted && o.Status != domain.OrderAccepted {
				return apperr.ErrConflict
			}
			if o.AssignedCourier != nil {
				c := *o.AssignedCourier
				holder = &c
			}
			o.Status = status
			o.UpdatedAt = now
			changed = append(changed, o.Clone())
		}
		if len(changed) == 0 {
			return nil
		}
		if err := tx.SaveOrders(ctx, g.Orders); err != nil {
			return err
		}
		rel.Orders = changed

		if holder == nil {
			return nil
		}
		left, err := tx.CountAccepted(ctx, *holder)
		if err != nil {
			return err
		}
		if left > 0 {
			return nil
		}
		courier, err := tx.GetCourier(ctx, *holder)
		if err != nil {
			return err
		}
		if courier == nil {
			return nil
		}
		if err := tx.SetCourierAvailable(ctx, courier.ID, courier.Online); err != nil {
			return err
		}
		if courier.Online {
			rel.Courier = holder
		}
		return nil
	})
	if err != nil {
		return Release{}, err
	}
	return rel, nil
}

func (m *Machine) transition(ctx context.Context, id string, fn func(tx dispatchtx.Repository, g *domain.Group) error) (domain.Group, error) {
	var out domain.Group
	err := m.runner.WithTx(ctx, func(tx dispatchtx.Repository) error {
		orders, err := tx.LockGroup(ctx, id)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return apperr.ErrNotFound
		}
		g := domain.NewGroup(orders)
		if err := fn(tx, &g); err != nil {
			return err
		}
		if err := tx.SaveOrders(ctx, g.Orders); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return domain.Group{}, err
	}
	return out, nil
}

// targetsOf returns the members addressed by id, either one order or the whole group.
func targetsOf(g *domain.Group, id string) ([]*domain.Order, bool) {
	if o := g.Find(id); o != nil {
		return []*domain.Order{o}, true
	}
	out := make([]*domain.Order, 0, len(g.Orders))
	for i := range g.Orders {
		out = append(out, &g.Orders[i])
	}
	return out, false
}

func requireDispatchable(g *domain.Group) error {
	switch g.State() {
	case domain.StateSearching, domain.StateUnfulfillable:
		return nil
	default:
		return ErrStale
	}
}

func decline(g *domain.Group, id domain.CourierID, now time.Time) {
	g.Apply(func(o *domain.Order) {
		if !o.HasRejected(id) {
			o.RejectedBy = append(o.RejectedBy, id)
		}
		o.OfferedTo = nil
		o.OfferedAt = nil
		o.Status = domain.OrderPending
		o.AssignmentStatus = domain.AssignmentSearching
		o.UpdatedAt = now
	})
}
