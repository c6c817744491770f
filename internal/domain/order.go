package domain

import (
	"slices"
	"sort"
	"time"
)

// Order is the dispatch-relevant subset of a marketplace order.
type Order struct {
	ID               string
	GroupID          *string
	Origin           *Location
	Status           OrderStatus
	AssignmentStatus AssignmentStatus
	OfferedTo        *CourierID
	OfferedAt        *time.Time
	RejectedBy       []CourierID
	AssignedCourier  *CourierID
	AcceptedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// GroupKey returns the key that serializes dispatch work for this order.
func (o Order) GroupKey() string {
	if o.GroupID != nil && *o.GroupID != "" {
		return *o.GroupID
	}
	return o.ID
}

// HasRejected reports whether the courier already declined this order.
func (o Order) HasRejected(id CourierID) bool {
	return slices.Contains(o.RejectedBy, id)
}

// VisibleTo reports whether the order is currently claimable by the courier.
func (o Order) VisibleTo(id CourierID) bool {
	if o.Status.Terminal() || o.AssignedCourier != nil || o.HasRejected(id) {
		return false
	}
	if o.Status != OrderPending && o.Status != OrderRequestingCourier {
		return false
	}
	return o.OfferedTo == nil || *o.OfferedTo == id
}

// Normalize fills the defaults of a newly announced order.
func (o Order) Normalize(now time.Time) Order {
	if o.Status == "" {
		o.Status = OrderPending
	}
	if o.AssignmentStatus == "" {
		o.AssignmentStatus = AssignmentSearching
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	return o
}

// Clone returns a deep copy so callers never share pointer fields.
func (o Order) Clone() Order {
	c := o
	if o.GroupID != nil {
		g := *o.GroupID
		c.GroupID = &g
	}
	if o.Origin != nil {
		l := *o.Origin
		c.Origin = &l
	}
	c.OfferedTo = cloneCourierID(o.OfferedTo)
	c.AssignedCourier = cloneCourierID(o.AssignedCourier)
	c.OfferedAt = cloneTime(o.OfferedAt)
	c.AcceptedAt = cloneTime(o.AcceptedAt)
	c.RejectedBy = slices.Clone(o.RejectedBy)
	return c
}

func cloneCourierID(id *CourierID) *CourierID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Group is the set of orders from one checkout that is offered and accepted as a unit.
// A single order without a group id is a group of one.
type Group struct {
	Key    string
	Orders []Order
}

// NewGroup builds a group from its members, ordered by creation time then id.
func NewGroup(orders []Order) Group {
	members := make([]Order, 0, len(orders))
	for _, o := range orders {
		members = append(members, o.Clone())
	}
	sort.SliceStable(members, func(i, j int) bool {
		if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		}
		return members[i].ID < members[j].ID
	})
	g := Group{Orders: members}
	if len(members) > 0 {
		g.Key = members[0].GroupKey()
	}
	return g
}

// IDs returns member order ids.
func (g Group) IDs() []string {
	out := make([]string, 0, len(g.Orders))
	for _, o := range g.Orders {
		out = append(out, o.ID)
	}
	return out
}

// Active returns members that are not in a terminal status.
func (g Group) Active() []Order {
	out := make([]Order, 0, len(g.Orders))
	for _, o := range g.Orders {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	return out
}

// Closed reports whether every member is completed or cancelled.
func (g Group) Closed() bool {
	return len(g.Active()) == 0
}

// Origin returns the pickup location of the oldest active member that has one.
func (g Group) Origin() *Location {
	for _, o := range g.Active() {
		if o.Origin != nil {
			l := *o.Origin
			return &l
		}
	}
	return nil
}

// AssignedCourier returns the courier holding the active members, if any.
func (g Group) AssignedCourier() *CourierID {
	for _, o := range g.Active() {
		if o.AssignedCourier != nil {
			return cloneCourierID(o.AssignedCourier)
		}
	}
	return nil
}

// OfferedTo returns the courier the active members are pinned to, if any.
func (g Group) OfferedTo() *CourierID {
	for _, o := range g.Active() {
		if o.OfferedTo != nil {
			return cloneCourierID(o.OfferedTo)
		}
	}
	return nil
}

// OfferedAt returns when the current pin was made.
func (g Group) OfferedAt() *time.Time {
	for _, o := range g.Active() {
		if o.OfferedAt != nil {
			return cloneTime(o.OfferedAt)
		}
	}
	return nil
}

// RejectedBy returns the union of couriers that declined any member.
func (g Group) RejectedBy() []CourierID {
	var out []CourierID
	for _, o := range g.Orders {
		for _, id := range o.RejectedBy {
			if !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	return out
}

// HasRejected reports whether the courier declined the group.
func (g Group) HasRejected(id CourierID) bool {
	return slices.Contains(g.RejectedBy(), id)
}

// State derives the offer state machine position of the group.
func (g Group) State() OfferState {
	active := g.Active()
	switch {
	case len(active) == 0:
		return StateClosed
	case g.AssignedCourier() != nil:
		return StateAccepted
	case g.OfferedTo() != nil:
		return StateOffered
	case active[0].AssignmentStatus == AssignmentNoCouriers:
		return StateUnfulfillable
	default:
		return StateSearching
	}
}

// Adopt aligns an order joining the group with the dispatch state of its active members.
// The joining order inherits rejectedBy, the pin and the holder. A group with no active
// member hands over rejectedBy only.
func (g Group) Adopt(o Order, now time.Time) Order {
	out := o.Clone()
	for _, id := range g.RejectedBy() {
		if !out.HasRejected(id) {
			out.RejectedBy = append(out.RejectedBy, id)
		}
	}
	active := g.Active()
	if out.Status.Terminal() || len(active) == 0 {
		return out
	}
	if holder := g.AssignedCourier(); holder != nil {
		Assign(&out, *holder, now)
		return out
	}
	lead := active[0]
	out.OfferedTo = cloneCourierID(lead.OfferedTo)
	out.OfferedAt = cloneTime(lead.OfferedAt)
	out.AssignedCourier = nil
	out.AcceptedAt = nil
	out.Status = lead.Status
	out.AssignmentStatus = lead.AssignmentStatus
	return out
}

// Assign hands the order to the courier.
func Assign(o *Order, id CourierID, now time.Time) {
	assigned, pinned, at := id, id, now
	o.AssignedCourier = &assigned
	o.OfferedTo = &pinned
	o.AcceptedAt = &at
	o.Status = OrderAccepted
	o.AssignmentStatus = AssignmentAssigned
	o.UpdatedAt = now
}

// Apply mutates every active member. Terminal members stay frozen.
func (g *Group) Apply(fn func(o *Order)) {
	for i := range g.Orders {
		if g.Orders[i].Status.Terminal() {
			continue
		}
		fn(&g.Orders[i])
	}
}

// Find returns the member with the given order id.
func (g *Group) Find(id string) *Order {
	for i := range g.Orders {
		if g.Orders[i].ID == id {
			return &g.Orders[i]
		}
	}
	return nil
}
