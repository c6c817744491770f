package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/dispatchtx"
)

// Store is an in-process dispatch store.
// Transactions lock whole order groups and couriers by key and buffer writes until commit.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	couriers map[domain.CourierID]domain.Courier
	online   map[domain.CourierID]map[time.Time]int64
	locks    *keyedMutex
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		orders:   make(map[string]domain.Order),
		couriers: make(map[domain.CourierID]domain.Courier),
		online:   make(map[domain.CourierID]map[time.Time]int64),
		locks:    newKeyedMutex(),
	}
}

// PutOrder inserts or replaces an order.
func (s *Store) PutOrder(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

// PutCourier inserts or replaces a courier.
func (s *Store) PutCourier(c domain.Courier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers[c.ID] = cloneCourier(c)
}

// Order returns a copy of the stored order.
func (s *Store) Order(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o.Clone(), ok
}

// Courier returns a copy of the stored courier.
func (s *Store) Courier(id domain.CourierID) (domain.Courier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.couriers[id]
	return cloneCourier(c), ok
}

// RegisterOrder stores a new order under the lock of its group, aligned with the state of the
// group's active members. An existing order with the same id is left untouched.
func (s *Store) RegisterOrder(ctx context.Context, o domain.Order) error {
	if o.ID == "" {
		return apperr.ErrInvalid
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key := o.GroupKey()
	s.locks.Lock("group:" + key)
	defer s.locks.Unlock("group:" + key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return nil
	}
	now := time.Now().UTC()
	g := domain.NewGroup(s.membersLocked(key, nil))
	s.orders[o.ID] = g.Adopt(o.Normalize(now), now)
	return nil
}

// GetGroup returns the group that id belongs to.
func (s *Store) GetGroup(_ context.Context, id string) (domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.membersLocked(s.groupKeyLocked(id), nil)
	if len(members) == 0 {
		return domain.Group{}, apperr.ErrNotFound
	}
	return domain.NewGroup(members), nil
}

// ListOutstanding returns searching and unfulfillable orders with an origin, oldest first.
// Orders that every eligible courier has rejected are left out.
func (s *Store) ListOutstanding(_ context.Context, limit int) ([]domain.Order, error) {
	return s.list(limit, func(o domain.Order) bool {
		return !o.Status.Terminal() && o.AssignedCourier == nil && o.OfferedTo == nil && o.Origin != nil &&
			s.claimableLocked(o)
	}, byCreated), nil
}

// ListStaleOffers returns pinned orders offered at or before cutoff, oldest pin first.
func (s *Store) ListStaleOffers(_ context.Context, cutoff time.Time, limit int) ([]domain.Order, error) {
	return s.list(limit, func(o domain.Order) bool {
		return !o.Status.Terminal() && o.AssignedCourier == nil && o.OfferedTo != nil &&
			o.OfferedAt != nil && !o.OfferedAt.After(cutoff)
	}, func(a, b domain.Order) bool { return a.OfferedAt.Before(*b.OfferedAt) }), nil
}

// ListAvailableOffers returns orders the courier may currently claim, oldest first.
func (s *Store) ListAvailableOffers(_ context.Context, id domain.CourierID) ([]domain.Order, error) {
	return s.list(0, func(o domain.Order) bool { return o.VisibleTo(id) }, byCreated), nil
}

// FindEligible returns online, available couriers with a location, excluding the given ids.
func (s *Store) FindEligible(_ context.Context, excluding []domain.CourierID) ([]domain.Courier, error) {
	skip := make(map[domain.CourierID]struct{}, len(excluding))
	for _, id := range excluding {
		skip[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Courier, 0, len(s.couriers))
	for _, c := range s.couriers {
		if _, ok := skip[c.ID]; ok || !c.Eligible() {
			continue
		}
		out = append(out, cloneCourier(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a courier by store id; nil when absent.
func (s *Store) Get(_ context.Context, id domain.CourierID) (*domain.Courier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.couriers[id]
	if !ok {
		return nil, nil
	}
	c = cloneCourier(c)
	return &c, nil
}

// Resolve finds a courier by store id or push identity; nil when absent.
func (s *Store) Resolve(_ context.Context, ref string) (*domain.Courier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.couriers[domain.CourierID(ref)]; ok {
		c = cloneCourier(c)
		return &c, nil
	}
	for _, c := range s.couriers {
		if c.PushID != "" && c.PushID == ref {
			c = cloneCourier(c)
			return &c, nil
		}
	}
	return nil, nil
}

// SetOnline marks the courier online. It is available unless it still holds accepted orders.
func (s *Store) SetOnline(_ context.Context, id domain.CourierID, at time.Time) error {
	return s.updateCourier(id, func(c *domain.Courier) {
		if !c.Online {
			start := at
			c.Online = true
			c.LastOnlineAt = &start
		}
		c.Available = s.countAcceptedLocked(id, nil) == 0
		seen := at
		c.LastSeenAt = &seen
	})
}

// SetOffline marks the courier offline and books the finished session per day.
func (s *Store) SetOffline(_ context.Context, id domain.CourierID, at time.Time) error {
	return s.updateCourier(id, func(c *domain.Courier) {
		if c.Online && c.LastOnlineAt != nil {
			days := s.online[id]
			if days == nil {
				days = make(map[time.Time]int64)
				s.online[id] = days
			}
			for _, span := range domain.SplitByDay(*c.LastOnlineAt, at) {
				days[span.Day] += span.Seconds
			}
		}
		c.Online = false
		c.Available = false
		seen := at
		c.LastSeenAt = &seen
	})
}

// Heartbeat records that the courier was seen at the given time.
func (s *Store) Heartbeat(_ context.Context, id domain.CourierID, at time.Time) error {
	return s.updateCourier(id, func(c *domain.Courier) {
		seen := at
		c.LastSeenAt = &seen
	})
}

// UpdateLocation stores the latest courier position.
func (s *Store) UpdateLocation(_ context.Context, id domain.CourierID, loc domain.Location, at time.Time) error {
	return s.updateCourier(id, func(c *domain.Courier) {
		l := loc
		seen := at
		c.Location = &l
		c.LastSeenAt = &seen
	})
}

// OnlineSeconds returns the booked online seconds of the courier for the UTC day.
func (s *Store) OnlineSeconds(_ context.Context, id domain.CourierID, day time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.couriers[id]; !ok {
		return 0, apperr.ErrNotFound
	}
	d := day.UTC()
	return s.online[id][time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)], nil
}

// WithTx runs fn in a transaction. Writes become visible only when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) (err error) {
	t := &tx{
		s:        s,
		held:     make(map[string]struct{}),
		orders:   make(map[string]domain.Order),
		couriers: make(map[domain.CourierID]domain.Courier),
	}
	defer t.release()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

func (s *Store) updateCourier(id domain.CourierID, fn func(c *domain.Courier)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.couriers[id]
	if !ok {
		return apperr.ErrNotFound
	}
	fn(&c)
	s.couriers[id] = c
	return nil
}

func (s *Store) list(limit int, keep func(o domain.Order) bool, less func(a, b domain.Order) bool) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// groupKeyLocked maps an order id or group id to the group key; empty when unknown.
func (s *Store) groupKeyLocked(id string) string {
	if o, ok := s.orders[id]; ok {
		return o.GroupKey()
	}
	for _, o := range s.orders {
		if o.GroupID != nil && *o.GroupID == id {
			return id
		}
	}
	return ""
}

func (s *Store) membersLocked(key string, overlay map[string]domain.Order) []domain.Order {
	if key == "" {
		return nil
	}
	var out []domain.Order
	for id, o := range s.orders {
		if w, ok := overlay[id]; ok {
			o = w
		}
		if o.GroupKey() == key {
			out = append(out, o.Clone())
		}
	}
	return out
}

func (s *Store) countAcceptedLocked(id domain.CourierID, overlay map[string]domain.Order) int {
	n := 0
	for oid, o := range s.orders {
		if w, ok := overlay[oid]; ok {
			o = w
		}
		if o.Status == domain.OrderAccepted && o.AssignedCourier != nil && *o.AssignedCourier == id {
			n++
		}
	}
	return n
}

// claimableLocked reports whether some eligible courier has not rejected the order.
func (s *Store) claimableLocked(o domain.Order) bool {
	for _, c := range s.couriers {
		if c.Eligible() && !o.HasRejected(c.ID) {
			return true
		}
	}
	return false
}

func byCreated(a, b domain.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }

func cloneCourier(c domain.Courier) domain.Courier {
	out := c
	if c.Location != nil {
		l := *c.Location
		out.Location = &l
	}
	if c.LastSeenAt != nil {
		t := *c.LastSeenAt
		out.LastSeenAt = &t
	}
	if c.LastOnlineAt != nil {
		t := *c.LastOnlineAt
		out.LastOnlineAt = &t
	}
	return out
}

var _ dispatchtx.Runner = (*Store)(nil)
