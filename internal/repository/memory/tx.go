package memory

import (
	"context"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/dispatchtx"
)

type tx struct {
	s        *Store
	held     map[string]struct{}
	orders   map[string]domain.Order
	couriers map[domain.CourierID]domain.Courier
}

func (t *tx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	t.s.locks.Lock(key)
	t.held[key] = struct{}{}
}

func (t *tx) release() {
	for key := range t.held {
		t.s.locks.Unlock(key)
	}
	t.held = nil
}

func (t *tx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, o := range t.orders {
		t.s.orders[id] = o
	}
	for id, c := range t.couriers {
		cur, ok := t.s.couriers[id]
		if !ok {
			continue
		}
		cur.Available = c.Available && cur.Online
		t.s.couriers[id] = cur
	}
}

// LockGroup locks the group that id belongs to and returns its members.
func (t *tx) LockGroup(ctx context.Context, id string) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.s.mu.RLock()
	key := t.s.groupKeyLocked(id)
	t.s.mu.RUnlock()
	if key == "" {
		return nil, nil
	}
	t.lock("group:" + key)

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.membersLocked(key, t.orders), nil
}

// SaveOrders buffers order writes until commit.
func (t *tx) SaveOrders(ctx context.Context, orders []domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, o := range orders {
		if _, ok := t.held["group:"+o.GroupKey()]; !ok {
			return apperr.ErrConflict
		}
		t.orders[o.ID] = o.Clone()
	}
	return nil
}

// GetCourier locks the courier and returns it; nil when absent.
func (t *tx) GetCourier(ctx context.Context, id domain.CourierID) (*domain.Courier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.lock("courier:" + string(id))
	if c, ok := t.couriers[id]; ok {
		c = cloneCourier(c)
		return &c, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	c, ok := t.s.couriers[id]
	if !ok {
		return nil, nil
	}
	c = cloneCourier(c)
	return &c, nil
}

// SetCourierAvailable buffers the availability flag of a courier.
// Only the flag is written on commit, an offline courier never becomes available.
func (t *tx) SetCourierAvailable(ctx context.Context, id domain.CourierID, available bool) error {
	c, err := t.GetCourier(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.ErrNotFound
	}
	c.Available = available
	t.couriers[id] = *c
	return nil
}

// CountAccepted counts accepted orders of the courier, including writes of this transaction.
func (t *tx) CountAccepted(ctx context.Context, id domain.CourierID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.countAcceptedLocked(id, t.orders), nil
}

var _ dispatchtx.Repository = (*tx)(nil)
