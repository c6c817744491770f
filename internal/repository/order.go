package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/dispatchtx"
)

const dispatchableStatuses = `('pending', 'requesting_courier')`

// OrderRepo represents order repository.
type OrderRepo struct {
	db *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

// RegisterOrder stores a new order under the lock of its group. A member joining a group that
// is already pinned or accepted takes over that state. An existing order with the same id is
// left untouched.
func (r *OrderRepo) RegisterOrder(ctx context.Context, o domain.Order) error {
	if o.ID == "" {
		return apperr.ErrInvalid
	}
	now := time.Now().UTC()
	o = o.Normalize(now)
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		members, err := lockGroupKey(ctx, tx, o.GroupKey())
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.ID == o.ID {
				return nil
			}
		}
		o = domain.NewGroup(members).Adopt(o, now)

		lat, lon := originArgs(o.Origin)
		_, err = tx.Exec(ctx, `
			INSERT INTO orders (id, group_id, origin_latitude, origin_longitude, status, assignment_status,
				offered_to, offered_at, rejected_by, assigned_courier, accepted_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO NOTHING`,
			o.ID, o.GroupID, lat, lon, string(o.Status), string(o.AssignmentStatus),
			fromCourierID(o.OfferedTo), o.OfferedAt, courierIDs(o.RejectedBy),
			fromCourierID(o.AssignedCourier), o.AcceptedAt, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("register order %q: %w", o.ID, err)
		}
		return nil
	})
}

// GetGroup returns the group that id belongs to.
func (r *OrderRepo) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	orders, err := selectGroup(ctx, r.db, id, false)
	if err != nil {
		return domain.Group{}, err
	}
	if len(orders) == 0 {
		return domain.Group{}, fmt.Errorf("order %q: %w", id, apperr.ErrNotFound)
	}
	return domain.NewGroup(orders), nil
}

// ListOutstanding returns searching and unfulfillable orders with an origin, oldest first.
// Orders that every eligible courier has rejected are left out, they cannot move until
// another courier becomes eligible.
func (r *OrderRepo) ListOutstanding(ctx context.Context, limit int) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders o
		WHERE o.status IN `+dispatchableStatuses+`
		  AND o.assigned_courier IS NULL AND o.offered_to IS NULL
		  AND o.origin_latitude IS NOT NULL AND o.origin_longitude IS NOT NULL
		  AND EXISTS (
			SELECT 1 FROM couriers c
			WHERE c.online AND c.available
			  AND c.latitude IS NOT NULL AND c.longitude IS NOT NULL
			  AND NOT (c.id = ANY(o.rejected_by)))
		ORDER BY o.created_at, o.id
		LIMIT $1`, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list outstanding orders: %w", err)
	}
	return collectOrders(rows)
}

// ListStaleOffers returns pinned orders offered at or before cutoff, oldest pin first.
func (r *OrderRepo) ListStaleOffers(ctx context.Context, cutoff time.Time, limit int) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status IN `+dispatchableStatuses+`
		  AND assigned_courier IS NULL
		  AND offered_to IS NOT NULL AND offered_at <= $1
		ORDER BY offered_at, id
		LIMIT $2`, cutoff, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list stale offers: %w", err)
	}
	return collectOrders(rows)
}

// ListAvailableOffers returns orders the courier may currently claim, oldest first.
func (r *OrderRepo) ListAvailableOffers(ctx context.Context, id domain.CourierID) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status IN `+dispatchableStatuses+`
		  AND assigned_courier IS NULL
		  AND (offered_to IS NULL OR offered_to = $1)
		  AND NOT ($1 = ANY(rejected_by))
		ORDER BY created_at, id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("list available offers: %w", err)
	}
	return collectOrders(rows)
}

// WithTx opens a transaction and executes fn within it.
func (r *OrderRepo) WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&TxRepo{tx: tx})
	})
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// LockGroup locks and returns every order of the group that id belongs to.
func (r *TxRepo) LockGroup(ctx context.Context, id string) ([]domain.Order, error) {
	return selectGroup(ctx, r.tx, id, true)
}

// SaveOrders writes the dispatch fields of the given orders.
func (r *TxRepo) SaveOrders(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	now := time.Now()
	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(`
			UPDATE orders SET
				status = $2,
				assignment_status = $3,
				offered_to = $4,
				offered_at = $5,
				rejected_by = $6,
				assigned_courier = $7,
				accepted_at = $8,
				updated_at = $9
			WHERE id = $1`,
			o.ID, string(o.Status), string(o.AssignmentStatus),
			fromCourierID(o.OfferedTo), o.OfferedAt, courierIDs(o.RejectedBy),
			fromCourierID(o.AssignedCourier), o.AcceptedAt, now)
	}

	br := r.tx.SendBatch(ctx, batch)
	for _, o := range orders {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("save order %q: %w", o.ID, err)
		}
		if tag.RowsAffected() == 0 {
			_ = br.Close()
			return fmt.Errorf("save order %q: %w", o.ID, apperr.ErrNotFound)
		}
	}
	return br.Close()
}

// GetCourier locks and returns a courier by store id; nil when absent.
func (r *TxRepo) GetCourier(ctx context.Context, id domain.CourierID) (*domain.Courier, error) {
	c, err := getCourier(ctx, r.tx, `SELECT `+courierColumns+` FROM couriers WHERE id = $1 FOR UPDATE`, string(id))
	if err != nil {
		return nil, fmt.Errorf("lock courier %q: %w", id, err)
	}
	return c, nil
}

// SetCourierAvailable sets the available flag of a courier. An offline courier stays unavailable.
func (r *TxRepo) SetCourierAvailable(ctx context.Context, id domain.CourierID, available bool) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE couriers SET available = $2 AND online, updated_at = now() WHERE id = $1`,
		string(id), available)
	if err != nil {
		return fmt.Errorf("set courier %q available: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("courier %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// CountAccepted counts accepted, not yet completed orders held by the courier.
func (r *TxRepo) CountAccepted(ctx context.Context, id domain.CourierID) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE assigned_courier = $1 AND status = 'accepted'`,
		string(id)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accepted orders of %q: %w", id, err)
	}
	return n, nil
}

// selectGroup reads the members of the group that id names, either as an order id or a group id.
func selectGroup(ctx context.Context, q querier, id string, lock bool) ([]domain.Order, error) {
	key, err := groupKey(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, nil
	}
	if lock {
		return lockGroupKey(ctx, q, key)
	}
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE COALESCE(group_id, id) = $1 ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("select group %q: %w", key, err)
	}
	return collectOrders(rows)
}

// lockGroupKey takes the transaction-scoped lock of the group key, then locks its rows.
// The key lock also covers members that do not exist yet, so registration and
// transitions of one group never interleave.
func lockGroupKey(ctx context.Context, q querier, key string) ([]domain.Order, error) {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "order-group:"+key); err != nil {
		return nil, fmt.Errorf("lock group %q: %w", key, err)
	}
	rows, err := q.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE COALESCE(group_id, id) = $1
		ORDER BY id
		FOR UPDATE`, key)
	if err != nil {
		return nil, fmt.Errorf("lock group %q: %w", key, err)
	}
	return collectOrders(rows)
}

// groupKey returns the group key for id; empty when nothing matches.
func groupKey(ctx context.Context, q querier, id string) (string, error) {
	var key string
	err := q.QueryRow(ctx, `SELECT COALESCE(group_id, id) FROM orders WHERE id = $1`, id).Scan(&key)
	if err == nil {
		return key, nil
	}
	if !IsNotFound(err) {
		return "", fmt.Errorf("resolve group of %q: %w", id, err)
	}

	var exists bool
	err = q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE group_id = $1)`, id).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("resolve group %q: %w", id, err)
	}
	if !exists {
		return "", nil
	}
	return id, nil
}
