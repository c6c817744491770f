package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"service-dispatch/internal/domain"
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `id, group_id, origin_latitude, origin_longitude, status, assignment_status,
	offered_to, offered_at, rejected_by, assigned_courier, accepted_at, created_at, updated_at`

const courierColumns = `id, push_id, online, available, latitude, longitude, last_seen_at, last_online_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o                     domain.Order
		lat, lon              *float64
		status, assignment    string
		offeredTo, assignedTo *string
		rejected              []string
	)
	err := row.Scan(
		&o.ID, &o.GroupID, &lat, &lon, &status, &assignment,
		&offeredTo, &o.OfferedAt, &rejected, &assignedTo, &o.AcceptedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	if lat != nil && lon != nil {
		o.Origin = &domain.Location{Latitude: *lat, Longitude: *lon}
	}
	o.Status = domain.OrderStatus(status)
	o.AssignmentStatus = domain.AssignmentStatus(assignment)
	o.OfferedTo = toCourierID(offeredTo)
	o.AssignedCourier = toCourierID(assignedTo)
	for _, id := range rejected {
		o.RejectedBy = append(o.RejectedBy, domain.CourierID(id))
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanCourier(row pgx.Row) (domain.Courier, error) {
	var (
		c        domain.Courier
		id       string
		pushID   *string
		lat, lon *float64
	)
	err := row.Scan(&id, &pushID, &c.Online, &c.Available, &lat, &lon, &c.LastSeenAt, &c.LastOnlineAt)
	if err != nil {
		return domain.Courier{}, err
	}
	c.ID = domain.CourierID(id)
	if pushID != nil {
		c.PushID = *pushID
	}
	if lat != nil && lon != nil {
		c.Location = &domain.Location{Latitude: *lat, Longitude: *lon}
	}
	return c, nil
}

func getCourier(ctx context.Context, q querier, query string, args ...any) (*domain.Courier, error) {
	c, err := scanCourier(q.QueryRow(ctx, query, args...))
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func toCourierID(s *string) *domain.CourierID {
	if s == nil {
		return nil
	}
	id := domain.CourierID(*s)
	return &id
}

func fromCourierID(id *domain.CourierID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func courierIDs(ids []domain.CourierID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

func originArgs(l *domain.Location) (lat, lon *float64) {
	if l == nil {
		return nil, nil
	}
	return &l.Latitude, &l.Longitude
}

// limitArg maps a non-positive limit to LIMIT NULL, which postgres treats as no limit.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// inTx runs fn in a transaction, rolling back on error or panic.
// Lock contention surfaces as apperr.ErrConflict.
func inTx(ctx context.Context, db interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
