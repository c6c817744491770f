package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

// CourierRepo represents courier repository.
type CourierRepo struct {
	db *pgxpool.Pool
}

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *pgxpool.Pool) *CourierRepo {
	return &CourierRepo{db: db}
}

// Get returns a courier by store id; nil when absent.
func (r *CourierRepo) Get(ctx context.Context, id domain.CourierID) (*domain.Courier, error) {
	c, err := getCourier(ctx, r.db, `SELECT `+courierColumns+` FROM couriers WHERE id = $1`, string(id))
	if err != nil {
		return nil, fmt.Errorf("get courier %q: %w", id, err)
	}
	return c, nil
}

// Resolve finds a courier by store id or push identity; nil when absent.
// A store id match wins over a push id match.
func (r *CourierRepo) Resolve(ctx context.Context, ref string) (*domain.Courier, error) {
	c, err := getCourier(ctx, r.db, `
		SELECT `+courierColumns+` FROM couriers
		WHERE id = $1 OR push_id = $1
		ORDER BY (id = $1) DESC
		LIMIT 1`, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve courier %q: %w", ref, err)
	}
	return c, nil
}

// FindEligible returns online, available couriers with a location, excluding the given ids.
func (r *CourierRepo) FindEligible(ctx context.Context, excluding []domain.CourierID) ([]domain.Courier, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+courierColumns+` FROM couriers
		WHERE online AND available
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND NOT (id = ANY($1))
		ORDER BY id`, courierIDs(excluding))
	if err != nil {
		return nil, fmt.Errorf("find eligible couriers: %w", err)
	}
	defer rows.Close()

	var out []domain.Courier
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan courier: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetOnline marks the courier online. It is available unless it still holds accepted orders.
// The courier row is locked first, so an accept committing meanwhile is counted.
func (r *CourierRepo) SetOnline(ctx context.Context, id domain.CourierID, at time.Time) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM couriers WHERE id = $1 FOR UPDATE`, string(id)).Scan(&locked)
		if IsNotFound(err) {
			return fmt.Errorf("courier %q: %w", id, apperr.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock courier %q: %w", id, err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE couriers SET
				last_online_at = CASE WHEN online THEN last_online_at ELSE $2 END,
				online = TRUE,
				available = NOT EXISTS (
					SELECT 1 FROM orders o
					WHERE o.assigned_courier = couriers.id AND o.status = 'accepted'
				),
				last_seen_at = $2,
				updated_at = now()
			WHERE id = $1`, string(id), at)
		if err != nil {
			return fmt.Errorf("set courier %q online: %w", id, err)
		}
		return nil
	})
}

// SetOffline marks the courier offline and books the finished session per day.
func (r *CourierRepo) SetOffline(ctx context.Context, id domain.CourierID, at time.Time) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			online bool
			since  *time.Time
		)
		err := tx.QueryRow(ctx,
			`SELECT online, last_online_at FROM couriers WHERE id = $1 FOR UPDATE`, string(id),
		).Scan(&online, &since)
		if IsNotFound(err) {
			return fmt.Errorf("courier %q: %w", id, apperr.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock courier %q: %w", id, err)
		}

		if online && since != nil {
			batch := &pgx.Batch{}
			for _, span := range domain.SplitByDay(*since, at) {
				batch.Queue(`
					INSERT INTO courier_online_days (courier_id, day, online_seconds)
					VALUES ($1, $2, $3)
					ON CONFLICT (courier_id, day)
					DO UPDATE SET online_seconds = courier_online_days.online_seconds + EXCLUDED.online_seconds`,
					string(id), span.Day, span.Seconds)
			}
			if batch.Len() > 0 {
				if err := tx.SendBatch(ctx, batch).Close(); err != nil {
					return fmt.Errorf("book online time: %w", err)
				}
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE couriers SET online = FALSE, available = FALSE, last_seen_at = $2, updated_at = now()
			WHERE id = $1`, string(id), at)
		if err != nil {
			return fmt.Errorf("set courier %q offline: %w", id, err)
		}
		return nil
	})
}

// Heartbeat records that the courier was seen at the given time.
func (r *CourierRepo) Heartbeat(ctx context.Context, id domain.CourierID, at time.Time) error {
	return r.update(ctx, id,
		`UPDATE couriers SET last_seen_at = $2, updated_at = now() WHERE id = $1`, string(id), at)
}

// UpdateLocation stores the latest courier position.
func (r *CourierRepo) UpdateLocation(ctx context.Context, id domain.CourierID, loc domain.Location, at time.Time) error {
	return r.update(ctx, id, `
		UPDATE couriers SET latitude = $2, longitude = $3, last_seen_at = $4, updated_at = now()
		WHERE id = $1`, string(id), loc.Latitude, loc.Longitude, at)
}

// OnlineSeconds returns the booked online seconds of the courier for the UTC day.
func (r *CourierRepo) OnlineSeconds(ctx context.Context, id domain.CourierID, day time.Time) (int64, error) {
	var secs int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE((
			SELECT d.online_seconds FROM courier_online_days d
			WHERE d.courier_id = c.id AND d.day = $2
		), 0)
		FROM couriers c WHERE c.id = $1`, string(id), utcDay(day)).Scan(&secs)
	if IsNotFound(err) {
		return 0, fmt.Errorf("courier %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("online seconds of %q: %w", id, err)
	}
	return secs, nil
}

func (r *CourierRepo) update(ctx context.Context, id domain.CourierID, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update courier %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("courier %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}
