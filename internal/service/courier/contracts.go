package courier

import (
	"context"
	"time"

	"service-dispatch/internal/domain"
)

// courierRepository defines storage operations required by the business layer.
type courierRepository interface {
	Resolve(ctx context.Context, ref string) (*domain.Courier, error)
	Heartbeat(ctx context.Context, id domain.CourierID, at time.Time) error
	UpdateLocation(ctx context.Context, id domain.CourierID, loc domain.Location, at time.Time) error
	OnlineSeconds(ctx context.Context, id domain.CourierID, day time.Time) (int64, error)
}

// locationIndex mirrors courier positions into a live index.
type locationIndex interface {
	Update(ctx context.Context, id domain.CourierID, loc domain.Location) error
}
