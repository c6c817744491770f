package directory

import (
	"context"

	"github.com/redis/go-redis/v9"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// DefaultGeoKey is the Redis key of the courier GEO set.
const DefaultGeoKey = "couriers:live"

type source interface {
	FindEligible(ctx context.Context, excluding []domain.CourierID) ([]domain.Courier, error)
}

type geoClient interface {
	GeoAdd(ctx context.Context, key string, geoLocation ...*redis.GeoLocation) *redis.IntCmd
	GeoPos(ctx context.Context, key string, members ...string) *redis.GeoPosCmd
}

// LiveLocations overlays positions from a Redis GEO set on the eligible couriers of the store.
// Redis is an accelerator; when it fails the stored positions are used.
type LiveLocations struct {
	next   source
	client geoClient
	key    string
	logger logx.Logger
}

// NewRedisClient creates a Redis client for the live location index.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password})
}

// NewLiveLocations creates a new LiveLocations.
func NewLiveLocations(next source, client geoClient, key string, logger logx.Logger) *LiveLocations {
	if key == "" {
		key = DefaultGeoKey
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &LiveLocations{next: next, client: client, key: key, logger: logger}
}

// FindEligible returns eligible couriers with their freshest known position.
func (l *LiveLocations) FindEligible(ctx context.Context, excluding []domain.CourierID) ([]domain.Courier, error) {
	couriers, err := l.next.FindEligible(ctx, excluding)
	if err != nil || len(couriers) == 0 {
		return couriers, err
	}

	members := make([]string, 0, len(couriers))
	for _, c := range couriers {
		members = append(members, string(c.ID))
	}
	positions, err := l.client.GeoPos(ctx, l.key, members...).Result()
	if err != nil {
		l.logger.Warn("live locations unavailable", logx.Err(err))
		return couriers, nil
	}
	for i, p := range positions {
		if i >= len(couriers) || p == nil {
			continue
		}
		couriers[i].Location = &domain.Location{Latitude: p.Latitude, Longitude: p.Longitude}
	}
	return couriers, nil
}

// Update stores the courier position in the GEO set.
func (l *LiveLocations) Update(ctx context.Context, id domain.CourierID, loc domain.Location) error {
	return l.client.GeoAdd(ctx, l.key, &redis.GeoLocation{
		Name:      string(id),
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}).Err()
}
