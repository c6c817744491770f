package courier

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// Service coordinates courier session and location bookkeeping.
type Service struct {
	repo             courierRepository
	index            locationIndex
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates and configures a courier Service. index may be nil.
func NewService(r courierRepository, index locationIndex, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		repo:             r,
		index:            index,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Get retrieves a courier by store id or push identity.
func (s *Service) Get(ctx context.Context, ref string) (*domain.Courier, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.resolve(ctx, ref)
}

// Heartbeat records that the courier app is alive.
func (s *Service) Heartbeat(ctx context.Context, ref string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	c, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	return s.repo.Heartbeat(ctx, c.ID, s.now())
}

// UpdateLocation validates and stores the courier position, mirroring it into the live index.
// A failed mirror write is logged, the stored position stays authoritative.
func (s *Service) UpdateLocation(ctx context.Context, ref string, loc domain.Location) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateLocation(ctx, c.ID, loc, s.now()); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if s.index != nil {
		if err := s.index.Update(ctx, c.ID, loc); err != nil {
			s.logger.Warn("live location update failed",
				logx.String("courier_id", string(c.ID)),
				logx.Err(err),
			)
		}
	}
	return nil
}

// OnlineDuration returns how long the courier was online on the UTC day of the given time,
// including the session still in progress.
func (s *Service) OnlineDuration(ctx context.Context, ref string, day time.Time) (time.Duration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.resolve(ctx, ref)
	if err != nil {
		return 0, err
	}
	secs, err := s.repo.OnlineSeconds(ctx, c.ID, day)
	if err != nil {
		return 0, err
	}
	if c.Online && c.LastOnlineAt != nil {
		d := day.UTC()
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		for _, span := range domain.SplitByDay(*c.LastOnlineAt, s.now()) {
			if span.Day.Equal(start) {
				secs += span.Seconds
			}
		}
	}
	return time.Duration(secs) * time.Second, nil
}

func (s *Service) resolve(ctx context.Context, ref string) (*domain.Courier, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.ErrInvalid
	}
	c, err := s.repo.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrNotFound
	}
	return c, nil
}

func validateLocation(loc domain.Location) error {
	if math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude) || !loc.Valid() {
		return apperr.ErrInvalid
	}
	return nil
}
