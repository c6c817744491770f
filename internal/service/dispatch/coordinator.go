package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/offer"
	"service-dispatch/internal/service/selection"
)

// Config tunes the coordinator.
type Config struct {
	SweepBatch       int
	OfferTimeout     time.Duration
	OperationTimeout time.Duration
	SweepTimeout     time.Duration
}

// Coordinator drives offer rounds on order, courier and sweep events.
// Work on one group is serialized by the group lock taken by the offer machine.
type Coordinator struct {
	orders    orderStore
	directory courierDirectory
	couriers  courierStatus
	machine   *offer.Machine
	strategy  selection.OfferStrategy
	notifier  Notifier
	metrics   Metrics
	logger    logx.Logger
	cfg       Config
	now       func() time.Time

	sweepMu sync.Mutex
	rerun   atomic.Bool
	bg      sync.WaitGroup
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(
	orders orderStore,
	directory courierDirectory,
	couriers courierStatus,
	machine *offer.Machine,
	strategy selection.OfferStrategy,
	notifier Notifier,
	metrics Metrics,
	cfg Config,
	logger logx.Logger,
) *Coordinator {
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = 100
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 30 * time.Second
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Coordinator{
		orders:    orders,
		directory: directory,
		couriers:  couriers,
		machine:   machine,
		strategy:  strategy,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, used by tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.OperationTimeout)
}

// OnOrderCreated runs the first offer round for an order or group.
func (c *Coordinator) OnOrderCreated(ctx context.Context, id string) (Round, error) {
	id, err := validateID(id)
	if err != nil {
		return Round{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.dispatch(ctx, id, true)
}

// OnReject records the rejection and re-runs the offer round without the rejecting courier.
// A failed re-offer is logged, the rejection itself stays committed.
func (c *Coordinator) OnReject(ctx context.Context, orderID, courierRef string) (Round, error) {
	orderID, err := validateID(orderID)
	if err != nil {
		return Round{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	courier, err := c.resolve(ctx, courierRef)
	if err != nil {
		return Round{}, err
	}
	g, err := c.machine.Reject(ctx, orderID, *courier)
	if err != nil {
		return Round{}, err
	}
	c.metrics.ObserveTransition("offer_rejected")
	c.logger.Info("offer rejected",
		logx.String("event", "offer_rejected"),
		logx.String("group", g.Key),
		logx.String("courier_id", string(courier.ID)),
		logx.Int("rejected_by", len(g.RejectedBy())),
	)

	round, err := c.dispatch(ctx, g.Key, true)
	if err != nil {
		c.logger.Error("re-offer after rejection failed",
			logx.String("group", g.Key),
			logx.Err(err),
		)
		return Round{GroupKey: g.Key, OrderIDs: g.IDs(), Outcome: OutcomeSkipped}, nil
	}
	return round, nil
}

// OnAccept assigns the order or group to the courier.
func (c *Coordinator) OnAccept(ctx context.Context, id, courierRef string) (AcceptResult, error) {
	id, err := validateID(id)
	if err != nil {
		return AcceptResult{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	courier, err := c.resolve(ctx, courierRef)
	if err != nil {
		return AcceptResult{}, err
	}
	g, err := c.machine.Accept(ctx, id, courier.ID)
	if err != nil {
		c.metrics.ObserveTransition("offer_accept_failed")
		return AcceptResult{}, err
	}

	res := AcceptResult{CourierID: courier.ID}
	for _, o := range g.Orders {
		if o.AssignedCourier != nil && *o.AssignedCourier == courier.ID && o.Status == domain.OrderAccepted {
			res.Orders = append(res.Orders, o)
		}
	}
	c.metrics.ObserveTransition("offer_accepted")
	c.logger.Info("offer accepted",
		logx.String("event", "offer_accepted"),
		logx.String("group", g.Key),
		logx.String("courier_id", string(courier.ID)),
		logx.Strings("orders", g.IDs()),
	)
	c.notifier.Enqueue(assignedMessage(*courier, res, g.Key))
	return res, nil
}

// OnCourierOnline marks the courier online and sweeps outstanding orders.
// Only the presence write can fail the call. A sweep cut short by an error or by the
// caller's deadline is logged and finished in the background.
func (c *Coordinator) OnCourierOnline(ctx context.Context, courierRef string) (SweepStats, error) {
	courier, err := c.setPresence(ctx, courierRef, true)
	if err != nil {
		return SweepStats{}, err
	}
	c.logger.Info("courier online",
		logx.String("event", "courier_online"),
		logx.String("courier_id", string(courier.ID)),
	)
	sweepCtx, cancel := context.WithTimeout(ctx, c.cfg.SweepTimeout)
	defer cancel()
	stats, err := c.Sweep(sweepCtx)
	if err != nil {
		c.logger.Warn("sweep after courier online interrupted",
			logx.String("courier_id", string(courier.ID)),
			logx.Err(err),
		)
		c.requestSweep(ctx)
	}
	return stats, nil
}

// OnCourierOffline marks the courier offline.
func (c *Coordinator) OnCourierOffline(ctx context.Context, courierRef string) error {
	courier, err := c.setPresence(ctx, courierRef, false)
	if err != nil {
		return err
	}
	c.logger.Info("courier offline",
		logx.String("event", "courier_offline"),
		logx.String("courier_id", string(courier.ID)),
	)
	return nil
}

// Cancel takes an order, or a whole group, out of dispatch.
func (c *Coordinator) Cancel(ctx context.Context, id string) (offer.Release, error) {
	return c.close(ctx, id, "order_cancelled", c.machine.Cancel)
}

// Complete marks an accepted order, or a whole group, as delivered.
func (c *Coordinator) Complete(ctx context.Context, id string) (offer.Release, error) {
	return c.close(ctx, id, "order_completed", c.machine.Complete)
}

// ListAvailableOffers returns orders the courier may currently claim.
func (c *Coordinator) ListAvailableOffers(ctx context.Context, courierRef string) ([]domain.Order, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	courier, err := c.resolve(ctx, courierRef)
	if err != nil {
		return nil, err
	}
	orders, err := c.orders.ListAvailableOffers(ctx, courier.ID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	out := orders[:0]
	for _, o := range orders {
		if o.VisibleTo(courier.ID) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Wait blocks until background sweeps started by the coordinator finish.
func (c *Coordinator) Wait() {
	c.bg.Wait()
}

func (c *Coordinator) close(
	ctx context.Context,
	id, event string,
	fn func(context.Context, string) (offer.Release, error),
) (offer.Release, error) {
	id, err := validateID(id)
	if err != nil {
		return offer.Release{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rel, err := fn(ctx, id)
	if err != nil {
		return offer.Release{}, err
	}
	if len(rel.Orders) == 0 {
		return rel, nil
	}
	c.metrics.ObserveTransition(event)
	fields := []logx.Field{
		logx.String("event", event),
		logx.String("id", id),
		logx.Int("orders", len(rel.Orders)),
	}
	if rel.Courier != nil {
		fields = append(fields, logx.String("released_courier", string(*rel.Courier)))
	}
	c.logger.Info(strings.ReplaceAll(event, "_", " "), fields...)

	if rel.Courier != nil {
		c.requestSweep(ctx)
	}
	return rel, nil
}

func (c *Coordinator) setPresence(ctx context.Context, courierRef string, online bool) (*domain.Courier, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	courier, err := c.resolve(ctx, courierRef)
	if err != nil {
		return nil, err
	}
	if online {
		err = c.couriers.SetOnline(ctx, courier.ID, c.now())
	} else {
		err = c.couriers.SetOffline(ctx, courier.ID, c.now())
	}
	if err != nil {
		return nil, fmt.Errorf("set courier presence: %w", err)
	}
	return courier, nil
}

// resolve maps a courier reference in either identity space to the stored courier.
func (c *Coordinator) resolve(ctx context.Context, ref string) (*domain.Courier, error) {
	ref, err := validateID(ref)
	if err != nil {
		return nil, err
	}
	courier, err := c.couriers.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve courier: %w", err)
	}
	if courier == nil {
		return nil, apperr.ErrNotFound
	}
	return courier, nil
}

// dispatch runs one offer round. Rounds outside a sweep that find nobody schedule a sweep.
func (c *Coordinator) dispatch(ctx context.Context, id string, mayTriggerSweep bool) (Round, error) {
	g, err := c.orders.GetGroup(ctx, id)
	if err != nil {
		return Round{}, err
	}
	round := Round{GroupKey: g.Key, OrderIDs: g.IDs(), Outcome: OutcomeSkipped}

	switch g.State() {
	case domain.StateSearching, domain.StateUnfulfillable:
	default:
		return round, nil
	}
	origin := g.Origin()
	if origin == nil {
		round.Outcome = OutcomeNoOrigin
		c.metrics.ObserveRound(string(round.Outcome))
		return round, nil
	}

	candidates, err := c.directory.FindEligible(ctx, g.RejectedBy())
	if err != nil {
		return Round{}, fmt.Errorf("find eligible couriers: %w", err)
	}
	plan := c.strategy.Plan(*origin, candidates)

	switch {
	case plan.Empty():
		round, err = c.markUnfulfillable(ctx, round)
		if err == nil && round.Outcome == OutcomeUnfulfillable && mayTriggerSweep {
			c.requestSweep(ctx)
		}
	case plan.Pin != nil:
		round, err = c.pin(ctx, round, *plan.Pin)
	default:
		round, err = c.open(ctx, round, plan.Recipients)
	}
	if err != nil {
		return Round{}, err
	}
	c.metrics.ObserveRound(string(round.Outcome))
	return round, nil
}

func (c *Coordinator) open(ctx context.Context, round Round, recipients []selection.Candidate) (Round, error) {
	g, err := c.machine.Open(ctx, round.GroupKey)
	if errors.Is(err, offer.ErrStale) {
		return round, nil
	}
	if err != nil {
		return Round{}, fmt.Errorf("open offer: %w", err)
	}
	round.Outcome = OutcomeOpened
	for _, r := range recipients {
		if g.HasRejected(r.Courier.ID) {
			continue
		}
		round.Recipients = append(round.Recipients, r.Courier.ID)
		c.notifier.Enqueue(offerMessage(r.Courier, g, false))
	}
	c.logger.Info("offer opened",
		logx.String("event", "offer_opened"),
		logx.String("group", g.Key),
		logx.Int("recipients", len(round.Recipients)),
	)
	return round, nil
}

func (c *Coordinator) pin(ctx context.Context, round Round, courier domain.Courier) (Round, error) {
	g, err := c.machine.OfferTo(ctx, round.GroupKey, courier)
	if errors.Is(err, offer.ErrStale) {
		return round, nil
	}
	if err != nil {
		return Round{}, fmt.Errorf("pin offer: %w", err)
	}
	round.Outcome = OutcomePinned
	round.Recipients = []domain.CourierID{courier.ID}
	c.notifier.Enqueue(offerMessage(courier, g, true))
	c.logger.Info("offer pinned",
		logx.String("event", "offer_pinned"),
		logx.String("group", g.Key),
		logx.String("courier_id", string(courier.ID)),
	)
	return round, nil
}

func (c *Coordinator) markUnfulfillable(ctx context.Context, round Round) (Round, error) {
	g, err := c.machine.MarkUnfulfillable(ctx, round.GroupKey)
	if errors.Is(err, offer.ErrStale) {
		return round, nil
	}
	if err != nil {
		return Round{}, fmt.Errorf("mark unfulfillable: %w", err)
	}
	round.Outcome = OutcomeUnfulfillable
	c.logger.Info("no couriers available",
		logx.String("event", "offer_unfulfillable"),
		logx.String("group", g.Key),
		logx.Int("rejected_by", len(g.RejectedBy())),
	)
	return round, nil
}

func validateID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperr.ErrInvalid
	}
	return id, nil
}
