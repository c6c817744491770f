package dispatch

import (
	"context"
	"errors"
	"time"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/offer"
)

// Sweep re-runs offer rounds for outstanding orders, oldest first, one round per group.
// Only one sweep runs at a time; calls arriving meanwhile collapse into one more pass.
func (c *Coordinator) Sweep(ctx context.Context) (SweepStats, error) {
	var total SweepStats
	c.rerun.Store(true)
	for c.rerun.Load() {
		if !c.sweepMu.TryLock() {
			return total, nil
		}
		c.rerun.Store(false)
		stats, err := c.sweepOnce(ctx)
		c.sweepMu.Unlock()
		total.add(stats)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Coordinator) requestSweep(ctx context.Context) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.SweepTimeout)
		defer cancel()
		if _, err := c.Sweep(sweepCtx); err != nil {
			c.logger.Error("background sweep failed", logx.Err(err))
		}
	}()
}

func (c *Coordinator) sweepOnce(ctx context.Context) (SweepStats, error) {
	start := time.Now()
	var stats SweepStats
	defer func() {
		c.metrics.ObserveSweep(time.Since(start))
		c.logger.Info("sweep finished",
			logx.String("event", "sweep_finished"),
			logx.Int("expired", stats.Expired),
			logx.Int("groups", stats.Groups),
			logx.Int("opened", stats.Opened),
			logx.Int("pinned", stats.Pinned),
			logx.Int("unfulfillable", stats.Unfulfillable),
			logx.Int("failed", stats.Failed),
			logx.Duration("duration", time.Since(start)),
		)
	}()

	if err := c.expireStale(ctx, &stats); err != nil {
		return stats, err
	}

	outstanding, err := c.orders.ListOutstanding(ctx, c.cfg.SweepBatch)
	if err != nil {
		return stats, err
	}
	for _, key := range groupKeys(outstanding) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Groups++
		round, err := c.dispatch(ctx, key, false)
		if err != nil {
			stats.Failed++
			c.logger.Warn("sweep round failed", logx.String("group", key), logx.Err(err))
			continue
		}
		stats.count(round.Outcome)
	}
	return stats, nil
}

// expireStale turns pins older than the offer timeout into rejections.
func (c *Coordinator) expireStale(ctx context.Context, stats *SweepStats) error {
	if c.cfg.OfferTimeout <= 0 {
		return nil
	}
	cutoff := c.now().Add(-c.cfg.OfferTimeout)
	stale, err := c.orders.ListStaleOffers(ctx, cutoff, c.cfg.SweepBatch)
	if err != nil {
		return err
	}
	for _, key := range groupKeys(stale) {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, courierID, err := c.machine.Expire(ctx, key, cutoff)
		if errors.Is(err, offer.ErrStale) {
			continue
		}
		if err != nil {
			stats.Failed++
			c.logger.Warn("offer expiry failed", logx.String("group", key), logx.Err(err))
			continue
		}
		stats.Expired++
		c.metrics.ObserveTransition("offer_expired")
		c.logger.Info("offer expired",
			logx.String("event", "offer_expired"),
			logx.String("group", g.Key),
			logx.String("courier_id", string(courierID)),
		)
		if courier, err := c.couriers.Get(ctx, courierID); err == nil && courier != nil {
			c.notifier.Enqueue(expiredMessage(*courier, g))
		}
	}
	return nil
}

// groupKeys returns the distinct group keys of orders, keeping their order.
func groupKeys(orders []domain.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		k := o.GroupKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
