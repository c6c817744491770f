package selection

import (
	"fmt"
	"math"
	"strings"

	"service-dispatch/internal/domain"
)

// StrategyName selects how many couriers an offer round reaches.
type StrategyName string

// List of supported offer strategies
const (
	Broadcast StrategyName = "broadcast"
	Pin       StrategyName = "pin"
)

// ParseStrategy parses a configured strategy name.
func ParseStrategy(s string) (StrategyName, error) {
	switch n := StrategyName(strings.ToLower(strings.TrimSpace(s))); n {
	case Broadcast, Pin:
		return n, nil
	default:
		return "", fmt.Errorf("unknown dispatch strategy %q", s)
	}
}

// Plan is the outcome of ranking one offer round.
type Plan struct {
	// Pin is set when the round nominates exactly one courier.
	Pin *domain.Courier
	// Recipients are the couriers to notify, nearest first.
	Recipients []Candidate
}

// Empty reports whether nobody is eligible.
func (p Plan) Empty() bool { return len(p.Recipients) == 0 }

// OfferStrategy turns an origin and eligible couriers into an offer plan.
type OfferStrategy interface {
	Name() StrategyName
	Plan(origin domain.Location, candidates []domain.Courier) Plan
}

// NewStrategy returns the strategy for name. maxBroadcast caps broadcast fan-out, 0 means unlimited.
func NewStrategy(name StrategyName, maxBroadcast int) (OfferStrategy, error) {
	switch name {
	case Broadcast:
		return BroadcastStrategy{Max: maxBroadcast}, nil
	case Pin:
		return PinStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown dispatch strategy %q", name)
	}
}

// BroadcastStrategy opens the offer to every eligible courier.
type BroadcastStrategy struct {
	Max int
}

// Name returns the strategy name.
func (BroadcastStrategy) Name() StrategyName { return Broadcast }

// Plan notifies all reachable candidates, nearest first.
func (s BroadcastStrategy) Plan(origin domain.Location, candidates []domain.Courier) Plan {
	ranked := reachable(Rank(origin, candidates))
	if s.Max > 0 && len(ranked) > s.Max {
		ranked = ranked[:s.Max]
	}
	return Plan{Recipients: ranked}
}

// PinStrategy nominates the single nearest courier.
type PinStrategy struct{}

// Name returns the strategy name.
func (PinStrategy) Name() StrategyName { return Pin }

// Plan pins the nearest reachable candidate.
func (PinStrategy) Plan(origin domain.Location, candidates []domain.Courier) Plan {
	ranked := reachable(Rank(origin, candidates))
	if len(ranked) == 0 {
		return Plan{}
	}
	best := ranked[0]
	return Plan{Pin: &best.Courier, Recipients: ranked[:1]}
}

func reachable(ranked []Candidate) []Candidate {
	out := ranked[:0:0]
	for _, c := range ranked {
		if !math.IsInf(c.Distance, 1) {
			out = append(out, c)
		}
	}
	return out
}
