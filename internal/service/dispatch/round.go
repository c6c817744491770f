package dispatch

import "service-dispatch/internal/domain"

// Outcome is the result of one offer round for a group.
type Outcome string

// List of round outcomes
const (
	OutcomeOpened        Outcome = "opened"
	OutcomePinned        Outcome = "pinned"
	OutcomeUnfulfillable Outcome = "unfulfillable"
	OutcomeNoOrigin      Outcome = "no_origin"
	OutcomeSkipped       Outcome = "skipped"
)

// Round describes one offer round.
type Round struct {
	GroupKey   string
	OrderIDs   []string
	Outcome    Outcome
	Recipients []domain.CourierID
}

// AcceptResult is returned to the courier that won an order or group.
type AcceptResult struct {
	CourierID domain.CourierID
	Orders    []domain.Order
}

// SweepStats summarizes a sweep.
type SweepStats struct {
	Expired       int
	Groups        int
	Opened        int
	Pinned        int
	Unfulfillable int
	Skipped       int
	Failed        int
}

func (s *SweepStats) add(o SweepStats) {
	s.Expired += o.Expired
	s.Groups += o.Groups
	s.Opened += o.Opened
	s.Pinned += o.Pinned
	s.Unfulfillable += o.Unfulfillable
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

func (s *SweepStats) count(o Outcome) {
	switch o {
	case OutcomeOpened:
		s.Opened++
	case OutcomePinned:
		s.Pinned++
	case OutcomeUnfulfillable:
		s.Unfulfillable++
	default:
		s.Skipped++
	}
}
