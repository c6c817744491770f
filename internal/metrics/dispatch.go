package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch collects dispatch round, transition and sweep metrics.
type Dispatch struct {
	rounds      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	sweeps      prometheus.Histogram
}

// NewDispatch creates unregistered dispatch collectors.
func NewDispatch() *Dispatch {
	return &Dispatch{
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_rounds_total",
			Help: "Total number of dispatch rounds by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_transitions_total",
			Help: "Total number of offer state transitions by event",
		}, []string{"event"}),
		sweeps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_sweep_duration_seconds",
			Help:    "Duration of dispatch sweep passes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Register registers every dispatch collector in reg, adopting collectors registered earlier.
func (d *Dispatch) Register(reg prometheus.Registerer) (*Dispatch, error) {
	rounds, err := Register(reg, "dispatch_rounds_total", d.rounds)
	if err != nil {
		return nil, err
	}
	transitions, err := Register(reg, "dispatch_transitions_total", d.transitions)
	if err != nil {
		return nil, err
	}
	sweeps, err := Register(reg, "dispatch_sweep_duration_seconds", d.sweeps)
	if err != nil {
		return nil, err
	}
	return &Dispatch{rounds: rounds, transitions: transitions, sweeps: sweeps}, nil
}

// ObserveRound counts a dispatch round with the given outcome.
func (d *Dispatch) ObserveRound(outcome string) {
	d.rounds.WithLabelValues(outcome).Inc()
}

// ObserveTransition counts an offer state transition.
func (d *Dispatch) ObserveTransition(event string) {
	d.transitions.WithLabelValues(event).Inc()
}

// ObserveSweep records the duration of a sweep pass.
func (d *Dispatch) ObserveSweep(dur time.Duration) {
	d.sweeps.Observe(dur.Seconds())
}
