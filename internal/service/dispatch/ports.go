//go:generate mockgen -source=ports.go -destination=ports_mocks_test.go -package=dispatch_test

package dispatch

import (
	"time"

	"service-dispatch/internal/notify"
)

// Notifier schedules a push notification without blocking.
type Notifier interface {
	Enqueue(msg notify.Message) bool
}

// Metrics records dispatch activity.
type Metrics interface {
	ObserveRound(outcome string)
	ObserveTransition(event string)
	ObserveSweep(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRound(string)        {}
func (nopMetrics) ObserveTransition(string)   {}
func (nopMetrics) ObserveSweep(time.Duration) {}
