package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-dispatch/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter     `name:"rate_limit_exceeded_total"`
	NotifyRetriesTotal     prometheus.Counter     `name:"notify_retries_total"`
	NotificationsTotal     *prometheus.CounterVec `name:"notifications_total"`
	Dispatch               *metrics.Dispatch
}

func registerMetrics(container *dig.Container) error {
	return provideAll(container, provideMetrics)
}

func provideMetrics() (metricsOut, error) {
	return provideMetricsWith(prometheus.DefaultRegisterer)
}

func provideMetricsWith(reg prometheus.Registerer) (metricsOut, error) {
	rl, err := metrics.Register(reg, "rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal())
	if err != nil {
		return metricsOut{}, err
	}
	retries, err := metrics.Register(reg, "notify_retries_total", metrics.NewNotifyRetriesTotal())
	if err != nil {
		return metricsOut{}, err
	}
	notifications, err := metrics.Register(reg, "notifications_total", metrics.NewNotificationsTotal())
	if err != nil {
		return metricsOut{}, err
	}
	d, err := metrics.NewDispatch().Register(reg)
	if err != nil {
		return metricsOut{}, err
	}
	return metricsOut{
		RateLimitExceededTotal: rl,
		NotifyRetriesTotal:     retries,
		NotificationsTotal:     notifications,
		Dispatch:               d,
	}, nil
}
