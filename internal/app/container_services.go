package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/directory"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/repository"
	"service-dispatch/internal/service/courier"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/events"
	"service-dispatch/internal/service/offer"
	"service-dispatch/internal/service/selection"
)

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		repository.NewCourierRepo,
		repository.NewOrderRepo,
		newLiveLocations,
		func(orders *repository.OrderRepo) *offer.Machine {
			return offer.NewMachine(orders)
		},
		newStrategy,
		notify.NewHub,
		newNotifySink,
		newNotifyQueue,
		newCoordinator,
		newCourierService,
		func(orders *repository.OrderRepo, c *dispatch.Coordinator, logger logx.Logger) *events.Processor {
			return events.NewProcessor(orders, c, logger)
		},
	)
}

type eligibleFinder interface {
	FindEligible(ctx context.Context, excluding []domain.CourierID) ([]domain.Courier, error)
}

type liveOut struct {
	dig.Out

	Live   *directory.LiveLocations
	Closer closer `group:"closers"`
}

// newLiveLocations returns nil when Redis is not configured.
func newLiveLocations(cfg *config.Config, couriers *repository.CourierRepo, logger logx.Logger) liveOut {
	if !cfg.Redis.Enabled() {
		return liveOut{Closer: closer{name: "redis"}}
	}
	client := directory.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
	return liveOut{
		Live:   directory.NewLiveLocations(couriers, client, cfg.Redis.GeoKey, logger),
		Closer: closer{name: "redis", close: client.Close},
	}
}

func newStrategy(cfg *config.Config) (selection.OfferStrategy, error) {
	name, err := selection.ParseStrategy(cfg.Dispatch.Strategy)
	if err != nil {
		return nil, err
	}
	return selection.NewStrategy(name, cfg.Dispatch.MaxBroadcast)
}

type sinkIn struct {
	dig.In

	Cfg     *config.Config
	Logger  logx.Logger
	Hub     *notify.Hub
	Retries prometheus.Counter `name:"notify_retries_total"`
}

type sinkOut struct {
	dig.Out

	Sender notify.Sender
	Closer closer `group:"closers"`
}

// newNotifySink picks the push transport and wraps it with retries.
func newNotifySink(in sinkIn) sinkOut {
	n := in.Cfg.Notify
	var (
		next notify.Sender
		c    = closer{name: "notify_sink"}
	)
	switch n.Sink {
	case config.SinkFCM:
		next = notify.NewFCMSender(n.FCMEndpoint, n.FCMKey, &http.Client{Timeout: 10 * time.Second})
	case config.SinkWS:
		next = in.Hub
	case config.SinkKafka:
		k := notify.NewKafkaSender(in.Cfg.Kafka.Brokers, n.KafkaTopic)
		next = k
		c.close = k.Close
	default:
		next = notify.NewLogSender(in.Logger)
	}
	sender := notify.NewRetryingSender(next, in.Logger, in.Retries, notify.RetryConfig{
		MaxAttempts: n.MaxAttempts,
		BaseDelay:   n.BaseDelay,
		MaxDelay:    n.MaxDelay,
	})
	return sinkOut{Sender: sender, Closer: c}
}

type queueIn struct {
	dig.In

	Cfg           *config.Config
	Logger        logx.Logger
	Sender        notify.Sender
	Notifications *prometheus.CounterVec `name:"notifications_total"`
}

func newNotifyQueue(in queueIn) *notify.Queue {
	return notify.NewQueue(in.Sender, notify.QueueConfig{
		Workers: in.Cfg.Notify.Workers,
		Size:    in.Cfg.Notify.QueueSize,
	}, in.Logger, notify.QueueStats{
		Enqueued: in.Notifications.WithLabelValues("enqueued"),
		Dropped:  in.Notifications.WithLabelValues("dropped"),
		Sent:     in.Notifications.WithLabelValues("sent"),
		Failed:   in.Notifications.WithLabelValues("failed"),
	})
}

type coordinatorIn struct {
	dig.In

	Cfg      *config.Config
	Logger   logx.Logger
	Orders   *repository.OrderRepo
	Couriers *repository.CourierRepo
	Live     *directory.LiveLocations
	Machine  *offer.Machine
	Strategy selection.OfferStrategy
	Queue    *notify.Queue
	Metrics  *metrics.Dispatch
}

func newCoordinator(in coordinatorIn) *dispatch.Coordinator {
	var finder eligibleFinder = in.Couriers
	if in.Live != nil {
		finder = in.Live
	}
	d := in.Cfg.Dispatch
	return dispatch.NewCoordinator(
		in.Orders,
		finder,
		in.Couriers,
		in.Machine,
		in.Strategy,
		in.Queue,
		in.Metrics,
		dispatch.Config{
			SweepBatch:       d.SweepBatch,
			OfferTimeout:     d.OfferTimeout,
			OperationTimeout: d.OperationTimeout,
			SweepTimeout:     d.SweepTimeout,
		},
		in.Logger,
	)
}

func newCourierService(
	cfg *config.Config,
	couriers *repository.CourierRepo,
	live *directory.LiveLocations,
	logger logx.Logger,
) *courier.Service {
	if live == nil {
		return courier.NewService(couriers, nil, cfg.Dispatch.OperationTimeout, logger)
	}
	return courier.NewService(couriers, live, cfg.Dispatch.OperationTimeout, logger)
}
