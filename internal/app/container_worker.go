package app

import (
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/events"
	"service-dispatch/internal/transport/kafka"
)

func registerWorker(container *dig.Container) error {
	return provideAll(container, newEventsConsumer)
}

// newEventsConsumer returns nil when no brokers are configured.
func newEventsConsumer(cfg *config.Config, logger logx.Logger, p *events.Processor) (*kafka.Consumer, error) {
	return kafka.NewConsumer(
		logger,
		cfg.Kafka.Brokers,
		cfg.Kafka.Group,
		cfg.Kafka.Topics,
		makeEventsKafka(p, cfg.Kafka.EventTimeout),
	)
}
