package kafka

import (
	"context"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/events"
)

// HandleFunc processes a single events.Event from Kafka
type HandleFunc func(context.Context, events.Event) error

var newConsumerGroup = sarama.NewConsumerGroup

// Consumer wraps a Sarama consumer group and dispatches events to a handler
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler HandleFunc
	logger  logx.Logger
	backoff time.Duration
}

// NewConsumer creates a new Kafka consumer; nil when Kafka is not configured.
func NewConsumer(logger logx.Logger, brokers []string, groupID string, topics []string, h HandleFunc) (*Consumer, error) {
	topics = nonEmpty(topics)
	// no kafka settings, nothing to consume
	if len(brokers) == 0 || len(topics) == 0 || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logx.Nop()
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:   group,
		topics:  topics,
		handler: h,
		logger:  logger,
		backoff: time.Second,
	}, nil
}

// Run consumes until ctx is done
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}

	for {
		if err := c.group.Consume(ctx, c.topics, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close closes the consumer group
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim hands events to the handler in partition order. Malformed and
// permanently failing events are committed and skipped; any other failure ends
// the session so the event is redelivered.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log := h.c.logger
	for msg := range claim.Messages() {
		pos := []logx.Field{
			logx.String("topic", msg.Topic),
			logx.Int("partition", int(msg.Partition)),
			logx.Int64("offset", msg.Offset),
		}
		ev, err := decode(msg)
		if err != nil {
			log.Warn("kafka bad json", append(pos, logx.Err(err))...)
			sess.MarkMessage(msg, "")
			continue
		}
		if ev.Type == "" || subject(ev) == "" {
			log.Warn("kafka empty event subject", append(pos, logx.String("type", ev.Type))...)
			sess.MarkMessage(msg, "")
			continue
		}

		if err := h.c.handler(sess.Context(), ev); err != nil {
			fields := append(pos,
				logx.String("type", ev.Type),
				logx.String("subject", subject(ev)),
				logx.Err(err),
			)
			if IsPermanent(err) {
				log.Warn("kafka handle failed, skipping message", fields...)
				sess.MarkMessage(msg, "")
				continue
			}
			log.Error("kafka handle failed, retry", fields...)
			return err
		}

		sess.MarkMessage(msg, "")
	}
	return nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
