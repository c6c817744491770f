package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes messages to a topic read by an external push service.
type KafkaSender struct {
	writer messageWriter
}

// NewKafkaSender creates a new KafkaSender.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaSender{writer: w}
}

// Send publishes msg keyed by the courier push identity.
func (k *KafkaSender) Send(ctx context.Context, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka notify: marshal: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.PushID), Value: b}); err != nil {
		return fmt.Errorf("kafka notify: write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaSender) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
