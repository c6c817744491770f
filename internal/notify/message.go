package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

// ErrUndeliverable marks a message that can never be delivered by the sender, retries are pointless.
var ErrUndeliverable = errors.New("notify: undeliverable")

// List of message types carried in Data["type"]
const (
	TypeOrderOffer    = "order_offer"
	TypeOrderAssigned = "order_assigned"
	TypeOfferExpired  = "offer_expired"
)

// Message is a push notification addressed to one courier.
type Message struct {
	ID        string            `json:"id"`
	CourierID domain.CourierID  `json:"courier_id"`
	PushID    string            `json:"push_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

// NewMessage builds a message for the courier, addressed in both identity spaces.
func NewMessage(c domain.Courier, title, body string, data map[string]string) Message {
	return Message{
		ID:        uuid.NewString(),
		CourierID: c.ID,
		PushID:    c.PushIdentity(),
		Title:     title,
		Body:      body,
		Data:      data,
	}
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

type counter interface {
	Inc()
}

func inc(c counter) {
	if c != nil {
		c.Inc()
	}
}
