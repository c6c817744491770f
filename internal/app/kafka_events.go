package app

import (
	"context"
	"errors"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/service/events"
	"service-dispatch/internal/transport/kafka"
)

type eventHandler interface {
	Handle(ctx context.Context, e events.Event) error
}

// makeEventsKafka bounds each event by timeout. Events the processor rejects as invalid
// are skipped, everything else is redelivered.
func makeEventsKafka(h eventHandler, timeout time.Duration) kafka.HandleFunc {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return func(ctx context.Context, event events.Event) error {
		hCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := h.Handle(hCtx, event)
		if errors.Is(err, apperr.ErrInvalid) {
			return kafka.Permanent(err)
		}
		return err
	}
}
