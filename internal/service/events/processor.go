package events

import (
	"context"
	"errors"
	"fmt"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/logx"
)

// Processor applies lifecycle events to the dispatch coordinator
type Processor struct {
	registry OrderRegistry
	dispatch DispatchPort
	logger   logx.Logger
	factory  *actionFactory
}

// NewProcessor creates a new events.Processor
func NewProcessor(registry OrderRegistry, dispatch DispatchPort, logger logx.Logger) *Processor {
	if logger == nil {
		logger = logx.Nop()
	}
	p := &Processor{
		registry: registry,
		dispatch: dispatch,
		logger:   logger,
	}
	p.factory = newActionFactory(p)
	return p
}

// Handle processes a single lifecycle event. Unknown types are ignored.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.factory.get(e.Type)
	if !ok {
		p.logger.Debug("event ignored", logx.String("type", e.Type))
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onOrderCreated(ctx context.Context, e Event) error {
	if e.OrderID == "" {
		return fmt.Errorf("order.created without order id: %w", apperr.ErrInvalid)
	}
	if e.Origin != nil && !e.Origin.Valid() {
		return fmt.Errorf("order %q origin: %w", e.OrderID, apperr.ErrInvalid)
	}
	if err := p.registry.RegisterOrder(ctx, e.Order()); err != nil {
		return err
	}
	_, err := p.dispatch.OnOrderCreated(ctx, e.OrderID)
	return err
}

func (p *Processor) onOrderCancelled(ctx context.Context, e Event) error {
	_, err := p.dispatch.Cancel(ctx, e.OrderID)
	return ignore(err, apperr.ErrNotFound, apperr.ErrConflict)
}

func (p *Processor) onOrderCompleted(ctx context.Context, e Event) error {
	_, err := p.dispatch.Complete(ctx, e.OrderID)
	return ignore(err, apperr.ErrNotFound, apperr.ErrConflict)
}

func (p *Processor) onCourierOnline(ctx context.Context, e Event) error {
	_, err := p.dispatch.OnCourierOnline(ctx, e.CourierID)
	return ignore(err, apperr.ErrNotFound)
}

func (p *Processor) onCourierOffline(ctx context.Context, e Event) error {
	return ignore(p.dispatch.OnCourierOffline(ctx, e.CourierID), apperr.ErrNotFound)
}

// ignore drops errors that a redelivery cannot fix.
func ignore(err error, targets ...error) error {
	for _, t := range targets {
		if errors.Is(err, t) {
			return nil
		}
	}
	return err
}
