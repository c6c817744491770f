package events

import (
	"context"
	"strings"
)

type actionFunc func(context.Context, Event) error

type actionFactory struct {
	byType map[string]actionFunc
}

func newActionFactory(p *Processor) *actionFactory {
	return &actionFactory{
		byType: map[string]actionFunc{
			TypeOrderCreated:   p.onOrderCreated,
			TypeOrderCancelled: p.onOrderCancelled,
			// producers spell it both ways
			"order.canceled":   p.onOrderCancelled,
			"order.deleted":    p.onOrderCancelled,
			TypeOrderCompleted: p.onOrderCompleted,
			TypeCourierOnline:  p.onCourierOnline,
			TypeCourierOffline: p.onCourierOffline,
		},
	}
}

func (f *actionFactory) get(kind string) (actionFunc, bool) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	fn, ok := f.byType[kind]
	return fn, ok
}
