package context

import (
	"context"
	"sync"
)

// Aggregator activates several Contextualizable components as one.
type Aggregator struct {
	managers []Contextualizable
}

// NewAggregator creates an aggregator over managers, entered in the given order.
func NewAggregator(managers ...Contextualizable) *Aggregator {
	return &Aggregator{managers: append([]Contextualizable(nil), managers...)}
}

// Contextualize enters every manager in order with the same values. Each
// manager receives the context produced by the one before it.
//
// If entering a manager fails, the managers already entered are exited in
// reverse order and the error is returned unchanged. A panic while entering
// unwinds the same way before it propagates. The returned ExitFunc exits all
// managers in reverse order of entry.
func (a *Aggregator) Contextualize(ctx context.Context, values Values) (context.Context, ExitFunc, error) {
	exits := make([]ExitFunc, 0, len(a.managers))

	entered := false
	defer func() {
		if !entered {
			unwind(exits)
		}
	}()

	scoped := ctx
	for _, mgr := range a.managers {
		next, exit, err := mgr.Contextualize(scoped, values)
		if err != nil {
			return nil, nil, err
		}

		scoped = next
		exits = append(exits, exit)
	}

	entered = true

	var once sync.Once
	return scoped, func() { once.Do(func() { unwind(exits) }) }, nil
}

// Len returns the number of managed components.
func (a *Aggregator) Len() int {
	return len(a.managers)
}

// unwind calls exits last to first. Every exit runs even if a later one panics.
func unwind(exits []ExitFunc) {
	for _, exit := range exits {
		defer exit()
	}
}
