package audit

import (
	"context"
	"time"
)

// Publisher captures structured audit events. It is append-only and uses the
// store for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, runID string) ([]Event, error) {
	return p.store.ListByRun(ctx, runID)
}

// Emitter is anything that can record an audit event.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// FanOut forwards each event to every emitter, returning the first error
// after all have been attempted. Used to pair the local store with the Kafka
// trail without making either aware of the other.
type FanOut []Emitter

func (f FanOut) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, emitter := range f {
		if err := emitter.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
