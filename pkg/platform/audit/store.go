package audit

import (
	"context"
	"errors"
)

// ErrInboxFull reports a dropped event when the buffered audit inbox is at
// capacity.
var ErrInboxFull = errors.New("audit inbox full")

// Store persists audit events. Interface-driven so the worker can write to
// memory in tests and real backends in production without rewiring.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRun(ctx context.Context, runID string) ([]Event, error)
}
