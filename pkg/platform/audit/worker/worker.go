package worker

import (
	"context"
	"log/slog"
	"time"

	audit "reclass/pkg/platform/audit"
)

// Worker drains audit events from a buffered inbox and hands them to the
// configured emitters (local store, Kafka trail). Emission failures are
// logged and skipped: the audit trail is diagnostic, and one bad event must
// not stall the pipeline behind it.
type Worker struct {
	emitter audit.Emitter
	inbox   <-chan audit.Event
	logger  *slog.Logger
}

func NewWorker(emitter audit.Emitter, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{emitter: emitter, inbox: inbox, logger: logger}
}

// Run consumes until the context is cancelled, then drains whatever is
// already buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.emit(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.emit(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) emit(ctx context.Context, event audit.Event) {
	if err := w.emitter.Emit(ctx, event); err != nil && w.logger != nil {
		w.logger.Warn("audit event dropped",
			"action", string(event.Action),
			"run_id", event.RunID,
			"error", err,
		)
	}
}

// Inbox is a buffered channel emitter feeding a Worker. Emit never blocks;
// when the buffer is full the event is dropped and reported via the returned
// error so callers can count losses.
type Inbox struct {
	ch chan audit.Event
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 1024
	}
	return &Inbox{ch: make(chan audit.Event, size)}
}

// Chan exposes the receive side for the Worker.
func (i *Inbox) Chan() <-chan audit.Event {
	return i.ch
}

func (i *Inbox) Emit(_ context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	select {
	case i.ch <- event:
		return nil
	default:
		return audit.ErrInboxFull
	}
}
