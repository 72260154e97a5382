package reclassify

import (
	"context"

	id "reclass/pkg/domain"
	"reclass/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// RecordSource supplies paginated batches of organization records still
// carrying the source classification. Records arrive with their associated
// individuals and child-existence flag pre-joined; organizations already
// converted by a previous run no longer match the source filter and are never
// streamed again.
type RecordSource interface {
	Stream(ctx context.Context, batchSize int) (RecordIterator, error)
}

// RecordIterator walks the stream batch by batch. Next returns an empty batch
// once the stream is drained. Close releases the underlying cursor.
type RecordIterator interface {
	Next(ctx context.Context) ([]OrganizationRecord, error)
	Close() error
}

// ReportsToLookup returns every reports-to edge anywhere in the store whose
// target is one of the given candidate individuals.
type ReportsToLookup interface {
	FindReportsTo(ctx context.Context, targets []id.IndividualID) ([]ReportsToRelation, error)
}

// BulkMutator applies classification mutations as one partial-failure bulk
// operation. Outcomes come back in request order; each record succeeds or
// fails independently and a failure never rolls back its siblings. The store
// enforces no transactional atomicity across the batch.
type BulkMutator interface {
	Apply(ctx context.Context, requests []MutationRequest) ([]MutationOutcome, error)
}

// ReportSink receives the final diagnostic report.
type ReportSink interface {
	Publish(ctx context.Context, report *Report) error
}

// RunLocker enforces single-flight runs. Acquire returns
// sentinel.ErrRunActive when another run holds the lock.
type RunLocker interface {
	Acquire(ctx context.Context, runID id.RunID) error
	Release(ctx context.Context, runID id.RunID) error
}

// AuditEmitter records run lifecycle and per-record outcome events. Matches
// the audit publisher but is defined here to keep the module boundary clean.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}
