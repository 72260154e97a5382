package reclassify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"reclass/internal/reclassify/metrics"
	id "reclass/pkg/domain"
	"reclass/pkg/platform/audit"
	"reclass/pkg/platform/sentinel"
	"reclass/pkg/requestcontext"
)

// Config tunes one pipeline run.
type Config struct {
	// BatchSize bounds each record source fetch and, transitively, the bulk
	// mutation size. Correctness must not depend on it.
	BatchSize int
	// EvalWorkers bounds the per-record rule phase worker pool.
	EvalWorkers int
	// MultiCurrency toggles the currency-match rule.
	MultiCurrency bool
	// Target is the classification assigned to eligible organizations.
	Target id.ClassificationID
}

// RunOptions carries per-trigger switches.
type RunOptions struct {
	// DryRun evaluates and reports without touching the store.
	DryRun bool
}

// Service orchestrates one bounded reclassification run: stream batches
// through the rule phase, run the global hierarchy pass, submit the bulk
// mutation, and aggregate the diagnostic report. No state survives a run
// except the retained last report.
type Service struct {
	source  RecordSource
	lookup  ReportsToLookup
	mutator BulkMutator
	sink    ReportSink
	lock    RunLocker
	auditor AuditEmitter
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	cfg     Config

	mu         sync.Mutex
	lastReport *Report
}

// NewService validates dependencies and returns a configured pipeline.
func NewService(source RecordSource, lookup ReportsToLookup, mutator BulkMutator, sink ReportSink, lock RunLocker, auditor AuditEmitter, m *metrics.Metrics, logger *slog.Logger, cfg Config) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("record source is required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("reports-to lookup is required")
	}
	if mutator == nil {
		return nil, fmt.Errorf("bulk mutator is required")
	}
	if lock == nil {
		return nil, fmt.Errorf("run locker is required")
	}
	if cfg.Target.IsNil() {
		return nil, fmt.Errorf("target classification is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if cfg.EvalWorkers <= 0 {
		cfg.EvalWorkers = 1
	}
	return &Service{
		source:  source,
		lookup:  lookup,
		mutator: mutator,
		sink:    sink,
		lock:    lock,
		auditor: auditor,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("reclass/internal/reclassify"),
		cfg:     cfg,
	}, nil
}

// LastReport returns the report of the most recent completed run, or
// sentinel.ErrNoReport before the first run finishes.
func (s *Service) LastReport() (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReport == nil {
		return nil, sentinel.ErrNoReport
	}
	return s.lastReport, nil
}

// Run executes the full pipeline once. Rule violations, hierarchy
// disqualifications, and per-record mutation failures are data and land in
// the report; only collaborator failures abort the run and surface as an
// error.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	runID := id.NewRunID()
	started := requestcontext.Now(ctx)

	ctx, span := s.tracer.Start(ctx, "reclassify.run")
	defer span.End()

	if err := s.lock.Acquire(ctx, runID); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), runID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "run lock release failed", "run_id", runID.String(), "error", err)
		}
	}()

	s.emitAudit(ctx, audit.Event{
		Action: audit.ActionRunStarted,
		RunID:  runID.String(),
	})

	report, err := s.run(ctx, runID, opts)
	if err != nil {
		s.metrics.IncrementRuns("failed")
		s.emitAudit(ctx, audit.Event{
			Action: audit.ActionRunFailed,
			RunID:  runID.String(),
			Reason: err.Error(),
		})
		return nil, err
	}

	report.StartedAt = started
	report.CompletedAt = time.Now()
	report.DryRun = opts.DryRun

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	status := "completed"
	if opts.DryRun {
		status = "dry_run"
	}
	s.metrics.IncrementRuns(status)
	s.metrics.ObserveRunDuration(report.CompletedAt.Sub(started))

	if s.sink != nil {
		if err := s.sink.Publish(ctx, report); err != nil {
			return nil, fmt.Errorf("publish report: %w", err)
		}
	}

	s.emitAudit(ctx, audit.Event{
		Action: audit.ActionRunCompleted,
		RunID:  runID.String(),
		Reason: fmt.Sprintf("evaluated=%d qualified=%d failures=%d", report.TotalEvaluated, report.Qualified, report.MutationFailures),
	})

	return report, nil
}

func (s *Service) run(ctx context.Context, runID id.RunID, opts RunOptions) (*Report, error) {
	total, violations, candidates, err := s.evaluateAll(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.AddEvaluated(total)
	s.metrics.AddEvaluationOutcome("candidate", len(candidates))
	s.metrics.AddEvaluationOutcome("disqualified", len(violations))

	hierarchyCtx, hierarchySpan := s.tracer.Start(ctx, "reclassify.hierarchy")
	dropped, err := ValidateHierarchy(hierarchyCtx, candidates, violations, s.lookup)
	hierarchySpan.End()
	if err != nil {
		return nil, err
	}
	s.metrics.AddHierarchyDisqualified(dropped)

	qualified := len(candidates)

	var outcomes []MutationOutcome
	if opts.DryRun {
		outcomes = []MutationOutcome{}
	} else {
		mutateCtx, mutateSpan := s.tracer.Start(ctx, "reclassify.mutate")
		outcomes, err = ExecuteReclassification(mutateCtx, candidates, s.cfg.Target, s.mutator)
		mutateSpan.End()
		if err != nil {
			return nil, err
		}
		s.auditOutcomes(ctx, runID, outcomes)
	}

	report := BuildReport(runID, total, qualified, violations, outcomes)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "reclassification run finished",
			"run_id", runID.String(),
			"dry_run", opts.DryRun,
			"evaluated", report.TotalEvaluated,
			"qualified", report.Qualified,
			"mutation_failures", report.MutationFailures,
			"rule_errors", report.RuleErrors,
		)
	}

	return report, nil
}

// evaluateAll streams batches through a bounded worker pool. Workers return
// partial accumulators which a single collector goroutine merges, so the
// shared maps never need locking.
func (s *Service) evaluateAll(ctx context.Context) (int, ViolationReport, CandidateSet, error) {
	ctx, span := s.tracer.Start(ctx, "reclassify.evaluate")
	defer span.End()

	iter, err := s.source.Stream(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("open record stream: %w", err)
	}
	defer iter.Close()

	type partial struct {
		evaluated  int
		violations ViolationReport
		candidates CandidateSet
	}

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan []OrganizationRecord)
	partials := make(chan partial)

	g.Go(func() error {
		defer close(batches)
		for {
			batch, err := iter.Next(gctx)
			if err != nil {
				return fmt.Errorf("fetch batch: %w", err)
			}
			if len(batch) == 0 {
				return nil
			}
			select {
			case batches <- batch:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for i := 0; i < s.cfg.EvalWorkers; i++ {
		g.Go(func() error {
			for batch := range batches {
				violations, candidates := EvaluateBatch(batch, s.cfg.MultiCurrency)
				select {
				case partials <- partial{evaluated: len(batch), violations: violations, candidates: candidates}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	total := 0
	violations := make(ViolationReport)
	candidates := make(CandidateSet)
	merged := make(chan struct{})
	go func() {
		defer close(merged)
		for p := range partials {
			total += p.evaluated
			violations.Merge(p.violations)
			candidates.Merge(p.candidates)
		}
	}()

	err = g.Wait()
	close(partials)
	<-merged
	if err != nil {
		return 0, nil, nil, err
	}

	return total, violations, candidates, nil
}

func (s *Service) auditOutcomes(ctx context.Context, runID id.RunID, outcomes []MutationOutcome) {
	for _, outcome := range outcomes {
		event := audit.Event{
			Action: audit.ActionOrgReclassified,
			RunID:  runID.String(),
			OrgID:  outcome.OrgID.String(),
		}
		if outcome.Success {
			s.metrics.IncrementMutationOutcome("success")
		} else {
			s.metrics.IncrementMutationOutcome("failure")
			event.Action = audit.ActionOrgReclassifyFailed
			event.Reason = outcome.Message
		}
		s.emitAudit(ctx, event)
	}
}

// emitAudit decorates events with trigger metadata and never fails the run:
// the audit trail is diagnostic, not transactional.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Actor = requestcontext.Actor(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(event.Action), "error", err)
	}
}
