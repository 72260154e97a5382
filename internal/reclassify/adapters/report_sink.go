package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"reclass/internal/reclassify"
)

// LogSink renders the diagnostic report as structured log output, one summary
// line plus one line per organization with violations. The format is a simple
// key/value document, not a stable wire contract.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, report *reclassify.Report) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	s.logger.InfoContext(ctx, "reclassification report",
		"run_id", report.RunID.String(),
		"dry_run", report.DryRun,
		"started_at", report.StartedAt,
		"completed_at", report.CompletedAt,
		"total_evaluated", report.TotalEvaluated,
		"qualified", report.Qualified,
		"mutation_failures", report.MutationFailures,
		"failure_percent", report.FailurePercent,
		"rule_errors", report.RuleErrors,
	)

	// Sorted so successive runs log violations in a comparable order.
	orgIDs := make([]string, 0, len(report.Violations))
	byID := make(map[string][]string, len(report.Violations))
	for orgID, violations := range report.Violations {
		key := orgID.String()
		orgIDs = append(orgIDs, key)
		byID[key] = violations
	}
	sort.Strings(orgIDs)

	for _, orgID := range orgIDs {
		s.logger.InfoContext(ctx, "organization not reclassified",
			"run_id", report.RunID.String(),
			"org_id", orgID,
			"violations", byID[orgID],
		)
	}

	return nil
}
