package reclassify

import (
	id "reclass/pkg/domain"
)

// BuildReport merges mutation outcomes into the violation report and computes
// the summary counts. This is pure domain logic - no I/O, no side effects.
//
// qualified is the candidate count that reached the executor, before
// subtracting mutation failures. The aggregator tolerates partial data: a run
// that failed after mutation can still hand in nil or truncated outcomes and
// get a usable report back.
func BuildReport(runID id.RunID, totalEvaluated, qualified int, violations ViolationReport, outcomes []MutationOutcome) *Report {
	merged := make(ViolationReport, len(violations))
	merged.Merge(violations)

	failures := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			continue
		}
		failures++
		message := outcome.Message
		if message == "" {
			message = "mutation failed without a reported message"
		}
		merged.Append(outcome.OrgID, message)
	}

	ruleErrors := len(merged) - failures
	if ruleErrors < 0 {
		ruleErrors = 0
	}

	return &Report{
		RunID:            runID,
		TotalEvaluated:   totalEvaluated,
		Qualified:        qualified,
		MutationFailures: failures,
		FailurePercent:   failurePercent(failures, qualified),
		RuleErrors:       ruleErrors,
		Violations:       merged,
		Outcomes:         outcomes,
	}
}

// failurePercent computes ceil(failures * 100 / qualified). A qualified count
// of zero reports zero rather than dividing by zero.
func failurePercent(failures, qualified int) int {
	if qualified <= 0 || failures <= 0 {
		return 0
	}
	return (failures*100 + qualified - 1) / qualified
}
