package reclassify

import (
	"context"
	"fmt"
)

// ValidateHierarchy runs the global cross-record pass over the complete
// candidate set. Any candidate individual that is the reports-to target of
// another individual anywhere in the store disqualifies its owning
// organization, even though every per-record rule passed.
//
// The pass mutates candidates and violations in place and returns the number
// of organizations it disqualified. It must only run after every batch has
// been evaluated and merged.
func ValidateHierarchy(ctx context.Context, candidates CandidateSet, violations ViolationReport, lookup ReportsToLookup) (int, error) {
	if len(candidates) == 0 {
		// Nothing to check; skip the lookup entirely.
		return 0, nil
	}

	relations, err := lookup.FindReportsTo(ctx, candidates.IndividualIDs())
	if err != nil {
		return 0, fmt.Errorf("reports-to lookup: %w", err)
	}

	disqualified := 0
	for _, rel := range relations {
		// Several individuals can report to the same target; the presence
		// re-check makes the first hit win and later hits no-ops, so a
		// candidate is never counted twice.
		orgID, ok := candidates[rel.ReportsToID]
		if !ok {
			continue
		}
		violations.Append(orgID, ViolationReportsToTarget)
		delete(candidates, rel.ReportsToID)
		disqualified++
	}

	return disqualified, nil
}
