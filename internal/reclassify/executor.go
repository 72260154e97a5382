package reclassify

import (
	"context"
	"fmt"
	"sort"

	id "reclass/pkg/domain"
)

// ExecuteReclassification builds one mutation request per surviving candidate
// and submits the whole set as a single partial-failure bulk operation. Each
// record gets exactly one attempt; retry policy, if any, belongs to whatever
// invokes the run.
//
// An empty candidate set performs no operation and returns an empty outcome
// slice - the store must never see a zero-length mutation.
func ExecuteReclassification(ctx context.Context, candidates CandidateSet, target id.ClassificationID, mutator BulkMutator) ([]MutationOutcome, error) {
	if len(candidates) == 0 {
		return []MutationOutcome{}, nil
	}

	requests := make([]MutationRequest, 0, len(candidates))
	for _, orgID := range candidates {
		requests = append(requests, MutationRequest{
			OrgID:            orgID,
			ClassificationID: target,
		})
	}
	// Map iteration order is random; sort so outcomes and audit events are
	// deterministic across runs.
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].OrgID.String() < requests[j].OrgID.String()
	})

	outcomes, err := mutator.Apply(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("bulk mutation: %w", err)
	}
	return outcomes, nil
}
