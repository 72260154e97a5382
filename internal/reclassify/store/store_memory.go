package store

import (
	"context"
	"sort"
	"sync"

	"reclass/internal/reclassify"
	id "reclass/pkg/domain"
)

// InMemoryStore implements the record source, reports-to lookup, and bulk
// mutator against slices, keeping the pipeline fully testable without a
// database.
type InMemoryStore struct {
	mu            sync.Mutex
	organizations []reclassify.OrganizationRecord
	// relations holds reports-to edges store-wide, including ones whose
	// individuals belong to organizations outside the streamed universe.
	relations []reclassify.ReportsToRelation

	// FailMutations injects per-record mutation failures keyed by org id.
	FailMutations map[id.OrgID]string
	// Applied records every mutation the store accepted, in request order.
	Applied []reclassify.MutationRequest
}

func NewInMemoryStore(organizations []reclassify.OrganizationRecord, relations []reclassify.ReportsToRelation) *InMemoryStore {
	return &InMemoryStore{
		organizations: organizations,
		relations:     relations,
		FailMutations: make(map[id.OrgID]string),
	}
}

func (s *InMemoryStore) Stream(_ context.Context, batchSize int) (reclassify.RecordIterator, error) {
	// Copy and sort so iteration order is deterministic like the keyset
	// cursor in the Postgres store.
	records := append([]reclassify.OrganizationRecord{}, s.organizations...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID.String() < records[j].ID.String()
	})
	return &memoryIterator{records: records, batchSize: batchSize}, nil
}

type memoryIterator struct {
	records   []reclassify.OrganizationRecord
	batchSize int
	offset    int
}

func (it *memoryIterator) Next(_ context.Context) ([]reclassify.OrganizationRecord, error) {
	if it.offset >= len(it.records) {
		return nil, nil
	}
	end := it.offset + it.batchSize
	if end > len(it.records) {
		end = len(it.records)
	}
	batch := it.records[it.offset:end]
	it.offset = end
	return batch, nil
}

func (it *memoryIterator) Close() error {
	it.offset = len(it.records)
	return nil
}

func (s *InMemoryStore) FindReportsTo(_ context.Context, targets []id.IndividualID) ([]reclassify.ReportsToRelation, error) {
	wanted := make(map[id.IndividualID]struct{}, len(targets))
	for _, target := range targets {
		wanted[target] = struct{}{}
	}

	var matches []reclassify.ReportsToRelation
	for _, rel := range s.relations {
		if _, ok := wanted[rel.ReportsToID]; ok {
			matches = append(matches, rel)
		}
	}
	return matches, nil
}

func (s *InMemoryStore) Apply(_ context.Context, requests []reclassify.MutationRequest) ([]reclassify.MutationOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes := make([]reclassify.MutationOutcome, 0, len(requests))
	for _, request := range requests {
		if message, ok := s.FailMutations[request.OrgID]; ok {
			outcomes = append(outcomes, reclassify.MutationOutcome{
				OrgID:   request.OrgID,
				Success: false,
				Message: message,
			})
			continue
		}
		s.Applied = append(s.Applied, request)
		outcomes = append(outcomes, reclassify.MutationOutcome{
			OrgID:   request.OrgID,
			Success: true,
		})
	}
	return outcomes, nil
}
