package reclassify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "reclass/pkg/domain"
)

// =============================================================================
// Hierarchy Pass Test Suite
// =============================================================================
// The global pass runs once over the complete candidate set, so its edge
// cases (shared targets, candidates referencing candidates, lookup failure)
// are tested against a small fake lookup rather than a store.

type fakeLookup struct {
	relations []ReportsToRelation
	err       error
	calls     int
}

func (f *fakeLookup) FindReportsTo(_ context.Context, _ []id.IndividualID) ([]ReportsToRelation, error) {
	f.calls++
	return f.relations, f.err
}

type HierarchySuite struct {
	suite.Suite
	ctx context.Context
}

func TestHierarchySuite(t *testing.T) {
	suite.Run(t, new(HierarchySuite))
}

func (s *HierarchySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *HierarchySuite) TestValidateHierarchy() {
	s.Run("empty candidate set skips the lookup", func() {
		lookup := &fakeLookup{}
		dropped, err := ValidateHierarchy(s.ctx, CandidateSet{}, ViolationReport{}, lookup)
		s.NoError(err)
		s.Zero(dropped)
		s.Zero(lookup.calls)
	})

	s.Run("candidate targeted by a reports-to edge is disqualified", func() {
		target := id.IndividualID(uuid.New())
		orgID := id.OrgID(uuid.New())
		candidates := CandidateSet{target: orgID}
		violations := ViolationReport{}
		lookup := &fakeLookup{relations: []ReportsToRelation{{
			IndividualID: id.IndividualID(uuid.New()),
			ReportsToID:  target,
		}}}

		dropped, err := ValidateHierarchy(s.ctx, candidates, violations, lookup)
		s.NoError(err)
		s.Equal(1, dropped)
		s.Empty(candidates)
		s.Equal([]string{ViolationReportsToTarget}, violations[orgID])
	})

	s.Run("candidate not targeted survives", func() {
		target := id.IndividualID(uuid.New())
		bystander := id.IndividualID(uuid.New())
		targetOrg := id.OrgID(uuid.New())
		bystanderOrg := id.OrgID(uuid.New())
		candidates := CandidateSet{target: targetOrg, bystander: bystanderOrg}
		violations := ViolationReport{}
		lookup := &fakeLookup{relations: []ReportsToRelation{{
			IndividualID: id.IndividualID(uuid.New()),
			ReportsToID:  target,
		}}}

		dropped, err := ValidateHierarchy(s.ctx, candidates, violations, lookup)
		s.NoError(err)
		s.Equal(1, dropped)
		s.Len(candidates, 1)
		s.Equal(bystanderOrg, candidates[bystander])
		s.NotContains(violations, bystanderOrg)
	})

	s.Run("multiple edges to the same target disqualify once", func() {
		target := id.IndividualID(uuid.New())
		orgID := id.OrgID(uuid.New())
		candidates := CandidateSet{target: orgID}
		violations := ViolationReport{}
		lookup := &fakeLookup{relations: []ReportsToRelation{
			{IndividualID: id.IndividualID(uuid.New()), ReportsToID: target},
			{IndividualID: id.IndividualID(uuid.New()), ReportsToID: target},
			{IndividualID: id.IndividualID(uuid.New()), ReportsToID: target},
		}}

		dropped, err := ValidateHierarchy(s.ctx, candidates, violations, lookup)
		s.NoError(err)
		s.Equal(1, dropped)
		s.Equal([]string{ViolationReportsToTarget}, violations[orgID])
	})

	s.Run("hierarchy violation appends to existing rule violations", func() {
		target := id.IndividualID(uuid.New())
		orgID := id.OrgID(uuid.New())
		candidates := CandidateSet{target: orgID}
		violations := ViolationReport{orgID: {ViolationPortalLinked}}
		lookup := &fakeLookup{relations: []ReportsToRelation{{
			IndividualID: id.IndividualID(uuid.New()),
			ReportsToID:  target,
		}}}

		_, err := ValidateHierarchy(s.ctx, candidates, violations, lookup)
		s.NoError(err)
		s.Equal([]string{ViolationPortalLinked, ViolationReportsToTarget}, violations[orgID])
	})

	s.Run("lookup failure aborts the pass", func() {
		target := id.IndividualID(uuid.New())
		candidates := CandidateSet{target: id.OrgID(uuid.New())}
		lookup := &fakeLookup{err: errors.New("store offline")}

		_, err := ValidateHierarchy(s.ctx, candidates, ViolationReport{}, lookup)
		s.Error(err)
		s.Contains(err.Error(), "reports-to lookup")
	})
}
