package reclassify

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "reclass/pkg/domain"
)

// =============================================================================
// Rule Evaluation Test Suite
// =============================================================================
// The rule phase is pure domain logic; every disqualification path and the
// accumulation behavior get exercised here without any collaborators.

type RulesSuite struct {
	suite.Suite
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

// eligibleOrg builds an organization that passes every per-record rule.
func (s *RulesSuite) eligibleOrg() OrganizationRecord {
	owner := id.OwnerID(uuid.New())
	return OrganizationRecord{
		ID:           id.OrgID(uuid.New()),
		OwnerID:      owner,
		CurrencyCode: "USD",
		Individuals: []IndividualRecord{{
			ID:           id.IndividualID(uuid.New()),
			OwnerID:      owner,
			CurrencyCode: "USD",
		}},
	}
}

// =============================================================================
// Per-Rule Tests
// =============================================================================

func (s *RulesSuite) TestEvaluateRecord() {
	s.Run("eligible record has no violations", func() {
		violations := EvaluateRecord(s.eligibleOrg(), true)
		s.Empty(violations)
	})

	s.Run("portal-linked record is disqualified", func() {
		org := s.eligibleOrg()
		org.PortalLinked = true
		s.Equal([]string{ViolationPortalLinked}, EvaluateRecord(org, true))
	})

	s.Run("non-empty parent reference is disqualified", func() {
		org := s.eligibleOrg()
		org.ParentID = id.OrgID(uuid.New())
		s.Equal([]string{ViolationHasParent}, EvaluateRecord(org, true))
	})

	s.Run("record that is itself a parent is disqualified", func() {
		org := s.eligibleOrg()
		org.HasChildren = true
		s.Equal([]string{ViolationHasChildren}, EvaluateRecord(org, true))
	})

	s.Run("owner mismatch with associated individual is disqualified", func() {
		org := s.eligibleOrg()
		org.Individuals[0].OwnerID = id.OwnerID(uuid.New())
		s.Equal([]string{ViolationOwnerMismatch}, EvaluateRecord(org, true))
	})

	s.Run("individual with reports-to reference is disqualified", func() {
		org := s.eligibleOrg()
		org.Individuals[0].ReportsToID = id.IndividualID(uuid.New())
		s.Equal([]string{ViolationReportsToSet}, EvaluateRecord(org, true))
	})

	s.Run("currency mismatch is disqualified when multi-currency is on", func() {
		org := s.eligibleOrg()
		org.Individuals[0].CurrencyCode = "EUR"
		s.Equal([]string{ViolationCurrencyMismatch}, EvaluateRecord(org, true))
	})

	s.Run("currency mismatch is ignored when multi-currency is off", func() {
		org := s.eligibleOrg()
		org.Individuals[0].CurrencyCode = "EUR"
		s.Empty(EvaluateRecord(org, false))
	})

	s.Run("zero individuals is disqualified with the count violation", func() {
		org := s.eligibleOrg()
		org.Individuals = nil
		s.Equal([]string{ViolationIndividualCount}, EvaluateRecord(org, true))
	})

	s.Run("two individuals is disqualified without per-individual checks", func() {
		org := s.eligibleOrg()
		// The second individual carries every per-individual violation;
		// none of them may surface because the count check preempts them.
		org.Individuals = append(org.Individuals, IndividualRecord{
			ID:           id.IndividualID(uuid.New()),
			OwnerID:      id.OwnerID(uuid.New()),
			CurrencyCode: "JPY",
			ReportsToID:  id.IndividualID(uuid.New()),
		})
		s.Equal([]string{ViolationIndividualCount}, EvaluateRecord(org, true))
	})
}

// =============================================================================
// Accumulation Tests
// =============================================================================

func (s *RulesSuite) TestEvaluateRecordAccumulates() {
	s.Run("multiple violations accumulate in rule order", func() {
		org := s.eligibleOrg()
		org.PortalLinked = true
		org.ParentID = id.OrgID(uuid.New())
		org.HasChildren = true

		violations := EvaluateRecord(org, true)
		s.Equal([]string{
			ViolationPortalLinked,
			ViolationHasParent,
			ViolationHasChildren,
		}, violations)
	})

	s.Run("record-level and individual-level violations accumulate together", func() {
		org := s.eligibleOrg()
		org.PortalLinked = true
		org.Individuals[0].OwnerID = id.OwnerID(uuid.New())
		org.Individuals[0].ReportsToID = id.IndividualID(uuid.New())

		violations := EvaluateRecord(org, true)
		s.Equal([]string{
			ViolationPortalLinked,
			ViolationOwnerMismatch,
			ViolationReportsToSet,
		}, violations)
	})
}

// =============================================================================
// Batch Evaluation Tests
// =============================================================================

func (s *RulesSuite) TestEvaluateBatch() {
	s.Run("splits batch into violations and candidates", func() {
		eligible := s.eligibleOrg()
		flagged := s.eligibleOrg()
		flagged.PortalLinked = true

		violations, candidates := EvaluateBatch([]OrganizationRecord{eligible, flagged}, true)

		s.Len(violations, 1)
		s.Equal([]string{ViolationPortalLinked}, violations[flagged.ID])
		s.Len(candidates, 1)
		s.Equal(eligible.ID, candidates[eligible.Individuals[0].ID])
	})

	s.Run("a violating record never enters the candidate set", func() {
		flagged := s.eligibleOrg()
		flagged.HasChildren = true

		violations, candidates := EvaluateBatch([]OrganizationRecord{flagged}, true)

		s.Len(violations, 1)
		s.Empty(candidates)
	})

	s.Run("empty batch yields empty accumulators", func() {
		violations, candidates := EvaluateBatch(nil, true)
		s.Empty(violations)
		s.Empty(candidates)
	})
}
