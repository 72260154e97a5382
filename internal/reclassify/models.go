package reclassify

import (
	"time"

	id "reclass/pkg/domain"
)

// OrganizationRecord is the entity evaluated for reclassification. Records
// arrive from the record source with their associated individuals and the
// child-existence flag pre-joined, so the engine never issues per-record
// queries of its own.
type OrganizationRecord struct {
	ID               id.OrgID
	PortalLinked     bool
	OwnerID          id.OwnerID
	CurrencyCode     string // empty when the store has no currency attribute
	ParentID         id.OrgID
	HasChildren      bool
	ClassificationID id.ClassificationID
	Individuals      []IndividualRecord
}

// IndividualRecord is the person-level entity associated with an organization.
type IndividualRecord struct {
	ID           id.IndividualID
	OwnerID      id.OwnerID
	CurrencyCode string
	ReportsToID  id.IndividualID
}

// ReportsToRelation is one directed reports-to edge returned by the lookup.
type ReportsToRelation struct {
	IndividualID id.IndividualID
	ReportsToID  id.IndividualID
}

// ViolationReport accumulates human-readable violations per organization.
// Entries append in rule evaluation order and later passes merge into
// existing entries rather than replacing them.
type ViolationReport map[id.OrgID][]string

// Append adds violations for an organization, preserving prior entries.
func (r ViolationReport) Append(orgID id.OrgID, violations ...string) {
	if len(violations) == 0 {
		return
	}
	r[orgID] = append(r[orgID], violations...)
}

// Merge folds another report into this one, appending per id.
func (r ViolationReport) Merge(other ViolationReport) {
	for orgID, violations := range other {
		r[orgID] = append(r[orgID], violations...)
	}
}

// CandidateSet maps a candidate organization's single individual to the
// organization that owns it. Entries are removable during the hierarchy pass.
type CandidateSet map[id.IndividualID]id.OrgID

// Merge folds another candidate set into this one.
func (c CandidateSet) Merge(other CandidateSet) {
	for individualID, orgID := range other {
		c[individualID] = orgID
	}
}

// IndividualIDs returns the candidate individual identities, for the
// reports-to lookup.
func (c CandidateSet) IndividualIDs() []id.IndividualID {
	ids := make([]id.IndividualID, 0, len(c))
	for individualID := range c {
		ids = append(ids, individualID)
	}
	return ids
}

// MutationRequest asks the store to set one organization's classification.
// All other fields are left untouched.
type MutationRequest struct {
	OrgID            id.OrgID
	ClassificationID id.ClassificationID
}

// MutationOutcome is the per-record result of the bulk mutation. Message is
// set iff the record's mutation failed.
type MutationOutcome struct {
	OrgID   id.OrgID
	Success bool
	Message string
}

// Report is the final diagnostic output of one pipeline run.
type Report struct {
	RunID       id.RunID
	StartedAt   time.Time
	CompletedAt time.Time
	DryRun      bool

	// TotalEvaluated counts every organization record the source streamed.
	TotalEvaluated int
	// Qualified counts candidates that survived the hierarchy pass and
	// reached the executor, before subtracting mutation failures.
	Qualified int
	// MutationFailures counts records whose bulk mutation failed.
	MutationFailures int
	// FailurePercent is ceil(MutationFailures * 100 / Qualified). Zero when
	// nothing qualified; a zero qualified count is reported, never a fault.
	FailurePercent int
	// RuleErrors counts organizations disqualified by rules or the hierarchy
	// pass: distinct ids in Violations minus MutationFailures.
	RuleErrors int

	Violations ViolationReport
	Outcomes   []MutationOutcome
}
