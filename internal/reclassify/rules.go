package reclassify

// Violation messages. These end up verbatim in the diagnostic report, so they
// read as a sentence fragment following the organization id.
const (
	ViolationPortalLinked     = "cannot be bound to a user identity"
	ViolationHasParent        = "parent reference is not empty"
	ViolationHasChildren      = "is itself a parent for another record"
	ViolationOwnerMismatch    = "owner does not match the associated individual's owner"
	ViolationReportsToSet     = "associated individual has a reports-to reference"
	ViolationCurrencyMismatch = "currency code does not match the associated individual's"
	ViolationIndividualCount  = "must have exactly one associated individual"
	ViolationReportsToTarget  = "is a reports-to target for another individual"
)

// EvaluateRecord applies the fixed disqualification rules to one organization
// record. This is pure domain logic - no I/O, no side effects.
//
// Checks run unconditionally and accumulate, never short-circuit, so a single
// record can collect several violations in one pass. The returned slice is in
// rule order; an empty result marks the record as a candidate.
func EvaluateRecord(org OrganizationRecord, multiCurrency bool) []string {
	var violations []string

	if org.PortalLinked {
		violations = append(violations, ViolationPortalLinked)
	}
	if !org.ParentID.IsNil() {
		violations = append(violations, ViolationHasParent)
	}
	if org.HasChildren {
		violations = append(violations, ViolationHasChildren)
	}

	if len(org.Individuals) == 1 {
		individual := org.Individuals[0]
		if individual.OwnerID != org.OwnerID {
			violations = append(violations, ViolationOwnerMismatch)
		}
		if !individual.ReportsToID.IsNil() {
			violations = append(violations, ViolationReportsToSet)
		}
		if multiCurrency && individual.CurrencyCode != org.CurrencyCode {
			violations = append(violations, ViolationCurrencyMismatch)
		}
	} else {
		// Zero or several individuals: one violation, and the per-individual
		// checks above never run.
		violations = append(violations, ViolationIndividualCount)
	}

	return violations
}

// EvaluateBatch runs the per-record rules over one batch and returns partial
// accumulators for a single-threaded merge. Violations and candidacy are
// mutually exclusive per organization: a record with any violation is never
// inserted into the candidate set.
func EvaluateBatch(batch []OrganizationRecord, multiCurrency bool) (ViolationReport, CandidateSet) {
	violations := make(ViolationReport)
	candidates := make(CandidateSet)

	for _, org := range batch {
		found := EvaluateRecord(org, multiCurrency)
		if len(found) > 0 {
			violations.Append(org.ID, found...)
			continue
		}
		// The exactly-one invariant held, so indexing by the single
		// individual is safe.
		candidates[org.Individuals[0].ID] = org.ID
	}

	return violations, candidates
}
