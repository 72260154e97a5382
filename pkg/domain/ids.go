package domain

import (
	"github.com/google/uuid"

	dErrors "reclass/pkg/domain-errors"
)

// Typed IDs prevent cross-type assignment between the entities this service
// moves around (organizations, individuals, owners, classifications, runs).
// All IDs are UUIDs under the hood; parsing enforces validity at trust
// boundaries so the core engine never sees a malformed identity.
type (
	// OrgID identifies an organization record, the entity being reclassified.
	OrgID uuid.UUID

	// IndividualID identifies an individual record associated with an organization.
	IndividualID uuid.UUID

	// OwnerID identifies the owning user of an organization or individual record.
	OwnerID uuid.UUID

	// ClassificationID identifies the schema/type tag an organization carries.
	ClassificationID uuid.UUID

	// RunID identifies one pipeline run.
	RunID uuid.UUID
)

// NewRunID returns a fresh run identifier.
func NewRunID() RunID {
	return RunID(uuid.New())
}

func (id OrgID) String() string            { return uuid.UUID(id).String() }
func (id IndividualID) String() string     { return uuid.UUID(id).String() }
func (id OwnerID) String() string          { return uuid.UUID(id).String() }
func (id ClassificationID) String() string { return uuid.UUID(id).String() }
func (id RunID) String() string            { return uuid.UUID(id).String() }

func (id OrgID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id IndividualID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id OwnerID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ClassificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseOrgID validates and returns an OrgID.
func ParseOrgID(s string) (OrgID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return OrgID{}, err
	}
	return OrgID(u), nil
}

// ParseIndividualID validates and returns an IndividualID.
func ParseIndividualID(s string) (IndividualID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return IndividualID{}, err
	}
	return IndividualID(u), nil
}

// ParseOwnerID validates and returns an OwnerID.
func ParseOwnerID(s string) (OwnerID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return OwnerID{}, err
	}
	return OwnerID(u), nil
}

// ParseClassificationID validates and returns a ClassificationID.
func ParseClassificationID(s string) (ClassificationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ClassificationID{}, err
	}
	return ClassificationID(u), nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
