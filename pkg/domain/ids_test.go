package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reclass/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseOrgID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseOrgID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseOrgID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New().String()
		orgID, err := ParseOrgID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, orgID.String())
	})

	t.Run("every parser enforces the same invariant", func(t *testing.T) {
		bad := "definitely-not-a-uuid"

		_, err := ParseIndividualID(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = ParseOwnerID(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = ParseClassificationID(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestIDString(t *testing.T) {
	t.Run("round-trips through String", func(t *testing.T) {
		raw := strings.ToLower(uuid.New().String())
		individualID, err := ParseIndividualID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, individualID.String())
	})
}

func TestIsNil(t *testing.T) {
	t.Run("zero values are nil", func(t *testing.T) {
		assert.True(t, OrgID{}.IsNil())
		assert.True(t, IndividualID{}.IsNil())
		assert.True(t, OwnerID{}.IsNil())
		assert.True(t, ClassificationID{}.IsNil())
	})

	t.Run("parsed values are not nil", func(t *testing.T) {
		orgID, err := ParseOrgID(uuid.New().String())
		require.NoError(t, err)
		assert.False(t, orgID.IsNil())
	})
}

func TestNewRunID(t *testing.T) {
	t.Run("generates distinct ids", func(t *testing.T) {
		assert.NotEqual(t, NewRunID(), NewRunID())
	})
}
