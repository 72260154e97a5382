package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Admin Auth Validator Test Suite
// =============================================================================

const signingKey = "unit-test-signing-key"

type ValidatorSuite struct {
	suite.Suite
	validator *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	hash, err := bcrypt.GenerateFromPassword([]byte("break-glass-token"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.validator = NewValidator(signingKey, string(hash))
}

func (s *ValidatorSuite) signedToken(key string, subject string, expiresIn time.Duration) string {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	s.Require().NoError(err)
	return token
}

func (s *ValidatorSuite) TestActor() {
	s.Run("valid JWT yields its subject", func() {
		actor, err := s.validator.Actor(s.signedToken(signingKey, "ops@example.com", time.Hour))
		s.NoError(err)
		s.Equal("ops@example.com", actor)
	})

	s.Run("expired JWT is rejected", func() {
		_, err := s.validator.Actor(s.signedToken(signingKey, "ops@example.com", -time.Hour))
		s.Error(err)
	})

	s.Run("JWT signed with another key is rejected", func() {
		_, err := s.validator.Actor(s.signedToken("some-other-key", "ops@example.com", time.Hour))
		s.Error(err)
	})

	s.Run("configured admin token is accepted", func() {
		actor, err := s.validator.Actor("break-glass-token")
		s.NoError(err)
		s.Equal("admin-token", actor)
	})

	s.Run("wrong admin token is rejected", func() {
		_, err := s.validator.Actor("not-the-token")
		s.Error(err)
	})

	s.Run("admin token path is disabled without a hash", func() {
		bare := NewValidator(signingKey, "")
		_, err := bare.Actor("break-glass-token")
		s.Error(err)
	})
}
