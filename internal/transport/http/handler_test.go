package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"reclass/internal/reclassify"
	"reclass/internal/reclassify/store"
	"reclass/internal/runlock"
	id "reclass/pkg/domain"
	"reclass/pkg/platform/middleware/auth"
	"reclass/pkg/testutil"
)

const testSigningKey = "test-signing-key"

// =============================================================================
// HTTP Transport Test Suite
// =============================================================================
// Exercises the full router: middleware chain, admin auth, the trigger and
// last-report endpoints, and health checks, over a real pipeline backed by
// the in-memory store.

type HandlerSuite struct {
	suite.Suite
	store    *store.InMemoryStore
	pipeline *reclassify.Service
	router   http.Handler
	checks   map[string]HealthChecker
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	owner := id.OwnerID(uuid.New())
	eligible := reclassify.OrganizationRecord{
		ID:      id.OrgID(uuid.New()),
		OwnerID: owner,
		Individuals: []reclassify.IndividualRecord{{
			ID:      id.IndividualID(uuid.New()),
			OwnerID: owner,
		}},
	}
	flagged := reclassify.OrganizationRecord{
		ID:           id.OrgID(uuid.New()),
		PortalLinked: true,
		OwnerID:      owner,
		Individuals: []reclassify.IndividualRecord{{
			ID:      id.IndividualID(uuid.New()),
			OwnerID: owner,
		}},
	}
	s.store = store.NewInMemoryStore([]reclassify.OrganizationRecord{eligible, flagged}, nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline, err := reclassify.NewService(
		s.store, s.store, s.store, nil,
		runlock.NewMemoryLock(), nil, nil, logger,
		reclassify.Config{
			BatchSize:   10,
			EvalWorkers: 2,
			Target:      id.ClassificationID(uuid.New()),
		},
	)
	s.Require().NoError(err)
	s.pipeline = pipeline

	s.checks = map[string]HealthChecker{
		"store": HealthCheckFunc(func(context.Context) error { return nil }),
	}
	handler := NewHandler(pipeline, logger, s.checks)
	validator := auth.NewValidator(testSigningKey, "")
	s.router = NewRouter(handler, validator, logger)
}

// adminToken mints a short-lived HS256 token the validator accepts.
func (s *HandlerSuite) adminToken(subject string) string {
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	s.Require().NoError(err)
	return token
}

func (s *HandlerSuite) authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+s.adminToken("ops@example.com"))
	return req
}

// =============================================================================
// Trigger Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestTriggerRun() {
	s.Run("missing credentials are rejected", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/runs")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("invalid token is rejected", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/runs")
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("dry run query parameter skips mutation", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodPost, "/runs?dry_run=true"))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "dry_run", true)
		s.Empty(s.store.Applied)
	})

	s.Run("authorized trigger runs the pipeline and returns the report", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodPost, "/runs"))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "total_evaluated", float64(2))
		testutil.AssertJSONContains(s.T(), rr, "qualified", float64(1))
		testutil.AssertJSONContains(s.T(), rr, "dry_run", false)
		s.Len(s.store.Applied, 1)
	})

	s.Run("concurrent run conflict maps to 409", func() {
		lock := runlock.NewMemoryLock()
		s.Require().NoError(lock.Acquire(context.Background(), id.NewRunID()))

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		pipeline, err := reclassify.NewService(
			s.store, s.store, s.store, nil, lock, nil, nil, logger,
			reclassify.Config{BatchSize: 10, EvalWorkers: 1, Target: id.ClassificationID(uuid.New())},
		)
		s.Require().NoError(err)
		handler := NewHandler(pipeline, logger, nil)
		router := NewRouter(handler, auth.NewValidator(testSigningKey, ""), logger)

		req := s.authed(testutil.NewRequest(s.T(), http.MethodPost, "/runs"))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "run_active")
	})
}

// =============================================================================
// Last Report Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestLastReport() {
	s.Run("404 before any run completes", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/runs/last"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "no_report")
	})

	s.Run("returns the retained report after a run", func() {
		trigger := s.authed(testutil.NewRequest(s.T(), http.MethodPost, "/runs"))
		triggered := testutil.DoRequest(s.router, trigger)
		testutil.AssertStatusOK(s.T(), triggered)
		run := testutil.UnmarshalResponse[map[string]any](s.T(), triggered)

		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/runs/last"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "run_id", (*run)["run_id"])
	})
}

// =============================================================================
// Health Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestHealthz() {
	s.Run("healthy collaborators report ok", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/healthz")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "store", "ok")
	})

	s.Run("failing collaborator degrades to 503", func() {
		s.checks["store"] = HealthCheckFunc(func(context.Context) error {
			return errors.New("connection refused")
		})
		req := testutil.NewRequest(s.T(), http.MethodGet, "/healthz")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	})
}

// =============================================================================
// Metrics Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestMetricsEndpoint() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/metrics")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
}
