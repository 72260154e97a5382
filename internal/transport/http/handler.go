package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"reclass/internal/reclassify"
	"reclass/pkg/platform/sentinel"
	"reclass/pkg/requestcontext"
)

// HealthChecker reports whether a collaborator is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Health(ctx context.Context) error { return f(ctx) }

// Handler is the thin HTTP layer. It delegates to the pipeline service
// without embedding business logic so transport concerns remain isolated.
type Handler struct {
	pipeline *reclassify.Service
	logger   *slog.Logger
	checks   map[string]HealthChecker
}

func NewHandler(pipeline *reclassify.Service, logger *slog.Logger, checks map[string]HealthChecker) *Handler {
	return &Handler{pipeline: pipeline, logger: logger, checks: checks}
}

// handleTriggerRun executes one pipeline run synchronously. The caller is a
// cron job or an operator; both want the report in the response rather than
// a ticket to poll.
func (h *Handler) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	opts := reclassify.RunOptions{
		DryRun: r.URL.Query().Get("dry_run") == "true",
	}

	report, err := h.pipeline.Run(r.Context(), opts)
	if err != nil {
		if errors.Is(err, sentinel.ErrRunActive) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "run_active"})
			return
		}
		h.logger.ErrorContext(r.Context(), "pipeline run failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "collaborator_failure"})
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (h *Handler) handleLastReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipeline.LastReport()
	if err != nil {
		if errors.Is(err, sentinel.ErrNoReport) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no_report"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	result := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	writeJSON(w, status, result)
}
