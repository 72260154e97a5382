package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reclass/pkg/platform/middleware/auth"
	"reclass/pkg/platform/middleware/metadata"
	"reclass/pkg/platform/middleware/requestid"
	"reclass/pkg/platform/middleware/requesttime"
)

// NewRouter wires all endpoints. The trigger endpoint sits behind admin
// auth; health and metrics stay open for the platform.
func NewRouter(h *Handler, validator *auth.Validator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin(validator, logger))
		r.Post("/runs", h.handleTriggerRun)
		r.Get("/runs/last", h.handleLastReport)
	})

	return r
}
