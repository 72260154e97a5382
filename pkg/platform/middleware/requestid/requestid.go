// Package requestid assigns each request a correlation id, reused across
// logs and audit events for the run it triggers.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"reclass/pkg/requestcontext"
)

const Header = "X-Request-Id"

// Middleware honors an inbound X-Request-Id or mints one, echoing it on the
// response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
