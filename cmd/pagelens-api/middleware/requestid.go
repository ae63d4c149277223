package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pagelens/pagelens/internal/observability"
)

// CorrelateRequestID copies the request id assigned by chi's RequestID
// middleware into the logging context, so handlers logging through
// Logger.WithContext carry it. Must run after chimiddleware.RequestID.
func CorrelateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(observability.ContextWithRequestID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}
