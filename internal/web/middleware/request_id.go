package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/newslynx/recipes/internal/web/webctx"
)

// RequestIDHeader is read from requests and echoed on responses
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with the caller's X-Request-ID or a new UUID
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(webctx.SetRequestID(r.Context(), requestID)))
		})
	}
}
