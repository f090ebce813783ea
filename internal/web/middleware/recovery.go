package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/newslynx/recipes/internal/web/response"
	"github.com/newslynx/recipes/internal/web/webctx"
)

// Recovery turns handler panics into logged 500 responses
func Recovery(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error("panic recovered",
						zap.String("request_id", webctx.GetRequestID(r.Context())),
						zap.String("panic", fmt.Sprint(p)),
						zap.ByteString("stack", debug.Stack()),
					)
					response.RenderErrorWithCode(w, http.StatusInternalServerError, "internal_error", "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
