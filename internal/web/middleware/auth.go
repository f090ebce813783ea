package middleware

import (
	"net/http"
	"strings"

	"github.com/newslynx/recipes/internal/web/auth"
	"github.com/newslynx/recipes/internal/web/response"
	"github.com/newslynx/recipes/internal/web/webctx"
)

// Auth requires a valid bearer token and stores its organization and subject on the
// request context
func Auth(svc *auth.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.RenderUnauthorized(w, "Authorization required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				response.RenderUnauthorized(w, "Invalid authorization format")
				return
			}

			claims, err := svc.ValidateToken(parts[1])
			if err != nil {
				response.RenderUnauthorized(w, "Invalid token")
				return
			}

			ctx := webctx.SetOrgID(r.Context(), claims.OrgID)
			ctx = webctx.SetSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
