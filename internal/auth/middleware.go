package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/petrolia/termlab/internal/httpx"
)

type ctxKey int

const principalKey ctxKey = 0

// Middleware validates the bearer token on every request and puts the
// hydrated Principal into the request context. Requests without a valid
// token get 401 with the standard detail body.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				httpx.WriteDetail(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			token := strings.TrimSpace(header[len("bearer "):])
			userID, err := svc.ParseAccessToken(token)
			if err != nil {
				httpx.WriteDetail(w, http.StatusUnauthorized, "invalid token")
				return
			}
			p, err := svc.LoadPrincipal(r.Context(), userID)
			if err != nil {
				httpx.WriteDetail(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal returns the Principal stored by Middleware, or nil on
// unauthenticated routes.
func GetPrincipal(r *http.Request) *Principal {
	p, _ := r.Context().Value(principalKey).(*Principal)
	return p
}

// WithPrincipal injects a principal into a request context; test helper for
// handlers mounted without the middleware.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
