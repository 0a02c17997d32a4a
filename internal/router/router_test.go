package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware()(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	// request was plain HTTP, no HSTS
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRequestIDMiddlewareGenerates(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
	})
	h := RequestIDMiddleware()(inner)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDMiddlewarePreservesClientID(t *testing.T) {
	h := RequestIDMiddleware()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "client-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-Id"))
}

func TestAPIMuxResolvesBlockCollectionBothSlashForms(t *testing.T) {
	m := apiMux(Handlers{})

	cases := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/v1/company-blocks", "POST /api/v1/company-blocks"},
		{http.MethodPost, "/api/v1/company-blocks/", "POST /api/v1/company-blocks/{$}"},
		{http.MethodGet, "/api/v1/company-blocks", "GET /api/v1/company-blocks"},
		{http.MethodGet, "/api/v1/company-blocks/", "GET /api/v1/company-blocks/{$}"},
		{http.MethodGet, "/api/v1/company-blocks/42", "GET /api/v1/company-blocks/{id}"},
	}
	for _, c := range cases {
		_, pattern := m.Handler(httptest.NewRequest(c.method, c.path, nil))
		assert.Equal(t, c.want, pattern, "%s %s", c.method, c.path)
	}
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	h := LoggingMiddleware(zap.NewNop().Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
