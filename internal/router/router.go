// Package router wires the HTTP surface: middleware chain and route table
// over the standard library's http.ServeMux.
package router

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/blocks"
	"github.com/petrolia/termlab/internal/equipment"
	"github.com/petrolia/termlab/internal/identity"
	"github.com/petrolia/termlab/internal/operations"
	"github.com/petrolia/termlab/internal/sample"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// RequestIDMiddleware assigns a request id when the client did not send one
// and echoes it back in the response.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"request_id", r.Header.Get("X-Request-Id"),
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handlers collects every feature handler mounted by RegisterRoutes.
type Handlers struct {
	Auth       *auth.Handler
	AuthSvc    *auth.Service
	Identity   *identity.Handler
	Blocks     *blocks.Handler
	Equipment  *equipment.Handler
	Operations *operations.Handler
	Samples    *sample.Handler
}

// RegisterRoutes mounts the HTTP surface using the standard library's
// http.ServeMux. Everything under /api/v1 except the login and refresh
// endpoints requires a bearer token.
func RegisterRoutes(h Handlers, logger *zap.SugaredLogger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.Auth.Refresh)

	mux.Handle("/api/v1/", auth.Middleware(h.AuthSvc)(apiMux(h)))

	handler := RequestIDMiddleware()(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
	return handler
}

// apiMux holds every bearer-authenticated route. Patterns carry the full
// /api/v1 prefix so the outer mux can mount the tree without stripping.
func apiMux(h Handlers) *http.ServeMux {
	authed := http.NewServeMux()

	authed.HandleFunc("POST /api/v1/auth/logout", h.Auth.Logout)
	authed.HandleFunc("GET /api/v1/auth/me", h.Auth.Me)
	authed.HandleFunc("POST /api/v1/auth/change-password", h.Auth.ChangePassword)

	// identity
	authed.HandleFunc("POST /api/v1/companies", h.Identity.CreateCompany)
	authed.HandleFunc("GET /api/v1/companies/{id}", h.Identity.GetCompany)
	authed.HandleFunc("PUT /api/v1/companies/{id}", h.Identity.UpdateCompany)
	authed.HandleFunc("POST /api/v1/companies/{id}/terminals", h.Identity.CreateTerminal)
	authed.HandleFunc("GET /api/v1/companies/{id}/terminals", h.Identity.ListTerminals)
	authed.HandleFunc("GET /api/v1/terminals/{id}", h.Identity.GetTerminal)
	authed.HandleFunc("PUT /api/v1/terminals/{id}", h.Identity.UpdateTerminal)
	authed.HandleFunc("POST /api/v1/users", h.Identity.CreateUser)
	authed.HandleFunc("GET /api/v1/users/{id}", h.Identity.GetUser)
	authed.HandleFunc("PUT /api/v1/users/{id}", h.Identity.UpdateUser)
	authed.HandleFunc("DELETE /api/v1/users/{id}", h.Identity.DeactivateUser)
	authed.HandleFunc("POST /api/v1/users/{id}/terminals/{terminal_id}", h.Identity.GrantTerminal)
	authed.HandleFunc("DELETE /api/v1/users/{id}/terminals/{terminal_id}", h.Identity.RevokeTerminal)

	// company blocks
	// clients address the block collection both with and without a
	// trailing slash
	authed.HandleFunc("POST /api/v1/company-blocks", h.Blocks.Create)
	authed.HandleFunc("POST /api/v1/company-blocks/{$}", h.Blocks.Create)
	authed.HandleFunc("GET /api/v1/company-blocks", h.Blocks.List)
	authed.HandleFunc("GET /api/v1/company-blocks/{$}", h.Blocks.List)
	authed.HandleFunc("GET /api/v1/company-blocks/{id}", h.Blocks.Get)
	authed.HandleFunc("PUT /api/v1/company-blocks/{id}", h.Blocks.Update)
	authed.HandleFunc("DELETE /api/v1/company-blocks/{id}", h.Blocks.Delete)

	// equipment catalog
	authed.HandleFunc("POST /api/v1/equipment-types", h.Equipment.CreateType)
	authed.HandleFunc("GET /api/v1/equipment-types", h.Equipment.ListTypes)
	authed.HandleFunc("GET /api/v1/equipment-types/{id}", h.Equipment.GetType)
	authed.HandleFunc("PUT /api/v1/equipment-types/{id}", h.Equipment.UpdateType)
	authed.HandleFunc("POST /api/v1/equipment-types/{id}/verification-items", h.Equipment.AddVerificationItem)
	authed.HandleFunc("DELETE /api/v1/verification-items/{item_id}", h.Equipment.DeleteVerificationItem)

	// equipment lifecycle
	authed.HandleFunc("POST /api/v1/equipment", h.Equipment.Create)
	authed.HandleFunc("GET /api/v1/equipment/{id}", h.Equipment.Get)
	authed.HandleFunc("PUT /api/v1/equipment/{id}", h.Equipment.Update)
	authed.HandleFunc("DELETE /api/v1/equipment/{id}", h.Equipment.Dispose)
	authed.HandleFunc("GET /api/v1/terminals/{id}/equipment", h.Equipment.ListByTerminal)
	authed.HandleFunc("POST /api/v1/equipment/{id}/change-type", h.Equipment.ChangeType)
	authed.HandleFunc("POST /api/v1/equipment/{id}/change-terminal", h.Equipment.ChangeTerminal)
	authed.HandleFunc("GET /api/v1/equipment/{id}/type-history", h.Equipment.TypeHistory)
	authed.HandleFunc("GET /api/v1/equipment/{id}/terminal-history", h.Equipment.TerminalHistory)

	// operational events
	authed.HandleFunc("POST /api/v1/equipment/{id}/readings", h.Operations.CreateReading)
	authed.HandleFunc("GET /api/v1/equipment/{id}/readings", h.Operations.ListReadings)
	authed.HandleFunc("POST /api/v1/equipment/{id}/inspections", h.Operations.CreateInspection)
	authed.HandleFunc("GET /api/v1/equipment/{id}/inspections", h.Operations.ListInspections)
	authed.HandleFunc("POST /api/v1/equipment/{id}/verifications", h.Operations.CreateVerification)
	authed.HandleFunc("GET /api/v1/equipment/{id}/verifications", h.Operations.ListVerifications)
	authed.HandleFunc("GET /api/v1/verifications/{id}", h.Operations.GetVerification)
	authed.HandleFunc("POST /api/v1/equipment/{id}/calibrations", h.Operations.CreateCalibration)
	authed.HandleFunc("GET /api/v1/equipment/{id}/calibrations", h.Operations.ListCalibrations)
	authed.HandleFunc("GET /api/v1/calibrations/{id}", h.Operations.GetCalibration)
	authed.HandleFunc("GET /api/v1/equipment/{id}/status", h.Operations.Status)

	// external analyses
	authed.HandleFunc("POST /api/v1/external-analysis-types", h.Operations.CreateAnalysisType)
	authed.HandleFunc("GET /api/v1/external-analysis-types", h.Operations.ListAnalysisTypes)
	authed.HandleFunc("PUT /api/v1/terminals/{id}/external-analyses/{type_id}/frequency", h.Operations.SetTerminalFrequency)
	authed.HandleFunc("GET /api/v1/terminals/{id}/external-analyses/{type_id}/due", h.Operations.AnalysisDue)
	authed.HandleFunc("POST /api/v1/terminals/{id}/external-analysis-records", h.Operations.CreateRecord)
	authed.HandleFunc("GET /api/v1/terminals/{id}/external-analysis-records", h.Operations.ListRecords)

	// samples
	authed.HandleFunc("POST /api/v1/terminals/{id}/samples", h.Samples.Create)
	authed.HandleFunc("GET /api/v1/terminals/{id}/samples", h.Samples.ListByTerminal)
	authed.HandleFunc("GET /api/v1/samples/{id}", h.Samples.Get)
	authed.HandleFunc("PUT /api/v1/samples/{id}", h.Samples.Update)
	authed.HandleFunc("DELETE /api/v1/samples/{id}", h.Samples.Delete)
	authed.HandleFunc("POST /api/v1/samples/{id}/analyses", h.Samples.CreateAnalysis)
	authed.HandleFunc("GET /api/v1/samples/{id}/analyses", h.Samples.ListAnalyses)
	authed.HandleFunc("GET /api/v1/samples/{id}/history", h.Samples.SampleHistory)
	authed.HandleFunc("GET /api/v1/sample-analyses/{id}", h.Samples.GetAnalysis)
	authed.HandleFunc("PUT /api/v1/sample-analyses/{id}", h.Samples.UpdateAnalysis)
	authed.HandleFunc("GET /api/v1/sample-analyses/{id}/history", h.Samples.AnalysisHistory)

	return authed
}
