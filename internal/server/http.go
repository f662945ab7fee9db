package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/ballot/internal/identity"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-Id"

// NewHTTPHandler returns an http.Handler with all routes registered. Callers
// are identified through resolver; GET /v1/health is always exempt.
func (s *LedgerServer) NewHTTPHandler(resolver identity.Resolver) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ledger", s.handleInitLedger)
	mux.HandleFunc("GET /v1/ledger", s.handleGetLedger)
	mux.HandleFunc("POST /v1/events", s.handleAddEvent)
	mux.HandleFunc("GET /v1/events", s.handleListEvents)
	mux.HandleFunc("GET /v1/events/count", s.handleEventCount)
	mux.HandleFunc("GET /v1/events/{id}", s.handleGetEvent)
	mux.HandleFunc("POST /v1/events/{id}/votes", s.handleAddVote)
	mux.HandleFunc("GET /v1/events/{id}/votes", s.handleGetTotalVotes)
	mux.HandleFunc("GET /v1/notifications", s.handleListNotifications)
	mux.HandleFunc("GET /v1/notifications/stream", s.handleNotificationStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return RequestIDMiddleware(LoggingMiddleware(IdentityMiddleware(resolver, mux)))
}

// handleHealth handles GET /v1/health.
func (s *LedgerServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IdentityMiddleware resolves the caller of each request and stores it in the
// request context. Invalid credentials are rejected with 401; a request that
// names no caller passes through anonymously and fails later if it mutates.
func IdentityMiddleware(resolver identity.Resolver, next http.Handler) http.Handler {
	if resolver == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
			next.ServeHTTP(w, r)
			return
		}

		who, err := resolver.Resolve(r.Context(), identity.Credentials{
			Authorization: r.Header.Get("Authorization"),
			Caller:        r.Header.Get(identity.CallerHeader),
		})
		switch {
		case errors.Is(err, identity.ErrMissingIdentity):
			next.ServeHTTP(w, r)
		case err != nil:
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			next.ServeHTTP(w, r.WithContext(identity.WithCaller(r.Context(), who)))
		}
	})
}

// RequestIDMiddleware assigns every request an id, reusing the client's when
// it sent one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware logs method, path, status, and duration of every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", r.Header.Get(RequestIDHeader),
		}
		if rec.status >= http.StatusInternalServerError {
			slog.Error("http request completed", attrs...)
		} else {
			slog.Info("http request completed", attrs...)
		}
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
