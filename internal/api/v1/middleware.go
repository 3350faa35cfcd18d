package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/mediacat/internal/accounts"
)

type ctxKey int

const (
	userKey ctxKey = iota
	requestIDKey
)

// userFrom returns the authenticated account, or nil for anonymous requests.
func userFrom(r *http.Request) *accounts.User {
	u, _ := r.Context().Value(userKey).(*accounts.User)
	return u
}

// userID returns the caller's ID for progress joins, nil when anonymous.
func userID(r *http.Request) *int64 {
	if u := userFrom(r); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID tags each request with a uuid, honoring an incoming X-Request-ID.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestID(r.Context()),
		)
	})
}

// authenticate resolves HTTP basic credentials to an account. Requests
// without credentials continue anonymously; bad credentials are rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := s.deps.Accounts.Authenticate(r.Context(), username, password)
		switch {
		case errors.Is(err, accounts.ErrAccountDisabled):
			writeError(w, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
			return
		case errors.Is(err, accounts.ErrInvalidCredentials):
			w.Header().Set("WWW-Authenticate", `Basic realm="mediacat"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

// requireUser wraps a handler and returns 401 for anonymous callers.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r) == nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="mediacat"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Login required")
			return
		}
		next(w, r)
	}
}

func canUpload(r accounts.Role) bool       { return r.CanUpload() }
func canManageUsers(r accounts.Role) bool  { return r.CanManageUsers() }
func canCreateAdmins(r accounts.Role) bool { return r.CanCreateAdmins() }

// requireRole wraps a handler and returns 403 unless allowed accepts the caller's role.
func (s *Server) requireRole(allowed func(accounts.Role) bool, next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if !allowed(userFrom(r).Role) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
			return
		}
		next(w, r)
	})
}

// requireScanner wraps a handler and returns 503 if the scanner is not configured.
func (s *Server) requireScanner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Scanner == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Scanner not configured")
			return
		}
		next(w, r)
	}
}

// requireEventLog wraps a handler and returns 503 if the event log is not configured.
func (s *Server) requireEventLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.EventLog == nil {
			writeError(w, http.StatusServiceUnavailable, "NO_EVENT_LOG", "Event log not configured")
			return
		}
		next(w, r)
	}
}
