// Package v1 implements the JSON HTTP API.
package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"github.com/vmunix/mediacat/internal/events"
)

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
	cfg  Config
	fs   afero.Fs
	log  *slog.Logger
}

// New creates a new v1 API server.
func New(deps ServerDeps, cfg Config, log *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	fs := deps.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if cfg.UploadCategory == "" {
		cfg.UploadCategory = "general"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 4 << 30
	}
	cfg.ThumbURLPrefix = strings.TrimRight(cfg.ThumbURLPrefix, "/")
	return &Server{deps: deps, cfg: cfg, fs: fs, log: log}, nil
}

// Handler returns the routed handler with request id, access log and
// authentication middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return withRequestID(logRequests(s.authenticate(r), s.log))
}

// RegisterRoutes registers API routes on the given router.
func (s *Server) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	// Catalog
	api.HandleFunc("/media", s.listMedia).Methods(http.MethodGet)
	api.HandleFunc("/media/{id:[0-9]+}", s.watchMedia).Methods(http.MethodGet)
	api.HandleFunc("/media/{id:[0-9]+}/episodes", s.listEpisodes).Methods(http.MethodGet)
	api.HandleFunc("/media/{id:[0-9]+}/next", s.nextMedia).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.listCategories).Methods(http.MethodGet)

	// Playback
	api.HandleFunc("/progress", s.requireUser(s.updateProgress)).Methods(http.MethodPost)
	api.HandleFunc("/progress", s.requireUser(s.listProgress)).Methods(http.MethodGet)

	// Accounts
	api.HandleFunc("/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/me", s.requireUser(s.me)).Methods(http.MethodGet)

	// System
	api.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/scan", s.requireRole(canUpload, s.requireScanner(s.triggerScan))).Methods(http.MethodPost)
	admin.HandleFunc("/upload", s.requireRole(canUpload, s.upload)).Methods(http.MethodPost)
	admin.HandleFunc("/media/{id:[0-9]+}", s.requireRole(canUpload, s.editMedia)).Methods(http.MethodPut)
	admin.HandleFunc("/users", s.requireRole(canManageUsers, s.listUsers)).Methods(http.MethodGet)
	admin.HandleFunc("/users", s.requireRole(canCreateAdmins, s.createUser)).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id:[0-9]+}/toggle", s.requireRole(canManageUsers, s.toggleUser)).Methods(http.MethodPost)
	admin.HandleFunc("/events", s.requireRole(canManageUsers, s.requireEventLog(s.listEvents))).Methods(http.MethodGet)

	// Files
	r.PathPrefix("/media/").Handler(s.requireUser(s.serveMedia)).Methods(http.MethodGet, http.MethodHead)
	if s.cfg.ThumbURLPrefix != "" && s.cfg.ThumbDir != "" {
		r.PathPrefix(s.cfg.ThumbURLPrefix + "/").Handler(
			http.StripPrefix(s.cfg.ThumbURLPrefix+"/", http.FileServer(afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.cfg.ThumbDir)).Dir("/"))),
		).Methods(http.MethodGet, http.MethodHead)
	}
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID extracts an integer ID from the route variables.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := mux.Vars(r)[name]
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryString extracts an optional string from query string.
func queryString(r *http.Request, name string) *string {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return nil
	}
	return &val
}

func (s *Server) publish(ctx context.Context, e events.Event) {
	if s.deps.Bus == nil {
		return
	}
	if err := s.deps.Bus.Publish(ctx, e); err != nil {
		s.log.Warn("publish failed", "type", e.EventType(), "error", err)
	}
}
