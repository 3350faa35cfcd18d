package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vmunix/mediacat/internal/accounts"
	"github.com/vmunix/mediacat/internal/events"
)

// accountError maps account errors to HTTP responses.
func accountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrFieldsRequired):
		writeError(w, http.StatusBadRequest, "FIELDS_REQUIRED", "All fields are required")
	case errors.Is(err, accounts.ErrUsernameReserved):
		writeError(w, http.StatusBadRequest, "USERNAME_RESERVED", "Username not allowed")
	case errors.Is(err, accounts.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "role must be 'user' or 'admin'")
	case errors.Is(err, accounts.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "DUPLICATE", "Username already exists")
	case errors.Is(err, accounts.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, accounts.ErrRootImmutable):
		writeError(w, http.StatusForbidden, "ROOT_IMMUTABLE", "Root account cannot be modified")
	default:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	u, err := s.deps.Accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		accountError(w, err)
		return
	}
	s.publish(r.Context(), events.NewUserCreated(u.ID, u.Username, string(u.Role)))
	writeJSON(w, http.StatusCreated, userToResponse(u))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userToResponse(userFrom(r)))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := accounts.Filter{
		Query:  q.Get("q"),
		Role:   accounts.Role(q.Get("role")),
		Status: q.Get("status"),
	}

	users, err := s.deps.Accounts.List(r.Context(), filter)
	if err != nil {
		accountError(w, err)
		return
	}
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = userToResponse(u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	u, err := s.deps.Accounts.Create(r.Context(), req.Username, req.Password, accounts.Role(req.Role))
	if err != nil {
		accountError(w, err)
		return
	}
	s.publish(r.Context(), events.NewUserCreated(u.ID, u.Username, string(u.Role)))
	writeJSON(w, http.StatusCreated, userToResponse(u))
}

func (s *Server) toggleUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	u, err := s.deps.Accounts.ToggleActive(r.Context(), id)
	if err != nil {
		accountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}
