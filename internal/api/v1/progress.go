package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
)

func (s *Server) updateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.MediaID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "media_id is required")
		return
	}

	ctx := r.Context()
	if _, err := s.deps.Catalog.GetMedia(ctx, req.MediaID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	user := userFrom(r)
	if err := s.deps.Catalog.UpsertProgress(ctx, user.ID, req.MediaID, req.Progress); err != nil {
		if errors.Is(err, catalog.ErrInvalidPosition) {
			writeError(w, http.StatusBadRequest, "INVALID_POSITION", "progress must not be negative")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	s.publish(ctx, events.NewProgressUpdated(user.ID, req.MediaID, req.Progress))

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// listProgress returns the caller's progress rows, most recent first.
func (s *Server) listProgress(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Catalog.ListProgress(r.Context(), userFrom(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	out := make([]progressResponse, len(rows))
	for i, p := range rows {
		out[i] = progressResponse{MediaID: p.MediaID, Progress: p.Position, UpdatedAt: p.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}
