package v1

import (
	"net/http"

	"github.com/vmunix/mediacat/internal/catalog"
)

const suggestLimit = 5

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	filter := catalog.MediaFilter{
		UserID:   userID(r),
		Query:    queryString(r, "q"),
		Category: queryString(r, "category"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit and offset must be non-negative")
		return
	}

	items, err := s.deps.Reader.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	total, err := s.deps.Reader.Count(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listMediaResponse{
		Items:  mediaListToResponse(items),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	if len(items) == 0 && filter.Query != nil {
		suggestions, err := s.deps.Reader.Suggest(r.Context(), *filter.Query, suggestLimit)
		if err != nil {
			s.log.Warn("suggest failed", "query", *filter.Query, "error", err)
		}
		for _, sg := range suggestions {
			resp.Suggestions = append(resp.Suggestions, suggestionResponse{ID: sg.ID, Title: sg.Title, Score: sg.Score})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// watchMedia returns an entry together with its episodes and the next item.
func (s *Server) watchMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	ctx := r.Context()
	media, err := s.deps.Reader.Get(ctx, id, userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	if media == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
		return
	}

	episodes, err := s.deps.Reader.Episodes(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	next, err := s.deps.Reader.Next(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := watchResponse{
		Media:    mediaToResponse(media),
		Episodes: mediaListToResponse(episodes),
	}
	if next != nil {
		n := mediaToResponse(next)
		resp.Next = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listEpisodes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	episodes, err := s.deps.Reader.Episodes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mediaListToResponse(episodes))
}

func (s *Server) nextMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	next, err := s.deps.Reader.Next(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	if next == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, mediaToResponse(next))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.deps.Catalog.CountMedia(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	caps, err := s.deps.Catalog.Capabilities(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:     "ok",
		Version:    s.cfg.Version,
		MediaCount: count,
		Series:     caps.Series,
	})
}
