package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
	"github.com/vmunix/mediacat/internal/fsutil"
)

func (s *Server) triggerScan(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Scanner.Scan(r.Context(), s.cfg.LibraryRoot)
	if err != nil {
		s.log.Error("scan failed", "error", err)
		writeError(w, http.StatusInternalServerError, "SCAN_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{Added: res.Added, Skipped: res.Skipped, Failed: res.Failed})
}

// upload stores a multipart file in the library root and catalogs it.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	title := strings.TrimSpace(r.FormValue("title"))
	file, header, err := r.FormFile("file")
	if err != nil || title == "" {
		writeError(w, http.StatusBadRequest, "FIELDS_REQUIRED", "file and title are required")
		return
	}
	defer func() { _ = file.Close() }()

	name := fsutil.SanitizeFilename(header.Filename)
	if name == "" || !catalog.Allowed(name) {
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_TYPE", "file extension not allowed")
		return
	}

	// The content must be audio or video regardless of the extension.
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILE", err.Error())
		return
	}
	if !isMediaType(mt) {
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_TYPE", "file content is "+mt.String())
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "IO_ERROR", err.Error())
		return
	}

	dst := filepath.Join(s.cfg.LibraryRoot, name)
	if _, err := fsutil.WriteNew(s.fs, dst, file); err != nil {
		if errors.Is(err, fsutil.ErrDestinationExists) {
			writeError(w, http.StatusConflict, "DUPLICATE", "A file with that name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "IO_ERROR", err.Error())
		return
	}

	category := strings.TrimSpace(r.FormValue("category"))
	if category == "" {
		category = s.cfg.UploadCategory
	}
	m := &catalog.Media{Title: title, FilePath: name, Category: &category}
	if err := s.deps.Catalog.AddMedia(r.Context(), m); err != nil {
		_ = s.fs.Remove(dst)
		if errors.Is(err, catalog.ErrDuplicate) {
			writeError(w, http.StatusConflict, "DUPLICATE", "Media already catalogued")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	s.publish(r.Context(), events.NewMediaAdded(m.ID, m.Title, m.FilePath, events.SourceUpload))

	d, err := s.deps.Reader.Get(r.Context(), m.ID, userID(r))
	if err != nil || d == nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "reload uploaded media")
		return
	}
	writeJSON(w, http.StatusCreated, mediaToResponse(d))
}

func isMediaType(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "video/") || strings.HasPrefix(m.String(), "audio/") {
			return true
		}
	}
	return false
}

// editMedia applies the supplied fields to an entry. Omitted fields keep
// their values; clear_series removes parent and episode linkage.
func (s *Server) editMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	var req editMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	ctx := r.Context()
	m, err := s.deps.Catalog.GetMedia(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			writeError(w, http.StatusBadRequest, "FIELDS_REQUIRED", "title must not be empty")
			return
		}
		m.Title = strings.TrimSpace(*req.Title)
	}
	if req.Category != nil {
		if *req.Category == "" {
			m.Category = nil
		} else {
			m.Category = req.Category
		}
	}
	if req.ClearSeries {
		m.ParentID, m.EpisodeNumber = nil, nil
	}
	if req.ParentID != nil {
		m.ParentID = req.ParentID
	}
	if req.EpisodeNumber != nil {
		m.EpisodeNumber = req.EpisodeNumber
	}

	if err := s.deps.Catalog.UpdateMedia(ctx, m); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
		case errors.Is(err, catalog.ErrConstraint):
			writeError(w, http.StatusBadRequest, "INVALID_PARENT", err.Error())
		case errors.Is(err, catalog.ErrSchemaUnsupported):
			writeError(w, http.StatusConflict, "SERIES_UNSUPPORTED", "Series fields are not enabled for this library")
		default:
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		}
		return
	}
	s.publish(ctx, events.NewMediaUpdated(m.ID))

	d, err := s.deps.Reader.Get(ctx, m.ID, userID(r))
	if err != nil || d == nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "reload media")
		return
	}
	writeJSON(w, http.StatusOK, mediaToResponse(d))
}
