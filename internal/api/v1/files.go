package v1

import (
	"net/http"
	"strings"

	"github.com/vmunix/mediacat/internal/fsutil"
)

// serveMedia streams a library file. Range requests are honored so players
// can seek.
func (s *Server) serveMedia(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/media/")
	full, err := fsutil.Resolve(s.cfg.LibraryRoot, rel)
	if err != nil || rel == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}

	f, err := s.fs.Open(full)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
