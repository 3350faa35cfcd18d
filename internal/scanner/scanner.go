// Package scanner reconciles the library directory into the catalog.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
)

// Publisher receives scan notifications. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Result summarizes one scan.
type Result struct {
	Added   int     `json:"added"`
	Skipped int     `json:"skipped"` // already catalogued or unsupported extension
	Failed  int     `json:"failed"`  // unreadable entries
	Errors  []error `json:"-"`
}

// Options configures a Scanner.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// PrewarmWorkers bounds concurrent thumbnail generation. Defaults to 2.
	PrewarmWorkers int
}

// Scanner walks a library root and inserts entries for new files.
type Scanner struct {
	fs      afero.Fs
	store   *catalog.Store
	thumbs  catalog.Thumbnailer // nil disables pre-warm
	bus     Publisher           // may be nil
	workers int
	log     *slog.Logger
}

// New creates a scanner.
func New(store *catalog.Store, thumbs catalog.Thumbnailer, bus Publisher, opts Options, log *slog.Logger) *Scanner {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.PrewarmWorkers <= 0 {
		opts.PrewarmWorkers = 2
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{
		fs:      opts.Fs,
		store:   store,
		thumbs:  thumbs,
		bus:     bus,
		workers: opts.PrewarmWorkers,
		log:     log,
	}
}

// TitleFromFilename derives a display title from a file name:
// the extension is dropped, underscores become spaces, and the result is title-cased.
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return titleCase(strings.ReplaceAll(stem, "_", " "))
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest, so "s01e01" becomes "S01E01" and "o'brien" becomes
// "O'Brien".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && !prevCased:
			b.WriteRune(unicode.ToTitle(r))
		case cased:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}

// Scan walks root and adds an entry for every supported file not yet in the
// catalog. A missing root is created. Unreadable entries are recorded in
// the result and skipped. A store error or context cancellation stops the
// scan; entries inserted before that point are kept and counted.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	res := &Result{}

	info, err := s.fs.Stat(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.fs.MkdirAll(root, 0755); err != nil {
			return res, fmt.Errorf("create library root: %w", err)
		}
		s.log.Info("created library root", "root", root)
		s.finish(ctx, root, res)
		return res, nil
	case err != nil:
		return res, fmt.Errorf("stat library root: %w", err)
	case !info.IsDir():
		return res, fmt.Errorf("library root %s is not a directory", root)
	}

	existing, err := s.store.Paths(ctx)
	if err != nil {
		return res, err
	}

	prewarm := pool.New().WithMaxGoroutines(s.workers)
	defer prewarm.Wait()

	walkErr := afero.Walk(s.fs, root, func(path string, fi os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, err)
			s.log.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if fi.IsDir() || !fi.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, err)
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !catalog.Allowed(rel) {
			res.Skipped++
			s.log.Debug("skipping unsupported file", "path", rel)
			return nil
		}
		if _, ok := existing[rel]; ok {
			res.Skipped++
			return nil
		}

		m := &catalog.Media{Title: TitleFromFilename(rel), FilePath: rel}
		if err := s.store.AddMedia(ctx, m); err != nil {
			if errors.Is(err, catalog.ErrDuplicate) {
				res.Skipped++
				return nil
			}
			return err
		}
		existing[rel] = struct{}{}
		res.Added++
		s.log.Debug("added media", "id", m.ID, "path", rel, "title", m.Title)
		s.publish(ctx, events.NewMediaAdded(m.ID, m.Title, m.FilePath, events.SourceScan))

		if s.thumbs != nil && catalog.KindOf(rel).IsVideo() {
			id := m.ID
			prewarm.Go(func() {
				if _, err := s.thumbs.Ensure(ctx, rel, id); err != nil {
					s.log.Warn("thumbnail pre-warm failed", "id", id, "path", rel, "error", err)
				}
			})
		}
		return nil
	})
	if walkErr != nil {
		return res, fmt.Errorf("scan %s: %w", root, walkErr)
	}

	s.finish(ctx, root, res)
	return res, nil
}

func (s *Scanner) finish(ctx context.Context, root string, res *Result) {
	s.log.Info("library scan complete",
		"root", root,
		"added", res.Added,
		"skipped", res.Skipped,
		"failed", res.Failed)
	s.publish(ctx, events.NewLibraryScanned(root, res.Added, res.Skipped, res.Failed))
}

func (s *Scanner) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn("publish failed", "type", e.EventType(), "error", err)
	}
}
