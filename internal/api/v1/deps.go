package v1

import (
	"context"
	"errors"

	"github.com/spf13/afero"

	"github.com/vmunix/mediacat/internal/accounts"
	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
	"github.com/vmunix/mediacat/internal/scanner"
)

// LibraryScanner reconciles a directory into the catalog.
type LibraryScanner interface {
	Scan(ctx context.Context, root string) (*scanner.Result, error)
}

// Publisher delivers domain events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Config holds paths and labels the handlers need.
type Config struct {
	LibraryRoot    string
	ThumbDir       string
	ThumbURLPrefix string
	UploadCategory string // category for uploads that omit one
	MaxUploadBytes int64
	Version        string
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Catalog  *catalog.Store
	Reader   *catalog.Reader
	Accounts *accounts.Store

	// Optional dependencies (nil if not configured)
	Scanner  LibraryScanner
	Bus      Publisher
	EventLog *events.EventLog
	Fs       afero.Fs // defaults to the OS filesystem
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Catalog == nil {
		return errors.New("catalog store is required")
	}
	if d.Reader == nil {
		return errors.New("catalog reader is required")
	}
	if d.Accounts == nil {
		return errors.New("accounts store is required")
	}
	return nil
}
