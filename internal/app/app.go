// Package app assembles the catalog components from a Config. Both the
// daemon and the CLI start from here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/vmunix/mediacat/internal/accounts"
	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/config"
	"github.com/vmunix/mediacat/internal/database"
	"github.com/vmunix/mediacat/internal/events"
	"github.com/vmunix/mediacat/internal/scanner"
	"github.com/vmunix/mediacat/internal/thumbnail"
)

// App holds the wired components over one database handle.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Fs       afero.Fs
	Catalog  *catalog.Store
	Reader   *catalog.Reader
	Accounts *accounts.Store
	EventLog *events.EventLog
	Bus      *events.Bus
	Thumbs   *thumbnail.Generator
	Scanner  *scanner.Scanner
	Logger   *slog.Logger
}

// Open connects to the configured database, migrates it and builds every
// store and service on top.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Open(ctx, cfg.Database.Path, database.Options{
		Series: cfg.Library.SeriesEnabled(),
	}, logger.With("component", "database"))
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		DB:       db,
		Fs:       afero.NewOsFs(),
		Catalog:  catalog.NewStore(db),
		Accounts: accounts.NewStore(db),
		EventLog: events.NewEventLog(db),
		Logger:   logger,
	}
	a.Bus = events.NewBus(a.EventLog, logger.With("component", "bus"))
	a.Thumbs = thumbnail.New(thumbnail.Config{
		LibraryRoot: cfg.Library.Root,
		Dir:         cfg.Thumbnails.Dir,
		URLPrefix:   cfg.Thumbnails.URLPrefix,
		FFmpeg:      cfg.Thumbnails.FFmpeg,
		Seek:        cfg.Thumbnails.Seek,
		Timeout:     cfg.Thumbnails.Timeout.Duration,
	}, logger.With("component", "thumbnail"))
	a.Reader = catalog.NewReader(a.Catalog, a.Thumbs, cfg.Thumbnails.Placeholder, logger.With("component", "reader"))
	a.Scanner = scanner.New(a.Catalog, a.Thumbs, a.Bus, scanner.Options{
		Fs:             a.Fs,
		PrewarmWorkers: cfg.Thumbnails.PrewarmWorkers,
	}, logger.With("component", "scanner"))
	return a, nil
}

// EnsureRoot creates the root account on first boot. A generated password
// is logged once since it cannot be recovered later.
func (a *App) EnsureRoot(ctx context.Context) error {
	generated, created, err := a.Accounts.EnsureRoot(ctx, a.Config.Auth.RootPassword)
	if err != nil {
		return fmt.Errorf("ensure root account: %w", err)
	}
	if !created {
		return nil
	}
	if generated != "" {
		a.Logger.Warn("root account created with generated password",
			"username", accounts.RootUsername, "password", generated)
	} else {
		a.Logger.Info("root account created", "username", accounts.RootUsername)
	}
	if u, err := a.Accounts.GetByUsername(ctx, accounts.RootUsername); err == nil {
		_ = a.Bus.Publish(ctx, events.NewUserCreated(u.ID, u.Username, string(u.Role)))
	}
	return nil
}

// Scan catalogs new files under the configured library root.
func (a *App) Scan(ctx context.Context) (*scanner.Result, error) {
	return a.Scanner.Scan(ctx, a.Config.Library.Root)
}

// Close releases the bus and the database handle.
func (a *App) Close() error {
	return errors.Join(a.Bus.Close(), a.DB.Close())
}
