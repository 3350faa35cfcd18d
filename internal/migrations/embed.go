// Package migrations provides embedded SQL migration files.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var files embed.FS

// Schema versions.
const (
	VersionInitial int64 = 1
	VersionSeries  int64 = 2
)

// Options selects which migrations are applied.
type Options struct {
	// Series adds the parent_id and episode_number columns to media.
	// Deployments that leave it off keep the flat catalog schema.
	Series bool
}

// Up migrates db to the latest version allowed by opts.
// The caller keeps ownership of db.
func Up(ctx context.Context, db *sql.DB, opts Options) error {
	target := VersionInitial
	if opts.Series {
		target = VersionSeries
	}
	return UpTo(ctx, db, target)
}

// UpTo migrates db to exactly the given version.
func UpTo(ctx context.Context, db *sql.DB, version int64) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}
	if _, err := provider.UpTo(ctx, version); err != nil {
		return fmt.Errorf("migrate to %d: %w", version, err)
	}
	return nil
}

// Version reports the current schema version of db.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	provider, err := newProvider(db)
	if err != nil {
		return 0, err
	}
	v, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return v, nil
}

// newProvider never calls Provider.Close, which would close db.
func newProvider(db *sql.DB) (*goose.Provider, error) {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	if err != nil {
		return nil, fmt.Errorf("migrations provider: %w", err)
	}
	return provider, nil
}
