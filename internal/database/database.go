// Package database opens the SQLite catalog database and brings its schema
// up to date.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/vmunix/mediacat/internal/migrations"
	_ "modernc.org/sqlite"
)

// Options controls how the database is opened.
type Options struct {
	// Series migrates to the schema with episode linkage columns.
	Series bool
	// Attempts bounds how often a busy database is retried.
	Attempts uint
	// Delay is the initial backoff between attempts.
	Delay time.Duration
}

func (o Options) withDefaults() Options {
	if o.Attempts == 0 {
		o.Attempts = 5
	}
	if o.Delay == 0 {
		o.Delay = 200 * time.Millisecond
	}
	return o
}

// DSN builds a modernc sqlite DSN with the pragmas every connection needs.
func DSN(path string) string {
	if path == ":memory:" {
		return path
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + q.Encode()
}

// Open creates the parent directory of path, opens the database, and runs
// migrations. Transient "database is locked" failures are retried.
func Open(ctx context.Context, path string, opts Options, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	err = retry.Do(
		func() error {
			if err := db.PingContext(ctx); err != nil {
				return classify(fmt.Errorf("ping: %w", err))
			}
			if err := migrations.Up(ctx, db, migrations.Options{Series: opts.Series}); err != nil {
				return classify(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database busy, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}

	version, err := migrations.Version(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("database ready", "path", path, "schema_version", version)
	return db, nil
}

// classify marks everything except lock contention as unrecoverable so the
// retry loop gives up immediately.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy") {
		return err
	}
	return retry.Unrecoverable(err)
}
