// internal/catalog/testutil_test.go
package catalog

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmunix/mediacat/internal/migrations"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "open db")
	// Every pooled connection to :memory: would be a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupTestDB returns a database with the full (series-capable) schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, migrations.Up(context.Background(), db, migrations.Options{Series: true}), "migrate")
	return db
}

// setupLegacyDB returns a database without the series columns.
func setupLegacyDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, migrations.Up(context.Background(), db, migrations.Options{}), "migrate")
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}

func addMediaT(t *testing.T, store *Store, title, path string, category *string) *Media {
	t.Helper()
	m := &Media{Title: title, FilePath: path, Category: category}
	require.NoError(t, store.AddMedia(context.Background(), m))
	return m
}
