// internal/events/testutil_test.go
package events

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmunix/mediacat/internal/migrations"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db, migrations.Options{Series: true}))
	return db
}

// testEvent is a minimal event for exercising the bus.
type testEvent struct {
	BaseEvent
	Message string `json:"message"`
}
