// internal/api/v1/testutil_test.go
package v1

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/vmunix/mediacat/internal/accounts"
	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
	"github.com/vmunix/mediacat/internal/migrations"
	"github.com/vmunix/mediacat/internal/scanner"
)

const (
	libraryRoot = "/library"
	thumbDir    = "/thumbs"
	thumbPrefix = "/static/thumbs/videos"
)

type testEnv struct {
	t        *testing.T
	db       *sql.DB
	fs       afero.Fs
	catalog  *catalog.Store
	accounts *accounts.Store
	log      *events.EventLog
	bus      *events.Bus
	srv      *Server
	handler  http.Handler
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, opts migrations.Options) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "open db")
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db, opts), "migrate")

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(libraryRoot, 0755))

	store := catalog.NewStore(db)
	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, testLogger())
	t.Cleanup(func() { _ = bus.Close() })

	env := &testEnv{
		t:        t,
		db:       db,
		fs:       fs,
		catalog:  store,
		accounts: accounts.NewStore(db).WithCost(bcrypt.MinCost),
		log:      eventLog,
		bus:      bus,
	}

	srv, err := New(ServerDeps{
		Catalog:  store,
		Reader:   catalog.NewReader(store, nil, "", testLogger()),
		Accounts: env.accounts,
		Scanner:  scanner.New(store, nil, bus, scanner.Options{Fs: fs}, testLogger()),
		Bus:      bus,
		EventLog: eventLog,
		Fs:       fs,
	}, Config{
		LibraryRoot:    libraryRoot,
		ThumbDir:       thumbDir,
		ThumbURLPrefix: thumbPrefix,
		Version:        "test",
	}, testLogger())
	require.NoError(t, err)
	env.srv = srv
	env.handler = srv.Handler()
	return env
}

// user creates an account and returns its credentials.
func (e *testEnv) user(name string, role accounts.Role) *accounts.User {
	e.t.Helper()
	ctx := context.Background()
	if role == accounts.RoleRoot {
		_, _, err := e.accounts.EnsureRoot(ctx, "pw")
		require.NoError(e.t, err)
		u, err := e.accounts.GetByUsername(ctx, accounts.RootUsername)
		require.NoError(e.t, err)
		return u
	}
	u, err := e.accounts.Create(ctx, name, "pw", role)
	require.NoError(e.t, err)
	return u
}

func (e *testEnv) media(title, path string, category *string) *catalog.Media {
	e.t.Helper()
	m := &catalog.Media{Title: title, FilePath: path, Category: category}
	require.NoError(e.t, e.catalog.AddMedia(context.Background(), m))
	return m
}

// do sends a request through the full handler stack. An empty username
// sends the request anonymously.
func (e *testEnv) do(method, target string, body any, username string) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if username != "" {
		req.SetBasicAuth(username, "pw")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func ptr[T any](v T) *T {
	return &v
}
