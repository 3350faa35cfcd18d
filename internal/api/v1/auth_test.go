// internal/api/v1/auth_test.go
package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/mediacat/internal/accounts"
	"github.com/vmunix/mediacat/internal/events"
	"github.com/vmunix/mediacat/internal/migrations"
)

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	env := newTestEnv(t, migrations.Options{Series: true})
	env.user("alice", accounts.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
	req.SetBasicAuth("alice", "wrong")
	w := newRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
}

func TestAuthenticate_Disabled(t *testing.T) {
	env := newTestEnv(t, migrations.Options{Series: true})
	u := env.user("alice", accounts.RoleUser)
	_, err := env.accounts.ToggleActive(context.Background(), u.ID)
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/api/v1/media", nil, "alice")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_DISABLED", decode[errorResponse](t, w).Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, migrations.Options{Series: true})
	env.user("alice", accounts.RoleAdmin)

	w := env.do(http.MethodGet, "/api/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/me", nil, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[userResponse](t, w)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "admin", resp.Role)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, migrations.Options{Series: true})

	w := env.do(http.MethodPost, "/api/v1/register", credentialsRequest{Username: "alice", Password: "pw"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[userResponse](t, w)
	assert.Equal(t, "user", resp.Role)
	assert.True(t, resp.Active)

	// The new account can authenticate.
	w = env.do(http.MethodGet, "/api/v1/me", nil, "alice")
	assert.Equal(t, http.StatusOK, w.Code)

	raw, err := env.log.ForEntity(context.Background(), events.EntityUser, resp.ID)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, events.EventUserCreated, raw[0].EventType)
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t, migrations.Options{Series: true})
	env.user("taken", accounts.RoleUser)

	tests := []struct {
		name     string
		req      credentialsRequest
		wantCode int
		wantErr  string
	}{
		{"missing password", credentialsRequest{Username: "bob"}, http.StatusBadRequest, "FIELDS_REQUIRED"},
		{"reserved", credentialsRequest{Username: "Root", Password: "pw"}, http.StatusBadRequest, "USERNAME_RESERVED"},
		{"duplicate", credentialsRequest{Username: "taken", Password: "pw"}, http.StatusConflict, "DUPLICATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/register", tt.req, "")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decode[errorResponse](t, w).Code)
		})
	}
}

func TestProgress(t *testing.T) {
	env := newTestEnv(t, migrations.Options{Series: true})
	alice := env.user("alice", accounts.RoleUser)
	m := env.media("Movie", "movie.mp4", nil)

	w := env.do(http.MethodPost, "/api/v1/progress", progressRequest{MediaID: m.ID, Progress: 10}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/progress", progressRequest{MediaID: m.ID, Progress: 300}, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	// Seeking backwards is accepted.
	w = env.do(http.MethodPost, "/api/v1/progress", progressRequest{MediaID: m.ID, Progress: 30}, "alice")
	require.Equal(t, http.StatusOK, w.Code)

	p, err := env.catalog.GetProgress(context.Background(), alice.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), p.Position)

	list := decode[[]progressResponse](t, env.do(http.MethodGet, "/api/v1/progress", nil, "alice"))
	require.Len(t, list, 1)
	assert.Equal(t, int64(30), list[0].Progress)

	raw, err := env.log.ForEntity(context.Background(), events.EntityMedia, m.ID)
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestProgress_Errors(t *testing.T) {
	env := newTestEnv(t, migrations.Options{Series: true})
	env.user("alice", accounts.RoleUser)
	m := env.media("Movie", "movie.mp4", nil)

	w := env.do(http.MethodPost, "/api/v1/progress", progressRequest{MediaID: m.ID, Progress: -5}, "alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_POSITION", decode[errorResponse](t, w).Code)

	w = env.do(http.MethodPost, "/api/v1/progress", progressRequest{MediaID: 404, Progress: 5}, "alice")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/v1/progress", progressRequest{}, "alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/progress", "not an object", "alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
