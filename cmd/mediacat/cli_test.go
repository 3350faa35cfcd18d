package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/mediacat/internal/config"
)

type cliEnv struct {
	t       *testing.T
	cfgPath string
	library string
}

// newCLIEnv writes a config pointing at a fresh database and library.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Database.Path = filepath.Join(dir, "mediacat.db")
	cfg.Library.Root = filepath.Join(dir, "media")
	cfg.Thumbnails.Dir = filepath.Join(dir, "thumbs")
	cfg.Auth.RootPassword = "rootpw"

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, cfg.Write(path))
	require.NoError(t, os.MkdirAll(cfg.Library.Root, 0755))
	return &cliEnv{t: t, cfgPath: path, library: cfg.Library.Root}
}

func (e *cliEnv) file(rel string) {
	e.t.Helper()
	full := filepath.Join(e.library, rel)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(e.t, os.WriteFile(full, []byte("audio"), 0644))
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "mediacat %v", args)
	return out
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	assert.Equal(t, "mediacat dev\n", env.mustRun("version"))
}

func TestScanAndList(t *testing.T) {
	env := newCLIEnv(t)
	env.file("first_song.mp3")
	env.file("albums/second_song.ogg")
	env.file("notes.txt")

	out := env.mustRun("scan")
	assert.Contains(t, out, "Added:    2")
	assert.Contains(t, out, "Skipped:  1")

	out = env.mustRun("list")
	assert.Contains(t, out, "First Song")
	assert.Contains(t, out, "Second Song")
	assert.Contains(t, out, "2 items")

	out = env.mustRun("--json", "list", "-q", "second")
	var rows []mediaJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "albums/second_song.ogg", rows[0].FilePath)
	assert.Equal(t, "audio", rows[0].Kind)

	out = env.mustRun("--json", "scan")
	assert.JSONEq(t, `{"added":0,"skipped":3,"failed":0}`, out)
}

func TestList_Suggestions(t *testing.T) {
	env := newCLIEnv(t)
	env.file("interstellar.mp3")
	env.mustRun("scan")

	out := env.mustRun("list", "-q", "interstelar")
	assert.Contains(t, out, "No media")
	assert.Contains(t, out, "Did you mean:")
	assert.Contains(t, out, "Interstellar")
}

func TestShow(t *testing.T) {
	env := newCLIEnv(t)
	env.file("track.mp3")
	env.mustRun("scan")

	out := env.mustRun("show", "1")
	assert.Contains(t, out, "Track")
	assert.Contains(t, out, "Size:      5 B")

	out = env.mustRun("--json", "show", "1")
	var m mediaJSON
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.NotNil(t, m.Size)
	assert.Equal(t, int64(5), *m.Size)

	_, err := env.run("show", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = env.run("show", "abc")
	require.Error(t, err)
}

func TestMediaEditAndEpisodes(t *testing.T) {
	env := newCLIEnv(t)
	env.file("show.mp3")
	env.file("show_ep1.mp3")
	env.file("show_ep2.mp3")
	env.mustRun("scan")

	env.mustRun("media", "edit", "3", "--parent", "1", "--episode", "2")
	env.mustRun("media", "edit", "2", "--parent", "1", "--episode", "1", "--title", "Pilot", "--category", "tv")

	out := env.mustRun("episodes", "1")
	assert.Regexp(t, `(?s)Pilot.*Show Ep2`, out)

	out = env.mustRun("--json", "show", "2")
	var m mediaJSON
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.NotNil(t, m.Category)
	assert.Equal(t, "tv", *m.Category)

	env.mustRun("media", "edit", "2", "--clear-series", "--category", "")
	out = env.mustRun("--json", "show", "2")
	m = mediaJSON{}
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Nil(t, m.ParentID)
	assert.Nil(t, m.Category)

	_, err := env.run("media", "edit", "2", "--parent", "2")
	require.Error(t, err, "self parent")

	_, err = env.run("media", "edit", "2", "--title", " ")
	require.Error(t, err)
}

func TestNext(t *testing.T) {
	env := newCLIEnv(t)
	env.file("a.mp3")
	env.mustRun("scan")
	env.file("b.mp3")
	env.mustRun("scan")

	assert.Contains(t, env.mustRun("next", "1"), "2  B")
	assert.Contains(t, env.mustRun("next", "2"), "No next entry")
	assert.Equal(t, "null\n", env.mustRun("--json", "next", "2"))
}

func TestUsersAndProgress(t *testing.T) {
	env := newCLIEnv(t)
	env.file("song.mp3")
	env.mustRun("scan")

	out := env.mustRun("user", "add", "alice", "--password", "pw")
	assert.Contains(t, out, `Created user "alice"`)
	assert.NotContains(t, out, "Password:")

	out = env.mustRun("user", "add", "bob", "--role", "admin")
	assert.Contains(t, out, "Password: ")

	_, err := env.run("user", "add", "alice", "--password", "pw")
	require.Error(t, err, "duplicate username")
	_, err = env.run("user", "add", "carol", "--role", "root")
	require.Error(t, err)

	out = env.mustRun("progress", "set", "alice", "1", "125")
	assert.Contains(t, out, "2:05")
	env.mustRun("progress", "set", "alice", "1", "130")

	out = env.mustRun("--json", "progress", "list", "alice")
	var rows []struct {
		MediaID  int64 `json:"media_id"`
		Progress int64 `json:"progress"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(130), rows[0].Progress)

	out = env.mustRun("list", "--user", "alice")
	assert.Contains(t, out, "2:10")

	_, err = env.run("progress", "set", "alice", "1", "--", "-1")
	require.Error(t, err)
	_, err = env.run("progress", "set", "alice", "42", "1")
	require.Error(t, err)
	_, err = env.run("progress", "set", "nobody", "1", "1")
	require.Error(t, err)

	out = env.mustRun("user", "toggle", "1")
	assert.Contains(t, out, "disabled")
	out = env.mustRun("user", "list", "--status", "disabled")
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, "bob")
}

func TestEvents(t *testing.T) {
	env := newCLIEnv(t)
	assert.Contains(t, env.mustRun("events"), "No events")

	env.file("song.mp3")
	env.mustRun("scan")

	out := env.mustRun("events", "-n", "5")
	assert.Contains(t, out, "media.added")
	assert.Contains(t, out, "library.scanned")
}

func TestConfigInitAndShow(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun("config", "show")
	assert.Contains(t, out, env.cfgPath)
	assert.Contains(t, out, "Root pass:   set")

	out = env.mustRun("--json", "config", "show")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "rootpw")

	path := filepath.Join(t.TempDir(), "new", "config.toml")
	env.mustRun("config", "init", path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	_, err = env.run("config", "init", path)
	require.Error(t, err)
	env.mustRun("config", "init", path, "--force")
}

func TestConfigShow_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 70000\n"), 0644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", path, "config", "show"})
	require.Error(t, cmd.Execute())
	assert.Contains(t, out.String(), "Validation errors:")
}
