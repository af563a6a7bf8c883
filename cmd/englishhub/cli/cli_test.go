package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishhub/englishhub/internal/model"
)

// run executes one CLI invocation against dataDir and returns its stdout.
func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("1.2.3", "abcdef1234567", "2026-01-01")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ENGLISHHUB_AUTH_BCRYPT_COST", "4")
	return t.TempDir()
}

func TestVersionJSON(t *testing.T) {
	out, err := run(t, setupEnv(t), "", "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "abcdef1234567", info["commit"])
	assert.Equal(t, "1.2.3+abcdef1", versionString("1.2.3", "abcdef1234567"))
	assert.Equal(t, "dev", versionString("dev", "none"))
}

func TestDBInitIsIdempotent(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "", "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Storage ready (sqlite)")
	assert.Contains(t, out, "admin_users, contents")
	assert.Contains(t, out, "created with the development password")

	out, err = run(t, dir, "", "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "admin already present")
	assert.FileExists(t, filepath.Join(dir, "englishhub.db"))
}

func TestDBCheck(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "", "db", "check", "--read-only")
	require.NoError(t, err)
	assert.Contains(t, out, "tables: none")
	assert.Contains(t, out, "englishhub db init")
	assert.NotContains(t, out, "After initialization:")

	out, err = run(t, dir, "", "db", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "tables: none")
	assert.Contains(t, out, "After initialization:")
	assert.Contains(t, out, "admin:  admin present")
	assert.NotContains(t, out, "$2a$")
}

func TestContentLifecycle(t *testing.T) {
	dir := setupEnv(t)

	add := func(title, category string) {
		t.Helper()
		out, err := run(t, dir, "", "content", "add",
			"--title", title,
			"--description", "A short lesson",
			"--url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"--category", category,
			"--difficulty", "beginner",
		)
		require.NoError(t, err)
		assert.Contains(t, out, "Added ")
	}
	add("Ordering coffee", "speaking")
	add("News in slow English", "listening")

	out, err := run(t, dir, "", "content", "list", "--json")
	require.NoError(t, err)
	var items []model.Content
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "admin", it.CreatedBy)
	}

	out, err = run(t, dir, "", "content", "list", "--category", "speaking")
	require.NoError(t, err)
	assert.Contains(t, out, "Ordering coffee")
	assert.NotContains(t, out, "News in slow English")

	_, err = run(t, dir, "", "content", "list", "--category", "music")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = run(t, dir, "", "content", "add", "--title", "Missing fields")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	var speaking string
	for _, it := range items {
		if it.Category == model.CategorySpeaking {
			speaking = it.ID
		}
	}
	out, err = run(t, dir, "", "content", "rm", speaking)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+speaking)

	out, err = run(t, dir, "", "content", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Ordering coffee")
	assert.Contains(t, out, "News in slow English")

	_, err = run(t, dir, "", "content", "purge")
	assert.Error(t, err)

	_, err = run(t, dir, "", "content", "purge", "--yes")
	require.NoError(t, err)
	out, err = run(t, dir, "", "content", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No content found.")
}

func TestAdminPasswd(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, dir, "admin123\nnewpass1\nother\n", "admin", "passwd")
	assert.EqualError(t, err, "passwords do not match")

	_, err = run(t, dir, "admin123\nshort\nshort\n", "admin", "passwd")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = run(t, dir, "wrong\nnewpass1\nnewpass1\n", "admin", "passwd")
	assert.ErrorIs(t, err, errWrongPassword)

	out, err := run(t, dir, "admin123\nnewpass1\nnewpass1\n", "admin", "passwd")
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed for admin")

	out, err = run(t, dir, "newpass1\n", "admin", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Credentials valid for admin")

	_, err = run(t, dir, "admin123\n", "admin", "verify")
	assert.Error(t, err)

	// Re-running init never resets a rotated password.
	_, err = run(t, dir, "", "db", "init")
	require.NoError(t, err)
	_, err = run(t, dir, "newpass1\n", "admin", "verify")
	assert.NoError(t, err)
}

func TestLocalBackend(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "", "--backend", "local", "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Storage ready (local)")

	_, err = run(t, dir, "", "--backend", "local", "content", "add",
		"--title", "Reading a menu",
		"--description", "Food vocabulary",
		"--url", "https://youtu.be/dQw4w9WgXcQ",
		"--category", "reading",
		"--difficulty", "intermediate",
	)
	require.NoError(t, err)

	out, err = run(t, dir, "", "--backend", "local", "content", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Reading a menu")
	assert.Contains(t, out, "intermediate")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := setupEnv(t)
	cfgDir := t.TempDir()

	out, err := run(t, dir, "", "config", "init", "--dir", cfgDir)
	require.NoError(t, err)
	path := filepath.Join(cfgDir, "englishhub.yaml")
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(t, dir, "", "config", "init", "--dir", cfgDir)
	assert.ErrorContains(t, err, "already exists")
	_, err = run(t, dir, "", "config", "init", "--dir", cfgDir, "--force")
	require.NoError(t, err)

	t.Setenv("ENGLISHHUB_AUTH_JWT_SECRET", "topsecret-signing-key")
	t.Setenv("ENGLISHHUB_SERVER_PORT", "9191")
	out, err = run(t, dir, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Config file: "+path)
	assert.Contains(t, out, "port: 9191")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "topsecret-signing-key")
}

func TestBrokenConfigFile(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(t.TempDir(), "englishhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := run(t, dir, "", "--config", path, "db", "init")
	assert.ErrorContains(t, err, "read config")

	// version never reads configuration.
	_, err = run(t, dir, "", "--config", path, "version")
	assert.NoError(t, err)
}

func TestOpenAPIWritesFile(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(t.TempDir(), "api.json")

	_, err := run(t, dir, "", "openapi", "--server-url", "https://hub.example.com", "--output", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "3.1.0", doc["openapi"])
	assert.Contains(t, doc["paths"], "/api/v1/content")
}

func TestStatus(t *testing.T) {
	dir := setupEnv(t)

	var ready atomic.Bool
	ready.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/readyz", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded","checks":{"storage":"unreachable"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","checks":{"storage":"ok"}}`))
	}))
	defer srv.Close()

	out, err := run(t, dir, "", "status", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Ready:   ok (200)")

	ready.Store(false)
	out, err = run(t, dir, "", "status", "--url", srv.URL)
	assert.Error(t, err)
	assert.Contains(t, out, "unreachable")
}
