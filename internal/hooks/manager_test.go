package hooks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hooks")
	m := NewManager(dir, time.Second, nil)

	require.NoError(t, m.EnsureDirectory())
	require.NoError(t, m.EnsureDirectory())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "run.sh", "#!/bin/sh\nexit 0\n", 0o755)
	writeScript(t, dir, "notes.txt", "not a hook", 0o644)
	writeScript(t, dir, ".hidden.sh", "#!/bin/sh\nexit 0\n", 0o755)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	m := NewManager(dir, time.Second, nil)
	paths, err := m.Discover()
	require.NoError(t, err)

	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "run.sh"), paths[0])
}

func TestDiscoverMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent"), time.Second, nil)
	paths, err := m.Discover()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestExecutePassesEnvAndStdin(t *testing.T) {
	dir := t.TempDir()
	outfile := filepath.Join(dir, "out")
	script := writeScript(t, dir, "capture.sh",
		"#!/bin/sh\nprintf '%s\\n' \"$EVENT\" > \""+outfile+"\"\nprintf '%s\\n' \"$SOURCE_NAME\" >> \""+outfile+"\"\ncat >> \""+outfile+"\"\n",
		0o755)

	m := NewManager(dir, 5*time.Second, nil)
	code, err := m.Execute(context.Background(), script, EventStatusChange,
		[]string{"SOURCE_NAME=GitHub"}, []byte(`{"hello":"world"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	out, err := os.ReadFile(outfile)
	require.NoError(t, err)
	assert.Equal(t, "on-status-change\nGitHub\n{\"hello\":\"world\"}", string(out))
}

func TestExecuteNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.sh", "#!/bin/sh\nexit 3\n", 0o755)

	m := NewManager(dir, 5*time.Second, nil)
	code, err := m.Execute(context.Background(), script, EventRefresh, nil, nil)

	require.ErrorIs(t, err, ErrNonZeroExit)
	assert.Equal(t, 3, code)
}

func TestExecuteTimeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "sleep.sh", "#!/bin/sh\nsleep 30\n", 0o755)

	m := NewManager(dir, 500*time.Millisecond, nil)

	start := time.Now()
	code, err := m.Execute(context.Background(), script, EventRefresh, nil, nil)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, TimeoutExitCode, code)
	// Returns around the timeout, not the sleep duration.
	assert.Less(t, elapsed, 5*time.Second)
}

func TestFireRunsAllHooksDespiteFailures(t *testing.T) {
	dir := t.TempDir()
	okFile := filepath.Join(dir, "ok-ran")
	writeScript(t, dir, "a-fail.sh", "#!/bin/sh\nexit 1\n", 0o755)
	writeScript(t, dir, "b-ok.sh", "#!/bin/sh\ntouch \""+okFile+"\"\n", 0o755)

	m := NewManager(dir, 5*time.Second, nil)
	m.Fire(context.Background(), EventRefresh, nil, NewRefreshPayload(2, "none"))

	_, err := os.Stat(okFile)
	assert.NoError(t, err, "second hook must run even though the first failed")
}

func TestFireRunsHooksConcurrently(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "slow-a.sh", "#!/bin/sh\nsleep 1\n", 0o755)
	writeScript(t, dir, "slow-b.sh", "#!/bin/sh\nsleep 1\n", 0o755)

	m := NewManager(dir, 10*time.Second, nil)

	start := time.Now()
	m.Fire(context.Background(), EventRefresh, nil, NewRefreshPayload(2, "none"))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 1800*time.Millisecond)
}

func TestStatusChangePayloadJSON(t *testing.T) {
	payload := NewStatusChangePayload("GitHub", "https://www.githubstatus.com", "Degraded", "Minor outage")

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "on-status-change", decoded["event"])
	assert.Equal(t, "GitHub", decoded["source_name"])
	assert.Equal(t, "Degraded", decoded["title"])
	assert.Equal(t, "Minor outage", decoded["body"])
}

func TestRefreshPayloadJSON(t *testing.T) {
	body, err := json.Marshal(NewRefreshPayload(5, "major"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "on-refresh", decoded["event"])
	assert.Equal(t, float64(5), decoded["source_count"])
	assert.Equal(t, "major", decoded["worst_level"])
}

func writeScript(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}
