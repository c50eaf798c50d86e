package hook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeHookScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hook.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestBeginAcceptsOnExitZero(t *testing.T) {
	path := writeHookScript(t, "exit 0")
	r := New(path, zerolog.Nop())

	accept, err := r.Begin("dns-01", "example.com", "tok", "ka")
	require.NoError(t, err)
	require.True(t, accept)
}

func TestBeginDeclinesOnPositiveExit(t *testing.T) {
	path := writeHookScript(t, "exit 1")
	r := New(path, zerolog.Nop())

	accept, err := r.Begin("dns-01", "example.com", "tok", "ka")
	require.NoError(t, err)
	require.False(t, accept)
}

func TestBeginFailsToExecute(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "does-not-exist"), zerolog.Nop())

	accept, err := r.Begin("dns-01", "example.com", "tok", "ka")
	require.Error(t, err)
	require.False(t, accept)
}

func TestRunPassesExpectedArgv(t *testing.T) {
	out := filepath.Join(t.TempDir(), "argv.txt")
	path := writeHookScript(t, `echo "$1 $2 $3 $4 $5" > `+out)
	r := New(path, zerolog.Nop())

	_, err := r.Begin("http-01", "example.org", "tok123", "ka456")
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "begin http-01 example.org tok123 ka456\n", string(got))
}

func TestDoneAndFailedIgnoreExitCode(t *testing.T) {
	path := writeHookScript(t, "exit 7")
	r := New(path, zerolog.Nop())

	// Neither method returns anything, so this only needs to not panic.
	r.Done("dns-01", "example.com", "tok", "ka")
	r.Failed("dns-01", "example.com", "tok", "ka")
}
