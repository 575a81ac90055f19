// Package testutil holds helpers shared by layman's tests.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// IsolateHome points LAYMAN_HOME at a fresh directory so a test never
// touches the real config, state or runtime directories.
func IsolateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LAYMAN_HOME", dir)
	return dir
}

// SocketPath returns a path for a Unix socket in a short temporary
// directory. t.TempDir paths can exceed the sun_path limit on macOS.
func SocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "lm")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, RandomString(6)+".sock")
}

// WriteConfig writes a config.toml with the given contents into dir and
// returns its path.
func WriteConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// RandomString generates a random hex string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
