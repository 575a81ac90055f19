package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/layman/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitValidateShow(t *testing.T) {
	testutil.IsolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "config", "init", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = execute(t, "config", "init", "-c", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "validate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, err = execute(t, "config", "show", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+path)
	assert.Contains(t, out, "MasterStack")
}

func TestConfigValidateRejectsUnknownLayout(t *testing.T) {
	path := testutil.WriteConfig(t, t.TempDir(), "[layman]\ndefaultLayout = \"Spiral\"\n")

	_, err := execute(t, "config", "validate", "-c", path)
	assert.ErrorContains(t, err, "unknown layout 'Spiral'")
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"defaultLayout"`)
}

func TestSendWithoutDaemon(t *testing.T) {
	socket := testutil.SocketPath(t)
	_, err := execute(t, "send", "-s", socket, "status")
	assert.ErrorContains(t, err, "not running")
}

func TestPrintReply(t *testing.T) {
	root := NewSendCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	require.NoError(t, printReply(root, "Layout set to splitv"))
	assert.Equal(t, "Layout set to splitv\n", stdout.String())

	assert.ErrorIs(t, printReply(root, "Error: unknown layout"), ErrSilent)
	assert.Equal(t, "Error: unknown layout\n", stderr.String())
}

func TestRenderLogLine(t *testing.T) {
	jsonLine := `{"time":"2026-01-02T15:04:05Z","level":"warning","msg":"Failed","component":"masterstack","workspace":"1"}`

	rendered, ok := renderLogLine(jsonLine, logFilter{}, false)
	require.True(t, ok)
	assert.Contains(t, rendered, "15:04:05")
	assert.Contains(t, rendered, "Failed")
	assert.Contains(t, rendered, "masterstack")
	assert.Contains(t, rendered, "workspace")

	_, ok = renderLogLine(jsonLine, logFilter{component: "engine"}, false)
	assert.False(t, ok)
	_, ok = renderLogLine(jsonLine, logFilter{level: "warn"}, false)
	assert.True(t, ok)

	rendered, ok = renderLogLine(jsonLine, logFilter{}, true)
	require.True(t, ok)
	assert.Equal(t, jsonLine, rendered)

	text := "2026-01-02 15:04:05 [INFO] [engine] layman started"
	rendered, ok = renderLogLine(text, logFilter{level: "info"}, false)
	require.True(t, ok)
	assert.Equal(t, text, rendered)
	_, ok = renderLogLine(text, logFilter{level: "error"}, false)
	assert.False(t, ok)
}

func TestPrintLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layman.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o644))

	var got []string
	require.NoError(t, printLastLines(path, 2, func(l string) { got = append(got, l) }))
	assert.Equal(t, []string{"c", "d"}, got)

	got = nil
	require.NoError(t, printLastLines(path, -1, func(l string) { got = append(got, l) }))
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}
