package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/grovetools/layman/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandlerHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not running", errors.DaemonNotRunning("/tmp/l.sock", nil), "Start it with 'layman daemon start'"},
		{"already running", errors.New(errors.ErrCodeDaemonAlreadyRunning, "x").WithDetail("pid", 42), "already running (pid 42)"},
		{"config missing", errors.ConfigNotFound("/etc/layman.toml"), "Configuration not found: /etc/layman.toml"},
		{"unknown layout", errors.UnknownLayout("Spiral", "1", []string{"none"}), "unknown layout 'Spiral'"},
		{"plain", fmt.Errorf("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			h := &ErrorHandler{Out: &out}
			assert.Equal(t, tt.err, h.Handle(tt.err))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var out bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &out}
	h.Handle(errors.ConfigNotFound("/x.toml"))
	assert.Contains(t, out.String(), `"code": "CONFIG_NOT_FOUND"`)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "keep\nbreaks", wrapText("keep\nbreaks", 40))
}

func TestParseDescription(t *testing.T) {
	desc, ex := parseDescription("Does things.\n\nExamples:\n  layman send status\n")
	assert.Equal(t, "Does things.", desc)
	assert.Equal(t, "layman send status", ex)
}

func TestStandardCommandOptions(t *testing.T) {
	cmd := NewStandardCommand("layman", "test")
	cmd.RunE = func(*cobra.Command, []string) error { return nil }
	cmd.SetArgs([]string{"--json", "-c", "/tmp/x.toml", "-s", "/tmp/x.sock"})
	assert.NoError(t, cmd.Execute())

	opts := GetOptions(cmd)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "/tmp/x.toml", opts.ConfigPath())
	assert.Equal(t, "/tmp/x.sock", SocketPath(cmd))
}

func TestStyledHelpRendersSections(t *testing.T) {
	cmd := NewStandardCommand("layman", "Tiling layout manager")
	cmd.AddCommand(&cobra.Command{Use: "send", Short: "Send a command", Run: func(*cobra.Command, []string) {}})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})
	assert.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "COMMANDS")
	assert.Contains(t, out.String(), "send")
}
