// Package paths provides XDG-compliant path resolution for layman.
//
// Resolution order:
// 1. LAYMAN_HOME (portable root) → $LAYMAN_HOME/{config,data,state,run}
// 2. XDG env vars → $XDG_*_HOME/layman
// 3. Platform defaults → ~/.config/layman, ~/.local/share/layman, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "layman"

func home(sub string) string {
	if root := os.Getenv("LAYMAN_HOME"); root != "" {
		return filepath.Join(root, sub)
	}
	return ""
}

// xdgBase resolves an XDG base directory, falling back to a path under $HOME.
func xdgBase(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, fallback...)...)
	}
	return ""
}

// ConfigDir returns the layman configuration directory.
// Used for config.toml.
func ConfigDir() string {
	if dir := home("config"); dir != "" {
		return dir
	}
	base := xdgBase("XDG_CONFIG_HOME", ".config")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// DataDir returns the layman data directory.
// Used for layout presets and saved sessions.
func DataDir() string {
	if dir := home("data"); dir != "" {
		return dir
	}
	base := xdgBase("XDG_DATA_HOME", ".local", "share")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the layman state directory.
// Used for logs and the PID file.
func StateDir() string {
	if dir := home("state"); dir != "" {
		return dir
	}
	base := xdgBase("XDG_STATE_HOME", ".local", "state")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// PresetsDir returns where named layout presets are stored.
func PresetsDir() string {
	return filepath.Join(DataDir(), "presets")
}

// SessionsDir returns where saved workspace sessions are stored.
func SessionsDir() string {
	return filepath.Join(DataDir(), "sessions")
}

// RuntimeDir returns the layman runtime directory for the control socket.
// Uses XDG_RUNTIME_DIR when available, falls back to StateDir.
func RuntimeDir() string {
	if dir := home("run"); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// SocketPath returns the default path of the control socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "layman.sock")
}

// PidFilePath returns the path to the daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "layman.pid")
}

// LogFilePath returns the default daemon log file.
func LogFilePath() string {
	return filepath.Join(StateDir(), "layman.log")
}

// EnsureDirs creates all layman directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
