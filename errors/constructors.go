package errors

import (
	"fmt"
	"strings"
	"time"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *LaymanError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *LaymanError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// InvalidOption creates an error for a single knob that failed validation.
func InvalidOption(key string, value interface{}, expectation string) *LaymanError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid %s '%v': %s", key, value, expectation)).
		WithDetail("key", key).
		WithDetail("value", value)
}

// ConfigValidation wraps a schema or semantic validation failure.
func ConfigValidation(path string, err error) *LaymanError {
	return Wrap(err, ErrCodeConfigValidation, fmt.Sprintf("configuration %s failed validation", path)).
		WithDetail("path", path)
}

// UnknownLayout creates an error for a layout name that is not registered.
func UnknownLayout(name, workspace string, available []string) *LaymanError {
	return New(ErrCodeUnknownLayout,
		fmt.Sprintf("unknown layout '%s' for workspace %s. Available layouts: %s",
			name, workspace, strings.Join(available, ", "))).
		WithDetail("layout", name).
		WithDetail("workspace", workspace)
}

// LookupMiss creates an error for a window or workspace that vanished
// between an event and its handling.
func LookupMiss(kind string, id interface{}) *LaymanError {
	return New(ErrCodeLookupMiss, fmt.Sprintf("%s %v not found in tree", kind, id)).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// AlgorithmFailure wraps an error raised inside a layout manager.
func AlgorithmFailure(layout, workspace string, err error) *LaymanError {
	return Wrap(err, ErrCodeAlgorithmFailure,
		fmt.Sprintf("layout %s failed on workspace %s", layout, workspace)).
		WithDetail("layout", layout).
		WithDetail("workspace", workspace)
}

// ControlTimeout creates the error returned when a control client waited
// past its deadline.
func ControlTimeout(command string, timeout time.Duration) *LaymanError {
	return New(ErrCodeControlTimeout,
		fmt.Sprintf("no reply for '%s' within %s", command, timeout)).
		WithDetail("command", command).
		WithDetail("timeout", timeout.String())
}

// IPCFailed wraps a failed compositor round-trip.
func IPCFailed(op string, err error) *LaymanError {
	return Wrap(err, ErrCodeIPCFailed, fmt.Sprintf("compositor %s failed", op)).
		WithDetail("op", op)
}

// CommandFailed creates an error for a compositor command that reported failure.
func CommandFailed(cmd string, reason string) *LaymanError {
	return New(ErrCodeCommandFailed, fmt.Sprintf("command failed: %s: %s", cmd, reason)).
		WithDetail("command", cmd)
}

// DaemonNotRunning creates an error for a control client that found no daemon.
func DaemonNotRunning(socket string, err error) *LaymanError {
	return Wrap(err, ErrCodeDaemonNotRunning, "layman daemon is not running").
		WithDetail("socket", socket)
}
