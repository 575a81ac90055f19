package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/layman/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	le, _ := err.(*errors.LaymanError)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Configuration not found: %v\n", detail(le, "path"))
		fmt.Fprintf(out, "Run 'layman config init' to write a starter config.\n")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(out, "❌ %s\n", errors.Message(err))
		fmt.Fprintf(out, "Run 'layman config validate' for details.\n")

	case errors.ErrCodeUnknownLayout:
		fmt.Fprintf(out, "❌ %s\n", errors.Message(err))

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(out, "❌ layman daemon is not running on %v\n", detail(le, "socket"))
		fmt.Fprintf(out, "Start it with 'layman daemon start'.\n")

	case errors.ErrCodeDaemonAlreadyRunning:
		fmt.Fprintf(out, "❌ layman daemon is already running (pid %v)\n", detail(le, "pid"))
		fmt.Fprintf(out, "Stop it with 'layman daemon stop'.\n")

	case errors.ErrCodeControlTimeout:
		fmt.Fprintf(out, "❌ %s\n", errors.Message(err))
		fmt.Fprintf(out, "Check the daemon log with 'layman logs'.\n")

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose && le != nil {
		fmt.Fprintf(out, "\nError details:\n%s\n", le.ToJSON())
	}
	return err
}

func detail(le *errors.LaymanError, key string) any {
	if le == nil || le.Details == nil {
		return "?"
	}
	if v, ok := le.Details[key]; ok {
		return v
	}
	return "?"
}
