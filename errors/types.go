package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrCodeUnknownLayout    ErrorCode = "UNKNOWN_LAYOUT"

	// Window tree errors
	ErrCodeLookupMiss       ErrorCode = "LOOKUP_MISS"
	ErrCodeAlgorithmFailure ErrorCode = "ALGORITHM_FAILURE"

	// Compositor IPC errors
	ErrCodeIPCFailed     ErrorCode = "IPC_FAILED"
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"

	// Control channel errors
	ErrCodeControlTimeout       ErrorCode = "CONTROL_TIMEOUT"
	ErrCodeDaemonNotRunning     ErrorCode = "DAEMON_NOT_RUNNING"
	ErrCodeDaemonAlreadyRunning ErrorCode = "DAEMON_ALREADY_RUNNING"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
)

// LaymanError represents a structured error with context
type LaymanError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *LaymanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *LaymanError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *LaymanError) WithDetail(key string, value interface{}) *LaymanError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *LaymanError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new LaymanError
func New(code ErrorCode, message string) *LaymanError {
	return &LaymanError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a LaymanError
func Wrap(err error, code ErrorCode, message string) *LaymanError {
	return &LaymanError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific LaymanError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	laymanErr, ok := err.(*LaymanError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	if laymanErr.Code == code {
		return true
	}
	return laymanErr.Cause != nil && Is(laymanErr.Cause, code)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	laymanErr, ok := err.(*LaymanError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return laymanErr.Code
}

// IsConfiguration reports whether err belongs to the configuration family:
// an invalid knob, a failed validation, a missing file or an unknown layout.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeConfigInvalid, ErrCodeConfigValidation, ErrCodeConfigNotFound, ErrCodeUnknownLayout:
		return true
	}
	return false
}

// Message returns the human readable part of err without the code prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if laymanErr, ok := err.(*LaymanError); ok {
		if laymanErr.Cause != nil {
			return fmt.Sprintf("%s: %v", laymanErr.Message, laymanErr.Cause)
		}
		return laymanErr.Message
	}
	return err.Error()
}
