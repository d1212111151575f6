package claude

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	ErrNotConnected       = errors.New("session not connected")
	ErrAlreadyConnected   = errors.New("session already connected")
	ErrClosed             = errors.New("session is closed")
	ErrClosedWhilePending = errors.New("session closed while request pending")
	ErrControlTimeout     = errors.New("control request timed out")
	ErrProcessExited      = errors.New("CLI process exited unexpectedly")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrBudgetExceeded     = errors.New("budget limit exceeded")
	ErrMaxTurnsExceeded   = errors.New("max turns exceeded")
)

// ControlError is an error payload returned by the CLI for a caller-initiated
// control request. It affects only the request's initiator, never the session.
type ControlError struct {
	RequestID string
	Message   string
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("control request %s failed: %s", e.RequestID, e.Message)
}

// ProtocolError represents a protocol-level error: a line that classified as a
// known type but failed to decode.
type ProtocolError struct {
	Cause   error
	Message string
	Line    string
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// ProcessError represents a process-level error, including unexpected exit.
type ProcessError struct {
	Cause    error
	Message  string
	Stderr   string
	ExitCode int
}

func (e *ProcessError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("process error: %s (exit code %d)", e.Message, e.ExitCode)
	}
	return fmt.Sprintf("process error: %s", e.Message)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// CLINotFoundError indicates the agent CLI binary could not be resolved or
// launched.
type CLINotFoundError struct {
	Path  string
	Cause error
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("CLI binary not found at %q: %v", e.Path, e.Cause)
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Cause
}

// IsRecoverable reports whether the session can continue after err.
// Transport failures and terminal states are fatal; control-plane errors and
// timeouts affect only their initiator.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}

	var procErr *ProcessError
	if errors.As(err, &procErr) {
		return false
	}

	var cliErr *CLINotFoundError
	if errors.As(err, &cliErr) {
		return false
	}

	if errors.Is(err, ErrClosed) || errors.Is(err, ErrProcessExited) {
		return false
	}

	return true
}
