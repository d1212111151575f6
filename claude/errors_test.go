package claude

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRecoverable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"control error", &ControlError{RequestID: "r1", Message: "bad"}, true},
		{"control timeout", fmt.Errorf("%w: r1", ErrControlTimeout), true},
		{"protocol error", &ProtocolError{Message: "bad line"}, true},
		{"process error", &ProcessError{Message: "died"}, false},
		{"wrapped process error", fmt.Errorf("turn failed: %w", &ProcessError{Message: "died"}), false},
		{"cli not found", &CLINotFoundError{Path: "claude"}, false},
		{"closed", ErrClosed, false},
		{"process exited", ErrProcessExited, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRecoverable(tc.err); got != tc.want {
				t.Errorf("IsRecoverable(%v) = %t, want %t", tc.err, got, tc.want)
			}
		})
	}
}

func TestProcessErrorUnwrap(t *testing.T) {
	err := &ProcessError{Message: "exited", Cause: ErrProcessExited, ExitCode: 2}

	if !errors.Is(err, ErrProcessExited) {
		t.Error("ProcessError must unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "exit code 2") {
		t.Errorf("message = %q", err.Error())
	}

	noCode := &ProcessError{Message: "pipe broke"}
	if strings.Contains(noCode.Error(), "exit code") {
		t.Errorf("zero exit code must be omitted: %q", noCode.Error())
	}
}

func TestProtocolErrorUnwrap(t *testing.T) {
	cause := errors.New("unexpected token")
	err := &ProtocolError{Message: "parse failed", Cause: cause, Line: "{bad"}

	if !errors.Is(err, cause) {
		t.Error("ProtocolError must unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "unexpected token") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestControlErrorMessage(t *testing.T) {
	err := &ControlError{RequestID: "abc-1", Message: "model not available"}
	if !strings.Contains(err.Error(), "abc-1") || !strings.Contains(err.Error(), "model not available") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestSessionStateTransitions(t *testing.T) {
	m := newSessionStateManager()

	if m.Current() != SessionStateNew {
		t.Errorf("initial = %v", m.Current())
	}
	if err := m.SetConnected(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("connected from new: %v", err)
	}
	if err := m.SetConnecting(); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	if err := m.SetConnecting(); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("double connecting: %v", err)
	}
	if err := m.SetConnected(); err != nil {
		t.Fatalf("connected: %v", err)
	}
	if !m.IsConnected() {
		t.Error("should be connected")
	}

	if !m.SetClosed() {
		t.Error("first close should return true")
	}
	if m.SetClosed() {
		t.Error("second close should return false")
	}
	if err := m.SetConnecting(); !errors.Is(err, ErrClosed) {
		t.Errorf("connecting after close: %v", err)
	}
	if m.Current().String() != "closed" {
		t.Errorf("state string = %q", m.Current())
	}
}
