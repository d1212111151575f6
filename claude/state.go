package claude

import "sync"

// SessionState represents the lifecycle state of a session.
type SessionState int

const (
	SessionStateNew SessionState = iota
	SessionStateConnecting
	SessionStateConnected
	SessionStateClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionStateNew:
		return "new"
	case SessionStateConnecting:
		return "connecting"
	case SessionStateConnected:
		return "connected"
	case SessionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// sessionStateManager manages thread-safe lifecycle transitions.
// CLOSED is terminal and reachable from any state; SetClosed is idempotent.
type sessionStateManager struct {
	mu    sync.RWMutex
	state SessionState
}

func newSessionStateManager() *sessionStateManager {
	return &sessionStateManager{state: SessionStateNew}
}

func (m *sessionStateManager) Current() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *sessionStateManager) SetConnecting() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case SessionStateNew:
		m.state = SessionStateConnecting
		return nil
	case SessionStateClosed:
		return ErrClosed
	default:
		return ErrAlreadyConnected
	}
}

func (m *sessionStateManager) SetConnected() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != SessionStateConnecting {
		return ErrInvalidState
	}
	m.state = SessionStateConnected
	return nil
}

// SetClosed transitions to the terminal state. Returns true on the first
// transition, false if the session was already closed.
func (m *sessionStateManager) SetClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == SessionStateClosed {
		return false
	}
	m.state = SessionStateClosed
	return true
}

func (m *sessionStateManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == SessionStateConnected
}

func (m *sessionStateManager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == SessionStateClosed
}
