package claude

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bazelment/claude-agent-go/protocol"
)

// sessionRecorder writes a trace of every frame the session sends and
// receives, one TraceEntry per line. Trace files double as test fixtures.
type sessionRecorder struct {
	mu      sync.Mutex
	file    *os.File
	turn    int
	counter int
}

// newSessionRecorder opens a timestamped trace file under dir.
func newSessionRecorder(dir string) (*sessionRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}

	name := fmt.Sprintf("session-%s.jsonl", time.Now().Format("20060102-150405"))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	return &sessionRecorder{file: f}, nil
}

// SetTurn tags subsequent entries with the given turn number.
func (r *sessionRecorder) SetTurn(n int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.turn = n
	r.mu.Unlock()
}

// RecordSent records an outbound frame.
func (r *sessionRecorder) RecordSent(v interface{}) {
	r.record("sent", v)
}

// RecordReceived records an inbound line.
func (r *sessionRecorder) RecordReceived(line []byte) {
	r.record("received", json.RawMessage(line))
}

func (r *sessionRecorder) record(direction string, v interface{}) {
	if r == nil {
		return
	}

	msg, err := json.Marshal(v)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return
	}

	r.counter++
	entry := protocol.TraceEntry{
		ID:         fmt.Sprintf("%s-%d", direction, r.counter),
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Direction:  direction,
		Message:    msg,
		TurnNumber: r.turn,
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = r.file.Write(b)
}

// Close flushes and closes the trace file. Idempotent.
func (r *sessionRecorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
