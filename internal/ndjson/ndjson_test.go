package ndjson

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestReadLineSkipsEmptyLines(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\n\n\n{\"b\":2}\n"))

	line, err := r.ReadLine()
	if err != nil || string(line) != `{"a":1}` {
		t.Fatalf("first line = %q, err = %v", line, err)
	}
	line, err = r.ReadLine()
	if err != nil || string(line) != `{"b":2}` {
		t.Fatalf("second line = %q, err = %v", line, err)
	}
	if _, err := r.ReadLine(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReadLineFinalUnterminated(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\n{\"b\":2}"))

	if line, _ := r.ReadLine(); string(line) != `{"a":1}` {
		t.Fatalf("first line = %q", line)
	}
	line, err := r.ReadLine()
	if err != nil || string(line) != `{"b":2}` {
		t.Fatalf("unterminated final line = %q, err = %v", line, err)
	}
	if _, err := r.ReadLine(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReadLineTrimsWhitespace(t *testing.T) {
	r := NewReader(strings.NewReader("  {\"a\":1}  \r\n"))
	line, err := r.ReadLine()
	if err != nil || string(line) != `{"a":1}` {
		t.Fatalf("line = %q, err = %v", line, err)
	}
}

func TestReadLineLongLine(t *testing.T) {
	// Larger than the default bufio buffer.
	payload := `{"data":"` + strings.Repeat("x", 1<<16) + `"}`
	r := NewReader(strings.NewReader(payload + "\n"))

	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(line) != payload {
		t.Fatalf("long line truncated: got %d bytes, want %d", len(line), len(payload))
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteJSON(map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"a\":1}\n" {
		t.Fatalf("output = %q", got)
	}
}

// syncBuffer guards a bytes.Buffer; the writer's own lock only protects its
// Write call ordering, not the buffer itself.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWriterConcurrentFramesDoNotInterleave(t *testing.T) {
	var buf syncBuffer
	w := NewWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := w.WriteJSON(map[string]string{"k": strings.Repeat("v", 100)}); err != nil {
					t.Errorf("write: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 500 {
		t.Fatalf("lines = %d, want 500", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, `{"k":"`) || !strings.HasSuffix(line, `"}`) {
			t.Fatalf("interleaved frame: %q", line)
		}
	}
}
