// Package ndjson implements newline-delimited JSON framing over byte streams.
//
// The reader returns one line at a time, growing its buffer as needed so a
// single oversized message is never truncated. The writer serializes one JSON
// object per line and is safe for concurrent use.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// Reader reads newline-delimited frames from an underlying stream.
type Reader struct {
	br *bufio.Reader
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadLine returns the next non-empty line without its trailing newline.
// Lines are returned in arrival order with no length limit; the buffer grows
// until the terminating newline is seen. Returns io.EOF when the stream ends.
func (r *Reader) ReadLine() ([]byte, error) {
	for {
		line, err := r.br.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(line)) > 0 {
				// Final line without trailing newline.
				return bytes.TrimSpace(line), nil
			}
			return nil, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

// Writer writes JSON values as single lines to an underlying stream.
// A mutex serializes writers so concurrent senders cannot interleave
// partial frames.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteJSON marshals v and writes it as one newline-terminated frame.
// The frame is written with a single Write call under the lock.
func (w *Writer) WriteJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteLine(b)
}

// WriteLine writes a pre-serialized frame followed by a newline.
func (w *Writer) WriteLine(b []byte) error {
	buf := make([]byte, 0, len(b)+1)
	buf = append(buf, b...)
	buf = append(buf, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.w.Write(buf)
	return err
}
