package protocol

import "encoding/json"

// TraceEntry represents a single entry in a trace file.
// Trace files wrap protocol messages with metadata for debugging and fixtures.
type TraceEntry struct {
	ID         string          `json:"id"`
	Timestamp  string          `json:"timestamp"`
	Direction  string          `json:"direction"` // "sent" or "received"
	Message    json.RawMessage `json:"message"`
	TurnNumber int             `json:"turnNumber,omitempty"`
}

// ParseTraceEntry parses a trace entry and extracts the inner protocol
// message. Falls back to parsing the line as a raw protocol message when the
// wrapper format doesn't match, so traces and raw captures are interchangeable
// as fixture input.
func ParseTraceEntry(line []byte) (Message, error) {
	var entry TraceEntry
	if err := json.Unmarshal(line, &entry); err != nil || len(entry.Message) == 0 {
		return ParseMessage(line)
	}
	return ParseMessage(entry.Message)
}
