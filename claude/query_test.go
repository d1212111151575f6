package claude

import (
	"testing"

	"github.com/bazelment/claude-agent-go/protocol"
)

func parseLine(t *testing.T, line string) protocol.Message {
	t.Helper()
	msg, err := protocol.ParseMessage([]byte(line))
	if err != nil {
		t.Fatalf("parse %s: %v", line, err)
	}
	return msg
}

func TestComputeStatus(t *testing.T) {
	okResult := &protocol.ResultMessage{IsError: false}
	errResult := &protocol.ResultMessage{IsError: true}

	cases := []struct {
		name         string
		sawAssistant bool
		result       *protocol.ResultMessage
		numMessages  int
		want         QueryStatus
	}{
		{"no messages", false, nil, 0, QueryStatusError},
		{"error result", true, errResult, 3, QueryStatusError},
		{"assistant and clean result", true, okResult, 2, QueryStatusSuccess},
		{"assistant without result", true, nil, 1, QueryStatusSuccess},
		{"messages but no assistant", false, okResult, 1, QueryStatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := computeStatus(tc.sawAssistant, tc.result, tc.numMessages); got != tc.want {
				t.Errorf("computeStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildQueryResult(t *testing.T) {
	session := newSessionWithTransport(nil, defaultConfig())

	messages := []protocol.Message{
		parseLine(t, `{"type":"assistant","session_id":"sess-9","message":{"role":"assistant","content":[{"type":"text","text":"The answer "},{"type":"text","text":"is 42."}]}}`),
		parseLine(t, `{"type":"result","subtype":"success","session_id":"sess-9","is_error":false,"num_turns":1,"duration_ms":250,"total_cost_usd":0.02,"usage":{"input_tokens":20,"output_tokens":8,"cache_read_input_tokens":5}}`),
	}

	qr := buildQueryResult(session, messages)
	if qr.Status != QueryStatusSuccess {
		t.Errorf("status = %q", qr.Status)
	}
	if qr.Text != "The answer is 42." {
		t.Errorf("text = %q", qr.Text)
	}
	if qr.SessionID != "sess-9" {
		t.Errorf("session id = %q", qr.SessionID)
	}
	if qr.NumTurns != 1 || qr.DurationMs != 250 || qr.CostUSD != 0.02 {
		t.Errorf("metadata = %+v", qr)
	}
	if qr.Usage.InputTokens != 20 || qr.Usage.CacheReadTokens != 5 {
		t.Errorf("usage = %+v", qr.Usage)
	}
	if len(qr.Messages) != 2 {
		t.Errorf("messages = %d", len(qr.Messages))
	}
}

func TestBuildQueryResultStructuredOutput(t *testing.T) {
	session := newSessionWithTransport(nil, defaultConfig())

	messages := []protocol.Message{
		parseLine(t, `{"type":"assistant","session_id":"s","message":{"role":"assistant","content":[{"type":"text","text":"{}"}]}}`),
		parseLine(t, `{"type":"result","subtype":"success","session_id":"s","is_error":false,"structured_output":{"answer":42},"usage":{}}`),
	}

	qr := buildQueryResult(session, messages)
	if string(qr.StructuredOutput) != `{"answer":42}` {
		t.Errorf("structured output = %s", qr.StructuredOutput)
	}
}

func TestBuildQueryResultEmpty(t *testing.T) {
	session := newSessionWithTransport(nil, defaultConfig())

	qr := buildQueryResult(session, nil)
	if qr.Status != QueryStatusError {
		t.Errorf("status = %q", qr.Status)
	}
	if qr.Text != "" {
		t.Errorf("text = %q", qr.Text)
	}
}

func TestBuildQueryResultToolOnlyTurn(t *testing.T) {
	session := newSessionWithTransport(nil, defaultConfig())

	// The user message carries tool results but no assistant text arrived.
	messages := []protocol.Message{
		parseLine(t, `{"type":"user","session_id":"s","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_01","content":"ok"}]}}`),
		parseLine(t, `{"type":"result","subtype":"success","session_id":"s","is_error":false,"usage":{}}`),
	}

	qr := buildQueryResult(session, messages)
	if qr.Status != QueryStatusPartial {
		t.Errorf("status = %q, want partial", qr.Status)
	}
}
