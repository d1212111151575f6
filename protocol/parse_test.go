package protocol

import (
	"encoding/json"
	"testing"
)

// Fixture lines captured from a real CLI session in stream-json mode,
// lightly redacted.
const (
	systemInit = `{"type":"system","subtype":"init","cwd":"/tmp/work","session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","tools":["Bash","Read","Write"],"mcp_servers":[{"name":"helpers","status":"connected"}],"model":"claude-sonnet-4-6","permissionMode":"default","apiKeySource":"env","claude_code_version":"2.0.1","output_style":"default","uuid":"a1b2c3d4"}`

	assistantText = `{"type":"assistant","message":{"id":"msg_01ABC","type":"message","role":"assistant","model":"claude-sonnet-4-6","content":[{"type":"text","text":"Four."}],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":12,"cache_creation_input_tokens":0,"cache_read_input_tokens":0,"output_tokens":5}},"parent_tool_use_id":null,"session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","uuid":"b2c3d4e5"}`

	userToolResult = `{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_01XYZ","content":"total 0","is_error":false}]},"parent_tool_use_id":null,"session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","uuid":"c3d4e5f6"}`

	resultSuccess = `{"type":"result","subtype":"success","is_error":false,"duration_ms":2100,"duration_api_ms":1800,"num_turns":1,"result":"Four.","session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","total_cost_usd":0.0042,"usage":{"input_tokens":12,"cache_creation_input_tokens":0,"cache_read_input_tokens":0,"output_tokens":5},"uuid":"d4e5f6a7"}`

	resultError = `{"type":"result","subtype":"error_during_execution","is_error":true,"duration_ms":300,"duration_api_ms":0,"num_turns":1,"result":"execution failed","session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","total_cost_usd":0,"usage":{"input_tokens":0,"cache_creation_input_tokens":0,"cache_read_input_tokens":0,"output_tokens":0},"uuid":"e5f6a7b8"}`

	controlCanUseTool = `{"type":"control_request","request_id":"req_1_abc","request":{"subtype":"can_use_tool","tool_name":"Bash","input":{"command":"ls -la"},"tool_use_id":"toolu_01XYZ"}}`

	controlResponseSuccess = `{"type":"control_response","response":{"subtype":"success","request_id":"sess-3","response":{}}}`

	streamContentBlockStart = `{"type":"stream_event","event":{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}},"parent_tool_use_id":null,"session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","uuid":"f6a7b8c9"}`

	streamToolUseStart = `{"type":"stream_event","event":{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_02WS","name":"WebSearch","input":{}}},"parent_tool_use_id":null,"session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","uuid":"a7b8c9d0"}`

	streamTextDelta = `{"type":"stream_event","event":{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"I'll search for the latest news about"}},"parent_tool_use_id":null,"session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","uuid":"b8c9d0e1"}`

	streamInputJSONDelta = `{"type":"stream_event","event":{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"query\": \"US "}},"parent_tool_use_id":null,"session_id":"8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01","uuid":"c9d0e1f2"}`
)

func TestParseMessage_SystemInit(t *testing.T) {
	msg, err := ParseMessage([]byte(systemInit))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sys, ok := msg.(SystemMessage)
	if !ok {
		t.Fatalf("expected SystemMessage, got %T", msg)
	}
	if sys.Subtype != "init" {
		t.Errorf("expected subtype 'init', got %q", sys.Subtype)
	}
	if sys.SessionID != "8f14e45f-ceea-4f7c-9b5d-1c1b5a2e0a01" {
		t.Errorf("unexpected session_id: %q", sys.SessionID)
	}
	if sys.Model != "claude-sonnet-4-6" {
		t.Errorf("unexpected model: %q", sys.Model)
	}
	if len(sys.Tools) != 3 {
		t.Errorf("expected 3 tools, got %d", len(sys.Tools))
	}
	if len(sys.MCPServers) != 1 || sys.MCPServers[0].Status != "connected" {
		t.Errorf("unexpected mcp_servers: %v", sys.MCPServers)
	}
	if len(sys.Raw) == 0 {
		t.Error("expected Raw to preserve the original line")
	}
}

func TestParseMessage_Assistant(t *testing.T) {
	msg, err := ParseMessage([]byte(assistantText))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	am, ok := msg.(AssistantMessage)
	if !ok {
		t.Fatalf("expected AssistantMessage, got %T", msg)
	}
	if am.Message.Role != "assistant" {
		t.Errorf("expected role 'assistant', got %q", am.Message.Role)
	}
	blocks, ok := am.Message.Content.AsBlocks()
	if !ok {
		t.Fatal("expected block content")
	}
	tb, ok := blocks[0].(TextBlock)
	if !ok {
		t.Fatalf("expected TextBlock, got %T", blocks[0])
	}
	if tb.Text != "Four." {
		t.Errorf("unexpected text: %q", tb.Text)
	}
	if am.Message.Usage.InputTokens != 12 {
		t.Errorf("unexpected input_tokens: %d", am.Message.Usage.InputTokens)
	}
}

func TestParseMessage_UserToolResult(t *testing.T) {
	msg, err := ParseMessage([]byte(userToolResult))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	um, ok := msg.(UserMessage)
	if !ok {
		t.Fatalf("expected UserMessage, got %T", msg)
	}
	blocks, ok := um.Message.Content.AsBlocks()
	if !ok || len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %v", blocks)
	}
	tr, ok := blocks[0].(ToolResultBlock)
	if !ok {
		t.Fatalf("expected ToolResultBlock, got %T", blocks[0])
	}
	if tr.ToolUseID != "toolu_01XYZ" {
		t.Errorf("unexpected tool_use_id: %q", tr.ToolUseID)
	}
	if tr.IsError == nil || *tr.IsError {
		t.Error("expected is_error=false")
	}
}

func TestParseMessage_ResultSuccess(t *testing.T) {
	msg, err := ParseMessage([]byte(resultSuccess))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rm, ok := msg.(ResultMessage)
	if !ok {
		t.Fatalf("expected ResultMessage, got %T", msg)
	}
	if rm.IsError {
		t.Error("expected is_error=false")
	}
	if rm.Subtype != "success" {
		t.Errorf("expected subtype 'success', got %q", rm.Subtype)
	}
	if rm.Result != "Four." {
		t.Errorf("unexpected result: %q", rm.Result)
	}
	if rm.TotalCostUSD != 0.0042 {
		t.Errorf("unexpected cost: %v", rm.TotalCostUSD)
	}
}

func TestParseMessage_ResultError(t *testing.T) {
	msg, err := ParseMessage([]byte(resultError))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rm := msg.(ResultMessage)
	if !rm.IsError {
		t.Error("expected is_error=true")
	}
	if rm.Subtype != "error_during_execution" {
		t.Errorf("unexpected subtype: %q", rm.Subtype)
	}
}

func TestParseMessage_ControlRequest(t *testing.T) {
	msg, err := ParseMessage([]byte(controlCanUseTool))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	cr, ok := msg.(ControlRequest)
	if !ok {
		t.Fatalf("expected ControlRequest, got %T", msg)
	}
	if cr.RequestID != "req_1_abc" {
		t.Errorf("unexpected request_id: %q", cr.RequestID)
	}

	tu := ParseToolUseRequest(cr)
	if tu == nil {
		t.Fatal("expected tool use request")
	}
	if tu.ToolName != "Bash" {
		t.Errorf("unexpected tool name: %q", tu.ToolName)
	}
	if tu.Input["command"] != "ls -la" {
		t.Errorf("unexpected input: %v", tu.Input)
	}
}

func TestParseMessage_ControlResponse(t *testing.T) {
	msg, err := ParseMessage([]byte(controlResponseSuccess))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	cr, ok := msg.(ControlResponse)
	if !ok {
		t.Fatalf("expected ControlResponse, got %T", msg)
	}
	if cr.CorrelationID() != "sess-3" {
		t.Errorf("unexpected correlation id: %q", cr.CorrelationID())
	}
	if cr.Response.Subtype != "success" {
		t.Errorf("unexpected subtype: %q", cr.Response.Subtype)
	}
}

func TestParseMessage_UnknownTypeSkipped(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"telemetry","data":{"x":1}}`))
	if err != nil {
		t.Fatalf("expected no error for unknown type, got: %v", err)
	}
	if msg != nil {
		t.Errorf("expected nil for unknown type, got %T", msg)
	}
}

func TestParseMessage_InvalidJSON(t *testing.T) {
	if _, err := ParseMessage([]byte(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseTraceEntry_Wrapped(t *testing.T) {
	entry := TraceEntry{
		ID:        "t1",
		Timestamp: "2026-01-05T10:00:00Z",
		Direction: "received",
		Message:   json.RawMessage(resultSuccess),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	msg, err := ParseTraceEntry(line)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, ok := msg.(ResultMessage); !ok {
		t.Fatalf("expected ResultMessage, got %T", msg)
	}
}

func TestParseTraceEntry_RawFallback(t *testing.T) {
	msg, err := ParseTraceEntry([]byte(systemInit))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, ok := msg.(SystemMessage); !ok {
		t.Fatalf("expected SystemMessage, got %T", msg)
	}
}

func TestFlexibleContent_String(t *testing.T) {
	var body MessageBody
	if err := json.Unmarshal([]byte(`{"role":"user","content":"plain text"}`), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	s, ok := body.Content.AsString()
	if !ok {
		t.Fatal("expected string content")
	}
	if s != "plain text" {
		t.Errorf("unexpected content: %q", s)
	}
	if _, ok := body.Content.AsBlocks(); ok {
		t.Error("string content should not parse as blocks")
	}
}
