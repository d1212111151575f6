package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseContentBlockDelta_TextDelta(t *testing.T) {
	raw := json.RawMessage(`{"type":"text_delta","text":"hello"}`)
	d, err := ParseContentBlockDelta(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td, ok := d.(TextDelta)
	if !ok {
		t.Fatalf("expected TextDelta, got %T", d)
	}
	if td.Text != "hello" {
		t.Errorf("expected text 'hello', got %q", td.Text)
	}
	if td.DeltaType() != "text_delta" {
		t.Errorf("expected DeltaType 'text_delta', got %q", td.DeltaType())
	}
}

func TestParseContentBlockDelta_ThinkingDelta(t *testing.T) {
	raw := json.RawMessage(`{"type":"thinking_delta","thinking":"hmm"}`)
	d, err := ParseContentBlockDelta(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td, ok := d.(ThinkingDelta)
	if !ok {
		t.Fatalf("expected ThinkingDelta, got %T", d)
	}
	if td.Thinking != "hmm" {
		t.Errorf("expected thinking 'hmm', got %q", td.Thinking)
	}
}

func TestParseContentBlockDelta_Unknown(t *testing.T) {
	raw := json.RawMessage(`{"type":"future_delta","data":"x"}`)
	d, err := ParseContentBlockDelta(raw)
	if err != nil {
		t.Fatalf("unexpected error for unknown delta type: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil for unknown delta type, got %T", d)
	}
}

func TestParseContentBlockDelta_InvalidJSON(t *testing.T) {
	_, err := ParseContentBlockDelta(json.RawMessage(`not json`))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestContentBlockStartEvent_ParsedBlock_Text(t *testing.T) {
	msg, err := ParseMessage([]byte(streamContentBlockStart))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	streamEvent := msg.(StreamEvent)
	eventData, err := streamEvent.ParsedEvent()
	if err != nil {
		t.Fatalf("ParsedEvent failed: %v", err)
	}
	blockStart := eventData.(ContentBlockStartEvent)

	block, err := blockStart.ParsedBlock()
	if err != nil {
		t.Fatalf("ParsedBlock failed: %v", err)
	}
	if block == nil {
		t.Fatal("expected non-nil block")
	}
	if _, ok := block.(TextBlock); !ok {
		t.Fatalf("expected TextBlock, got %T", block)
	}
}

func TestContentBlockStartEvent_ParsedBlock_ToolUse(t *testing.T) {
	msg, err := ParseMessage([]byte(streamToolUseStart))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	streamEvent := msg.(StreamEvent)
	eventData, _ := streamEvent.ParsedEvent()
	blockStart := eventData.(ContentBlockStartEvent)

	block, err := blockStart.ParsedBlock()
	if err != nil {
		t.Fatalf("ParsedBlock failed: %v", err)
	}
	tb, ok := block.(ToolUseBlock)
	if !ok {
		t.Fatalf("expected ToolUseBlock, got %T", block)
	}
	if tb.Name != "WebSearch" {
		t.Errorf("expected name 'WebSearch', got %q", tb.Name)
	}
}

func TestContentBlockDeltaEvent_ParsedDelta_Text(t *testing.T) {
	msg, err := ParseMessage([]byte(streamTextDelta))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	streamEvent := msg.(StreamEvent)
	eventData, _ := streamEvent.ParsedEvent()
	deltaEvent := eventData.(ContentBlockDeltaEvent)

	d, err := deltaEvent.ParsedDelta()
	if err != nil {
		t.Fatalf("ParsedDelta failed: %v", err)
	}
	td, ok := d.(TextDelta)
	if !ok {
		t.Fatalf("expected TextDelta, got %T", d)
	}
	if td.Text != "I'll search for the latest news about" {
		t.Errorf("unexpected text: %q", td.Text)
	}
}

func TestContentBlockDeltaEvent_ParsedDelta_InputJSON(t *testing.T) {
	msg, err := ParseMessage([]byte(streamInputJSONDelta))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	streamEvent := msg.(StreamEvent)
	eventData, _ := streamEvent.ParsedEvent()
	deltaEvent := eventData.(ContentBlockDeltaEvent)

	d, err := deltaEvent.ParsedDelta()
	if err != nil {
		t.Fatalf("ParsedDelta failed: %v", err)
	}
	jd, ok := d.(InputJSONDelta)
	if !ok {
		t.Fatalf("expected InputJSONDelta, got %T", d)
	}
	if jd.PartialJSON != `{"query": "US ` {
		t.Errorf("unexpected partial_json: %q", jd.PartialJSON)
	}
}

func TestParseStreamEvent_MessageDelta(t *testing.T) {
	raw := json.RawMessage(`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"input_tokens":1,"output_tokens":42}}`)
	e, err := ParseStreamEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	md, ok := e.(MessageDeltaEvent)
	if !ok {
		t.Fatalf("expected MessageDeltaEvent, got %T", e)
	}
	if md.Delta.StopReason == nil || *md.Delta.StopReason != "end_turn" {
		t.Errorf("unexpected stop_reason: %v", md.Delta.StopReason)
	}
	if md.Usage.OutputTokens != 42 {
		t.Errorf("unexpected output_tokens: %d", md.Usage.OutputTokens)
	}
}

func TestParseStreamEvent_Unknown(t *testing.T) {
	e, err := ParseStreamEvent(json.RawMessage(`{"type":"ping"}`))
	if err != nil {
		t.Fatalf("unexpected error for unknown event type: %v", err)
	}
	if e != nil {
		t.Errorf("expected nil for unknown event type, got %T", e)
	}
}
