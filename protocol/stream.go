package protocol

import (
	"encoding/json"
	"log/slog"
)

// StreamEvent wraps a partial streaming update for the in-flight message.
// The inner event is kept raw and classified on demand.
type StreamEvent struct {
	ParentToolUseID *string         `json:"parent_tool_use_id"`
	Type            MessageType     `json:"type"`
	SessionID       string          `json:"session_id"`
	UUID            string          `json:"uuid"`
	Event           json.RawMessage `json:"event"`
}

func (m StreamEvent) MsgType() MessageType { return MessageTypeStreamEvent }

// ParsedEvent classifies the inner event of a StreamEvent.
func (m StreamEvent) ParsedEvent() (StreamEventData, error) {
	return ParseStreamEvent(m.Event)
}

// StreamEventType discriminates between stream event kinds.
type StreamEventType string

const (
	StreamEventTypeMessageStart      StreamEventType = "message_start"
	StreamEventTypeContentBlockStart StreamEventType = "content_block_start"
	StreamEventTypeContentBlockDelta StreamEventType = "content_block_delta"
	StreamEventTypeContentBlockStop  StreamEventType = "content_block_stop"
	StreamEventTypeMessageDelta      StreamEventType = "message_delta"
	StreamEventTypeMessageStop       StreamEventType = "message_stop"
)

// StreamEventData is the interface for stream event discrimination.
type StreamEventData interface {
	EventType() StreamEventType
}

// MessageStartEvent starts a new streamed message.
type MessageStartEvent struct {
	Type    StreamEventType `json:"type"`
	Message MessageBody     `json:"message"`
}

func (e MessageStartEvent) EventType() StreamEventType { return StreamEventTypeMessageStart }

// ContentBlockStartEvent starts a content block at Index.
type ContentBlockStartEvent struct {
	Type         StreamEventType `json:"type"`
	ContentBlock json.RawMessage `json:"content_block"`
	Index        int             `json:"index"`
}

func (e ContentBlockStartEvent) EventType() StreamEventType { return StreamEventTypeContentBlockStart }

// ParsedBlock parses the content_block field.
func (e ContentBlockStartEvent) ParsedBlock() (ContentBlock, error) {
	return UnmarshalContentBlock(e.ContentBlock)
}

// ContentBlockDeltaEvent carries incremental content for the block at Index.
type ContentBlockDeltaEvent struct {
	Type  StreamEventType `json:"type"`
	Delta json.RawMessage `json:"delta"`
	Index int             `json:"index"`
}

func (e ContentBlockDeltaEvent) EventType() StreamEventType { return StreamEventTypeContentBlockDelta }

// ParsedDelta parses the delta field.
func (e ContentBlockDeltaEvent) ParsedDelta() (DeltaData, error) {
	return ParseContentBlockDelta(e.Delta)
}

// DeltaData is the interface for content block delta discrimination.
type DeltaData interface {
	DeltaType() string
}

// TextDelta is a delta containing text.
type TextDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (d TextDelta) DeltaType() string { return d.Type }

// ThinkingDelta is a delta containing thinking.
type ThinkingDelta struct {
	Type     string `json:"type"`
	Thinking string `json:"thinking"`
}

func (d ThinkingDelta) DeltaType() string { return d.Type }

// InputJSONDelta is a delta containing partial JSON for tool input.
type InputJSONDelta struct {
	Type        string `json:"type"`
	PartialJSON string `json:"partial_json"`
}

func (d InputJSONDelta) DeltaType() string { return d.Type }

// ContentBlockStopEvent marks completion of the block at Index.
type ContentBlockStopEvent struct {
	Type  StreamEventType `json:"type"`
	Index int             `json:"index"`
}

func (e ContentBlockStopEvent) EventType() StreamEventType { return StreamEventTypeContentBlockStop }

// MessageDelta contains message metadata updates.
type MessageDelta struct {
	StopReason   *string `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// MessageDeltaEvent updates message metadata mid-stream.
type MessageDeltaEvent struct {
	Type  StreamEventType `json:"type"`
	Delta MessageDelta    `json:"delta"`
	Usage Usage           `json:"usage"`
}

func (e MessageDeltaEvent) EventType() StreamEventType { return StreamEventTypeMessageDelta }

// MessageStopEvent marks message completion.
type MessageStopEvent struct {
	Type StreamEventType `json:"type"`
}

func (e MessageStopEvent) EventType() StreamEventType { return StreamEventTypeMessageStop }

// ParseContentBlockDelta parses the inner delta from a ContentBlockDeltaEvent.
// Unknown delta types are logged and skipped with a nil result.
func ParseContentBlockDelta(data json.RawMessage) (DeltaData, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case "text_delta":
		var d TextDelta
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case "thinking_delta":
		var d ThinkingDelta
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case "input_json_delta":
		var d InputJSONDelta
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		slog.Warn("skipping unknown content block delta type", "type", base.Type)
		return nil, nil
	}
}

// ParseStreamEvent parses the inner event from a StreamEvent.
// Unknown event types are logged and skipped with a nil result.
func ParseStreamEvent(data json.RawMessage) (StreamEventData, error) {
	var base struct {
		Type StreamEventType `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case StreamEventTypeMessageStart:
		var e MessageStartEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case StreamEventTypeContentBlockStart:
		var e ContentBlockStartEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case StreamEventTypeContentBlockDelta:
		var e ContentBlockDeltaEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case StreamEventTypeContentBlockStop:
		var e ContentBlockStopEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case StreamEventTypeMessageDelta:
		var e MessageDeltaEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case StreamEventTypeMessageStop:
		var e MessageStopEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	default:
		slog.Warn("skipping unknown stream event type", "type", base.Type)
		return nil, nil
	}
}
