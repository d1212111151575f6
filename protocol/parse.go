package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// ParseMessage classifies one NDJSON line into a protocol message.
//
// Unknown top-level types are logged and skipped with a (nil, nil) result so
// newer CLI versions do not break older clients. A line that is not valid
// JSON, or a known type that fails to decode, returns an error. Data-plane
// messages keep the original line in their Raw field.
func ParseMessage(line []byte) (Message, error) {
	var base struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(line, &base); err != nil {
		return nil, fmt.Errorf("parse message type: %w", err)
	}

	switch base.Type {
	case MessageTypeSystem:
		var msg SystemMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse system message: %w", err)
		}
		msg.Raw = append(json.RawMessage(nil), line...)
		return msg, nil

	case MessageTypeAssistant:
		var msg AssistantMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse assistant message: %w", err)
		}
		msg.Raw = append(json.RawMessage(nil), line...)
		return msg, nil

	case MessageTypeUser:
		var msg UserMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse user message: %w", err)
		}
		msg.Raw = append(json.RawMessage(nil), line...)
		return msg, nil

	case MessageTypeResult:
		var msg ResultMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse result message: %w", err)
		}
		msg.Raw = append(json.RawMessage(nil), line...)
		return msg, nil

	case MessageTypeStreamEvent:
		var msg StreamEvent
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse stream event: %w", err)
		}
		return msg, nil

	case MessageTypeControlRequest:
		var msg ControlRequest
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse control request: %w", err)
		}
		return msg, nil

	case MessageTypeControlResponse:
		var msg ControlResponse
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse control response: %w", err)
		}
		return msg, nil

	default:
		slog.Debug("skipping unknown message type", "type", base.Type)
		return nil, nil
	}
}
