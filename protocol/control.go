package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// ControlRequest is a control-plane request from the CLI to the caller.
// The inner request object is classified further by its subtype.
type ControlRequest struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"request_id"`
	Request   json.RawMessage `json:"request"`
}

func (m ControlRequest) MsgType() MessageType { return MessageTypeControlRequest }

// ParsedRequest classifies the inner request of a ControlRequest.
func (m ControlRequest) ParsedRequest() (ControlRequestData, error) {
	return ParseControlRequest(m.Request)
}

// ControlRequestSubtype is the subtype of a control request.
type ControlRequestSubtype string

const (
	ControlRequestSubtypeCanUseTool   ControlRequestSubtype = "can_use_tool"
	ControlRequestSubtypeHookCallback ControlRequestSubtype = "hook_callback"
	ControlRequestSubtypeInitialize   ControlRequestSubtype = "initialize"
	ControlRequestSubtypeMCPMessage   ControlRequestSubtype = "mcp_message"

	// Outbound-only subtypes.
	ControlRequestSubtypeInterrupt         ControlRequestSubtype = "interrupt"
	ControlRequestSubtypeSetPermissionMode ControlRequestSubtype = "set_permission_mode"
	ControlRequestSubtypeSetModel          ControlRequestSubtype = "set_model"
)

// ControlRequestData is the interface for inner control request variants.
type ControlRequestData interface {
	Subtype() ControlRequestSubtype
}

// CanUseToolRequest asks the caller to approve or deny a tool invocation.
type CanUseToolRequest struct {
	Input                 map[string]interface{} `json:"input"`
	BlockedPath           *string                `json:"blocked_path,omitempty"`
	SubtypeField          ControlRequestSubtype  `json:"subtype"`
	ToolName              string                 `json:"tool_name"`
	ToolUseID             string                 `json:"tool_use_id,omitempty"`
	PermissionSuggestions []interface{}          `json:"permission_suggestions,omitempty"`
}

func (r CanUseToolRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// HookCallbackRequest asks the caller to execute a registered hook callback.
// Input carries the hook-specific payload (tool_name, tool_input, ...).
type HookCallbackRequest struct {
	SubtypeField ControlRequestSubtype `json:"subtype"`
	CallbackID   string                `json:"callback_id"`
	ToolUseID    string                `json:"tool_use_id,omitempty"`
	Input        json.RawMessage       `json:"input"`
}

func (r HookCallbackRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// InitializeRequest is the CLI announcing its capabilities to the caller.
// The payload shape varies by CLI version, so it is kept raw.
type InitializeRequest struct {
	SubtypeField ControlRequestSubtype `json:"subtype"`
	Capabilities json.RawMessage       `json:"capabilities,omitempty"`
}

func (r InitializeRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// InterruptRequest is an interrupt echoed back over the control plane.
type InterruptRequest struct {
	SubtypeField ControlRequestSubtype `json:"subtype"`
}

func (r InterruptRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// ParseControlRequest classifies the inner request of a control_request.
// Unknown subtypes are logged and skipped with a nil result.
func ParseControlRequest(data json.RawMessage) (ControlRequestData, error) {
	var base struct {
		Subtype ControlRequestSubtype `json:"subtype"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Subtype {
	case ControlRequestSubtypeCanUseTool:
		var r CanUseToolRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ControlRequestSubtypeHookCallback:
		var r HookCallbackRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ControlRequestSubtypeInitialize:
		var r InitializeRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ControlRequestSubtypeMCPMessage:
		var r MCPMessageRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ControlRequestSubtypeInterrupt:
		var r InterruptRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		slog.Warn("skipping unknown control request subtype", "subtype", base.Subtype)
		return nil, nil
	}
}

// ControlResponse is the CLI's reply to a caller-initiated control request.
type ControlResponse struct {
	Type MessageType `json:"type"`
	// RequestID appears at the top level in some CLI versions; the
	// payload-level request_id is authoritative when both are present.
	RequestID string                 `json:"request_id,omitempty"`
	Response  ControlResponsePayload `json:"response"`
}

func (m ControlResponse) MsgType() MessageType { return MessageTypeControlResponse }

// CorrelationID returns the request identifier this response resolves.
func (m ControlResponse) CorrelationID() string {
	if m.Response.RequestID != "" {
		return m.Response.RequestID
	}
	return m.RequestID
}

// Marshal serializes the control response to a JSON line ready for the framer.
func (m ControlResponse) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal ControlResponse: %w", err)
	}
	return b, nil
}

// ControlResponsePayload is the inner response payload. Subtype is "success"
// or "error"; exactly one of Response and Error is meaningful.
type ControlResponsePayload struct {
	Subtype   string      `json:"subtype"`
	RequestID string      `json:"request_id"`
	Response  interface{} `json:"response,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// PermissionBehavior is the behavior of a permission response.
type PermissionBehavior string

const (
	PermissionBehaviorAllow PermissionBehavior = "allow"
	PermissionBehaviorDeny  PermissionBehavior = "deny"
)

// PermissionResultAllow grants tool execution.
// The wire format requires updatedInput to be an object, never null; the
// original input is used as fallback.
type PermissionResultAllow struct {
	Behavior           PermissionBehavior     `json:"behavior"`
	UpdatedInput       map[string]interface{} `json:"updatedInput"`
	UpdatedPermissions []PermissionUpdate     `json:"updatedPermissions,omitempty"`
}

// PermissionResultDeny blocks tool execution.
type PermissionResultDeny struct {
	Behavior  PermissionBehavior `json:"behavior"`
	Message   string             `json:"message,omitempty"`
	Interrupt bool               `json:"interrupt,omitempty"`
}

// PermissionUpdate describes a permission rule update.
type PermissionUpdate struct {
	Type        string           `json:"type"`
	Behavior    string           `json:"behavior,omitempty"`
	Mode        string           `json:"mode,omitempty"`
	Destination string           `json:"destination,omitempty"`
	Rules       []PermissionRule `json:"rules,omitempty"`
	Directories []string         `json:"directories,omitempty"`
}

// PermissionRule describes a single permission rule.
type PermissionRule struct {
	ToolName    string `json:"tool_name"`
	RuleContent string `json:"rule_content,omitempty"`
}

// ControlRequestToSend is a caller-initiated control request envelope.
type ControlRequestToSend struct {
	Request   interface{} `json:"request"`
	Type      string      `json:"type"`
	RequestID string      `json:"request_id"`
}

// Marshal serializes the control request to a JSON line ready for the framer.
func (m ControlRequestToSend) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal ControlRequestToSend: %w", err)
	}
	return b, nil
}

// InitializeRequestToSend is the request body for the session handshake.
// Hooks maps each hook event name to its matcher configuration; it is
// present only when at least one hook is registered.
type InitializeRequestToSend struct {
	Subtype string      `json:"subtype"`
	Hooks   interface{} `json:"hooks,omitempty"`
}

// SetPermissionModeRequestToSend is the request body for changing the
// permission mode mid-session.
type SetPermissionModeRequestToSend struct {
	Subtype string `json:"subtype"`
	Mode    string `json:"mode"`
}

// InterruptRequestToSend is the request body for interrupting the turn.
type InterruptRequestToSend struct {
	Subtype string `json:"subtype"`
}

// SetModelRequestToSend is the request body for switching the model.
type SetModelRequestToSend struct {
	Subtype string `json:"subtype"`
	Model   string `json:"model"`
}

// ToolUseRequest is the flattened form of a can_use_tool control request.
type ToolUseRequest struct {
	Input       map[string]interface{}
	BlockedPath *string
	Suggestions []interface{}
	RequestID   string
	ToolUseID   string
	ToolName    string
}

// ParseToolUseRequest extracts tool use information from a control request.
// Returns nil if the request is not a can_use_tool request.
func ParseToolUseRequest(msg ControlRequest) *ToolUseRequest {
	reqData, err := ParseControlRequest(msg.Request)
	if err != nil {
		return nil
	}

	canUseTool, ok := reqData.(CanUseToolRequest)
	if !ok {
		return nil
	}

	return &ToolUseRequest{
		RequestID:   msg.RequestID,
		ToolName:    canUseTool.ToolName,
		ToolUseID:   canUseTool.ToolUseID,
		Input:       canUseTool.Input,
		BlockedPath: canUseTool.BlockedPath,
		Suggestions: canUseTool.PermissionSuggestions,
	}
}
