// Package protocol defines the line-delimited JSON wire schema spoken by the
// Claude agent CLI in bidirectional streaming mode: data-plane conversation
// messages, control-plane request/response envelopes, MCP traffic routed over
// the control plane, and partial stream events.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType discriminates between message kinds.
type MessageType string

const (
	MessageTypeSystem          MessageType = "system"
	MessageTypeAssistant       MessageType = "assistant"
	MessageTypeUser            MessageType = "user"
	MessageTypeResult          MessageType = "result"
	MessageTypeStreamEvent     MessageType = "stream_event"
	MessageTypeControlRequest  MessageType = "control_request"
	MessageTypeControlResponse MessageType = "control_response"
)

// Message is the interface for all inbound protocol messages.
type Message interface {
	MsgType() MessageType
}

// MCPServerStatus reports an MCP server connection in the init message.
type MCPServerStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// PluginInfo reports a loaded plugin in the init message.
type PluginInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// SystemMessage carries session initialization and status events.
// The first system message of a session (subtype "init") assigns the
// session identifier.
type SystemMessage struct {
	ExitCode       *int              `json:"exit_code,omitempty"`
	UUID           string            `json:"uuid,omitempty"`
	PermissionMode string            `json:"permissionMode,omitempty"`
	AgentVersion   string            `json:"claude_code_version,omitempty"`
	CWD            string            `json:"cwd,omitempty"`
	Type           MessageType       `json:"type"`
	Subtype        string            `json:"subtype"`
	Model          string            `json:"model,omitempty"`
	SessionID      string            `json:"session_id"`
	APIKeySource   string            `json:"apiKeySource,omitempty"`
	OutputStyle    string            `json:"output_style,omitempty"`
	Tools          []string          `json:"tools,omitempty"`
	Plugins        []PluginInfo      `json:"plugins,omitempty"`
	Skills         []string          `json:"skills,omitempty"`
	Agents         []string          `json:"agents,omitempty"`
	SlashCommands  []string          `json:"slash_commands,omitempty"`
	MCPServers     []MCPServerStatus `json:"mcp_servers,omitempty"`

	// Raw preserves the original wire bytes, including fields this
	// version does not model.
	Raw json.RawMessage `json:"-"`
}

func (m SystemMessage) MsgType() MessageType { return MessageTypeSystem }

// Usage tracks token counters on a message.
type Usage struct {
	ServiceTier              string        `json:"service_tier,omitempty"`
	CacheCreation            CacheCreation `json:"cache_creation,omitempty"`
	InputTokens              int           `json:"input_tokens"`
	CacheCreationInputTokens int           `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int           `json:"cache_read_input_tokens"`
	OutputTokens             int           `json:"output_tokens"`
}

// CacheCreation contains prompt-cache creation detail.
type CacheCreation struct {
	Ephemeral5mInputTokens int `json:"ephemeral_5m_input_tokens,omitempty"`
	Ephemeral1hInputTokens int `json:"ephemeral_1h_input_tokens,omitempty"`
}

// FlexibleContent is message content that arrives either as a plain string
// or as an array of content blocks.
type FlexibleContent struct {
	raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	fc.raw = data
	return nil
}

// MarshalJSON implements json.Marshaler.
func (fc FlexibleContent) MarshalJSON() ([]byte, error) {
	if fc.raw == nil {
		return []byte("null"), nil
	}
	return fc.raw, nil
}

// IsString reports whether the content is a plain string.
func (fc FlexibleContent) IsString() bool {
	return len(fc.raw) > 0 && fc.raw[0] == '"'
}

// AsString returns the content as a string when it is one.
func (fc FlexibleContent) AsString() (string, bool) {
	if !fc.IsString() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(fc.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsBlocks returns the content as content blocks when it is an array.
func (fc FlexibleContent) AsBlocks() (ContentBlocks, bool) {
	if fc.IsString() || len(fc.raw) == 0 {
		return nil, false
	}
	var blocks ContentBlocks
	if err := json.Unmarshal(fc.raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// MessageBody is the inner message object of assistant and user messages.
type MessageBody struct {
	Model        string          `json:"model,omitempty"`
	ID           string          `json:"id,omitempty"`
	Type         string          `json:"type,omitempty"`
	Role         string          `json:"role"`
	Content      FlexibleContent `json:"content"`
	StopReason   *string         `json:"stop_reason"`
	StopSequence *string         `json:"stop_sequence"`
	Usage        Usage           `json:"usage,omitempty"`
}

// AssistantMessage is a complete assistant message.
type AssistantMessage struct {
	ParentToolUseID *string     `json:"parent_tool_use_id"`
	Type            MessageType `json:"type"`
	SessionID       string      `json:"session_id"`
	UUID            string      `json:"uuid"`
	Message         MessageBody `json:"message"`

	Raw json.RawMessage `json:"-"`
}

func (m AssistantMessage) MsgType() MessageType { return MessageTypeAssistant }

// UserMessage is a user-role message echoed by the process, typically
// carrying tool_result blocks.
type UserMessage struct {
	ParentToolUseID *string     `json:"parent_tool_use_id"`
	Type            MessageType `json:"type"`
	SessionID       string      `json:"session_id"`
	UUID            string      `json:"uuid"`
	Message         MessageBody `json:"message"`

	Raw json.RawMessage `json:"-"`
}

func (m UserMessage) MsgType() MessageType { return MessageTypeUser }

// ServerToolUseStats tracks server-side tool usage in a result.
type ServerToolUseStats struct {
	WebSearchRequests int `json:"web_search_requests,omitempty"`
	WebFetchRequests  int `json:"web_fetch_requests,omitempty"`
}

// ResultUsage is the extended usage block of a ResultMessage.
type ResultUsage struct {
	ServiceTier              string             `json:"service_tier,omitempty"`
	ServerToolUse            ServerToolUseStats `json:"server_tool_use,omitempty"`
	CacheCreation            CacheCreation      `json:"cache_creation,omitempty"`
	InputTokens              int                `json:"input_tokens"`
	CacheCreationInputTokens int                `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int                `json:"cache_read_input_tokens"`
	OutputTokens             int                `json:"output_tokens"`
}

// ModelUsage tracks per-model usage in a result.
type ModelUsage struct {
	InputTokens              int     `json:"inputTokens"`
	OutputTokens             int     `json:"outputTokens"`
	CacheReadInputTokens     int     `json:"cacheReadInputTokens"`
	CacheCreationInputTokens int     `json:"cacheCreationInputTokens"`
	WebSearchRequests        int     `json:"webSearchRequests,omitempty"`
	CostUSD                  float64 `json:"costUSD"`
	ContextWindow            int     `json:"contextWindow,omitempty"`
	MaxOutputTokens          int     `json:"maxOutputTokens,omitempty"`
}

// ResultMessage is the end-of-turn marker with completion metrics.
// StructuredOutput is free-form JSON produced under a json-schema output
// contract; it is preserved verbatim.
type ResultMessage struct {
	ModelUsage        map[string]ModelUsage `json:"modelUsage,omitempty"`
	SessionID         string                `json:"session_id"`
	Subtype           string                `json:"subtype"`
	UUID              string                `json:"uuid"`
	Type              MessageType           `json:"type"`
	Result            string                `json:"result,omitempty"`
	StructuredOutput  json.RawMessage       `json:"structured_output,omitempty"`
	PermissionDenials []interface{}         `json:"permission_denials,omitempty"`
	Usage             ResultUsage           `json:"usage"`
	TotalCostUSD      float64               `json:"total_cost_usd"`
	NumTurns          int                   `json:"num_turns"`
	DurationAPIMs     int64                 `json:"duration_api_ms"`
	DurationMs        int64                 `json:"duration_ms"`
	IsError           bool                  `json:"is_error"`

	Raw json.RawMessage `json:"-"`
}

func (m ResultMessage) MsgType() MessageType { return MessageTypeResult }

// UserMessageToSend is the outbound user message frame.
type UserMessageToSend struct {
	Message         UserMessageToSendBody `json:"message"`
	Type            string                `json:"type"`
	ParentToolUseID *string               `json:"parent_tool_use_id"`
	SessionID       string                `json:"session_id"`
}

// UserMessageToSendBody is the inner message of an outbound user frame.
// Content is either a plain string or a list of content block objects.
type UserMessageToSendBody struct {
	Content interface{} `json:"content"`
	Role    string      `json:"role"`
}

// Marshal serializes the message to a JSON line ready for the framer.
func (m UserMessageToSend) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal UserMessageToSend: %w", err)
	}
	return b, nil
}
