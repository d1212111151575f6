package protocol

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version used for MCP traffic.
const JSONRPCVersion = "2.0"

// MCPProtocolVersion is the MCP revision this client implements.
const MCPProtocolVersion = "2024-11-05"

// MCPMessageRequest is a control request with subtype "mcp_message".
// It wraps a JSON-RPC message from the CLI to an in-process MCP server.
type MCPMessageRequest struct {
	SubtypeField ControlRequestSubtype `json:"subtype"`
	ServerName   string                `json:"server_name"`
	Message      json.RawMessage       `json:"message"`
}

// Subtype returns the control request subtype.
func (r MCPMessageRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// JSONRPCRequest is a standard JSON-RPC 2.0 request. A nil ID marks a
// notification, which expects no response.
type JSONRPCRequest struct {
	ID      interface{}     `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r JSONRPCRequest) IsNotification() bool { return r.ID == nil }

// JSONRPCResponse is a standard JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	ID      interface{}   `json:"id,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	JSONRPC string        `json:"jsonrpc"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// Standard JSON-RPC error codes.
const (
	JSONRPCCodeMethodNotFound = -32601
	JSONRPCCodeInvalidParams  = -32602
	JSONRPCCodeInternalError  = -32603
)

// NewJSONRPCResult builds a success response for id.
func NewJSONRPCResult(id interface{}, result interface{}) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

// NewJSONRPCError builds an error response for id.
func NewJSONRPCError(id interface{}, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

// MCPToolDefinition describes an MCP tool exposed by an SDK server.
type MCPToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// MCPToolCallResult is the result of an MCP tools/call invocation.
type MCPToolCallResult struct {
	Content []MCPContentItem `json:"content"`
	IsError bool             `json:"isError,omitempty"`
}

// MCPContentItem is a single content item in a tool call result.
type MCPContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// NewMCPTextResult builds a tool call result holding a single text item.
func NewMCPTextResult(text string, isError bool) *MCPToolCallResult {
	return &MCPToolCallResult{
		Content: []MCPContentItem{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// MCPInitializeResult is the MCP initialize response payload.
type MCPInitializeResult struct {
	ProtocolVersion string                `json:"protocolVersion"`
	Capabilities    MCPServerCapabilities `json:"capabilities"`
	ServerInfo      MCPServerInfo         `json:"serverInfo"`
}

// MCPServerCapabilities describes server capabilities.
type MCPServerCapabilities struct {
	Tools *MCPToolsCapability `json:"tools,omitempty"`
}

// MCPToolsCapability describes tools capability.
type MCPToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// MCPServerInfo describes the server identity.
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPToolsListResult is the MCP tools/list response payload.
type MCPToolsListResult struct {
	Tools []MCPToolDefinition `json:"tools"`
}

// MCPToolsCallParams is the params for a tools/call JSON-RPC request.
type MCPToolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// MCPResponsePayload wraps an mcp_response inside a control_response.
type MCPResponsePayload struct {
	MCPResponse interface{} `json:"mcp_response"`
}
