package claude

import "encoding/json"

// MCPServerType identifies how an MCP server is reached.
type MCPServerType string

const (
	MCPServerTypeStdio MCPServerType = "stdio"
	MCPServerTypeHTTP  MCPServerType = "http"
	MCPServerTypeSSE   MCPServerType = "sse"
	// MCPServerTypeSDK marks an in-process server whose traffic is routed
	// over the session's control protocol instead of a separate transport.
	MCPServerTypeSDK MCPServerType = "sdk"
)

// MCPServerConfig is the interface implemented by per-transport server configs.
type MCPServerConfig interface {
	serverType() MCPServerType
}

// MCPStdioServerConfig launches an external MCP server as a subprocess.
type MCPStdioServerConfig struct {
	Env     map[string]string `json:"env,omitempty"`
	Type    MCPServerType     `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
}

func (c MCPStdioServerConfig) serverType() MCPServerType { return MCPServerTypeStdio }

// MCPHTTPServerConfig connects to an MCP server over streamable HTTP.
type MCPHTTPServerConfig struct {
	Headers map[string]string `json:"headers,omitempty"`
	Type    MCPServerType     `json:"type"`
	URL     string            `json:"url"`
}

func (c MCPHTTPServerConfig) serverType() MCPServerType { return MCPServerTypeHTTP }

// MCPSSEServerConfig connects to an MCP server over server-sent events.
type MCPSSEServerConfig struct {
	Headers map[string]string `json:"headers,omitempty"`
	Type    MCPServerType     `json:"type"`
	URL     string            `json:"url"`
}

func (c MCPSSEServerConfig) serverType() MCPServerType { return MCPServerTypeSSE }

// MCPConfig configures MCP servers for a session. External entries are passed
// to the CLI via --mcp-config; SDK entries are additionally served in-process
// over the control protocol.
type MCPConfig struct {
	MCPServers map[string]MCPServerConfig

	sdkHandlers map[string]SDKToolHandler
}

// NewMCPConfig creates an empty MCPConfig.
func NewMCPConfig() *MCPConfig {
	return &MCPConfig{
		MCPServers:  make(map[string]MCPServerConfig),
		sdkHandlers: make(map[string]SDKToolHandler),
	}
}

// AddStdioServer adds a subprocess MCP server. Returns self for chaining.
func (c *MCPConfig) AddStdioServer(name, command string, args []string) *MCPConfig {
	c.MCPServers[name] = MCPStdioServerConfig{
		Type:    MCPServerTypeStdio,
		Command: command,
		Args:    args,
	}
	return c
}

// AddHTTPServer adds a streamable-HTTP MCP server. Returns self for chaining.
func (c *MCPConfig) AddHTTPServer(name, url string) *MCPConfig {
	c.MCPServers[name] = MCPHTTPServerConfig{
		Type: MCPServerTypeHTTP,
		URL:  url,
	}
	return c
}

// AddSSEServer adds a server-sent-events MCP server. Returns self for chaining.
func (c *MCPConfig) AddSSEServer(name, url string) *MCPConfig {
	c.MCPServers[name] = MCPSSEServerConfig{
		Type: MCPServerTypeSSE,
		URL:  url,
	}
	return c
}

// AddSDKServer adds an in-process MCP server backed by handler.
// Returns self for chaining.
func (c *MCPConfig) AddSDKServer(name string, handler SDKToolHandler) *MCPConfig {
	c.MCPServers[name] = MCPSDKServerConfig{
		Type: MCPServerTypeSDK,
		Name: name,
	}
	if c.sdkHandlers == nil {
		c.sdkHandlers = make(map[string]SDKToolHandler)
	}
	c.sdkHandlers[name] = handler
	return c
}

// SDKHandlers returns the registered in-process tool handlers by server name.
func (c *MCPConfig) SDKHandlers() map[string]SDKToolHandler {
	return c.sdkHandlers
}

// HasServers reports whether any server is configured.
func (c *MCPConfig) HasServers() bool {
	return c != nil && len(c.MCPServers) > 0
}

// MarshalJSON implements json.Marshaler in the CLI's --mcp-config shape.
func (c *MCPConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	}{
		MCPServers: c.MCPServers,
	})
}
