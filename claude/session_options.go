package claude

import (
	"encoding/json"
	"time"
)

// PermissionMode controls tool execution approval.
type PermissionMode string

const (
	// PermissionModeDefault prompts for each dangerous operation.
	PermissionModeDefault PermissionMode = "default"
	// PermissionModeAcceptEdits auto-approves file modifications.
	PermissionModeAcceptEdits PermissionMode = "acceptEdits"
	// PermissionModePlan reviews the plan before execution. The CLI defines
	// the semantics; the flag is passed through unchanged.
	PermissionModePlan PermissionMode = "plan"
	// PermissionModeBypass auto-approves all tools.
	PermissionModeBypass PermissionMode = "bypassPermissions"
	// PermissionModeDangerouslySkip disables the permission system entirely.
	// Maps to the dedicated --dangerously-skip-permissions flag instead of
	// --permission-mode.
	PermissionModeDangerouslySkip PermissionMode = "dangerouslySkipPermissions"
)

// SessionConfig holds session configuration. Compose it with SessionOption
// values; it is not read after Connect.
type SessionConfig struct {
	// PermissionHandler decides can_use_tool control requests. Nil allows
	// everything.
	PermissionHandler PermissionHandler

	// MCPConfig configures tool servers: external entries are serialized to
	// --mcp-config, in-process (SDK) entries are served over the control
	// protocol.
	MCPConfig *MCPConfig

	// StderrHandler receives CLI stderr chunks. Stderr is drained and logged
	// regardless; the handler is an additional tap.
	StderrHandler func([]byte)

	// RawHandler observes every parsed inbound message, including control
	// traffic. Runs inline on the dispatch path; must be fast.
	RawHandler func(interface{})

	// ExtraArgs is the escape hatch: flag name (without leading dashes) to
	// optional value. A nil value emits a bare flag.
	ExtraArgs map[string]*string

	// Env is merged over the inherited environment.
	Env map[string]string

	Model              string
	FallbackModel      string
	SystemPrompt       string
	AppendSystemPrompt string

	// Tools is the base tool set. Emitted only when ToolsSet is true; an
	// empty set then disables all tools.
	Tools    []string
	ToolsSet bool

	AllowedTools    []string
	DisallowedTools []string

	PermissionMode PermissionMode

	// PermissionPromptToolName routes permission prompts through the named
	// channel. Use "stdio" to receive can_use_tool control requests.
	PermissionPromptToolName string

	MaxTurns          int
	MaxBudgetUSD      float64
	MaxTokens         int
	MaxThinkingTokens int

	// Resume continues the named prior session; ContinueConversation resumes
	// the most recent one; ForkSession branches instead of appending.
	Resume               string
	ContinueConversation bool
	ForkSession          bool

	// JSONSchema is the structured output contract, emitted compacted.
	JSONSchema json.RawMessage

	// Agents is a pre-encoded JSON description of named sub-agent templates.
	Agents string

	AddDirs        []string
	Plugins        []string
	Settings       string
	SettingSources []string

	IncludePartialMessages bool

	WorkDir string
	CLIPath string

	// OperationTimeout bounds each caller-initiated control request.
	OperationTimeout time.Duration

	// EventBufferSize is the event channel buffer size.
	EventBufferSize int

	// RecordMessages enables trace recording under RecordingDir.
	RecordMessages bool
	RecordingDir   string
}

// SessionOption is a functional option for configuring a Session.
type SessionOption func(*SessionConfig)

// WithModel sets the model to use.
func WithModel(model string) SessionOption {
	return func(c *SessionConfig) { c.Model = model }
}

// WithFallbackModel sets the model used when the primary is overloaded.
func WithFallbackModel(model string) SessionOption {
	return func(c *SessionConfig) { c.FallbackModel = model }
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) SessionOption {
	return func(c *SessionConfig) { c.SystemPrompt = prompt }
}

// WithAppendSystemPrompt appends to the default system prompt.
func WithAppendSystemPrompt(prompt string) SessionOption {
	return func(c *SessionConfig) { c.AppendSystemPrompt = prompt }
}

// WithTools sets the base tool set. An empty list disables all tools.
func WithTools(tools ...string) SessionOption {
	return func(c *SessionConfig) {
		c.Tools = tools
		c.ToolsSet = true
	}
}

// WithAllowedTools sets the allowed-tools filter.
func WithAllowedTools(tools ...string) SessionOption {
	return func(c *SessionConfig) { c.AllowedTools = tools }
}

// WithDisallowedTools sets the disallowed-tools filter.
func WithDisallowedTools(tools ...string) SessionOption {
	return func(c *SessionConfig) { c.DisallowedTools = tools }
}

// WithPermissionMode sets the permission mode.
func WithPermissionMode(mode PermissionMode) SessionOption {
	return func(c *SessionConfig) { c.PermissionMode = mode }
}

// WithPermissionPromptTool names the permission prompt channel.
func WithPermissionPromptTool(name string) SessionOption {
	return func(c *SessionConfig) { c.PermissionPromptToolName = name }
}

// WithPermissionHandler sets the permission decision callback.
func WithPermissionHandler(h PermissionHandler) SessionOption {
	return func(c *SessionConfig) { c.PermissionHandler = h }
}

// WithMaxTurns limits the number of turns per session.
func WithMaxTurns(n int) SessionOption {
	return func(c *SessionConfig) { c.MaxTurns = n }
}

// WithMaxBudgetUSD limits cumulative spend per session.
func WithMaxBudgetUSD(limit float64) SessionOption {
	return func(c *SessionConfig) { c.MaxBudgetUSD = limit }
}

// WithMaxTokens limits output tokens per turn. Not all CLI versions accept
// the flag; it is emitted through the extra-args path.
func WithMaxTokens(n int) SessionOption {
	return func(c *SessionConfig) { c.MaxTokens = n }
}

// WithMaxThinkingTokens limits extended-thinking tokens.
func WithMaxThinkingTokens(n int) SessionOption {
	return func(c *SessionConfig) { c.MaxThinkingTokens = n }
}

// WithResume resumes the named prior session.
func WithResume(sessionID string) SessionOption {
	return func(c *SessionConfig) { c.Resume = sessionID }
}

// WithContinueConversation resumes the most recent session.
func WithContinueConversation() SessionOption {
	return func(c *SessionConfig) { c.ContinueConversation = true }
}

// WithForkSession branches from the resumed session instead of appending.
func WithForkSession() SessionOption {
	return func(c *SessionConfig) { c.ForkSession = true }
}

// WithJSONSchema sets the structured output contract.
func WithJSONSchema(schema json.RawMessage) SessionOption {
	return func(c *SessionConfig) { c.JSONSchema = schema }
}

// WithAgents sets the pre-encoded sub-agent templates JSON.
func WithAgents(agentsJSON string) SessionOption {
	return func(c *SessionConfig) { c.Agents = agentsJSON }
}

// WithMCPConfig sets the tool-server configuration.
func WithMCPConfig(cfg *MCPConfig) SessionOption {
	return func(c *SessionConfig) { c.MCPConfig = cfg }
}

// WithSDKTools is a convenience option that registers an in-process tool
// server. If the session already has an MCPConfig, the server is added to it.
func WithSDKTools(serverName string, handler SDKToolHandler) SessionOption {
	return func(c *SessionConfig) {
		if c.MCPConfig == nil {
			c.MCPConfig = NewMCPConfig()
		}
		c.MCPConfig.AddSDKServer(serverName, handler)
	}
}

// WithAddDirs grants the agent access to additional directories.
func WithAddDirs(dirs ...string) SessionOption {
	return func(c *SessionConfig) { c.AddDirs = dirs }
}

// WithPlugins loads plugin directories.
func WithPlugins(dirs ...string) SessionOption {
	return func(c *SessionConfig) { c.Plugins = dirs }
}

// WithSettings sets the settings file path.
func WithSettings(path string) SessionOption {
	return func(c *SessionConfig) { c.Settings = path }
}

// WithSettingSources sets the settings source-precedence list.
func WithSettingSources(sources ...string) SessionOption {
	return func(c *SessionConfig) { c.SettingSources = sources }
}

// WithIncludePartialMessages enables stream_event partial messages.
func WithIncludePartialMessages() SessionOption {
	return func(c *SessionConfig) { c.IncludePartialMessages = true }
}

// WithExtraArgs merges escape-hatch flags. A nil value emits a bare flag.
func WithExtraArgs(args map[string]*string) SessionOption {
	return func(c *SessionConfig) {
		if c.ExtraArgs == nil {
			c.ExtraArgs = make(map[string]*string, len(args))
		}
		for k, v := range args {
			c.ExtraArgs[k] = v
		}
	}
}

// WithEnv merges environment variables over the inherited environment.
func WithEnv(env map[string]string) SessionOption {
	return func(c *SessionConfig) {
		if c.Env == nil {
			c.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.Env[k] = v
		}
	}
}

// WithWorkDir sets the working directory.
func WithWorkDir(dir string) SessionOption {
	return func(c *SessionConfig) { c.WorkDir = dir }
}

// WithCLIPath sets a custom CLI binary path.
func WithCLIPath(path string) SessionOption {
	return func(c *SessionConfig) { c.CLIPath = path }
}

// WithOperationTimeout bounds each caller-initiated control request.
func WithOperationTimeout(d time.Duration) SessionOption {
	return func(c *SessionConfig) { c.OperationTimeout = d }
}

// WithEventBufferSize sets the event channel buffer size.
func WithEventBufferSize(size int) SessionOption {
	return func(c *SessionConfig) { c.EventBufferSize = size }
}

// WithStderrHandler taps CLI stderr output.
func WithStderrHandler(h func([]byte)) SessionOption {
	return func(c *SessionConfig) { c.StderrHandler = h }
}

// WithRawHandler observes every parsed inbound message.
func WithRawHandler(h func(interface{})) SessionOption {
	return func(c *SessionConfig) { c.RawHandler = h }
}

// WithRecording enables trace recording.
func WithRecording(dir string) SessionOption {
	return func(c *SessionConfig) {
		c.RecordMessages = true
		if dir != "" {
			c.RecordingDir = dir
		}
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() SessionConfig {
	return SessionConfig{
		PermissionMode:   PermissionModeDefault,
		OperationTimeout: 60 * time.Second,
		EventBufferSize:  100,
		RecordingDir:     ".claude-sessions",
	}
}
