package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
)

// HookEvent identifies a point in the agent's tool-execution lifecycle.
type HookEvent string

const (
	HookEventPreToolUse       HookEvent = "PreToolUse"
	HookEventPostToolUse      HookEvent = "PostToolUse"
	HookEventUserPromptSubmit HookEvent = "UserPromptSubmit"
	HookEventNotification     HookEvent = "Notification"
	HookEventStop             HookEvent = "Stop"
	HookEventSubagentStop     HookEvent = "SubagentStop"
	HookEventPreCompact       HookEvent = "PreCompact"
	HookEventSessionStart     HookEvent = "SessionStart"
	HookEventSessionEnd       HookEvent = "SessionEnd"
)

// HookInput is the payload of a hook_callback control request. ToolInput and
// ToolResponse are populated for the tool lifecycle events; other event kinds
// arrive with only Raw set.
type HookInput struct {
	Event        HookEvent
	ToolName     string
	ToolUseID    string
	ToolInput    map[string]interface{}
	ToolResponse interface{}

	// Raw is the full wire payload, preserving fields not modeled above.
	Raw json.RawMessage
}

// HookOutput is the result of a hook callback. The zero value means
// "continue unchanged".
type HookOutput struct {
	// Continue defaults to true when nil.
	Continue *bool
	Decision string
	Reason   string

	// PermissionDecision and UpdatedInput feed the permission-specific
	// nested output; UpdatedInput (when non-nil) replaces the tool
	// invocation's input before execution proceeds.
	PermissionDecision string
	UpdatedInput       map[string]interface{}
}

// Blocked reports whether the output blocks the operation.
func (o HookOutput) Blocked() bool {
	return o.Continue != nil && !*o.Continue
}

// HookCallback is a caller-supplied hook. It must be safe for concurrent use:
// callbacks run on the handler pool, not the reader.
type HookCallback func(ctx context.Context, input HookInput) (HookOutput, error)

// hookRegistration is one (event, pattern, callback) entry.
type hookRegistration struct {
	id       string
	event    HookEvent
	pattern  *regexp.Regexp // nil matches any tool
	callback HookCallback
}

func (r *hookRegistration) matches(toolName string) bool {
	if r.pattern == nil {
		return true
	}
	return r.pattern.MatchString(toolName)
}

// hookMatcherConfig is one matcher entry in the initialize advertisement.
type hookMatcherConfig struct {
	Matcher         string   `json:"matcher,omitempty"`
	HookCallbackIDs []string `json:"hookCallbackIds"`
}

// hookRegistry holds hook registrations. Registration is copy-on-write:
// dispatch snapshots the list once per inbound request.
type hookRegistry struct {
	mu      sync.Mutex
	entries []*hookRegistration
	nextID  int
}

func newHookRegistry() *hookRegistry {
	return &hookRegistry{}
}

// Register adds a callback for event. toolPattern is a regular expression
// matched against tool names ("" matches any tool; alternation like
// "Write|Edit" is allowed). Returns the stable callback identifier
// advertised to the process.
func (h *hookRegistry) Register(event HookEvent, toolPattern string, cb HookCallback) (string, error) {
	var re *regexp.Regexp
	if toolPattern != "" {
		var err error
		re, err = regexp.Compile(toolPattern)
		if err != nil {
			return "", fmt.Errorf("invalid tool pattern %q: %w", toolPattern, err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := fmt.Sprintf("hook_%d", h.nextID)
	h.nextID++

	entries := make([]*hookRegistration, len(h.entries), len(h.entries)+1)
	copy(entries, h.entries)
	h.entries = append(entries, &hookRegistration{
		id:       id,
		event:    event,
		pattern:  re,
		callback: cb,
	})
	return id, nil
}

// Unregister removes a registration by identifier.
func (h *hookRegistry) Unregister(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, e := range h.entries {
		if e.id == id {
			entries := make([]*hookRegistration, 0, len(h.entries)-1)
			entries = append(entries, h.entries[:i]...)
			entries = append(entries, h.entries[i+1:]...)
			h.entries = entries
			return true
		}
	}
	return false
}

// Empty reports whether no hooks are registered.
func (h *hookRegistry) Empty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries) == 0
}

func (h *hookRegistry) snapshot() []*hookRegistration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries
}

// BuildConfiguration maps each event kind to its matcher entries. This is the
// hooks payload of the initialize control request; nil when empty.
func (h *hookRegistry) BuildConfiguration() map[string][]hookMatcherConfig {
	entries := h.snapshot()
	if len(entries) == 0 {
		return nil
	}

	cfg := make(map[string][]hookMatcherConfig)
	for _, e := range entries {
		matcher := ""
		if e.pattern != nil {
			matcher = e.pattern.String()
		}
		cfg[string(e.event)] = append(cfg[string(e.event)], hookMatcherConfig{
			Matcher:         matcher,
			HookCallbackIDs: []string{e.id},
		})
	}
	return cfg
}

// Execute runs the hook(s) for an inbound hook_callback request.
//
// The registration named by callbackID anchors the event kind; every
// registration for that event whose pattern matches the tool name is invoked
// in registration order and the outputs are merged: any continue=false
// blocks, any non-nil updated input wins, the last non-empty reason wins.
// When the input carries a tool name no registration matches, nothing is
// invoked and the zero (continue) output is returned.
func (h *hookRegistry) Execute(ctx context.Context, callbackID string, input HookInput) (HookOutput, error) {
	entries := h.snapshot()

	var anchor *hookRegistration
	for _, e := range entries {
		if e.id == callbackID {
			anchor = e
			break
		}
	}
	if anchor == nil {
		return HookOutput{}, fmt.Errorf("unknown hook callback %q", callbackID)
	}
	input.Event = anchor.event

	var matched []*hookRegistration
	if input.ToolName == "" {
		matched = []*hookRegistration{anchor}
	} else {
		for _, e := range entries {
			if e.event == anchor.event && e.matches(input.ToolName) {
				matched = append(matched, e)
			}
		}
	}

	var merged HookOutput
	for _, e := range matched {
		out, err := e.callback(ctx, input)
		if err != nil {
			return HookOutput{}, err
		}
		merged = mergeHookOutputs(merged, out)
		if merged.Blocked() {
			break
		}
	}
	return merged, nil
}

func mergeHookOutputs(acc, next HookOutput) HookOutput {
	if next.Continue != nil && !*next.Continue {
		acc.Continue = next.Continue
	}
	if next.UpdatedInput != nil {
		acc.UpdatedInput = next.UpdatedInput
	}
	if next.Reason != "" {
		acc.Reason = next.Reason
	}
	if next.Decision != "" {
		acc.Decision = next.Decision
	}
	if next.PermissionDecision != "" {
		acc.PermissionDecision = next.PermissionDecision
	}
	return acc
}

// parseHookInput decodes the raw input of a hook_callback request.
func parseHookInput(raw json.RawMessage) HookInput {
	input := HookInput{Raw: raw}
	if len(raw) == 0 {
		return input
	}

	var wire struct {
		HookEventName string                 `json:"hook_event_name"`
		ToolName      string                 `json:"tool_name"`
		ToolUseID     string                 `json:"tool_use_id"`
		ToolInput     map[string]interface{} `json:"tool_input"`
		ToolResponse  interface{}            `json:"tool_response"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return input
	}

	input.Event = HookEvent(wire.HookEventName)
	input.ToolName = wire.ToolName
	input.ToolUseID = wire.ToolUseID
	input.ToolInput = wire.ToolInput
	input.ToolResponse = wire.ToolResponse
	return input
}

// wireHookOutput is the control-response payload shape for a hook result.
type wireHookOutput struct {
	Continue           bool                    `json:"continue"`
	Decision           string                  `json:"decision,omitempty"`
	Reason             string                  `json:"reason,omitempty"`
	HookSpecificOutput *wireHookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

type wireHookSpecificOutput struct {
	HookEventName            string                 `json:"hookEventName"`
	PermissionDecision       string                 `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string                 `json:"permissionDecisionReason,omitempty"`
	UpdatedInput             map[string]interface{} `json:"updatedInput,omitempty"`
}

// encodeHookOutput translates a HookOutput into its wire form.
func encodeHookOutput(event HookEvent, out HookOutput) wireHookOutput {
	wire := wireHookOutput{
		Continue: !out.Blocked(),
		Decision: out.Decision,
		Reason:   out.Reason,
	}
	if out.PermissionDecision != "" || out.UpdatedInput != nil {
		wire.HookSpecificOutput = &wireHookSpecificOutput{
			HookEventName:            string(event),
			PermissionDecision:       out.PermissionDecision,
			PermissionDecisionReason: out.Reason,
			UpdatedInput:             out.UpdatedInput,
		}
	}
	return wire
}
