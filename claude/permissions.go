package claude

import (
	"context"
	"fmt"

	"github.com/bazelment/claude-agent-go/protocol"
)

// PermissionContext carries request metadata into the permission callback.
type PermissionContext struct {
	// Suggestions are permission rule updates proposed by the process.
	Suggestions []interface{}
	// BlockedPath is set when the request was triggered by a path outside
	// the allowed directories.
	BlockedPath *string
	ToolUseID   string
	RequestID   string
}

// PermissionDecision is the outcome of a permission callback. Construct it
// with Allow, AllowWithInput, or Deny.
type PermissionDecision struct {
	// UpdatedInput, when non-nil, replaces the tool's input.
	UpdatedInput map[string]interface{}
	// UpdatedPermissions optionally installs permission rules alongside
	// an allow.
	UpdatedPermissions []protocol.PermissionUpdate
	Message            string
	Allowed            bool
	// Interrupt asks the agent to stop the turn instead of continuing
	// past a denial.
	Interrupt bool
}

// Allow grants the tool invocation unchanged.
func Allow() PermissionDecision {
	return PermissionDecision{Allowed: true}
}

// AllowWithInput grants the invocation with a replacement input.
func AllowWithInput(input map[string]interface{}) PermissionDecision {
	return PermissionDecision{Allowed: true, UpdatedInput: input}
}

// Deny blocks the invocation with a human-readable reason.
func Deny(message string) PermissionDecision {
	return PermissionDecision{Message: message}
}

// PermissionHandler decides whether a tool may run. It runs on the handler
// pool; blocking is allowed but delays the agent.
type PermissionHandler func(ctx context.Context, toolName string, input map[string]interface{}, pc PermissionContext) (PermissionDecision, error)

// permissionManager answers can_use_tool control requests.
type permissionManager struct {
	handler PermissionHandler
}

func newPermissionManager(handler PermissionHandler) *permissionManager {
	return &permissionManager{handler: handler}
}

// HandleRequest produces the control response for a tool use request.
// Without a handler the default is allow. A handler error becomes a deny
// carrying the error text; the callback's result is never rewritten.
func (m *permissionManager) HandleRequest(ctx context.Context, req *protocol.ToolUseRequest) protocol.ControlResponse {
	if m.handler == nil {
		return protocol.NewPermissionAllow(req.RequestID, req.Input, nil)
	}

	pc := PermissionContext{
		Suggestions: req.Suggestions,
		BlockedPath: req.BlockedPath,
		ToolUseID:   req.ToolUseID,
		RequestID:   req.RequestID,
	}

	decision, err := m.handler(ctx, req.ToolName, req.Input, pc)
	if err != nil {
		return protocol.NewPermissionDeny(req.RequestID, fmt.Sprintf("callback error: %v", err), false)
	}

	if !decision.Allowed {
		return protocol.NewPermissionDeny(req.RequestID, decision.Message, decision.Interrupt)
	}

	input := decision.UpdatedInput
	if input == nil {
		input = req.Input
	}
	return protocol.NewPermissionAllow(req.RequestID, input, decision.UpdatedPermissions)
}
