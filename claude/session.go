// Package claude drives the Claude agent CLI over bidirectional streaming
// JSON: process supervision, control-plane correlation, hooks, permissions,
// in-process MCP tool servers, and per-turn message streams.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bazelment/claude-agent-go/protocol"
)

// SessionInfo contains session metadata from the init message.
type SessionInfo struct {
	SessionID      string
	Model          string
	WorkDir        string
	AgentVersion   string
	PermissionMode PermissionMode
	Tools          []string
}

// Session manages one conversation with the agent CLI. All methods are safe
// for concurrent use.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	transport   transport
	state       *sessionStateManager
	correlator  *correlator
	pool        *handlerPool
	hooks       *hookRegistry
	permissions *permissionManager
	turns       *turnManager
	router      *turnRouter
	accumulator *streamAccumulator
	recorder    *sessionRecorder

	events chan Event
	done   chan struct{}
	loops  sync.WaitGroup

	config SessionConfig

	mu                sync.RWMutex
	info              *SessionInfo
	onMessage         func(protocol.Message)
	onResult          func(protocol.ResultMessage)
	cumulativeCostUSD float64
}

// NewSession creates a session with options. No IO happens until Connect.
func NewSession(opts ...SessionOption) *Session {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	s := newSessionWithTransport(nil, config)
	s.transport = newProcessManager(config)
	return s
}

// newSessionWithTransport wires a session onto an arbitrary transport.
// Tests use it to drive the session from a scripted stream.
func newSessionWithTransport(tr transport, config SessionConfig) *Session {
	s := &Session{
		transport:   tr,
		config:      config,
		state:       newSessionStateManager(),
		correlator:  newCorrelator(),
		hooks:       newHookRegistry(),
		permissions: newPermissionManager(config.PermissionHandler),
		turns:       newTurnManager(),
		router:      newTurnRouter(),
		events:      make(chan Event, config.EventBufferSize),
		done:        make(chan struct{}),
	}
	s.accumulator = newStreamAccumulator(s.turns)
	return s
}

// RegisterHook registers a callback for event. toolPattern is a regular
// expression over tool names ("" matches all). Hooks registered before
// Connect are advertised to the CLI in the initialize handshake.
func (s *Session) RegisterHook(event HookEvent, toolPattern string, cb HookCallback) (string, error) {
	return s.hooks.Register(event, toolPattern, cb)
}

// UnregisterHook removes a hook registration.
func (s *Session) UnregisterHook(id string) bool {
	return s.hooks.Unregister(id)
}

// Connect spawns the CLI process and performs the handshake. If initialPrompt
// values are given, the first is sent as the opening query.
func (s *Session) Connect(ctx context.Context, initialPrompt ...string) error {
	if err := s.state.SetConnecting(); err != nil {
		return err
	}

	if s.config.RecordMessages {
		rec, err := newSessionRecorder(s.config.RecordingDir)
		if err != nil {
			slog.Warn("session recording disabled", "error", err)
		} else {
			s.recorder = rec
		}
	}

	// Handler goroutines outlive ctx; they are cancelled by Close.
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.pool = newHandlerPool()

	if err := s.transport.Start(ctx); err != nil {
		s.cancel()
		s.pool.Shutdown()
		s.state.SetClosed()
		return err
	}

	s.loops.Add(3)
	go s.readLoop()
	go s.stderrLoop()
	go s.watchExit()

	// The hooks advertisement is the only reason to handshake; without
	// registrations the CLI proceeds without one.
	if !s.hooks.Empty() {
		if err := s.sendInitialize(ctx); err != nil {
			_ = s.Close()
			return fmt.Errorf("initialize handshake failed: %w", err)
		}
	}

	if err := s.state.SetConnected(); err != nil {
		return err
	}

	if len(initialPrompt) > 0 && initialPrompt[0] != "" {
		if _, err := s.Query(ctx, initialPrompt[0]); err != nil {
			return err
		}
	}
	return nil
}

// sendInitialize advertises the hook configuration and waits for the ack.
func (s *Session) sendInitialize(ctx context.Context) error {
	id := s.correlator.NextID()
	ch, err := s.correlator.Register(id)
	if err != nil {
		return err
	}

	req := protocol.NewInitialize(id, s.hooks.BuildConfiguration())
	if err := s.writeMessage(req); err != nil {
		s.correlator.remove(id)
		return err
	}

	_, err = s.correlator.Await(ctx, id, ch, s.operationTimeout())
	return err
}

func (s *Session) operationTimeout() time.Duration {
	if s.config.OperationTimeout > 0 {
		return s.config.OperationTimeout
	}
	return 60 * time.Second
}

// Events returns the session event channel. It is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Info returns session metadata, available after the init message.
func (s *Session) Info() *SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return s.state.Current()
}

// IsConnected reports whether the session is usable for queries.
func (s *Session) IsConnected() bool {
	return s.state.IsConnected()
}

// CurrentTurnNumber returns the number of the most recently started turn.
func (s *Session) CurrentTurnNumber() int {
	return s.turns.CurrentTurnNumber()
}

// CLIArgs returns the argument vector the session spawns (or spawned) the CLI
// with. Useful for debugging flag mapping; callable before Connect.
func (s *Session) CLIArgs() ([]string, error) {
	return newProcessManager(s.config).BuildCLIArgs()
}

func (s *Session) sessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return ""
	}
	return s.info.SessionID
}

func (s *Session) checkConnected() error {
	switch s.state.Current() {
	case SessionStateConnected:
		return nil
	case SessionStateClosed:
		return ErrClosed
	default:
		return ErrNotConnected
	}
}

// Query sends a user message, starting a new turn. Returns the turn number.
// Responses are drawn via ReceiveResponse, ReceiveMessages, or Events.
func (s *Session) Query(ctx context.Context, prompt string) (int, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	turn := s.turns.StartTurn(prompt)
	s.recorder.SetTurn(turn)

	msg := protocol.NewUserTextMessage(prompt, s.sessionID())
	if err := s.writeMessage(msg); err != nil {
		return 0, err
	}
	return turn, nil
}

// QueryBlocks sends a user message carrying content blocks (tool results,
// for example). Returns the turn number.
func (s *Session) QueryBlocks(ctx context.Context, blocks []protocol.ContentBlock) (int, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	turn := s.turns.StartTurn("")
	s.recorder.SetTurn(turn)

	msg := protocol.NewUserBlocksMessage(blocks, s.sessionID())
	if err := s.writeMessage(msg); err != nil {
		return 0, err
	}
	return turn, nil
}

// Ask sends a message and blocks until the turn completes.
func (s *Session) Ask(ctx context.Context, prompt string) (*TurnResult, error) {
	turn, err := s.Query(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.turns.WaitForTurn(ctx, turn)
}

// WaitForTurn blocks until the current turn completes. Returns (nil, nil)
// when no turn has started.
func (s *Session) WaitForTurn(ctx context.Context) (*TurnResult, error) {
	turn := s.turns.CurrentTurnNumber()
	if turn == 0 {
		return nil, nil
	}
	return s.turns.WaitForTurn(ctx, turn)
}

// ReceiveResponse returns a channel yielding the messages of the current
// turn, closing after the turn's result. Installing it completes any prior
// turn subscriber.
func (s *Session) ReceiveResponse(ctx context.Context) <-chan protocol.Message {
	sub := s.router.Subscribe()
	out := make(chan protocol.Message)
	go func() {
		defer close(out)
		for {
			msg, err := sub.Next(ctx)
			if msg == nil {
				if err != nil && !errors.Is(err, context.Canceled) {
					s.emitError(err, "receive_response")
				}
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				sub.complete(nil)
				return
			}
		}
	}()
	return out
}

// ReceiveMessages returns a channel yielding every data-plane message across
// turns until ctx is done or the session closes.
func (s *Session) ReceiveMessages(ctx context.Context) <-chan protocol.Message {
	out := make(chan protocol.Message)
	go func() {
		defer close(out)
		for {
			sub := s.router.Subscribe()
			for {
				msg, err := sub.Next(ctx)
				if msg == nil {
					if err != nil {
						return
					}
					break
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					sub.complete(nil)
					return
				}
			}
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			default:
			}
		}
	}()
	return out
}

// sendControlRequest issues a caller-initiated control request and blocks
// until the CLI responds, the operation timeout fires, or ctx is done.
func (s *Session) sendControlRequest(ctx context.Context, build func(id string) protocol.ControlRequestToSend) (protocol.ControlResponsePayload, error) {
	id := s.correlator.NextID()
	ch, err := s.correlator.Register(id)
	if err != nil {
		return protocol.ControlResponsePayload{}, err
	}

	req := build(id)
	if err := s.writeMessage(req); err != nil {
		s.correlator.remove(id)
		return protocol.ControlResponsePayload{}, err
	}

	return s.correlator.Await(ctx, id, ch, s.operationTimeout())
}

// Interrupt asks the agent to stop the current turn. Blocks until the CLI
// acknowledges the request.
func (s *Session) Interrupt(ctx context.Context) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	_, err := s.sendControlRequest(ctx, protocol.NewInterrupt)
	return err
}

// SetPermissionMode changes the permission mode. Before Connect it updates
// the spawn configuration; after, it is a control request acknowledged by
// the CLI.
func (s *Session) SetPermissionMode(ctx context.Context, mode PermissionMode) error {
	if s.state.Current() == SessionStateNew {
		s.mu.Lock()
		s.config.PermissionMode = mode
		s.mu.Unlock()
		return nil
	}
	if err := s.checkConnected(); err != nil {
		return err
	}
	_, err := s.sendControlRequest(ctx, func(id string) protocol.ControlRequestToSend {
		return protocol.NewSetPermissionMode(id, string(mode))
	})
	return err
}

// SetModel switches the active model mid-session. Before Connect it updates
// the spawn configuration; after, it is a control request acknowledged by
// the CLI.
func (s *Session) SetModel(ctx context.Context, model string) error {
	if s.state.Current() == SessionStateNew {
		s.mu.Lock()
		s.config.Model = model
		s.mu.Unlock()
		return nil
	}
	if err := s.checkConnected(); err != nil {
		return err
	}
	_, err := s.sendControlRequest(ctx, func(id string) protocol.ControlRequestToSend {
		return protocol.NewSetModel(id, model)
	})
	return err
}

// Close tears the session down: pending control requests fail with
// closed-while-pending, an active turn subscriber completes with ErrClosed,
// and the process is stopped (stdin close, SIGTERM, then SIGKILL).
// Idempotent.
func (s *Session) Close() error {
	if !s.state.SetClosed() {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	close(s.done)

	var err error
	if s.transport != nil {
		err = s.transport.Stop()
	}

	// Stop unblocks the reader; join the loops and drain the handler pool
	// before closing the event channel so no in-flight emit can race the
	// close.
	s.loops.Wait()

	s.correlator.FailAll(ErrClosedWhilePending)
	s.router.FailActive(ErrClosed)
	s.turns.FailPendingWaiters(ErrClosed)

	if s.pool != nil {
		s.pool.Shutdown()
	}
	_ = s.recorder.Close()
	close(s.events)

	return err
}

// watchExit fails pending work when the process dies before Close.
func (s *Session) watchExit() {
	defer s.loops.Done()
	select {
	case <-s.done:
		return
	case <-s.transport.Done():
	}

	if s.state.IsClosed() {
		return
	}

	procErr := &ProcessError{
		Message:  "CLI process exited unexpectedly",
		Cause:    ErrProcessExited,
		ExitCode: s.transport.ExitCode(),
	}

	s.emitError(procErr, "process_exit")

	s.state.SetClosed()
	s.correlator.FailAll(ErrClosedWhilePending)
	s.router.FailActive(procErr)
	s.turns.FailPendingWaiters(procErr)
}

// readLoop consumes stdout lines until EOF or close. It blocks only on the
// framer read; everything that could block caller-side is offloaded.
func (s *Session) readLoop() {
	defer s.loops.Done()
	for {
		select {
		case <-s.done:
			return
		default:
		}

		line, err := s.transport.ReadLine()
		if err != nil {
			if err != io.EOF && !s.state.IsClosed() {
				s.emitError(err, "read_line")
			}
			return
		}
		s.handleLine(line)
	}
}

// stderrLoop drains stderr, logging chunks and feeding the optional handler.
func (s *Session) stderrLoop() {
	defer s.loops.Done()
	stderr := s.transport.Stderr()
	if stderr == nil {
		return
	}

	buf := make([]byte, 4096)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			slog.Debug("cli stderr", "output", string(chunk))
			if s.config.StderrHandler != nil {
				s.config.StderrHandler(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}

// handleLine classifies one line and routes it.
func (s *Session) handleLine(line []byte) {
	s.recorder.RecordReceived(line)

	msg, err := protocol.ParseMessage(line)
	if err != nil {
		s.emitError(&ProtocolError{
			Message: "failed to parse message",
			Line:    string(line),
			Cause:   err,
		}, "parse_message")
		return
	}
	if msg == nil {
		return // unknown type, already logged and recorded
	}

	if s.config.RawHandler != nil {
		s.config.RawHandler(msg)
	}

	s.mu.RLock()
	onMessage := s.onMessage
	onResult := s.onResult
	s.mu.RUnlock()

	switch m := msg.(type) {
	case protocol.SystemMessage:
		s.handleSystem(m)
		if onMessage != nil {
			onMessage(m)
		}
		s.router.Dispatch(m)
	case protocol.StreamEvent:
		s.handleStreamEvent(m)
		if onMessage != nil {
			onMessage(m)
		}
		s.router.Dispatch(m)
	case protocol.AssistantMessage:
		s.handleAssistant(m)
		if onMessage != nil {
			onMessage(m)
		}
		s.router.Dispatch(m)
	case protocol.UserMessage:
		s.handleUser(m)
		if onMessage != nil {
			onMessage(m)
		}
		s.router.Dispatch(m)
	case protocol.ResultMessage:
		if onResult != nil {
			onResult(m)
		}
		s.router.Dispatch(m)
		s.handleResult(m)
	case protocol.ControlRequest:
		s.handleControlRequest(m)
	case protocol.ControlResponse:
		s.correlator.Resolve(m)
	}
}

func (s *Session) handleSystem(msg protocol.SystemMessage) {
	if msg.Subtype != "init" {
		return
	}

	info := &SessionInfo{
		SessionID:      msg.SessionID,
		Model:          msg.Model,
		WorkDir:        msg.CWD,
		AgentVersion:   msg.AgentVersion,
		Tools:          msg.Tools,
		PermissionMode: PermissionMode(msg.PermissionMode),
	}

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()

	s.emit(ReadyEvent{Info: *info})
}

func (s *Session) handleStreamEvent(msg protocol.StreamEvent) {
	events, err := s.accumulator.Process(msg)
	if err != nil {
		s.emitError(&ProtocolError{Message: "failed to parse stream event", Cause: err}, "stream_event")
		return
	}
	for _, ev := range events {
		s.emit(ev)
	}
}

func (s *Session) handleAssistant(msg protocol.AssistantMessage) {
	blocks, ok := msg.Message.Content.AsBlocks()
	if !ok {
		return
	}

	turnNumber := s.turns.CurrentTurnNumber()

	for _, block := range blocks {
		switch b := block.(type) {
		case protocol.TextBlock:
			// The message claims its own streamed bytes; only the unseen
			// tail is appended and emitted, so a later assistant message in
			// the same turn contributes in full.
			claimed := s.turns.ClaimStreamedText(len(b.Text))
			if claimed < len(b.Text) {
				newText := b.Text[claimed:]
				fullText := s.turns.AppendText(newText)
				s.emit(TextEvent{Text: newText, FullText: fullText, TurnNumber: turnNumber})
			}
			s.turns.AppendContentBlock(ContentBlock{
				Type: ContentBlockTypeText,
				Text: b.Text,
			})
		case protocol.ThinkingBlock:
			s.turns.AppendContentBlock(ContentBlock{
				Type:     ContentBlockTypeThinking,
				Thinking: b.Thinking,
			})
		case protocol.ToolUseBlock:
			if tool := s.turns.GetTool(b.ID); tool == nil {
				// Tool never seen during streaming; emit both events now.
				s.turns.GetOrCreateTool(b.ID, b.Name)
				s.emit(ToolStartEvent{
					ID:         b.ID,
					Name:       b.Name,
					TurnNumber: turnNumber,
					Timestamp:  time.Now(),
				})
				s.emit(ToolCompleteEvent{
					ID:         b.ID,
					Name:       b.Name,
					Input:      b.Input,
					TurnNumber: turnNumber,
					Timestamp:  time.Now(),
				})
			} else if tool.Input == nil {
				tool.Input = b.Input
			}
			s.turns.AppendContentBlock(ContentBlock{
				Type:      ContentBlockTypeToolUse,
				ToolUseID: b.ID,
				ToolName:  b.Name,
				ToolInput: b.Input,
			})
		}
	}
}

func (s *Session) handleUser(msg protocol.UserMessage) {
	blocks, ok := msg.Message.Content.AsBlocks()
	if !ok {
		return
	}

	turnNumber := s.turns.CurrentTurnNumber()

	for _, block := range blocks {
		resultBlock, ok := block.(protocol.ToolResultBlock)
		if !ok {
			continue
		}

		toolName := "unknown"
		if tool := s.turns.GetTool(resultBlock.ToolUseID); tool != nil {
			toolName = tool.Name
		}

		isError := resultBlock.IsError != nil && *resultBlock.IsError

		s.emit(ToolResultEvent{
			ToolUseID:  resultBlock.ToolUseID,
			ToolName:   toolName,
			Content:    resultBlock.Content,
			IsError:    isError,
			TurnNumber: turnNumber,
		})

		s.turns.AppendContentBlock(ContentBlock{
			Type:       ContentBlockTypeToolResult,
			ToolUseID:  resultBlock.ToolUseID,
			ToolResult: resultBlock.Content,
			IsError:    isError,
		})
	}
}

func (s *Session) handleResult(msg protocol.ResultMessage) {
	turnNumber := s.turns.CurrentTurnNumber()
	turn := s.turns.currentTurn()

	durationMs := msg.DurationMs
	if turn != nil && durationMs == 0 {
		durationMs = time.Since(turn.StartTime).Milliseconds()
	}

	result := TurnResult{
		TurnNumber: turnNumber,
		Success:    !msg.IsError,
		DurationMs: durationMs,
		Usage: TurnUsage{
			InputTokens:     msg.Usage.InputTokens,
			OutputTokens:    msg.Usage.OutputTokens,
			CacheReadTokens: msg.Usage.CacheReadInputTokens,
			CostUSD:         msg.TotalCostUSD,
		},
	}
	if turn != nil {
		result.Text = turn.FullText
		result.Thinking = turn.FullThinking
		result.ContentBlocks = turn.ContentBlocks
	}
	if msg.IsError {
		result.Error = fmt.Errorf("%s", msg.Result)
	}

	s.mu.Lock()
	s.cumulativeCostUSD += msg.TotalCostUSD
	totalCost := s.cumulativeCostUSD
	s.mu.Unlock()

	// Library-side limits never overwrite a real CLI error.
	if result.Error == nil {
		if s.config.MaxTurns > 0 && turnNumber >= s.config.MaxTurns {
			result.Error = ErrMaxTurnsExceeded
		} else if s.config.MaxBudgetUSD > 0 && totalCost >= s.config.MaxBudgetUSD {
			result.Error = ErrBudgetExceeded
		}
	}

	s.emit(TurnCompleteEvent{
		TurnNumber: result.TurnNumber,
		Success:    result.Success,
		DurationMs: result.DurationMs,
		Usage:      result.Usage,
		Error:      result.Error,
	})

	s.turns.CompleteTurn(result)
}

// handleControlRequest dispatches a process-initiated control request onto
// the handler pool; the reader never runs caller callbacks.
func (s *Session) handleControlRequest(msg protocol.ControlRequest) {
	reqData, err := msg.ParsedRequest()
	if err != nil {
		s.sendControlResponse(protocol.NewControlError(msg.RequestID, fmt.Sprintf("malformed control request: %v", err)))
		return
	}
	if reqData == nil {
		return // unknown subtype, logged by the parser
	}

	switch req := reqData.(type) {
	case protocol.CanUseToolRequest:
		toolReq := &protocol.ToolUseRequest{
			RequestID:   msg.RequestID,
			ToolName:    req.ToolName,
			ToolUseID:   req.ToolUseID,
			Input:       req.Input,
			BlockedPath: req.BlockedPath,
			Suggestions: req.PermissionSuggestions,
		}
		s.pool.Submit(func() {
			s.sendControlResponse(s.permissions.HandleRequest(s.ctx, toolReq))
		})

	case protocol.HookCallbackRequest:
		s.pool.Submit(func() {
			input := parseHookInput(req.Input)
			if input.ToolUseID == "" {
				input.ToolUseID = req.ToolUseID
			}
			out, err := s.hooks.Execute(s.ctx, req.CallbackID, input)
			if err != nil {
				s.sendControlResponse(protocol.NewControlError(msg.RequestID, err.Error()))
				return
			}
			s.sendControlResponse(protocol.NewControlSuccess(msg.RequestID, encodeHookOutput(input.Event, out)))
		})

	case protocol.MCPMessageRequest:
		s.pool.Submit(func() {
			s.handleMCPMessage(msg.RequestID, req)
		})

	case protocol.InitializeRequest:
		s.sendControlResponse(protocol.NewControlSuccess(msg.RequestID, nil))
	}
}

// handleMCPMessage routes MCP JSON-RPC traffic wrapped in mcp_message control
// requests to the named in-process server.
//
// Methods seen during the session lifecycle: initialize (once per server),
// notifications/initialized, tools/list, and tools/call. tools/call is
// resubmitted to the handler pool because tool handlers may block for
// minutes; Close drains the pool, so the call cannot outlive the session.
func (s *Session) handleMCPMessage(requestID string, mcpReq protocol.MCPMessageRequest) {
	var handler SDKToolHandler
	if s.config.MCPConfig != nil {
		handler = s.config.MCPConfig.SDKHandlers()[mcpReq.ServerName]
	}
	if handler == nil {
		s.sendMCPError(requestID, nil, protocol.JSONRPCCodeInternalError,
			fmt.Sprintf("no SDK handler for server %q", mcpReq.ServerName))
		return
	}

	var rpcReq protocol.JSONRPCRequest
	if err := json.Unmarshal(mcpReq.Message, &rpcReq); err != nil {
		s.sendMCPError(requestID, nil, protocol.JSONRPCCodeInvalidParams, "failed to parse JSON-RPC request")
		return
	}

	switch rpcReq.Method {
	case "initialize":
		s.sendMCPResult(requestID, rpcReq.ID, buildInitializeResult(mcpReq.ServerName))

	case "notifications/initialized":
		s.sendMCPResult(requestID, rpcReq.ID, map[string]interface{}{})

	case "tools/list":
		s.sendMCPResult(requestID, rpcReq.ID, buildToolsListResult(handler))

	case "tools/call":
		s.pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					s.sendMCPError(requestID, rpcReq.ID, protocol.JSONRPCCodeInternalError,
						fmt.Sprintf("tool handler panic: %v", r))
					s.emitError(fmt.Errorf("tool handler panic: %v", r), "mcp_tool_call")
				}
			}()

			var params protocol.MCPToolsCallParams
			if err := json.Unmarshal(rpcReq.Params, &params); err != nil {
				s.sendMCPError(requestID, rpcReq.ID, protocol.JSONRPCCodeInvalidParams, "invalid tools/call params")
				return
			}

			result, err := handler.HandleToolCall(s.ctx, params.Name, params.Arguments)
			if err != nil {
				// In-band tool error so the agent can react to it.
				result = &protocol.MCPToolCallResult{
					Content: []protocol.MCPContentItem{
						{Type: "text", Text: fmt.Sprintf("Tool error: %v", err)},
					},
					IsError: true,
				}
			}
			s.sendMCPResult(requestID, rpcReq.ID, result)
		})

	default:
		s.sendMCPError(requestID, rpcReq.ID, protocol.JSONRPCCodeMethodNotFound,
			fmt.Sprintf("method not found: %s", rpcReq.Method))
	}
}

func (s *Session) sendMCPResult(requestID string, rpcID interface{}, result interface{}) {
	rpcResp := protocol.NewJSONRPCResult(rpcID, result)
	s.sendControlResponse(protocol.NewMCPResponse(requestID, rpcResp))
}

func (s *Session) sendMCPError(requestID string, rpcID interface{}, code int, message string) {
	rpcResp := protocol.NewJSONRPCError(rpcID, code, message)
	s.sendControlResponse(protocol.NewMCPResponse(requestID, rpcResp))
}

func (s *Session) sendControlResponse(resp protocol.ControlResponse) {
	if err := s.writeMessage(resp); err != nil {
		s.emitError(err, "send_control_response")
	}
}

// writeMessage serializes one frame to stdin and records it.
func (s *Session) writeMessage(v interface{}) error {
	if err := s.transport.WriteMessage(v); err != nil {
		return err
	}
	s.recorder.RecordSent(v)
	return nil
}

// emit sends an event, dropping it when the buffer is full or the session is
// closing (avoids a send on the closed events channel).
func (s *Session) emit(event Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- event:
	case <-s.done:
	default:
		slog.Debug("dropping event, buffer full", "type", fmt.Sprintf("%T", event))
	}
}

func (s *Session) emitError(err error, context string) {
	s.emit(ErrorEvent{
		Error:      err,
		Context:    context,
		TurnNumber: s.turns.CurrentTurnNumber(),
	})
}
