package claude

import (
	"context"
	"strings"
	"sync"

	"github.com/bazelment/claude-agent-go/protocol"
)

// ReactiveSession wraps a Session with lazy per-turn producers and
// client-level message handlers.
type ReactiveSession struct {
	session *Session
}

// NewReactiveSession creates a reactive session. No IO happens until Connect.
func NewReactiveSession(opts ...SessionOption) *ReactiveSession {
	return &ReactiveSession{session: NewSession(opts...)}
}

// Connect spawns the CLI process. See Session.Connect.
func (r *ReactiveSession) Connect(ctx context.Context, initialPrompt ...string) error {
	return r.session.Connect(ctx, initialPrompt...)
}

// Session returns the underlying session.
func (r *ReactiveSession) Session() *Session {
	return r.session
}

// OnMessage registers a handler invoked before each regular data-plane
// message is forwarded to the turn subscriber. It runs inline on the
// dispatch path and must be fast.
func (r *ReactiveSession) OnMessage(fn func(protocol.Message)) {
	r.session.mu.Lock()
	r.session.onMessage = fn
	r.session.mu.Unlock()
}

// OnResult registers a handler invoked for every result message. It runs
// inline on the dispatch path and must be fast.
func (r *ReactiveSession) OnResult(fn func(protocol.ResultMessage)) {
	r.session.mu.Lock()
	r.session.onResult = fn
	r.session.mu.Unlock()
}

// Interrupt asks the agent to stop the current turn.
func (r *ReactiveSession) Interrupt(ctx context.Context) error {
	return r.session.Interrupt(ctx)
}

// SetPermissionMode changes the permission mode.
func (r *ReactiveSession) SetPermissionMode(ctx context.Context, mode PermissionMode) error {
	return r.session.SetPermissionMode(ctx, mode)
}

// SetModel switches the active model.
func (r *ReactiveSession) SetModel(ctx context.Context, model string) error {
	return r.session.SetModel(ctx, model)
}

// Close tears the session down.
func (r *ReactiveSession) Close() error {
	return r.session.Close()
}

// Turn prepares a turn for prompt without sending anything. The query is
// sent when one of the TurnSpec producers is first subscribed.
func (r *ReactiveSession) Turn(prompt string) *TurnSpec {
	return &TurnSpec{session: r.session, prompt: prompt}
}

// TurnSpec is a lazily-sent turn. Subscribing to any producer takes the turn
// slot, sends the query if not already sent, and streams until the turn's
// result.
type TurnSpec struct {
	session *Session
	prompt  string

	mu   sync.Mutex
	sent bool
}

// subscribe takes the turn slot and sends the prompt on first use.
// Slot first, send second: messages of the turn cannot be missed.
func (t *TurnSpec) subscribe(ctx context.Context) (*turnSubscriber, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub := t.session.router.Subscribe()
	if !t.sent {
		if _, err := t.session.Query(ctx, t.prompt); err != nil {
			sub.complete(nil)
			return nil, err
		}
		t.sent = true
	}
	return sub, nil
}

// Messages yields every regular message of the turn, closing after the
// result.
func (t *TurnSpec) Messages(ctx context.Context) (<-chan protocol.Message, error) {
	sub, err := t.subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan protocol.Message)
	go func() {
		defer close(out)
		for {
			msg, err := sub.Next(ctx)
			if msg == nil {
				if err != nil {
					t.session.emitError(err, "turn_messages")
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
	return out, nil
}

// TextStream yields assistant text fragments as they arrive, closing after
// the result.
func (t *TurnSpec) TextStream(ctx context.Context) (<-chan string, error) {
	sub, err := t.subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		streamed := 0
		for {
			msg, err := sub.Next(ctx)
			if msg == nil {
				if err != nil {
					t.session.emitError(err, "turn_text_stream")
				}
				return
			}

			for _, fragment := range textFragments(msg, &streamed) {
				select {
				case out <- fragment:
				case <-ctx.Done():
					sub.complete(nil)
					return
				}
			}
		}
	}()
	return out, nil
}

// Text blocks until the turn completes and returns all assistant text joined.
func (t *TurnSpec) Text(ctx context.Context) (string, error) {
	sub, err := t.subscribe(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	streamed := 0
	for {
		msg, err := sub.Next(ctx)
		if msg == nil {
			return sb.String(), err
		}
		for _, fragment := range textFragments(msg, &streamed) {
			sb.WriteString(fragment)
		}
	}
}

// textFragments extracts the new assistant text a message contributes.
// streamed counts delta bytes not yet claimed by a complete assistant
// message; each complete message consumes its own streamed bytes and
// contributes only the unseen tail, so later messages in the same turn
// contribute in full.
func textFragments(msg protocol.Message, streamed *int) []string {
	switch m := msg.(type) {
	case protocol.StreamEvent:
		data, err := m.ParsedEvent()
		if err != nil || data == nil {
			return nil
		}
		deltaEvent, ok := data.(protocol.ContentBlockDeltaEvent)
		if !ok {
			return nil
		}
		delta, err := deltaEvent.ParsedDelta()
		if err != nil || delta == nil {
			return nil
		}
		if td, ok := delta.(protocol.TextDelta); ok && td.Text != "" {
			*streamed += len(td.Text)
			return []string{td.Text}
		}
		return nil

	case protocol.AssistantMessage:
		blocks, ok := m.Message.Content.AsBlocks()
		if !ok {
			return nil
		}
		var fragments []string
		for _, block := range blocks {
			tb, ok := block.(protocol.TextBlock)
			if !ok {
				continue
			}
			if *streamed >= len(tb.Text) {
				*streamed -= len(tb.Text)
				continue
			}
			fragments = append(fragments, tb.Text[*streamed:])
			*streamed = 0
		}
		return fragments
	}
	return nil
}
