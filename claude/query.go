package claude

import (
	"context"
	"strings"

	"github.com/bazelment/claude-agent-go/protocol"
)

// QueryStatus classifies a one-shot outcome.
type QueryStatus string

const (
	// QueryStatusSuccess means assistant content arrived and the result was
	// not an error.
	QueryStatusSuccess QueryStatus = "success"
	// QueryStatusPartial means messages arrived but no assistant content.
	QueryStatusPartial QueryStatus = "partial"
	// QueryStatusError means an error result, or no messages at all.
	QueryStatusError QueryStatus = "error"
)

// QueryResult is the outcome of a one-shot Execute.
type QueryResult struct {
	Status QueryStatus
	// Text is the concatenated text of all assistant text blocks.
	Text string
	// Messages is the full ordered message list for the turn.
	Messages []protocol.Message
	// StructuredOutput is the raw structured output when a JSON schema
	// contract was set.
	StructuredOutput []byte

	SessionID  string
	Model      string
	NumTurns   int
	DurationMs int64
	CostUSD    float64
	Usage      TurnUsage
}

// Execute sends a one-shot prompt: spawn, query, collect until the result,
// close. No inter-turn state is retained. Defaults to PermissionModeBypass
// when no permission mode is specified, since there is nobody to prompt.
func Execute(ctx context.Context, prompt string, opts ...SessionOption) (*QueryResult, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.PermissionMode == PermissionModeDefault {
		opts = append([]SessionOption{WithPermissionMode(PermissionModeBypass)}, opts...)
	}

	session := NewSession(opts...)
	if err := session.Connect(ctx); err != nil {
		return nil, err
	}
	defer session.Close()

	if config.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.OperationTimeout)
		defer cancel()
	}

	stream := session.ReceiveResponse(ctx)
	if _, err := session.Query(ctx, prompt); err != nil {
		return nil, err
	}

	var messages []protocol.Message
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-stream:
			if !ok {
				return buildQueryResult(session, messages), nil
			}
			messages = append(messages, msg)
		}
	}
}

// QueryStream sends a one-shot prompt and returns an event channel. The
// session is closed when the channel is drained or ctx is done.
func QueryStream(ctx context.Context, prompt string, opts ...SessionOption) (<-chan Event, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.PermissionMode == PermissionModeDefault {
		opts = append([]SessionOption{WithPermissionMode(PermissionModeBypass)}, opts...)
	}

	session := NewSession(opts...)
	if err := session.Connect(ctx); err != nil {
		return nil, err
	}

	if _, err := session.Query(ctx, prompt); err != nil {
		session.Close()
		return nil, err
	}

	out := make(chan Event, config.EventBufferSize)
	go func() {
		defer close(out)
		defer session.Close()
		for evt := range session.Events() {
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
			if _, ok := evt.(TurnCompleteEvent); ok {
				return
			}
		}
	}()

	return out, nil
}

// buildQueryResult folds the collected messages into a QueryResult.
func buildQueryResult(session *Session, messages []protocol.Message) *QueryResult {
	qr := &QueryResult{Messages: messages}

	if info := session.Info(); info != nil {
		qr.SessionID = info.SessionID
		qr.Model = info.Model
	}

	var texts []string
	sawAssistant := false
	var result *protocol.ResultMessage

	for _, msg := range messages {
		switch m := msg.(type) {
		case protocol.AssistantMessage:
			sawAssistant = true
			if blocks, ok := m.Message.Content.AsBlocks(); ok {
				for _, block := range blocks {
					if tb, ok := block.(protocol.TextBlock); ok {
						texts = append(texts, tb.Text)
					}
				}
			}
		case protocol.ResultMessage:
			result = &m
		}
	}

	qr.Text = strings.Join(texts, "")
	if result != nil {
		qr.NumTurns = result.NumTurns
		qr.DurationMs = result.DurationMs
		qr.CostUSD = result.TotalCostUSD
		qr.StructuredOutput = result.StructuredOutput
		qr.Usage = TurnUsage{
			InputTokens:     result.Usage.InputTokens,
			OutputTokens:    result.Usage.OutputTokens,
			CacheReadTokens: result.Usage.CacheReadInputTokens,
			CostUSD:         result.TotalCostUSD,
		}
		if result.SessionID != "" {
			qr.SessionID = result.SessionID
		}
	}

	qr.Status = computeStatus(sawAssistant, result, len(messages))
	return qr
}

// computeStatus applies the one-shot status taxonomy.
func computeStatus(sawAssistant bool, result *protocol.ResultMessage, numMessages int) QueryStatus {
	if numMessages == 0 {
		return QueryStatusError
	}
	if result != nil && result.IsError {
		return QueryStatusError
	}
	if sawAssistant {
		return QueryStatusSuccess
	}
	return QueryStatusPartial
}
