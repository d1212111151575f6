package claude

import (
	"context"
	"sync"
	"time"
)

// TurnUsage summarizes token and cost counters for one turn.
type TurnUsage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
	CostUSD         float64
}

// TurnResult is the outcome of one completed turn.
type TurnResult struct {
	Error         error
	Text          string
	Thinking      string
	ContentBlocks []ContentBlock
	Usage         TurnUsage
	TurnNumber    int
	DurationMs    int64
	Success       bool
}

// toolState tracks one tool invocation within a turn.
type toolState struct {
	Input       map[string]interface{}
	ID          string
	Name        string
	PartialJSON string
}

// turnState is the accumulation state for one in-flight turn.
type turnState struct {
	StartTime     time.Time
	tools         map[string]*toolState
	toolOrder     []string
	Prompt        string
	FullText      string
	FullThinking  string
	ContentBlocks []ContentBlock
	Number        int
	streamedText  int
}

// turnManager tracks turn numbering, per-turn accumulation, and completion
// waiters.
type turnManager struct {
	mu      sync.Mutex
	current *turnState
	results map[int]*TurnResult
	waiters map[int][]chan *TurnResult
	counter int
}

func newTurnManager() *turnManager {
	return &turnManager{
		results: make(map[int]*TurnResult),
		waiters: make(map[int][]chan *TurnResult),
	}
}

// StartTurn begins a new turn for prompt and returns its number.
func (tm *turnManager) StartTurn(prompt string) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.counter++
	tm.current = &turnState{
		Number:    tm.counter,
		Prompt:    prompt,
		StartTime: time.Now(),
		tools:     make(map[string]*toolState),
	}
	return tm.counter
}

// CurrentTurnNumber returns the number of the most recently started turn,
// or 0 before the first turn.
func (tm *turnManager) CurrentTurnNumber() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.counter
}

func (tm *turnManager) currentTurn() *turnState {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.current
}

// AppendText appends text, returning the turn's full text so far.
func (tm *turnManager) AppendText(text string) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return ""
	}
	tm.current.FullText += text
	return tm.current.FullText
}

// AppendStreamedText appends text delivered as a stream delta. The byte
// count is tracked so the complete assistant message that repeats the text
// can claim it instead of contributing it again.
func (tm *turnManager) AppendStreamedText(text string) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return ""
	}
	tm.current.FullText += text
	tm.current.streamedText += len(text)
	return tm.current.FullText
}

// ClaimStreamedText consumes up to n unclaimed streamed bytes, returning how
// many were claimed.
func (tm *turnManager) ClaimStreamedText(n int) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return 0
	}
	claimed := n
	if tm.current.streamedText < claimed {
		claimed = tm.current.streamedText
	}
	tm.current.streamedText -= claimed
	return claimed
}

// FullText returns the accumulated text of the current turn.
func (tm *turnManager) FullText() string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return ""
	}
	return tm.current.FullText
}

// AppendThinking appends streamed thinking, returning the full thinking so far.
func (tm *turnManager) AppendThinking(thinking string) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return ""
	}
	tm.current.FullThinking += thinking
	return tm.current.FullThinking
}

// AppendContentBlock records a structured content block for the current turn.
func (tm *turnManager) AppendContentBlock(block ContentBlock) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return
	}
	tm.current.ContentBlocks = append(tm.current.ContentBlocks, block)
}

// GetOrCreateTool returns the tool state for id, creating it if unseen.
func (tm *turnManager) GetOrCreateTool(id, name string) *toolState {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return &toolState{ID: id, Name: name}
	}
	if t, ok := tm.current.tools[id]; ok {
		return t
	}
	t := &toolState{ID: id, Name: name}
	tm.current.tools[id] = t
	tm.current.toolOrder = append(tm.current.toolOrder, id)
	return t
}

// GetTool returns the tool state for id in the current turn, or nil.
func (tm *turnManager) GetTool(id string) *toolState {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return nil
	}
	return tm.current.tools[id]
}

// CompleteTurn records the result of the current turn and wakes waiters.
func (tm *turnManager) CompleteTurn(result TurnResult) {
	tm.mu.Lock()
	tm.results[result.TurnNumber] = &result
	waiters := tm.waiters[result.TurnNumber]
	delete(tm.waiters, result.TurnNumber)
	tm.mu.Unlock()

	for _, ch := range waiters {
		ch <- &result
	}
}

// WaitForTurn blocks until turn number completes or ctx expires.
func (tm *turnManager) WaitForTurn(ctx context.Context, number int) (*TurnResult, error) {
	tm.mu.Lock()
	if result, ok := tm.results[number]; ok {
		tm.mu.Unlock()
		return result, nil
	}
	ch := make(chan *TurnResult, 1)
	tm.waiters[number] = append(tm.waiters[number], ch)
	tm.mu.Unlock()

	select {
	case result := <-ch:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FailPendingWaiters delivers a failed result to every waiter; used when the
// transport dies before a result arrives.
func (tm *turnManager) FailPendingWaiters(err error) {
	tm.mu.Lock()
	waiters := tm.waiters
	tm.waiters = make(map[int][]chan *TurnResult)
	tm.mu.Unlock()

	for n, chs := range waiters {
		result := &TurnResult{TurnNumber: n, Success: false, Error: err}
		for _, ch := range chs {
			ch <- result
		}
	}
}
