package claude

import (
	"encoding/json"
	"time"

	"github.com/bazelment/claude-agent-go/protocol"
)

// blockState tracks one in-flight content block during streaming.
type blockState struct {
	kind        protocol.ContentBlockType
	toolID      string
	toolName    string
	partialJSON string
}

// streamAccumulator folds stream_event partials into turn accumulation state
// and the events they imply. Only the reader goroutine touches it.
type streamAccumulator struct {
	turns  *turnManager
	blocks map[int]*blockState
}

func newStreamAccumulator(turns *turnManager) *streamAccumulator {
	return &streamAccumulator{
		turns:  turns,
		blocks: make(map[int]*blockState),
	}
}

// Process folds one stream event and returns the events to emit.
func (a *streamAccumulator) Process(ev protocol.StreamEvent) ([]Event, error) {
	data, err := ev.ParsedEvent()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	turn := a.turns.CurrentTurnNumber()

	switch e := data.(type) {
	case protocol.ContentBlockStartEvent:
		block, err := e.ParsedBlock()
		if err != nil || block == nil {
			return nil, err
		}
		switch b := block.(type) {
		case protocol.ToolUseBlock:
			a.blocks[e.Index] = &blockState{
				kind:     protocol.ContentBlockTypeToolUse,
				toolID:   b.ID,
				toolName: b.Name,
			}
			a.turns.GetOrCreateTool(b.ID, b.Name)
			return []Event{ToolStartEvent{
				ID:         b.ID,
				Name:       b.Name,
				TurnNumber: turn,
				Timestamp:  time.Now(),
			}}, nil
		case protocol.TextBlock:
			a.blocks[e.Index] = &blockState{kind: protocol.ContentBlockTypeText}
			if b.Text != "" {
				full := a.turns.AppendStreamedText(b.Text)
				return []Event{TextEvent{Text: b.Text, FullText: full, TurnNumber: turn}}, nil
			}
		case protocol.ThinkingBlock:
			a.blocks[e.Index] = &blockState{kind: protocol.ContentBlockTypeThinking}
		}
		return nil, nil

	case protocol.ContentBlockDeltaEvent:
		delta, err := e.ParsedDelta()
		if err != nil || delta == nil {
			return nil, err
		}
		switch d := delta.(type) {
		case protocol.TextDelta:
			full := a.turns.AppendStreamedText(d.Text)
			return []Event{TextEvent{Text: d.Text, FullText: full, TurnNumber: turn}}, nil
		case protocol.ThinkingDelta:
			full := a.turns.AppendThinking(d.Thinking)
			return []Event{ThinkingEvent{Thinking: d.Thinking, FullThinking: full, TurnNumber: turn}}, nil
		case protocol.InputJSONDelta:
			state := a.blocks[e.Index]
			if state == nil || state.kind != protocol.ContentBlockTypeToolUse {
				return nil, nil
			}
			state.partialJSON += d.PartialJSON
			if t := a.turns.GetTool(state.toolID); t != nil {
				t.PartialJSON = state.partialJSON
			}
			return []Event{ToolProgressEvent{
				ID:           state.toolID,
				Name:         state.toolName,
				PartialInput: state.partialJSON,
				InputChunk:   d.PartialJSON,
				TurnNumber:   turn,
			}}, nil
		}
		return nil, nil

	case protocol.ContentBlockStopEvent:
		state := a.blocks[e.Index]
		delete(a.blocks, e.Index)
		if state == nil || state.kind != protocol.ContentBlockTypeToolUse {
			return nil, nil
		}

		var input map[string]interface{}
		if state.partialJSON != "" {
			// Partial JSON that never completed stays nil.
			_ = json.Unmarshal([]byte(state.partialJSON), &input)
		}
		if t := a.turns.GetTool(state.toolID); t != nil {
			t.Input = input
		}
		return []Event{ToolCompleteEvent{
			ID:         state.toolID,
			Name:       state.toolName,
			Input:      input,
			TurnNumber: turn,
			Timestamp:  time.Now(),
		}}, nil

	case protocol.MessageStopEvent:
		a.blocks = make(map[int]*blockState)
		return nil, nil
	}

	return nil, nil
}
