package agentstream

// EventKind identifies the common event category for host bridging.
type EventKind int

const (
	// KindUnknown is the zero value; bridges skip events returning it.
	KindUnknown EventKind = iota
	KindText
	KindThinking
	KindToolStart
	KindToolEnd
	KindTurnComplete
	KindError
)

// Event is the common interface session event types implement to participate
// in a host bridge. Events that don't implement it are silently skipped.
type Event interface {
	StreamEventKind() EventKind
}

// Text provides streaming text deltas.
type Text interface {
	Event
	StreamDelta() string
}

// ToolStart provides tool invocation start metadata.
type ToolStart interface {
	Event
	StreamToolName() string
	StreamToolCallID() string
	StreamToolInput() map[string]interface{}
}

// ToolEnd provides tool invocation completion metadata.
type ToolEnd interface {
	Event
	StreamToolName() string
	StreamToolCallID() string
	StreamToolInput() map[string]interface{}
	StreamToolResult() interface{}
	StreamToolIsError() bool
}

// TurnComplete provides turn completion metadata.
type TurnComplete interface {
	Event
	StreamTurnNum() int
	StreamIsSuccess() bool
	StreamDuration() int64
	StreamCost() float64
}

// Error provides error information.
type Error interface {
	Event
	StreamErr() error
	StreamErrorContext() string
}
