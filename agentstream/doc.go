// Package agentstream defines a narrow set of streaming event interfaces
// that session event types implement for embedding hosts.
//
// A host that multiplexes several agent backends consumes events through
// these interfaces instead of type-switching on the claude package's concrete
// event types. The six kinds (Text, Thinking, ToolStart, ToolEnd,
// TurnComplete, Error) capture the common subset such hosts need; events that
// do not implement agentstream.Event (tool progress, tool results) remain
// visible only to direct consumers of the session channel.
//
// The interfaces are additive: event types gain a few one-line methods and
// nothing else changes. Method names carry a "Stream" prefix to avoid
// clashing with struct field names on the implementing types.
package agentstream
