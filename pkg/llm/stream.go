package llm

// EventType discriminates StreamEvent variants.
type EventType string

const (
	// EventReasoning carries a delta of model-internal "thinking" text.
	// Never shown verbatim to end users, only as a progress indicator.
	EventReasoning EventType = "reasoning"

	// EventContent carries a delta of user-visible answer text.
	EventContent EventType = "content"

	// EventToolUse signals the server invoked a named tool. Informational.
	EventToolUse EventType = "tool_use"

	// EventDone is terminal and carries token usage. At most one per
	// stream, always last if present. A stream may end without it; that is
	// treated as zero usage, not an error.
	EventDone EventType = "done"
)

// StreamEvent is one normalized event from a streaming completion.
// Delta is set for reasoning/content events, Tool for tool_use, Usage for
// done. Content and reasoning deltas are strictly additive: concatenation
// in arrival order reconstructs the full text.
type StreamEvent struct {
	Type  EventType
	Delta string
	Tool  string
	Usage Usage
}

// ReasoningEvent builds a reasoning delta event.
func ReasoningEvent(delta string) StreamEvent {
	return StreamEvent{Type: EventReasoning, Delta: delta}
}

// ContentEvent builds a content delta event.
func ContentEvent(delta string) StreamEvent {
	return StreamEvent{Type: EventContent, Delta: delta}
}

// ToolUseEvent builds a tool_use event for the named function.
func ToolUseEvent(name string) StreamEvent {
	return StreamEvent{Type: EventToolUse, Tool: name}
}

// DoneEvent builds the terminal usage event.
func DoneEvent(usage Usage) StreamEvent {
	return StreamEvent{Type: EventDone, Usage: usage}
}
