// Package llm provides the public types for the chat-completion client.
// The concrete xAI implementation lives in internal/llm/grok; callers
// (handlers, tests) depend only on the interfaces and value types here.
package llm

import "context"

// Streamer is the core interface implemented by the chat-completion client.
type Streamer interface {
	// StreamChat opens a streaming completion and invokes emit for every
	// event in upstream arrival order. A non-nil error from emit aborts
	// the stream and is returned unchanged.
	StreamChat(ctx context.Context, req ChatRequest, emit func(StreamEvent) error) error

	// Chat sends a non-streaming completion and returns the full response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest describes a single chat-completion call.
type ChatRequest struct {
	Model     string
	Messages  []Message
	MaxTokens int

	// ReasoningEffort is forwarded only when non-empty and the client's
	// reasoning-model predicate matches the model name.
	ReasoningEffort string

	// Tools are merged into the request body when non-empty.
	Tools []Tool

	// SearchParameters are merged into the request body when non-nil
	// (xAI live-search options; passed through opaquely).
	SearchParameters map[string]any
}

// ChatResponse is the full body of a non-streaming completion.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   RawUsage `json:"usage"`
}

// Choice is one completion alternative. The API is asked for exactly one.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Content returns the text of the first choice, or "" if there is none.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
