package llm

import (
	"encoding/json"
	"fmt"
)

// Role constants for the Message.Role field.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a chat conversation. Ordering is
// significant (oldest first) and is forwarded to the API verbatim.
//
// Content and Parts are mutually exclusive: a plain text message uses
// Content, a multimodal message uses Parts. When Parts is non-empty it
// wins and Content is ignored on the wire.
type Message struct {
	Role    string        `json:"role"` // One of RoleSystem, RoleUser, RoleAssistant.
	Content string        `json:"-"`
	Parts   []ContentPart `json:"-"`
}

// ContentPart is one element of a multimodal message body.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image_url content part from a data URI.
func ImagePart(dataURI string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}}
}

// MarshalJSON emits content as a bare string for plain messages and as a
// part list for multimodal ones, matching the chat-completions wire format.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Parts) > 0 {
		return json.Marshal(struct {
			Role    string        `json:"role"`
			Content []ContentPart `json:"content"`
		}{m.Role, m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Content})
}

// UnmarshalJSON accepts both the bare-string and part-list content forms.
func (m *Message) UnmarshalJSON(data []byte) error {
	var probe struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	m.Role = probe.Role
	m.Content = ""
	m.Parts = nil

	if len(probe.Content) == 0 || string(probe.Content) == "null" {
		return nil
	}
	switch probe.Content[0] {
	case '"':
		return json.Unmarshal(probe.Content, &m.Content)
	case '[':
		return json.Unmarshal(probe.Content, &m.Parts)
	}
	return fmt.Errorf("message content must be a string or a part list")
}

// Tool declares a function the model may call, in the OpenAI tools shape.
type Tool struct {
	Type     string       `json:"type"` // Always "function".
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable function and its JSON-schema parameters.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Usage tracks token consumption for a single completed stream or call.
// Reasoning tokens are kept distinct from completion tokens; billing adds
// them to output (see internal/usage).
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	ReasoningTokens  int `json:"reasoning_tokens"`
}

// RawUsage is the wire shape of the API usage object.
type RawUsage struct {
	PromptTokens            int `json:"prompt_tokens"`
	CompletionTokens        int `json:"completion_tokens"`
	CompletionTokensDetails struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
}

// Normalize converts the wire usage object into the flat Usage type.
func (u RawUsage) Normalize() Usage {
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		ReasoningTokens:  u.CompletionTokensDetails.ReasoningTokens,
	}
}
