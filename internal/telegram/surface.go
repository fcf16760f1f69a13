package telegram

import (
	"context"

	"github.com/HerbHall/gigagrok/internal/chat"
)

// Compile-time interface guard.
var _ chat.Surface = (*ChatSurface)(nil)

// ChatSurface binds the Bot API client to one chat, satisfying the
// renderer's display-surface contract.
type ChatSurface struct {
	client *Client
	chatID int64
}

// NewChatSurface wraps client for a single chat.
func NewChatSurface(client *Client, chatID int64) *ChatSurface {
	return &ChatSurface{client: client, chatID: chatID}
}

// SendInitial posts the placeholder message subsequent edits target.
func (s *ChatSurface) SendInitial(ctx context.Context, text string) (chat.MessageHandle, error) {
	id, err := s.client.SendMessage(ctx, s.chatID, text)
	return chat.MessageHandle(id), err
}

// Edit replaces the text of an earlier message.
func (s *ChatSurface) Edit(ctx context.Context, handle chat.MessageHandle, text string) error {
	return s.client.EditMessageText(ctx, s.chatID, int64(handle), text)
}

// Send posts an additional standalone message.
func (s *ChatSurface) Send(ctx context.Context, text string) (chat.MessageHandle, error) {
	id, err := s.client.SendMessage(ctx, s.chatID, text)
	return chat.MessageHandle(id), err
}
