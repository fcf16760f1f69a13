package telegram

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	pollTimeout   = 60 * time.Second
	pollErrorWait = 3 * time.Second
)

// MessageFunc handles one incoming text message. chatID identifies where
// replies go; userID identifies the sender for access control.
type MessageFunc func(ctx context.Context, userID, chatID int64, text string)

// Poller drives the getUpdates long-poll loop and dispatches text
// messages. Each message is handled in its own goroutine so a slow
// completion does not stall the poll loop.
type Poller struct {
	client  *Client
	handler MessageFunc
	logger  *zap.Logger
}

// NewPoller creates a poller dispatching to handler.
func NewPoller(client *Client, handler MessageFunc, logger *zap.Logger) *Poller {
	return &Poller{client: client, handler: handler, logger: logger}
}

// Run polls until ctx is cancelled. Poll failures are logged and retried
// after a short pause.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			p.logger.Warn("poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollErrorWait):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			msg := u.Message
			if msg == nil || msg.From == nil || msg.Text == "" {
				continue
			}
			go p.handler(ctx, msg.From.ID, msg.Chat.ID, msg.Text)
		}
	}
}
