// Package chat bridges streaming chat completions to a bounded, editable
// display surface and persists the outcome. It owns the incremental
// rendering state machine and the per-interaction handler.
package chat

import "context"

// MessageHandle identifies a message on the display surface so it can be
// edited later. The zero value is no message.
type MessageHandle int64

// Surface is the capability set the renderer needs from a messaging
// transport. Calls are fire-and-forget from the renderer's perspective:
// failures are logged by the caller and never abort a stream.
type Surface interface {
	// SendInitial posts the placeholder message that later edits target.
	SendInitial(ctx context.Context, text string) (MessageHandle, error)

	// Edit replaces the displayed text of an existing message. Surfaces
	// may reject benign edits (e.g. unchanged text); callers swallow
	// such failures.
	Edit(ctx context.Context, handle MessageHandle, text string) error

	// Send posts an additional, separate message.
	Send(ctx context.Context, text string) (MessageHandle, error)
}
