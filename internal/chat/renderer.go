package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/gigagrok/pkg/llm"
	"go.uber.org/zap"
)

// previewLen is how much answer text an intermediate flush shows; the
// rest is replaced by a continuation marker until the final message.
const previewLen = 3800

const continuationMarker = "\n\n<i>... (continued)</i>"

// RenderConfig tunes flush cadence and segment size. The intervals are UX
// constants, not correctness constants: flush cadence never affects the
// persisted text, only how often the display surface is edited.
type RenderConfig struct {
	ContentInterval   time.Duration `mapstructure:"content_flush_interval"`
	ReasoningInterval time.Duration `mapstructure:"reasoning_flush_interval"`
	MaxMessageLen     int           `mapstructure:"max_message_length"`
}

// DefaultRenderConfig returns the defaults tuned for Telegram's edit
// throttling.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		ContentInterval:   1500 * time.Millisecond,
		ReasoningInterval: 2 * time.Second,
		MaxMessageLen:     DefaultMaxMessageLen,
	}
}

type renderState int

const (
	stateIdle renderState = iota
	stateStreaming
	stateFinalizing
	stateTerminal
	stateFailed
)

// Renderer accumulates stream events for one in-flight request and decides
// when and what to flush to the display surface. It is owned exclusively
// by the handler driving one user interaction and is never shared.
type Renderer struct {
	surface Surface
	handle  MessageHandle
	cfg     RenderConfig
	logger  *zap.Logger
	now     func() time.Time

	state     renderState
	started   time.Time
	lastFlush time.Time
	content   strings.Builder
	reasoning strings.Builder
	usage     llm.Usage
}

// NewRenderer creates a renderer that edits the given placeholder message.
func NewRenderer(surface Surface, handle MessageHandle, cfg RenderConfig, logger *zap.Logger) *Renderer {
	if cfg.ContentInterval <= 0 {
		cfg.ContentInterval = DefaultRenderConfig().ContentInterval
	}
	if cfg.ReasoningInterval <= 0 {
		cfg.ReasoningInterval = DefaultRenderConfig().ReasoningInterval
	}
	if cfg.MaxMessageLen <= 0 {
		cfg.MaxMessageLen = DefaultMaxMessageLen
	}

	r := &Renderer{
		surface: surface,
		handle:  handle,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	r.started = r.now()
	return r
}

// HandleEvent consumes one stream event. Display-surface failures are
// swallowed: the surface may reject an edit for benign reasons and a UX
// hiccup must never abort the stream. Always returns nil.
func (r *Renderer) HandleEvent(ctx context.Context, ev llm.StreamEvent) error {
	if r.state == stateTerminal || r.state == stateFailed {
		return nil
	}

	switch ev.Type {
	case llm.EventReasoning:
		r.state = stateStreaming
		r.reasoning.WriteString(ev.Delta)
		if r.sinceFlush() > r.cfg.ReasoningInterval {
			r.edit(ctx, fmt.Sprintf("🧠 <i>Thinking... (%d reasoning chars)</i>", r.reasoning.Len()))
			r.lastFlush = r.now()
		}

	case llm.EventContent:
		r.state = stateStreaming
		r.content.WriteString(ev.Delta)
		if r.sinceFlush() > r.cfg.ContentInterval {
			r.edit(ctx, r.preview())
			r.lastFlush = r.now()
		}

	case llm.EventToolUse:
		// Tool-use events are rare; show them immediately, ungated.
		r.edit(ctx, fmt.Sprintf("🔎 <i>Using %s...</i>", EscapeHTML(ev.Tool)))

	case llm.EventDone:
		r.usage = ev.Usage
	}

	return nil
}

// preview renders a truncated, escaped view of the accumulated answer.
func (r *Renderer) preview() string {
	runes := []rune(r.content.String())
	if len(runes) <= previewLen {
		return EscapeHTML(string(runes))
	}
	return EscapeHTML(string(runes[:previewLen])) + continuationMarker
}

// Finalize assembles content plus footer, splits it to fit the surface,
// replaces the placeholder with the first segment and sends the rest as
// separate messages. Each segment is best-effort: a failed send is logged
// and does not abort the remaining segments.
func (r *Renderer) Finalize(ctx context.Context, footer string) {
	if r.state == stateTerminal || r.state == stateFailed {
		return
	}
	r.state = stateFinalizing

	final := EscapeHTML(r.content.String()) + "\n\n<code>" + EscapeHTML(footer) + "</code>"
	parts := SplitMessage(final, r.cfg.MaxMessageLen)

	r.edit(ctx, parts[0])
	for _, part := range parts[1:] {
		if _, err := r.surface.Send(ctx, part); err != nil {
			r.logger.Warn("send segment failed", zap.Error(err))
		}
	}

	r.state = stateTerminal
}

// Fail replaces the display surface with an error message and discards
// the partial accumulation. No partial content is sent or persisted.
func (r *Renderer) Fail(ctx context.Context, cause error) {
	if r.state == stateTerminal || r.state == stateFailed {
		return
	}
	r.edit(ctx, "❌ API error: "+EscapeHTML(cause.Error()))
	r.state = stateFailed
}

// Content returns the full accumulated answer text.
func (r *Renderer) Content() string { return r.content.String() }

// Reasoning returns the full accumulated reasoning text.
func (r *Renderer) Reasoning() string { return r.reasoning.String() }

// Usage returns the usage captured from the Done event, or zeros if the
// stream ended without one.
func (r *Renderer) Usage() llm.Usage { return r.usage }

// Elapsed returns the wall-clock time since rendering started.
func (r *Renderer) Elapsed() time.Duration { return r.now().Sub(r.started) }

func (r *Renderer) sinceFlush() time.Duration {
	return r.now().Sub(r.lastFlush)
}

func (r *Renderer) edit(ctx context.Context, text string) {
	if err := r.surface.Edit(ctx, r.handle, text); err != nil {
		r.logger.Debug("surface edit rejected", zap.Error(err))
	}
}
