package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/HerbHall/gigagrok/internal/event"
	"github.com/HerbHall/gigagrok/internal/metrics"
	"github.com/HerbHall/gigagrok/internal/usage"
	"github.com/HerbHall/gigagrok/pkg/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TopicCompleted is published on the event bus after a user interaction
// reaches the Terminal state. Payload is Completed.
const TopicCompleted = "chat.completed"

// Completed is the event payload for TopicCompleted.
type Completed struct {
	UserID  int64
	Model   string
	Usage   llm.Usage
	CostUSD float64
	Elapsed time.Duration
}

// DefaultSystemPrompt is used when the user has no custom prompt stored.
// The single %s verb receives the current UTC date.
const DefaultSystemPrompt = `You are GigaGrok, an AI assistant powered by Grok reasoning models.

Your traits:
- Think deeply before answering (chain-of-thought reasoning)
- Answer concretely, without filler
- Format code in fenced blocks with a language tag
- Say "I don't know" when you don't
- Break complex problems into steps

Formatting:
- Markdown
- Numbered lists for steps
- Bold for key concepts
- Be concise but complete

Current date: %s`

// AccessChecker decides whether a user may talk to the bot. Any concrete
// settings type implements it; the handler never sees the backing store.
type AccessChecker interface {
	Allowed(ctx context.Context, userID int64) bool
}

// MessageRecord is one conversation row handed to the store.
type MessageRecord struct {
	UserID           int64
	Role             string
	Content          string
	ReasoningContent string
	Model            string
	Usage            llm.Usage
	CostUSD          float64
}

// HistoryStore is the narrow persistence interface the handler consumes.
// It is called only after a stream reaches Finalizing/Terminal, never
// mid-stream.
type HistoryStore interface {
	SaveMessage(ctx context.Context, rec MessageRecord) error
	History(ctx context.Context, userID int64, limit int) ([]llm.Message, error)
	UpdateDailyStats(ctx context.Context, userID int64, u llm.Usage, costUSD float64) error
	UserSetting(ctx context.Context, userID int64, key string) (string, error)
}

// Config holds the chat handler configuration.
type Config struct {
	Model           string       `mapstructure:"model"`
	MaxTokens       int          `mapstructure:"max_output_tokens"`
	ReasoningEffort string       `mapstructure:"reasoning_effort"`
	MaxHistory      int          `mapstructure:"max_history"`
	Render          RenderConfig `mapstructure:",squash"`
}

// DefaultConfig returns the handler defaults.
func DefaultConfig() Config {
	return Config{
		Model:           "grok-4-1-fast-reasoning",
		MaxTokens:       16000,
		ReasoningEffort: "high",
		MaxHistory:      20,
		Render:          DefaultRenderConfig(),
	}
}

// Handler processes one incoming user message end to end: access check,
// history assembly, streaming, incremental rendering, persistence. All
// dependencies are injected; there is no package-level client state.
type Handler struct {
	streamer llm.Streamer
	store    HistoryStore
	access   AccessChecker
	bus      *event.Bus
	pricing  usage.Pricing
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler wires a chat handler.
func NewHandler(streamer llm.Streamer, store HistoryStore, access AccessChecker, bus *event.Bus, pricing usage.Pricing, cfg Config, logger *zap.Logger) *Handler {
	if cfg.Model == "" {
		cfg = DefaultConfig()
	}
	return &Handler{
		streamer: streamer,
		store:    store,
		access:   access,
		bus:      bus,
		pricing:  pricing,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleMessage relays one user message to the model and streams the
// answer back through the surface. The returned error covers only setup
// failures (e.g. the placeholder could not be sent); stream failures are
// reported on the surface and logged, not returned.
func (h *Handler) HandleMessage(ctx context.Context, userID int64, text string, surface Surface) error {
	logger := h.logger.With(
		zap.Int64("user_id", userID),
		zap.String("request_id", uuid.NewString()),
	)

	if !h.access.Allowed(ctx, userID) {
		logger.Warn("access denied")
		metrics.RequestsTotal.WithLabelValues("denied").Inc()
		if _, err := surface.Send(ctx, "⛔ You are not authorized to use this bot."); err != nil {
			logger.Warn("denial notice failed", zap.Error(err))
		}
		return nil
	}

	logger.Info("handling message", zap.Int("query_len", len(text)))

	messages, err := h.buildMessages(ctx, userID, text)
	if err != nil {
		// History problems degrade to a single-turn conversation.
		logger.Warn("history unavailable", zap.Error(err))
	}

	handle, err := surface.SendInitial(ctx, "🧠 <i>Thinking...</i>")
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send placeholder: %w", err)
	}

	renderer := NewRenderer(surface, handle, h.cfg.Render, logger)

	metrics.ActiveStreams.Inc()
	streamErr := h.streamer.StreamChat(ctx, llm.ChatRequest{
		Model:           h.cfg.Model,
		Messages:        messages,
		MaxTokens:       h.cfg.MaxTokens,
		ReasoningEffort: h.cfg.ReasoningEffort,
	}, func(ev llm.StreamEvent) error {
		return renderer.HandleEvent(ctx, ev)
	})
	metrics.ActiveStreams.Dec()

	if streamErr != nil {
		logger.Error("stream failed", zap.Error(streamErr))
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		renderer.Fail(ctx, streamErr)
		return nil
	}

	u := renderer.Usage()
	cost := h.pricing.Cost(u)
	footer := usage.Footer(h.cfg.Model, u, cost, renderer.Elapsed())
	renderer.Finalize(ctx, footer)

	h.persist(ctx, logger, userID, text, renderer, u, cost)

	if h.bus != nil {
		h.bus.Publish(ctx, event.Event{
			Topic:  TopicCompleted,
			Source: "chat",
			Payload: Completed{
				UserID:  userID,
				Model:   h.cfg.Model,
				Usage:   u,
				CostUSD: cost,
				Elapsed: renderer.Elapsed(),
			},
		})
	}
	metrics.RequestsTotal.WithLabelValues("ok").Inc()

	logger.Info("message complete",
		zap.Int("tokens_in", u.PromptTokens),
		zap.Int("tokens_out", u.CompletionTokens),
		zap.Int("reasoning_tokens", u.ReasoningTokens),
		zap.Float64("cost_usd", cost),
		zap.Duration("elapsed", renderer.Elapsed()),
	)
	return nil
}

// buildMessages assembles system prompt + history + the new user message,
// oldest first, preserving stored ordering verbatim.
func (h *Handler) buildMessages(ctx context.Context, userID int64, text string) ([]llm.Message, error) {
	systemPrompt := ""
	if custom, err := h.store.UserSetting(ctx, userID, "system_prompt"); err == nil && custom != "" {
		systemPrompt = custom
	}
	if systemPrompt == "" {
		systemPrompt = fmt.Sprintf(DefaultSystemPrompt, h.now().UTC().Format("2006-01-02"))
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}

	history, err := h.store.History(ctx, userID, h.cfg.MaxHistory)
	if err != nil {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})
		return messages, err
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})
	return messages, nil
}

// persist writes both conversation rows and the daily stats upsert.
// Failures are logged and do not roll back the in-memory result: the user
// already has their answer.
func (h *Handler) persist(ctx context.Context, logger *zap.Logger, userID int64, query string, r *Renderer, u llm.Usage, cost float64) {
	if err := h.store.SaveMessage(ctx, MessageRecord{
		UserID:  userID,
		Role:    llm.RoleUser,
		Content: query,
	}); err != nil {
		logger.Error("save user message failed", zap.Error(err))
	}

	if err := h.store.SaveMessage(ctx, MessageRecord{
		UserID:           userID,
		Role:             llm.RoleAssistant,
		Content:          r.Content(),
		ReasoningContent: r.Reasoning(),
		Model:            h.cfg.Model,
		Usage:            u,
		CostUSD:          cost,
	}); err != nil {
		logger.Error("save assistant message failed", zap.Error(err))
	}

	if err := h.store.UpdateDailyStats(ctx, userID, u, cost); err != nil {
		logger.Error("update daily stats failed", zap.Error(err))
	}
}
