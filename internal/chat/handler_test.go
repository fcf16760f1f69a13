package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/HerbHall/gigagrok/internal/event"
	"github.com/HerbHall/gigagrok/internal/usage"
	"github.com/HerbHall/gigagrok/pkg/llm"
	"go.uber.org/zap"
)

type fakeStreamer struct {
	events  []llm.StreamEvent
	err     error
	gotReqs []llm.ChatRequest
}

func (f *fakeStreamer) StreamChat(ctx context.Context, req llm.ChatRequest, emit func(llm.StreamEvent) error) error {
	f.gotReqs = append(f.gotReqs, req)
	for _, ev := range f.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return f.err
}

func (f *fakeStreamer) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, errors.New("not implemented")
}

type fakeStore struct {
	history    []llm.Message
	historyErr error
	settings   map[string]string
	saved      []MessageRecord
	statsCalls int
	statsUsage llm.Usage
	statsCost  float64
}

func (f *fakeStore) SaveMessage(ctx context.Context, rec MessageRecord) error {
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeStore) History(ctx context.Context, userID int64, limit int) ([]llm.Message, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if limit < len(f.history) {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

func (f *fakeStore) UpdateDailyStats(ctx context.Context, userID int64, u llm.Usage, costUSD float64) error {
	f.statsCalls++
	f.statsUsage = u
	f.statsCost = costUSD
	return nil
}

func (f *fakeStore) UserSetting(ctx context.Context, userID int64, key string) (string, error) {
	if v, ok := f.settings[key]; ok {
		return v, nil
	}
	return "", nil
}

type allowAll struct{}

func (allowAll) Allowed(ctx context.Context, userID int64) bool { return true }

type denyAll struct{}

func (denyAll) Allowed(ctx context.Context, userID int64) bool { return false }

func newTestHandler(streamer llm.Streamer, store HistoryStore, access AccessChecker, bus *event.Bus) *Handler {
	return NewHandler(streamer, store, access, bus, usage.DefaultPricing(), DefaultConfig(), zap.NewNop())
}

func TestHandleMessageEndToEnd(t *testing.T) {
	streamer := &fakeStreamer{
		events: []llm.StreamEvent{
			llm.ReasoningEvent("considering..."),
			llm.ContentEvent("The answer "),
			llm.ContentEvent("is 42."),
			llm.DoneEvent(llm.Usage{PromptTokens: 1000, CompletionTokens: 2000, ReasoningTokens: 500}),
		},
	}
	store := &fakeStore{
		history: []llm.Message{
			{Role: llm.RoleUser, Content: "earlier question"},
			{Role: llm.RoleAssistant, Content: "earlier answer"},
		},
	}
	bus := event.NewBus(zap.NewNop())
	var completed []Completed
	bus.Subscribe(TopicCompleted, func(ctx context.Context, ev event.Event) {
		if c, ok := ev.Payload.(Completed); ok {
			completed = append(completed, c)
		}
	})
	surface := &fakeSurface{}

	h := newTestHandler(streamer, store, allowAll{}, bus)
	if err := h.HandleMessage(context.Background(), 42, "what is the answer?", surface); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(surface.initial) != 1 || !strings.Contains(surface.initial[0], "Thinking") {
		t.Errorf("placeholder = %q", surface.initial)
	}

	if len(streamer.gotReqs) != 1 {
		t.Fatalf("expected 1 stream request, got %d", len(streamer.gotReqs))
	}
	req := streamer.gotReqs[0]
	if req.Model != "grok-4-1-fast-reasoning" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %q, want system", req.Messages[0].Role)
	}
	if !strings.Contains(req.Messages[0].Content, "GigaGrok") {
		t.Error("default system prompt not applied")
	}
	if last := req.Messages[3]; last.Role != llm.RoleUser || last.Content != "what is the answer?" {
		t.Errorf("last message = %+v", last)
	}

	final := surface.edits[len(surface.edits)-1]
	if !strings.Contains(final, "The answer is 42.") {
		t.Errorf("final edit = %q, want full answer", final)
	}
	if !strings.Contains(final, "💰 $0.001") {
		t.Errorf("final edit = %q, want cost in footer", final)
	}

	if len(store.saved) != 2 {
		t.Fatalf("expected user + assistant rows, got %d", len(store.saved))
	}
	if store.saved[0].Role != llm.RoleUser || store.saved[0].Content != "what is the answer?" {
		t.Errorf("user row = %+v", store.saved[0])
	}
	asst := store.saved[1]
	if asst.Role != llm.RoleAssistant {
		t.Errorf("assistant row role = %q", asst.Role)
	}
	if asst.Content != "The answer is 42." {
		t.Errorf("assistant content = %q", asst.Content)
	}
	if asst.ReasoningContent != "considering..." {
		t.Errorf("assistant reasoning = %q", asst.ReasoningContent)
	}
	if asst.Usage.CompletionTokens != 2000 {
		t.Errorf("assistant usage = %+v", asst.Usage)
	}

	if store.statsCalls != 1 {
		t.Errorf("stats calls = %d", store.statsCalls)
	}
	if store.statsCost != 0.00145 {
		t.Errorf("stats cost = %v", store.statsCost)
	}

	if len(completed) != 1 {
		t.Fatalf("expected 1 completed event, got %d", len(completed))
	}
	if completed[0].UserID != 42 || completed[0].CostUSD != 0.00145 {
		t.Errorf("completed = %+v", completed[0])
	}
}

func TestHandleMessageAccessDenied(t *testing.T) {
	streamer := &fakeStreamer{}
	store := &fakeStore{}
	surface := &fakeSurface{}

	h := newTestHandler(streamer, store, denyAll{}, event.NewBus(zap.NewNop()))
	if err := h.HandleMessage(context.Background(), 7, "hi", surface); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(streamer.gotReqs) != 0 {
		t.Error("stream started for denied user")
	}
	if len(store.saved) != 0 {
		t.Error("message persisted for denied user")
	}
	if len(surface.sends) != 1 || !strings.Contains(surface.sends[0], "not authorized") {
		t.Errorf("denial notice = %q", surface.sends)
	}
}

func TestHandleMessageStreamFailure(t *testing.T) {
	streamer := &fakeStreamer{
		events: []llm.StreamEvent{llm.ContentEvent("partial")},
		err:    llm.NewProviderError(llm.ErrCodeServerError, "upstream exploded", nil),
	}
	store := &fakeStore{}
	surface := &fakeSurface{}
	bus := event.NewBus(zap.NewNop())
	published := 0
	bus.Subscribe(TopicCompleted, func(ctx context.Context, ev event.Event) { published++ })

	h := newTestHandler(streamer, store, allowAll{}, bus)
	if err := h.HandleMessage(context.Background(), 42, "hi", surface); err != nil {
		t.Fatalf("HandleMessage should not propagate stream errors: %v", err)
	}

	final := surface.edits[len(surface.edits)-1]
	if !strings.HasPrefix(final, "❌ API error: ") {
		t.Errorf("final edit = %q, want error message", final)
	}
	if len(store.saved) != 0 {
		t.Error("failed interaction must not be persisted")
	}
	if published != 0 {
		t.Error("completed event published for failed interaction")
	}
}

func TestHandleMessageCustomSystemPrompt(t *testing.T) {
	streamer := &fakeStreamer{
		events: []llm.StreamEvent{llm.ContentEvent("ok"), llm.DoneEvent(llm.Usage{})},
	}
	store := &fakeStore{settings: map[string]string{"system_prompt": "You are a pirate."}}
	surface := &fakeSurface{}

	h := newTestHandler(streamer, store, allowAll{}, event.NewBus(zap.NewNop()))
	if err := h.HandleMessage(context.Background(), 42, "hi", surface); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if got := streamer.gotReqs[0].Messages[0].Content; got != "You are a pirate." {
		t.Errorf("system prompt = %q", got)
	}
}

func TestHandleMessageHistoryFailureDegrades(t *testing.T) {
	streamer := &fakeStreamer{
		events: []llm.StreamEvent{llm.ContentEvent("ok"), llm.DoneEvent(llm.Usage{})},
	}
	store := &fakeStore{historyErr: errors.New("disk on fire")}
	surface := &fakeSurface{}

	h := newTestHandler(streamer, store, allowAll{}, event.NewBus(zap.NewNop()))
	if err := h.HandleMessage(context.Background(), 42, "hi", surface); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	msgs := streamer.gotReqs[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected system + user only, got %d messages", len(msgs))
	}
	if msgs[1].Content != "hi" {
		t.Errorf("user message = %q", msgs[1].Content)
	}
}

func TestHandleMessagePlaceholderFailure(t *testing.T) {
	streamer := &fakeStreamer{}
	surface := &fakeSurface{sendErr: errors.New("chat not found")}

	h := newTestHandler(streamer, &fakeStore{}, allowAll{}, event.NewBus(zap.NewNop()))
	err := h.HandleMessage(context.Background(), 42, "hi", surface)
	if err == nil {
		t.Fatal("expected error when placeholder send fails")
	}
	if len(streamer.gotReqs) != 0 {
		t.Error("stream started without a placeholder")
	}
}
