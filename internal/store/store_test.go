package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/HerbHall/gigagrok/internal/chat"
	"github.com/HerbHall/gigagrok/pkg/llm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background(), Migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background(), Migrations); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSaveAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msgs := []chat.MessageRecord{
		{UserID: 1, Role: llm.RoleUser, Content: "first question"},
		{UserID: 1, Role: llm.RoleAssistant, Content: "first answer", Model: "grok-4"},
		{UserID: 1, Role: llm.RoleUser, Content: "second question"},
		{UserID: 2, Role: llm.RoleUser, Content: "other user"},
	}
	for _, m := range msgs {
		if err := s.SaveMessage(ctx, m); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	history, err := s.History(ctx, 1, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 rows for user 1, got %d", len(history))
	}
	if history[0].Content != "first question" || history[2].Content != "second question" {
		t.Errorf("history not in chronological order: %+v", history)
	}

	// Limit keeps the newest rows, still oldest first.
	history, err = s.History(ctx, 1, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(history))
	}
	if history[0].Content != "first answer" || history[1].Content != "second question" {
		t.Errorf("limited history = %+v", history)
	}
}

func TestHistoryEmpty(t *testing.T) {
	s := newTestStore(t)
	history, err := s.History(context.Background(), 99, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %+v", history)
	}
}

func TestClearHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.SaveMessage(ctx, chat.MessageRecord{UserID: 1, Role: llm.RoleUser, Content: "x"}); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}
	n, err := s.ClearHistory(ctx, 1)
	if err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if n != 3 {
		t.Errorf("cleared %d rows, want 3", n)
	}

	history, _ := s.History(ctx, 1, 10)
	if len(history) != 0 {
		t.Error("history not empty after clear")
	}
}

func TestDailyStatsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := llm.Usage{PromptTokens: 100, CompletionTokens: 200, ReasoningTokens: 50}
	if err := s.UpdateDailyStats(ctx, 1, u, 0.001); err != nil {
		t.Fatalf("UpdateDailyStats: %v", err)
	}
	if err := s.UpdateDailyStats(ctx, 1, u, 0.002); err != nil {
		t.Fatalf("UpdateDailyStats: %v", err)
	}

	st, err := s.DailyStats(ctx, 1)
	if err != nil {
		t.Fatalf("DailyStats: %v", err)
	}
	if st.Requests != 2 {
		t.Errorf("requests = %d, want 2", st.Requests)
	}
	if st.TokensIn != 200 || st.TokensOut != 400 || st.ReasoningTokens != 100 {
		t.Errorf("stats = %+v", st)
	}
	if st.CostUSD < 0.0029 || st.CostUSD > 0.0031 {
		t.Errorf("cost = %v, want ~0.003", st.CostUSD)
	}

	all, err := s.AllTimeStats(ctx, 1)
	if err != nil {
		t.Fatalf("AllTimeStats: %v", err)
	}
	if all.Requests != 2 {
		t.Errorf("all-time requests = %d", all.Requests)
	}

	empty, err := s.DailyStats(ctx, 42)
	if err != nil {
		t.Fatalf("DailyStats for unknown user: %v", err)
	}
	if empty != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", empty)
	}
}

func TestUserSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.UserSetting(ctx, 1, "system_prompt")
	if err != nil || v != "" {
		t.Fatalf("unset setting = (%q, %v), want empty", v, err)
	}

	if err := s.SetUserSetting(ctx, 1, "system_prompt", "be brief"); err != nil {
		t.Fatalf("SetUserSetting: %v", err)
	}
	if err := s.SetUserSetting(ctx, 1, "system_prompt", "be verbose"); err != nil {
		t.Fatalf("SetUserSetting overwrite: %v", err)
	}

	v, err = s.UserSetting(ctx, 1, "system_prompt")
	if err != nil {
		t.Fatalf("UserSetting: %v", err)
	}
	if v != "be verbose" {
		t.Errorf("setting = %q", v)
	}

	if err := s.SetUserSetting(ctx, 1, "system_prompt", ""); err != nil {
		t.Fatalf("delete setting: %v", err)
	}
	v, _ = s.UserSetting(ctx, 1, "system_prompt")
	if v != "" {
		t.Errorf("setting after delete = %q", v)
	}

	if err := s.SetUserSetting(ctx, 1, "reasoning_effort", "low"); err != nil {
		t.Errorf("SetUserSetting reasoning_effort: %v", err)
	}

	for _, key := range []string{"favorite_color", "model"} {
		if err := s.SetUserSetting(ctx, 1, key, "x"); err == nil {
			t.Errorf("expected error for setting key %q", key)
		}
	}
}

func TestDynamicUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.IsDynamicUser(ctx, 5)
	if err != nil || ok {
		t.Fatalf("IsDynamicUser before add = (%v, %v)", ok, err)
	}

	if err := s.AddDynamicUser(ctx, 5); err != nil {
		t.Fatalf("AddDynamicUser: %v", err)
	}
	if err := s.AddDynamicUser(ctx, 5); err != nil {
		t.Fatalf("AddDynamicUser twice: %v", err)
	}
	if err := s.AddDynamicUser(ctx, 6); err != nil {
		t.Fatalf("AddDynamicUser: %v", err)
	}

	ok, _ = s.IsDynamicUser(ctx, 5)
	if !ok {
		t.Error("user 5 should be dynamic")
	}

	ids, err := s.DynamicUsers(ctx)
	if err != nil {
		t.Fatalf("DynamicUsers: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("dynamic users = %v", ids)
	}

	if err := s.RemoveDynamicUser(ctx, 5); err != nil {
		t.Fatalf("RemoveDynamicUser: %v", err)
	}
	ok, _ = s.IsDynamicUser(ctx, 5)
	if ok {
		t.Error("user 5 still dynamic after removal")
	}
}

func TestCheckVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CheckVersion(ctx, "1.0.0"); err != nil {
		t.Fatalf("first CheckVersion: %v", err)
	}
	if err := s.CheckVersion(ctx, "1.1.0"); err != nil {
		t.Fatalf("upgrade CheckVersion: %v", err)
	}
	err := s.CheckVersion(ctx, "1.0.0")
	if !errors.Is(err, ErrNewerSchema) {
		t.Errorf("downgrade CheckVersion = %v, want ErrNewerSchema", err)
	}
	if err := s.CheckVersion(ctx, "dev"); err != nil {
		t.Errorf("dev CheckVersion: %v", err)
	}
}

func TestLastMessageAge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LastMessageAge(ctx)
	if err != nil {
		t.Fatalf("LastMessageAge: %v", err)
	}
	if ok {
		t.Error("expected no messages in fresh database")
	}

	if err := s.SaveMessage(ctx, chat.MessageRecord{UserID: 1, Role: llm.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	age, ok, err := s.LastMessageAge(ctx)
	if err != nil {
		t.Fatalf("LastMessageAge: %v", err)
	}
	if !ok {
		t.Fatal("expected a message")
	}
	if age < 0 || age > time.Minute {
		t.Errorf("age = %v", age)
	}
}
