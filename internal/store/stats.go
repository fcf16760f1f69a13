package store

import (
	"context"
	"fmt"
	"time"

	"github.com/HerbHall/gigagrok/pkg/llm"
)

// Stats is an aggregate over one or more usage_stats rows.
type Stats struct {
	Requests        int
	TokensIn        int
	TokensOut       int
	ReasoningTokens int
	CostUSD         float64
}

// UpdateDailyStats upserts the per-user counters for today (UTC).
func (s *Store) UpdateDailyStats(ctx context.Context, userID int64, u llm.Usage, costUSD float64) error {
	date := time.Now().UTC().Format("2006-01-02")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_stats (user_id, date, requests, tokens_in, tokens_out, reasoning_tokens, cost_usd)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			requests         = requests + 1,
			tokens_in        = tokens_in + excluded.tokens_in,
			tokens_out       = tokens_out + excluded.tokens_out,
			reasoning_tokens = reasoning_tokens + excluded.reasoning_tokens,
			cost_usd         = cost_usd + excluded.cost_usd`,
		userID, date,
		u.PromptTokens, u.CompletionTokens, u.ReasoningTokens, costUSD,
	)
	if err != nil {
		return fmt.Errorf("update daily stats: %w", err)
	}
	return nil
}

// DailyStats returns today's (UTC) counters for a user. Zero stats on a
// day with no activity.
func (s *Store) DailyStats(ctx context.Context, userID int64) (Stats, error) {
	date := time.Now().UTC().Format("2006-01-02")
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(requests), 0),
		       COALESCE(SUM(tokens_in), 0),
		       COALESCE(SUM(tokens_out), 0),
		       COALESCE(SUM(reasoning_tokens), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM usage_stats WHERE user_id = ? AND date = ?`,
		userID, date,
	).Scan(&st.Requests, &st.TokensIn, &st.TokensOut, &st.ReasoningTokens, &st.CostUSD)
	if err != nil {
		return Stats{}, fmt.Errorf("query daily stats: %w", err)
	}
	return st, nil
}

// AllTimeStats returns the lifetime counters for a user.
func (s *Store) AllTimeStats(ctx context.Context, userID int64) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(requests), 0),
		       COALESCE(SUM(tokens_in), 0),
		       COALESCE(SUM(tokens_out), 0),
		       COALESCE(SUM(reasoning_tokens), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM usage_stats WHERE user_id = ?`,
		userID,
	).Scan(&st.Requests, &st.TokensIn, &st.TokensOut, &st.ReasoningTokens, &st.CostUSD)
	if err != nil {
		return Stats{}, fmt.Errorf("query all-time stats: %w", err)
	}
	return st, nil
}
