package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HerbHall/gigagrok/internal/chat"
	"github.com/HerbHall/gigagrok/pkg/llm"
)

// Compile-time interface guard.
var _ chat.HistoryStore = (*Store)(nil)

// SaveMessage appends one conversation row.
func (s *Store) SaveMessage(ctx context.Context, rec chat.MessageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations
			(user_id, role, content, reasoning_content, model,
			 prompt_tokens, completion_tokens, reasoning_tokens, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Role, rec.Content, rec.ReasoningContent, rec.Model,
		rec.Usage.PromptTokens, rec.Usage.CompletionTokens, rec.Usage.ReasoningTokens,
		rec.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// History returns the newest limit messages for a user in chronological
// order, ready to prepend to the next request.
func (s *Store) History(ctx context.Context, userID int64, limit int) ([]llm.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM (
			SELECT id, role, content FROM conversations
			WHERE user_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var messages []llm.Message
	for rows.Next() {
		var m llm.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ClearHistory deletes all conversation rows for a user and returns the
// number of rows removed.
func (s *Store) ClearHistory(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE user_id = ?", userID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// LastMessageAge returns how long ago the most recent conversation row was
// written, across all users. Returns ok=false on an empty database.
func (s *Store) LastMessageAge(ctx context.Context) (time.Duration, bool, error) {
	var created time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at FROM conversations ORDER BY id DESC LIMIT 1",
	).Scan(&created)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query last message: %w", err)
	}
	return time.Since(created), true, nil
}
