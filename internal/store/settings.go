package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Setting keys accepted by SetUserSetting. An allowlist keeps arbitrary
// keys out of the table.
var allowedSettings = map[string]bool{
	"system_prompt":    true,
	"reasoning_effort": true,
}

// UserSetting returns the stored value for a setting key, or "" when the
// user has never set it.
func (s *Store) UserSetting(ctx context.Context, userID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM user_settings WHERE user_id = ? AND key = ?",
		userID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query setting %q: %w", key, err)
	}
	return value, nil
}

// SetUserSetting upserts one setting. An empty value deletes the row.
func (s *Store) SetUserSetting(ctx context.Context, userID int64, key, value string) error {
	if !allowedSettings[key] {
		return fmt.Errorf("unknown setting %q", key)
	}
	if value == "" {
		_, err := s.db.ExecContext(ctx,
			"DELETE FROM user_settings WHERE user_id = ? AND key = ?",
			userID, key,
		)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// AddDynamicUser grants access to a user at runtime. Idempotent.
func (s *Store) AddDynamicUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO dynamic_users (user_id) VALUES (?)", userID,
	)
	if err != nil {
		return fmt.Errorf("add dynamic user: %w", err)
	}
	return nil
}

// RemoveDynamicUser revokes runtime-granted access. Removing an unknown
// user is not an error.
func (s *Store) RemoveDynamicUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM dynamic_users WHERE user_id = ?", userID,
	)
	if err != nil {
		return fmt.Errorf("remove dynamic user: %w", err)
	}
	return nil
}

// IsDynamicUser reports whether the user was granted access at runtime.
func (s *Store) IsDynamicUser(ctx context.Context, userID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dynamic_users WHERE user_id = ?", userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check dynamic user: %w", err)
	}
	return count > 0, nil
}

// DynamicUsers lists runtime-granted user IDs in grant order.
func (s *Store) DynamicUsers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM dynamic_users ORDER BY added_at",
	)
	if err != nil {
		return nil, fmt.Errorf("list dynamic users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dynamic user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
