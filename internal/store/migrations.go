package store

import "database/sql"

// Migrations is the full ordered schema history.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "conversations, usage stats, user settings, dynamic users",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS conversations (
					id                 INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id            INTEGER NOT NULL,
					role               TEXT    NOT NULL,
					content            TEXT    NOT NULL,
					reasoning_content  TEXT    NOT NULL DEFAULT '',
					model              TEXT    NOT NULL DEFAULT '',
					prompt_tokens      INTEGER NOT NULL DEFAULT 0,
					completion_tokens  INTEGER NOT NULL DEFAULT 0,
					reasoning_tokens   INTEGER NOT NULL DEFAULT 0,
					cost_usd           REAL    NOT NULL DEFAULT 0,
					created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE INDEX IF NOT EXISTS idx_conversations_user_created
					ON conversations (user_id, created_at);

				CREATE TABLE IF NOT EXISTS usage_stats (
					user_id          INTEGER NOT NULL,
					date             TEXT    NOT NULL,
					requests         INTEGER NOT NULL DEFAULT 0,
					tokens_in        INTEGER NOT NULL DEFAULT 0,
					tokens_out       INTEGER NOT NULL DEFAULT 0,
					reasoning_tokens INTEGER NOT NULL DEFAULT 0,
					cost_usd         REAL    NOT NULL DEFAULT 0,
					PRIMARY KEY (user_id, date)
				);

				CREATE TABLE IF NOT EXISTS user_settings (
					user_id INTEGER NOT NULL,
					key     TEXT    NOT NULL,
					value   TEXT    NOT NULL,
					PRIMARY KEY (user_id, key)
				);

				CREATE TABLE IF NOT EXISTS dynamic_users (
					user_id  INTEGER PRIMARY KEY,
					added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`)
			return err
		},
	},
}
