package store

import (
	"database/sql"

	"github.com/fernandovmc/ai-workspaces/internal/config"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS workspaces_user_idx ON workspaces (user_id)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		workspace_id BIGINT NOT NULL REFERENCES workspaces(id),
		name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_workspace_idx ON documents (workspace_id)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		workspace_id BIGINT NOT NULL REFERENCES workspaces(id),
		role TEXT NOT NULL,
		mode TEXT NOT NULL,
		content TEXT NOT NULL,
		citations TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_history_idx ON chat_messages (workspace_id, mode, seq)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS workspaces_user_idx ON workspaces (user_id)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_id INTEGER NOT NULL REFERENCES workspaces(id),
		name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_workspace_idx ON documents (workspace_id)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		workspace_id INTEGER NOT NULL REFERENCES workspaces(id),
		role TEXT NOT NULL,
		mode TEXT NOT NULL,
		content TEXT NOT NULL,
		citations TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_history_idx ON chat_messages (workspace_id, mode, seq)`,
}

// ensureSchema creates the tables and indexes if they are missing.
func ensureSchema(db *sql.DB, driver string) error {
	stmts := pgSchema
	if driver == config.DriverSQLite {
		stmts = sqliteSchema
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
