package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

// AddMessage stores m, filling in its ID and CreatedAt when empty.
func (s *Store) AddMessage(ctx context.Context, m *model.ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	var citations sql.NullString
	if len(m.Citations) > 0 {
		raw, err := json.Marshal(m.Citations)
		if err != nil {
			return fmt.Errorf("encode citations: %w", err)
		}
		citations = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO chat_messages (id, workspace_id, role, mode, content, citations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), m.ID, m.WorkspaceID, string(m.Role), string(m.Mode), m.Content, citations, m.CreatedAt)
	return err
}

// ListMessages returns the most recent limit messages of a workspace
// conversation, oldest first. limit <= 0 returns all of them.
func (s *Store) ListMessages(ctx context.Context, workspaceID int64, mode model.ChatMode, limit int) ([]model.ChatMessage, error) {
	query := `
		SELECT id, workspace_id, role, mode, content, citations, created_at
		FROM chat_messages
		WHERE workspace_id = ? AND mode = ?
		ORDER BY seq DESC`
	args := []any{workspaceID, string(mode)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.ChatMessage{}
	for rows.Next() {
		var (
			m         model.ChatMessage
			role      string
			mode      string
			citations sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &role, &mode, &m.Content, &citations, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		m.Mode = model.ChatMode(mode)
		if citations.Valid && citations.String != "" {
			if err := json.Unmarshal([]byte(citations.String), &m.Citations); err != nil {
				return nil, fmt.Errorf("decode citations of %s: %w", m.ID, err)
			}
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}
