package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

func (s *Store) CreateWorkspace(ctx context.Context, userID int64, name string) (*model.Workspace, error) {
	w := &model.Workspace{UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO workspaces (user_id, name, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`), w.UserID, w.Name, w.CreatedAt).Scan(&w.ID)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) ListWorkspaces(ctx context.Context, userID int64) ([]model.Workspace, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, user_id, name, created_at
		FROM workspaces
		WHERE user_id = ?
		ORDER BY id
	`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Workspace{}
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

// GetWorkspace returns ErrNotFound when the workspace does not exist or
// belongs to another user.
func (s *Store) GetWorkspace(ctx context.Context, id, userID int64) (*model.Workspace, error) {
	var w model.Workspace
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, user_id, name, created_at
		FROM workspaces
		WHERE id = ? AND user_id = ?
	`), id, userID).Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteWorkspace removes the workspace with its messages and documents
// in one transaction.
func (s *Store) DeleteWorkspace(ctx context.Context, id, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner int64
	err = tx.QueryRowContext(ctx, s.q(`SELECT user_id FROM workspaces WHERE id = ?`), id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	for _, stmt := range []string{
		`DELETE FROM chat_messages WHERE workspace_id = ?`,
		`DELETE FROM documents WHERE workspace_id = ?`,
		`DELETE FROM workspaces WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s.q(stmt), id); err != nil {
			return fmt.Errorf("delete workspace %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// WorkspaceExists reports whether a workspace with id exists, regardless
// of its owner.
func (s *Store) WorkspaceExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM workspaces WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
