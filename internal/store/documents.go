package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

func (s *Store) AddDocument(ctx context.Context, d *model.Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO documents (workspace_id, name, file_path, mime_type, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), d.WorkspaceID, d.Name, d.FilePath, d.MimeType, d.Content, d.CreatedAt).Scan(&d.ID)
}

// ListDocuments returns the documents of a workspace without their content.
func (s *Store) ListDocuments(ctx context.Context, workspaceID int64) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, workspace_id, name, file_path, mime_type, created_at
		FROM documents
		WHERE workspace_id = ?
		ORDER BY id
	`), workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Name, &d.FilePath, &d.MimeType, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (s *Store) GetDocument(ctx context.Context, workspaceID, id int64) (*model.Document, error) {
	var d model.Document
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, workspace_id, name, file_path, mime_type, content, created_at
		FROM documents
		WHERE id = ? AND workspace_id = ?
	`), id, workspaceID).Scan(&d.ID, &d.WorkspaceID, &d.Name, &d.FilePath, &d.MimeType, &d.Content, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DocumentContents returns the texts of the given documents in the order
// of ids. Ids outside the workspace are skipped.
func (s *Store) DocumentContents(ctx context.Context, workspaceID int64, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, workspaceID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, content FROM documents
		WHERE workspace_id = ? AND id IN (`+placeholders(len(ids))+`)
	`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, err
		}
		byID[id] = content
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := make([]string, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			res = append(res, c)
			delete(byID, id)
		}
	}
	return res, nil
}

// WorkspaceContents returns the texts of every document of the workspace
// in upload order.
func (s *Store) WorkspaceContents(ctx context.Context, workspaceID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT content FROM documents WHERE workspace_id = ? ORDER BY id
	`), workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, workspaceID, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM documents WHERE id = ? AND workspace_id = ?`), id, workspaceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
