package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

var ErrEmptyName = errors.New("workspace name is required")

type WorkspaceStore interface {
	CreateWorkspace(ctx context.Context, userID int64, name string) (*model.Workspace, error)
	ListWorkspaces(ctx context.Context, userID int64) ([]model.Workspace, error)
	GetWorkspace(ctx context.Context, id, userID int64) (*model.Workspace, error)
	DeleteWorkspace(ctx context.Context, id, userID int64) error
}

// WorkspaceService scopes every workspace operation to its owner.
type WorkspaceService struct {
	store WorkspaceStore
	log   *slog.Logger
}

func NewWorkspaceService(store WorkspaceStore, log *slog.Logger) *WorkspaceService {
	if log == nil {
		log = slog.Default()
	}
	return &WorkspaceService{store: store, log: log.With("component", "workspaces")}
}

func (s *WorkspaceService) Create(ctx context.Context, userID int64, name string) (*model.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	w, err := s.store.CreateWorkspace(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	s.log.Info("workspace created", "workspace", w.ID, "user", userID)
	return w, nil
}

func (s *WorkspaceService) List(ctx context.Context, userID int64) ([]model.Workspace, error) {
	return s.store.ListWorkspaces(ctx, userID)
}

func (s *WorkspaceService) Get(ctx context.Context, id, userID int64) (*model.Workspace, error) {
	return s.store.GetWorkspace(ctx, id, userID)
}

// Delete drops the workspace together with its documents and messages.
func (s *WorkspaceService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.store.DeleteWorkspace(ctx, id, userID); err != nil {
		return err
	}
	s.log.Info("workspace deleted", "workspace", id, "user", userID)
	return nil
}
