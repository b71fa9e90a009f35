package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/fernandovmc/ai-workspaces/internal/service"
	"github.com/fernandovmc/ai-workspaces/internal/store"
)

// ModelLister is implemented by both the real and the mock LLM client.
type ModelLister interface {
	ListModels(ctx context.Context) ([]openai.Model, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the services behind the HTTP handlers.
type Handler struct {
	auth       *service.AuthService
	workspaces *service.WorkspaceService
	documents  *service.DocumentService
	chat       *service.ChatService
	models     ModelLister
	db         Pinger
	log        *slog.Logger
}

func NewHandler(
	auth *service.AuthService,
	workspaces *service.WorkspaceService,
	documents *service.DocumentService,
	chat *service.ChatService,
	models ModelLister,
	db Pinger,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		auth:       auth,
		workspaces: workspaces,
		documents:  documents,
		chat:       chat,
		models:     models,
		db:         db,
		log:        log.With("component", "api"),
	}
}

// Health answers 503 while the database is unreachable.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.db.Ping(c.UserContext()); err != nil {
		h.log.Warn("health check failed", "err", err)
		return c.Status(fiber.StatusServiceUnavailable).SendString("database unavailable")
	}
	return c.SendString("ok")
}

// ListModels proxies the model list of the LLM provider.
func (h *Handler) ListModels(c *fiber.Ctx) error {
	models, err := h.models.ListModels(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// fail maps a service error to a status code and an error body.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "err", err)
		if status == fiber.StatusInternalServerError {
			msg = "internal error"
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrMissingContext),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrNoMessages),
		errors.Is(err, service.ErrNoDocuments),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidHistory),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrNoFile),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &apiErr), errors.Is(err, service.ErrEmptyCompletion):
		return http.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
