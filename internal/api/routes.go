package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

type AppOptions struct {
	BodyLimit      int
	AllowedOrigins string
	// AccessLog enables the request log middleware.
	AccessLog bool
}

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(h *Handler, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ai-workspaces",
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	origins := opts.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))

	RegisterRoutes(app, h)
	return app
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)
	app.Get("/models", h.ListModels)

	for _, prefix := range []string{"/auth", ""} {
		app.Post(prefix+"/register", h.Register)
		app.Post(prefix+"/login", h.Login)
		app.Get(prefix+"/me", h.RequireAuth, h.Me)
	}

	ws := app.Group("/workspaces", h.RequireAuth)
	ws.Post("/", h.CreateWorkspace)
	ws.Get("/", h.ListWorkspaces)
	ws.Get("/:id", h.GetWorkspace)
	ws.Delete("/:id", h.DeleteWorkspace)

	scoped := ws.Group("/:workspaceId", h.RequireWorkspace)

	docs := scoped.Group("/documents")
	docs.Post("/", h.UploadDocument)
	docs.Get("/", h.ListDocuments)
	docs.Get("/:id", h.GetDocument)
	docs.Delete("/:id", h.DeleteDocument)

	chat := scoped.Group("/chat")
	for _, mode := range []model.ChatMode{model.ModeContextual, model.ModePersonal} {
		chat.Post("/"+string(mode), h.SendMessage(mode))
		chat.Get("/"+string(mode), h.ChatHistory(mode))
	}

	ai := scoped.Group("/ai-chat")
	ai.Post("/personal", h.PersonalChat)
	ai.Post("/contextual", h.ContextualChat)
}
