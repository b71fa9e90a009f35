package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

func (h *Handler) CreateWorkspace(c *fiber.Ctx) error {
	var req model.CreateWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request, expected JSON: {\"name\":\"...\"}")
	}
	w, err := h.workspaces.Create(c.UserContext(), userID(c), req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

func (h *Handler) ListWorkspaces(c *fiber.Ctx) error {
	list, err := h.workspaces.List(c.UserContext(), userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) GetWorkspace(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid workspace id")
	}
	w, err := h.workspaces.Get(c.UserContext(), id, userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(w)
}

func (h *Handler) DeleteWorkspace(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid workspace id")
	}
	if err := h.workspaces.Delete(c.UserContext(), id, userID(c)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
