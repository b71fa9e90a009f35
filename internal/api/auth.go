package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

func (h *Handler) Register(c *fiber.Ctx) error {
	var req model.Credentials
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return badRequest(c, "invalid registration data, expected JSON: {\"email\":\"...\",\"password\":\"...\"}")
	}
	tok, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tok)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req model.Credentials
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return badRequest(c, "invalid login data")
	}
	tok, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(tok)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	u, err := h.auth.Me(c.UserContext(), userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"id": u.ID, "email": u.Email})
}
