package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

// SendMessage handles POST .../chat/:mode.
func (h *Handler) SendMessage(mode model.ChatMode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.SendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request, expected JSON: {\"text\":\"...\"}")
		}
		reply, err := h.chat.Send(c.UserContext(), workspaceID(c), mode, req.Text)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(reply)
	}
}

func (h *Handler) ChatHistory(mode model.ChatMode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		msgs, err := h.chat.History(c.UserContext(), workspaceID(c), mode)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(msgs)
	}
}

// PersonalChat answers a client-held conversation without storing it.
func (h *Handler) PersonalChat(c *fiber.Ctx) error {
	var req model.PersonalChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request, expected JSON: {\"messages\":[...]}")
	}
	h.log.Debug("personal ai-chat", "workspace", workspaceID(c), "turns", len(req.Messages))
	resp, err := h.chat.Personal(c.UserContext(), req.Messages)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}

func (h *Handler) ContextualChat(c *fiber.Ctx) error {
	var req model.ContextualChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request, expected JSON: {\"messages\":[...],\"documentIds\":[...]}")
	}
	h.log.Debug("contextual ai-chat", "workspace", workspaceID(c), "turns", len(req.Messages), "documents", len(req.DocumentIDs))
	resp, err := h.chat.Contextual(c.UserContext(), workspaceID(c), req.Messages, req.DocumentIDs)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}
