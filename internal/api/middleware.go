package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID      = "userID"
	localWorkspaceID = "workspaceID"
)

// RequireAuth accepts "Authorization: Bearer <token>" and stores the user
// id in the request locals.
func (h *Handler) RequireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}
	userID, err := h.auth.Verify(strings.TrimSpace(token))
	if err != nil {
		return h.fail(c, err)
	}
	c.Locals(localUserID, userID)
	return c.Next()
}

// RequireWorkspace resolves :workspaceId and checks that it belongs to
// the caller. Foreign workspaces are reported as missing.
func (h *Handler) RequireWorkspace(c *fiber.Ctx) error {
	id, err := paramID(c, "workspaceId")
	if err != nil {
		return badRequest(c, "invalid workspace id")
	}
	if _, err := h.workspaces.Get(c.UserContext(), id, userID(c)); err != nil {
		return h.fail(c, err)
	}
	c.Locals(localWorkspaceID, id)
	return c.Next()
}

func userID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localUserID).(int64)
	return id
}

func workspaceID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localWorkspaceID).(int64)
	return id
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	return strconv.ParseInt(c.Params(name), 10, 64)
}
