package api

import (
	"github.com/gofiber/fiber/v2"
)

// UploadDocument takes a multipart upload in the "file" form field.
func (h *Handler) UploadDocument(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required (form field: file)")
	}
	f, err := file.Open()
	if err != nil {
		return h.fail(c, err)
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.UserContext(), workspaceID(c), file.Filename, file.Header.Get(fiber.HeaderContentType), f)
	if err != nil {
		return h.fail(c, err)
	}
	doc.Content = ""
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *Handler) ListDocuments(c *fiber.Ctx) error {
	docs, err := h.documents.List(c.UserContext(), workspaceID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(docs)
}

func (h *Handler) GetDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid document id")
	}
	doc, err := h.documents.Get(c.UserContext(), workspaceID(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(doc)
}

func (h *Handler) DeleteDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid document id")
	}
	if err := h.documents.Delete(c.UserContext(), workspaceID(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Document successfully deleted"})
}
