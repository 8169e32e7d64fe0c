package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/blaize-bazaar/internal/port"
	"github.com/arturoeanton/blaize-bazaar/internal/service"
)

// DocumentsHandler manages knowledge base documents.
type DocumentsHandler struct {
	docs     *service.DocumentService
	sessions *service.SessionStore
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(docs *service.DocumentService, sessions *service.SessionStore) *DocumentsHandler {
	return &DocumentsHandler{docs: docs, sessions: sessions}
}

// Register sets up document routes.
func (h *DocumentsHandler) Register(router fiber.Router) {
	router.Post("/documents", h.Upload)
	router.Delete("/documents", h.DeleteAll)
}

// Upload stores a multipart "file" field in the knowledge base bucket.
func (h *DocumentsHandler) Upload(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "missing file")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable file")
	}
	defer f.Close()

	key, err := h.docs.Upload(c.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":  key,
		"name": fh.Filename,
		"size": fh.Size,
	})
}

// DeleteAll purges the knowledge base documents and, when ?session= is
// given, clears that chat session.
func (h *DocumentsHandler) DeleteAll(c fiber.Ctx) error {
	n, err := h.docs.DeleteAll(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	sessionReset := false
	if id := c.Query("session"); id != "" {
		s, err := h.sessions.Get(id)
		if err != nil && !errors.Is(err, port.ErrSessionNotFound) {
			return respondError(c, err)
		}
		if s != nil {
			s.Reset()
			sessionReset = true
		}
	}
	return c.JSON(fiber.Map{"deleted": n, "session_reset": sessionReset})
}
