package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/service"
)

// ChatHandler serves knowledge base chat sessions.
type ChatHandler struct {
	chat     *service.ChatService
	sessions *service.SessionStore
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, sessions *service.SessionStore) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	chat := router.Group("/chat")
	chat.Get("/models", h.Models)
	chat.Get("/samples", h.Samples)
	chat.Post("/sessions", h.CreateSession)
	chat.Get("/sessions/:id", h.History)
	chat.Post("/sessions/:id/ask", h.Ask)
	chat.Delete("/sessions/:id", h.Reset)
}

type askRequest struct {
	Question string `json:"question" validate:"required"`
	Model    string `json:"model"`
	UseRAG   bool   `json:"use_rag"`
}

// Models lists the selectable models, default first.
func (h *ChatHandler) Models(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"models": h.chat.Models()})
}

// Samples lists suggested questions.
func (h *ChatHandler) Samples(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"samples": service.SampleQuestions})
}

// CreateSession starts an empty chat session.
func (h *ChatHandler) CreateSession(c fiber.Ctx) error {
	s := h.sessions.Create()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         s.ID,
		"created_at": s.CreatedAt,
	})
}

// History returns the session turns in order.
func (h *ChatHandler) History(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	turns := s.History()
	return c.JSON(fiber.Map{
		"id":    s.ID,
		"turns": turns,
		"count": len(turns),
	})
}

// Ask answers a question and records the exchange.
func (h *ChatHandler) Ask(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var body askRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := ValidateStruct(body); err != nil {
		return respondError(c, err)
	}

	answer, err := h.chat.Ask(c.Context(), s, body.Question, body.Model, body.UseRAG)
	if err != nil {
		return respondError(c, err)
	}
	if answer.Citations == nil {
		answer.Citations = []domain.Citation{}
	}
	return c.JSON(answer)
}

// Reset clears the session history.
func (h *ChatHandler) Reset(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	s.Reset()
	return c.SendStatus(fiber.StatusNoContent)
}
