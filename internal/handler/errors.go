package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

// statusFor maps service errors to HTTP status codes. Anything not caused
// by the request is treated as an upstream failure.
func statusFor(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, port.ErrEmptyQuery),
		errors.Is(err, port.ErrInvalidTopK),
		errors.Is(err, domain.ErrUnknownModel),
		errors.Is(err, port.ErrModelNotConfigured),
		errors.Is(err, port.ErrUnsupportedDocument):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrKnowledgeBaseOff):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}

func respondError(c fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(verr)
	}
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
