package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/blaize-bazaar/internal/service"
)

// InsightsHandler serves the product insights dashboard.
type InsightsHandler struct {
	insights *service.InsightsService
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(insights *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{insights: insights}
}

// Register sets up insights routes.
func (h *InsightsHandler) Register(router fiber.Router) {
	router.Get("/insights", h.Dashboard)
	router.Post("/insights/ai", h.MarketInsights)
}

type marketInsightsRequest struct {
	Top int `json:"top" validate:"omitempty,min=1,max=50"`
}

// Dashboard returns every dashboard section and the SQL behind it.
func (h *InsightsHandler) Dashboard(c fiber.Ctx) error {
	top := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest(c, "top must be a positive integer")
		}
		top = n
	}

	d, err := h.insights.Dashboard(c.Context(), top)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"dashboard": d,
		"queries":   h.insights.Queries(),
	})
}

// MarketInsights generates an AI market analysis of the dashboard.
func (h *InsightsHandler) MarketInsights(c fiber.Ctx) error {
	var body marketInsightsRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if err := ValidateStruct(body); err != nil {
		return respondError(c, err)
	}

	d, err := h.insights.Dashboard(c.Context(), body.Top)
	if err != nil {
		return respondError(c, err)
	}
	mi, err := h.insights.MarketInsights(c.Context(), d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(mi)
}
