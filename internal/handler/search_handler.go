package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/service"
)

const defaultCompareTopK = 5

// SearchHandler serves search comparison and recommendations.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Register sets up search routes.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Get("/search/examples", h.Examples)
	router.Post("/search/compare", h.Compare)
	router.Post("/recommendations", h.Recommend)
}

type compareRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=50"`
}

type recommendRequest struct {
	Preference string `json:"preference" validate:"required"`
	TopK       int    `json:"top_k" validate:"omitempty,min=1,max=50"`
}

type resultSetView struct {
	domain.ResultSet
	NoMatch bool   `json:"no_match"`
	Error   string `json:"error,omitempty"`
}

func viewResultSet(rs domain.ResultSet) resultSetView {
	v := resultSetView{ResultSet: rs, NoMatch: rs.NoMatch()}
	if rs.Err != nil {
		v.Error = rs.Err.Error()
	}
	if v.Results == nil {
		v.Results = []domain.SearchResult{}
	}
	return v
}

// Examples lists suggested queries.
func (h *SearchHandler) Examples(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"examples": service.ExampleQueries})
}

// Compare runs keyword and semantic search side by side.
func (h *SearchHandler) Compare(c fiber.Ctx) error {
	var body compareRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := ValidateStruct(body); err != nil {
		return respondError(c, err)
	}
	if body.TopK == 0 {
		body.TopK = defaultCompareTopK
	}

	cmp, err := h.search.CompareSearch(c.Context(), body.Query, body.TopK)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"query":    cmp.Query,
		"top_k":    cmp.TopK,
		"lexical":  viewResultSet(cmp.Lexical),
		"semantic": viewResultSet(cmp.Semantic),
	})
}

// Recommend generates recommendations for a free-text preference.
func (h *SearchHandler) Recommend(c fiber.Ctx) error {
	var body recommendRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := ValidateStruct(body); err != nil {
		return respondError(c, err)
	}

	rec, err := h.search.Recommend(c.Context(), body.Preference, body.TopK)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"preference":       rec.Preference,
		"text":             rec.Text,
		"products":         viewResultSet(rec.Products),
		"no_match":         rec.NoMatch,
		"generation_error": rec.GenerationError,
	})
}
