package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

// DefaultInsightsTopN is the row limit of each dashboard ranking.
const DefaultInsightsTopN = 10

const marketInsightsPrompt = `Based on the following product data:
Top Trending Categories: %s
Top Grossing Products: %s
Top Selling Products: %s
Top Rated Categories: %s
Best Selling by Category: %s
Spending Habits: %s

First, provide a summary of the market trends, customer preferences and potential areas for improvement or expansion.
Second, provide a detailed analysis of the market trends, customer preferences, and potential areas for improvement or expansion.
Focus on actionable insights that could help drive business decisions. Format your response in markdown for easy reading.`

// MarketInsights is a generated market analysis and the prompt it came from.
type MarketInsights struct {
	Dashboard *domain.Dashboard `json:"dashboard"`
	Prompt    string            `json:"prompt"`
	Text      string            `json:"text"`
}

// InsightsService builds the product insights dashboard.
type InsightsService struct {
	store   port.InsightsStore
	ai      port.AIProvider
	modelID string
	logger  *zap.Logger
}

// NewInsightsService creates an insights service. modelID selects the
// generation model for market insights; empty uses the provider default.
func NewInsightsService(store port.InsightsStore, ai port.AIProvider, modelID string, logger *zap.Logger) *InsightsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsService{store: store, ai: ai, modelID: modelID, logger: logger.Named("insights")}
}

// Dashboard runs every aggregate query. topN <= 0 uses the default.
func (s *InsightsService) Dashboard(ctx context.Context, topN int) (*domain.Dashboard, error) {
	if topN <= 0 {
		topN = DefaultInsightsTopN
	}
	if topN > MaxTopK {
		return nil, fmt.Errorf("%w: %d (want 1..%d)", port.ErrInvalidTopK, topN, MaxTopK)
	}

	d := &domain.Dashboard{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TrendingCategories, err = s.store.TrendingCategories(ctx, topN)
		return err
	})
	g.Go(func() (err error) {
		d.TopGrossing, err = s.store.TopGrossingProducts(ctx, topN)
		return err
	})
	g.Go(func() (err error) {
		d.TopSelling, err = s.store.TopSellingProducts(ctx, topN)
		return err
	})
	g.Go(func() (err error) {
		d.TopRatedCategories, err = s.store.TopRatedCategories(ctx, topN)
		return err
	})
	g.Go(func() (err error) {
		d.BestSellingByCategory, err = s.store.BestSellingByCategory(ctx, topN)
		return err
	})
	g.Go(func() (err error) {
		d.SpendingHabits, err = s.store.SpendingHabits(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard query failed", zap.Error(err))
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return d, nil
}

// MarketInsights asks the model for a market analysis of the dashboard.
func (s *InsightsService) MarketInsights(ctx context.Context, d *domain.Dashboard) (*MarketInsights, error) {
	prompt, err := BuildMarketInsightsPrompt(d)
	if err != nil {
		return nil, err
	}
	text, err := s.ai.Generate(ctx, port.GenerateRequest{
		ModelID:   s.modelID,
		Prompt:    prompt,
		MaxTokens: generationMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("market insights: %w", err)
	}
	s.logger.Info("market insights generated", zap.Int("chars", len(text)))
	return &MarketInsights{Dashboard: d, Prompt: prompt, Text: text}, nil
}

// Queries returns the SQL behind each dashboard section.
func (s *InsightsService) Queries() []domain.NamedQuery {
	return s.store.Queries()
}

// BuildMarketInsightsPrompt renders the market insights prompt.
func BuildMarketInsightsPrompt(d *domain.Dashboard) (string, error) {
	sections := []any{
		d.TrendingCategories,
		d.TopGrossing,
		d.TopSelling,
		d.TopRatedCategories,
		d.BestSellingByCategory,
		d.SpendingHabits,
	}
	args := make([]any, len(sections))
	for i, v := range sections {
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode dashboard: %w", err)
		}
		args[i] = string(data)
	}
	return fmt.Sprintf(marketInsightsPrompt, args...), nil
}
