package port

import (
	"context"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
)

// LexicalSearcher ranks products by full-text match.
type LexicalSearcher interface {
	KeywordSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}

// SimilaritySearcher ranks products by vector similarity.
type SimilaritySearcher interface {
	SimilaritySearch(ctx context.Context, vector []float32, limit int) ([]domain.SearchResult, error)
}

// InsightsStore runs the dashboard aggregate queries.
type InsightsStore interface {
	TrendingCategories(ctx context.Context, limit int) ([]domain.CategoryVolume, error)
	TopGrossingProducts(ctx context.Context, limit int) ([]domain.ProductRevenue, error)
	TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error)
	TopRatedCategories(ctx context.Context, limit int) ([]domain.CategoryRating, error)
	BestSellingByCategory(ctx context.Context, limit int) ([]domain.CategoryBestSeller, error)
	SpendingHabits(ctx context.Context) ([]domain.PriceBand, error)
	Queries() []domain.NamedQuery
}
