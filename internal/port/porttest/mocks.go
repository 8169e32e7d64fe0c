// Package porttest provides testify mocks of the port interfaces.
package porttest

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

// AIProvider mocks port.AIProvider.
type AIProvider struct {
	mock.Mock
}

func (m *AIProvider) ModelName() string {
	return m.Called().String(0)
}

func (m *AIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AIProvider) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// KnowledgeBase mocks port.KnowledgeBase.
type KnowledgeBase struct {
	mock.Mock
}

func (m *KnowledgeBase) RetrieveAndGenerate(ctx context.Context, req port.RAGRequest) (*port.RAGResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*port.RAGResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// Catalog mocks port.LexicalSearcher and port.SimilaritySearcher.
type Catalog struct {
	mock.Mock
}

func (m *Catalog) KeywordSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	args := m.Called(ctx, query, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Catalog) SimilaritySearch(ctx context.Context, vector []float32, limit int) ([]domain.SearchResult, error) {
	args := m.Called(ctx, vector, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// InsightsStore mocks port.InsightsStore.
type InsightsStore struct {
	mock.Mock
}

func (m *InsightsStore) TrendingCategories(ctx context.Context, limit int) ([]domain.CategoryVolume, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.CategoryVolume), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightsStore) TopGrossingProducts(ctx context.Context, limit int) ([]domain.ProductRevenue, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.ProductRevenue), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightsStore) TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.ProductSales), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightsStore) TopRatedCategories(ctx context.Context, limit int) ([]domain.CategoryRating, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.CategoryRating), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightsStore) BestSellingByCategory(ctx context.Context, limit int) ([]domain.CategoryBestSeller, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.CategoryBestSeller), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightsStore) SpendingHabits(ctx context.Context) ([]domain.PriceBand, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.PriceBand), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightsStore) Queries() []domain.NamedQuery {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]domain.NamedQuery)
	}
	return nil
}

// DocumentSink mocks port.DocumentSink. Put drains the body so callers
// see it consumed.
type DocumentSink struct {
	mock.Mock
}

func (m *DocumentSink) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, _ = io.Copy(io.Discard, body)
	return m.Called(ctx, key, contentType, body).Error(0)
}

func (m *DocumentSink) DeleteAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// SyncTrigger mocks port.SyncTrigger.
type SyncTrigger struct {
	mock.Mock
}

func (m *SyncTrigger) TriggerSync(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var (
	_ port.AIProvider         = (*AIProvider)(nil)
	_ port.KnowledgeBase      = (*KnowledgeBase)(nil)
	_ port.LexicalSearcher    = (*Catalog)(nil)
	_ port.SimilaritySearcher = (*Catalog)(nil)
	_ port.InsightsStore      = (*InsightsStore)(nil)
	_ port.DocumentSink       = (*DocumentSink)(nil)
	_ port.SyncTrigger        = (*SyncTrigger)(nil)
)
