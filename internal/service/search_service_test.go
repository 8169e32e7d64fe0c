package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
	"github.com/arturoeanton/blaize-bazaar/internal/port/porttest"
)

func result(id, desc string, score float64) domain.SearchResult {
	return domain.SearchResult{Product: domain.Product{ProductID: id, Description: desc}, Score: score}
}

func newSearchService() (*SearchService, *porttest.AIProvider, *porttest.Catalog) {
	ai := new(porttest.AIProvider)
	catalog := new(porttest.Catalog)
	return NewSearchService(ai, catalog, catalog, zap.NewNop()), ai, catalog
}

func assertDescending(t *testing.T, results []domain.SearchResult) {
	t.Helper()
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "position %d", i)
	}
}

func TestCompareSearch(t *testing.T) {
	svc, ai, catalog := newSearchService()
	query := "wireless bluetooth headphones"
	vector := []float32{0.1, 0.2}

	catalog.On("KeywordSearch", mock.Anything, query, 5).Return([]domain.SearchResult{
		result("B2", "Bluetooth speaker", 0.1),
		result("B1", "Wireless headphones", 0.6),
	}, nil)
	ai.On("Embed", mock.Anything, query).Return(vector, nil).Once()
	catalog.On("SimilaritySearch", mock.Anything, vector, 5).Return([]domain.SearchResult{
		result("H1", "Over-ear headphones", 0.82),
		result("H2", "Earbuds", 0.79),
		result("H3", "Gaming headset", 0.75),
		result("H4", "Noise cancelling headphones", 0.74),
		result("H5", "Kids headphones", 0.70),
	}, nil)

	cmp, err := svc.CompareSearch(context.Background(), "  "+query+" ", 5)
	require.NoError(t, err)

	assert.Equal(t, query, cmp.Query)
	assert.Equal(t, domain.StrategyLexical, cmp.Lexical.Strategy)
	assert.Equal(t, domain.StrategySemantic, cmp.Semantic.Strategy)
	assert.LessOrEqual(t, len(cmp.Lexical.Results), 5)
	assert.Len(t, cmp.Semantic.Results, 5)
	assert.Equal(t, "B1", cmp.Lexical.Results[0].ProductID)
	assertDescending(t, cmp.Lexical.Results)
	assertDescending(t, cmp.Semantic.Results)
	for _, r := range cmp.Semantic.Results {
		assert.GreaterOrEqual(t, r.Score, -1.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
	assert.NoError(t, cmp.Lexical.Err)
	assert.NoError(t, cmp.Semantic.Err)
	ai.AssertNumberOfCalls(t, "Embed", 1)
	catalog.AssertExpectations(t)
}

func TestCompareSearch_OneStrategyFails(t *testing.T) {
	t.Run("lexical", func(t *testing.T) {
		svc, ai, catalog := newSearchService()
		catalog.On("KeywordSearch", mock.Anything, "cooler", 3).Return(nil, errors.New("syntax error in tsquery"))
		ai.On("Embed", mock.Anything, "cooler").Return([]float32{1}, nil)
		catalog.On("SimilaritySearch", mock.Anything, mock.Anything, 3).
			Return([]domain.SearchResult{result("C1", "Cooler", 0.9)}, nil)

		cmp, err := svc.CompareSearch(context.Background(), "cooler", 3)
		require.NoError(t, err)
		assert.Error(t, cmp.Lexical.Err)
		assert.NotNil(t, cmp.Lexical.Results)
		assert.Empty(t, cmp.Lexical.Results)
		assert.NoError(t, cmp.Semantic.Err)
		assert.Len(t, cmp.Semantic.Results, 1)
	})

	t.Run("embedding", func(t *testing.T) {
		svc, ai, catalog := newSearchService()
		catalog.On("KeywordSearch", mock.Anything, "cooler", 3).
			Return([]domain.SearchResult{result("C1", "Cooler", 0.3)}, nil)
		ai.On("Embed", mock.Anything, "cooler").Return(nil, errors.New("throttled"))

		cmp, err := svc.CompareSearch(context.Background(), "cooler", 3)
		require.NoError(t, err)
		assert.Len(t, cmp.Lexical.Results, 1)
		require.Error(t, cmp.Semantic.Err)
		assert.Contains(t, cmp.Semantic.Err.Error(), "throttled")
		catalog.AssertNotCalled(t, "SimilaritySearch", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCompareSearch_NoMatch(t *testing.T) {
	svc, ai, catalog := newSearchService()
	catalog.On("KeywordSearch", mock.Anything, "zzzz", 5).Return([]domain.SearchResult{}, nil)
	ai.On("Embed", mock.Anything, "zzzz").Return([]float32{1}, nil)
	catalog.On("SimilaritySearch", mock.Anything, mock.Anything, 5).Return(nil, nil)

	cmp, err := svc.CompareSearch(context.Background(), "zzzz", 5)
	require.NoError(t, err)
	assert.True(t, cmp.Lexical.NoMatch())
	assert.True(t, cmp.Semantic.NoMatch())
}

func TestCompareSearch_Validation(t *testing.T) {
	svc, ai, catalog := newSearchService()

	tests := []struct {
		name  string
		query string
		topK  int
		want  error
	}{
		{"empty query", "   ", 5, port.ErrEmptyQuery},
		{"zero top k", "shoes", 0, port.ErrInvalidTopK},
		{"top k too large", "shoes", MaxTopK + 1, port.ErrInvalidTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompareSearch(context.Background(), tt.query, tt.topK)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	ai.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "KeywordSearch", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend(t *testing.T) {
	svc, ai, catalog := newSearchService()
	pref := "I need a light jacket for spring evenings"
	products := []domain.SearchResult{
		result("J1", "Lightweight spring jacket", 0.91),
		result("J2", "Packable windbreaker", 0.88),
		result("J3", "Cotton bomber jacket", 0.85),
	}

	ai.On("Embed", mock.Anything, pref).Return([]float32{0.3}, nil).Once()
	catalog.On("SimilaritySearch", mock.Anything, []float32{0.3}, 3).Return(products, nil)
	ai.On("Generate", mock.Anything, mock.MatchedBy(func(req port.GenerateRequest) bool {
		return req.MaxTokens == 4096 &&
			strings.Contains(req.Prompt, pref) &&
			strings.Contains(req.Prompt, "Lightweight spring jacket") &&
			strings.Contains(req.Prompt, "Packable windbreaker") &&
			strings.Contains(req.Prompt, "Cotton bomber jacket") &&
			strings.Contains(req.Prompt, "Provide 3 personalized product recommendations")
	})).Return("1. **Lightweight spring jacket** ...", nil).Once()

	rec, err := svc.Recommend(context.Background(), pref, 3)
	require.NoError(t, err)
	assert.Len(t, rec.Products.Results, 3)
	assert.NotEmpty(t, rec.Text)
	assert.False(t, rec.NoMatch)
	assert.Empty(t, rec.GenerationError)
	ai.AssertExpectations(t)
}

func TestRecommend_DefaultTopK(t *testing.T) {
	svc, ai, catalog := newSearchService()
	ai.On("Embed", mock.Anything, "gym bag").Return([]float32{0.3}, nil)
	catalog.On("SimilaritySearch", mock.Anything, mock.Anything, DefaultRecommendTopK).
		Return([]domain.SearchResult{result("G1", "Duffel", 0.9)}, nil)
	ai.On("Generate", mock.Anything, mock.Anything).Return("Duffel", nil)

	_, err := svc.Recommend(context.Background(), "gym bag", 0)
	require.NoError(t, err)
	catalog.AssertExpectations(t)
}

func TestRecommend_NoMatchSkipsGeneration(t *testing.T) {
	svc, ai, catalog := newSearchService()
	ai.On("Embed", mock.Anything, "unobtainium").Return([]float32{0.3}, nil)
	catalog.On("SimilaritySearch", mock.Anything, mock.Anything, 3).Return([]domain.SearchResult{}, nil)

	rec, err := svc.Recommend(context.Background(), "unobtainium", 3)
	require.NoError(t, err)
	assert.True(t, rec.NoMatch)
	assert.Empty(t, rec.Text)
	ai.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRecommend_GenerationFailureKeepsProducts(t *testing.T) {
	svc, ai, catalog := newSearchService()
	ai.On("Embed", mock.Anything, "tent").Return([]float32{0.3}, nil)
	catalog.On("SimilaritySearch", mock.Anything, mock.Anything, 2).
		Return([]domain.SearchResult{result("T1", "Tent", 0.9), result("T2", "Tarp", 0.7)}, nil)
	ai.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("model timeout"))

	rec, err := svc.Recommend(context.Background(), "tent", 2)
	require.NoError(t, err)
	assert.Len(t, rec.Products.Results, 2)
	assert.Empty(t, rec.Text)
	assert.Contains(t, rec.GenerationError, "model timeout")
}

func TestRecommend_RetrievalFailure(t *testing.T) {
	svc, ai, catalog := newSearchService()
	ai.On("Embed", mock.Anything, "tent").Return([]float32{0.3}, nil)
	catalog.On("SimilaritySearch", mock.Anything, mock.Anything, 3).Return(nil, errors.New("connection refused"))

	_, err := svc.Recommend(context.Background(), "tent", 3)
	require.Error(t, err)
	ai.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestBuildRecommendationPrompt_OnlyGivenProducts(t *testing.T) {
	prompt, err := BuildRecommendationPrompt("picnic", []domain.SearchResult{result("P1", "Cooler bag", 0.9)}, 1)
	require.NoError(t, err)
	assert.Contains(t, prompt, `"product_description": "Cooler bag"`)
	assert.Equal(t, 1, strings.Count(prompt, `"productId"`))
}

func TestSortByScore_Stable(t *testing.T) {
	in := []domain.SearchResult{result("a", "", 0.5), result("b", "", 0.9), result("c", "", 0.5)}
	out := sortByScore(in)
	ids := []string{out[0].ProductID, out[1].ProductID, out[2].ProductID}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.NotNil(t, sortByScore(nil))
}
