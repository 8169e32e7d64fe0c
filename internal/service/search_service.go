package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

const (
	// MaxTopK caps how many products a single search may return.
	MaxTopK = 50
	// DefaultRecommendTopK is used when Recommend is called without a count.
	DefaultRecommendTopK = 3

	generationMaxTokens = 4096
)

// ExampleQueries are the suggested catalog queries shown next to the search box.
var ExampleQueries = []string{
	"affordable portable computers",
	"I need something to keep my drinks cold on a picnic",
	"light jacket for spring evenings",
	"duffel bags for the gym",
	"eco-friendly cleaning products",
	"gift for a tech-savvy teenager",
	"wirless blutooth headfones",
	"outdoor cooking equipment",
	"vacation-ready camera",
	"stylish but professional attire for a creative office",
	"cozy home decor",
}

const recommendationPrompt = `Based on the user's preferences: "%s"
And considering these top products from our catalog:
%s

Provide %d personalized product recommendations. For each recommendation:
1. Explain why it's a good fit for the user
2. Highlight key features or benefits
3. Suggest how it compares to similar products

Format your response in markdown for easy reading.`

// Strategy is a retrieval strategy. It never returns an error directly;
// failures are reported in ResultSet.Err.
type Strategy func(ctx context.Context, query string, topK int) domain.ResultSet

// SearchService compares keyword and semantic retrieval over the catalog
// and generates recommendations from semantic matches.
type SearchService struct {
	ai      port.AIProvider
	lexical port.LexicalSearcher
	similar port.SimilaritySearcher
	logger  *zap.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(ai port.AIProvider, lexical port.LexicalSearcher, similar port.SimilaritySearcher, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{ai: ai, lexical: lexical, similar: similar, logger: logger.Named("search")}
}

// CompareSearch runs keyword and semantic search for the same query
// concurrently. One strategy failing leaves the other's results intact.
func (s *SearchService) CompareSearch(ctx context.Context, query string, topK int) (*domain.Comparison, error) {
	query = strings.TrimSpace(query)
	if err := validateSearch(query, topK); err != nil {
		return nil, err
	}

	cmp := &domain.Comparison{Query: query, TopK: topK}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cmp.Lexical = s.Lexical(ctx, query, topK)
	}()
	go func() {
		defer wg.Done()
		cmp.Semantic = s.Semantic(ctx, query, topK)
	}()
	wg.Wait()

	s.logger.Info("compare search",
		zap.String("query", query),
		zap.Int("top_k", topK),
		zap.Int("lexical", len(cmp.Lexical.Results)),
		zap.Int("semantic", len(cmp.Semantic.Results)),
		zap.Int64("lexical_ms", cmp.Lexical.LatencyMS),
		zap.Int64("semantic_ms", cmp.Semantic.LatencyMS),
	)
	return cmp, nil
}

// Lexical ranks products by full-text match.
func (s *SearchService) Lexical(ctx context.Context, query string, topK int) domain.ResultSet {
	rs := domain.ResultSet{Strategy: domain.StrategyLexical, Query: query}
	start := time.Now()
	results, err := s.lexical.KeywordSearch(ctx, query, topK)
	rs.SetLatency(time.Since(start))
	if err != nil {
		s.logger.Warn("keyword search failed", zap.Error(err))
		rs.Err = fmt.Errorf("keyword search: %w", err)
		rs.Results = []domain.SearchResult{}
		return rs
	}
	rs.Results = sortByScore(results)
	return rs
}

// Semantic embeds the query once and ranks products by vector similarity.
// Latency covers the store query only; embedding time is reported apart.
func (s *SearchService) Semantic(ctx context.Context, query string, topK int) domain.ResultSet {
	rs := domain.ResultSet{Strategy: domain.StrategySemantic, Query: query, Results: []domain.SearchResult{}}

	embedStart := time.Now()
	vector, err := s.ai.Embed(ctx, query)
	rs.EmbedLatencyMS = time.Since(embedStart).Round(time.Millisecond).Milliseconds()
	if err != nil {
		s.logger.Warn("embedding failed", zap.Error(err))
		rs.Err = fmt.Errorf("embed query: %w", err)
		return rs
	}

	start := time.Now()
	results, err := s.similar.SimilaritySearch(ctx, vector, topK)
	rs.SetLatency(time.Since(start))
	if err != nil {
		s.logger.Warn("similarity search failed", zap.Error(err))
		rs.Err = fmt.Errorf("similarity search: %w", err)
		return rs
	}
	rs.Results = sortByScore(results)
	return rs
}

// Recommend retrieves the topK products closest to a free-text preference
// and asks the model to recommend among exactly those products. A
// generation failure still returns the products.
func (s *SearchService) Recommend(ctx context.Context, preference string, topK int) (*domain.Recommendation, error) {
	preference = strings.TrimSpace(preference)
	if topK == 0 {
		topK = DefaultRecommendTopK
	}
	if err := validateSearch(preference, topK); err != nil {
		return nil, err
	}

	products := s.Semantic(ctx, preference, topK)
	if products.Err != nil {
		return nil, products.Err
	}

	rec := &domain.Recommendation{Preference: preference, Products: products}
	if len(products.Results) == 0 {
		rec.NoMatch = true
		return rec, nil
	}

	prompt, err := BuildRecommendationPrompt(preference, products.Results, topK)
	if err != nil {
		return nil, err
	}
	text, err := s.ai.Generate(ctx, port.GenerateRequest{Prompt: prompt, MaxTokens: generationMaxTokens})
	if err != nil {
		s.logger.Error("recommendation generation failed", zap.Error(err))
		rec.GenerationError = err.Error()
		return rec, nil
	}
	rec.Text = text

	s.logger.Info("recommendation generated",
		zap.Int("products", len(products.Results)),
		zap.Int64("query_ms", products.LatencyMS),
	)
	return rec, nil
}

type productRecord struct {
	ProductID       string  `json:"productId"`
	Description     string  `json:"product_description"`
	Category        string  `json:"category_name"`
	Stars           float64 `json:"stars"`
	Price           float64 `json:"price"`
	BoughtLastMonth int     `json:"boughtinlastmonth"`
	ImageURL        string  `json:"imgurl,omitempty"`
	ProductURL      string  `json:"producturl,omitempty"`
	Similarity      float64 `json:"similarity"`
}

// BuildRecommendationPrompt renders the recommendation prompt with the
// given products serialized as JSON records, in order.
func BuildRecommendationPrompt(preference string, results []domain.SearchResult, topK int) (string, error) {
	records := make([]productRecord, len(results))
	for i, r := range results {
		records[i] = productRecord{
			ProductID:       r.ProductID,
			Description:     r.Description,
			Category:        r.Category,
			Stars:           r.Stars,
			Price:           r.Price,
			BoughtLastMonth: r.BoughtLastMonth,
			ImageURL:        r.ImageURL,
			ProductURL:      r.ProductURL,
			Similarity:      r.Score,
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode products: %w", err)
	}
	return fmt.Sprintf(recommendationPrompt, preference, data, topK), nil
}

func validateSearch(query string, topK int) error {
	if query == "" {
		return port.ErrEmptyQuery
	}
	if topK < 1 || topK > MaxTopK {
		return fmt.Errorf("%w: %d (want 1..%d)", port.ErrInvalidTopK, topK, MaxTopK)
	}
	return nil
}

// sortByScore orders results by descending score, keeping the store order
// for ties.
func sortByScore(results []domain.SearchResult) []domain.SearchResult {
	if results == nil {
		return []domain.SearchResult{}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
