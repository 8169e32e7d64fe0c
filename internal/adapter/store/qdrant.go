package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
)

// QdrantConfig holds connection details for the optional qdrant index.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
}

type qdrantQuerier interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// QdrantSearcher serves similarity search from a qdrant collection that
// mirrors the catalog embeddings. Point payloads carry the catalog columns.
type QdrantSearcher struct {
	client     qdrantQuerier
	closer     func() error
	collection string
	logger     *zap.Logger
}

// NewQdrantSearcher connects to qdrant over gRPC.
func NewQdrantSearcher(cfg QdrantConfig, logger *zap.Logger) (*QdrantSearcher, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	s := newQdrantSearcher(client, cfg.Collection, logger)
	s.closer = client.Close
	return s, nil
}

func newQdrantSearcher(client qdrantQuerier, collection string, logger *zap.Logger) *QdrantSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QdrantSearcher{client: client, collection: collection, logger: logger.Named("qdrant")}
}

// Close releases the gRPC connection.
func (s *QdrantSearcher) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// SimilaritySearch queries the collection with cosine distance.
func (s *QdrantSearcher) SimilaritySearch(ctx context.Context, vector []float32, limit int) ([]domain.SearchResult, error) {
	lim := uint64(limit)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(points))
	for _, p := range points {
		product := productFromPayload(p.GetPayload())
		if product.ProductID == "" {
			product.ProductID = pointID(p.GetId())
		}
		results = append(results, domain.SearchResult{Product: product, Score: float64(p.GetScore())})
	}
	s.logger.Debug("qdrant search", zap.String("collection", s.collection), zap.Int("results", len(results)))
	return results, nil
}

func productFromPayload(payload map[string]*qdrant.Value) domain.Product {
	return domain.Product{
		ProductID:       payload["product_id"].GetStringValue(),
		Description:     payload["product_description"].GetStringValue(),
		Category:        payload["category_name"].GetStringValue(),
		Stars:           numberValue(payload["stars"]),
		Price:           numberValue(payload["price"]),
		BoughtLastMonth: int(numberValue(payload["boughtinlastmonth"])),
		ImageURL:        payload["imgurl"].GetStringValue(),
		ProductURL:      payload["producturl"].GetStringValue(),
	}
}

// numberValue accepts both integer and double payload values.
func numberValue(v *qdrant.Value) float64 {
	if v == nil {
		return 0
	}
	switch k := v.GetKind().(type) {
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_IntegerValue:
		return float64(k.IntegerValue)
	case *qdrant.Value_StringValue:
		f, _ := strconv.ParseFloat(k.StringValue, 64)
		return f
	}
	return 0
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch x := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Uuid:
		return x.Uuid
	case *qdrant.PointId_Num:
		return strconv.FormatUint(x.Num, 10)
	}
	return ""
}
