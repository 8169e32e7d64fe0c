package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
)

const productColumns = `"productId", product_description, category_name, stars, price, boughtinlastmonth,
	       COALESCE(imgurl, ''), COALESCE(producturl, '')`

// KeywordSearchQuery ranks products by full-text match over description and category.
const KeywordSearchQuery = `SELECT ` + productColumns + `,
	       ts_rank(to_tsvector('english', product_description || ' ' || category_name), plainto_tsquery('english', $1)) AS rank
	FROM ` + ProductCatalogTable + `
	WHERE to_tsvector('english', product_description || ' ' || category_name) @@ plainto_tsquery('english', $1)
	ORDER BY rank DESC
	LIMIT $2`

// SimilaritySearchQuery ranks products by cosine similarity to a query vector.
const SimilaritySearchQuery = `SELECT ` + productColumns + `,
	       1 - (embedding <=> $1::vector) AS similarity
	FROM ` + ProductCatalogTable + `
	ORDER BY embedding <=> $1::vector
	LIMIT $2`

// KeywordSearch performs a lexical full-text search.
func (s *CatalogStore) KeywordSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, KeywordSearchQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	results, err := scanSearchResults(rows)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	s.logger.Debug("keyword search", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// SimilaritySearch performs a cosine similarity search on product embeddings.
func (s *CatalogStore) SimilaritySearch(ctx context.Context, vector []float32, limit int) ([]domain.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, SimilaritySearchQuery, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	results, err := scanSearchResults(rows)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	s.logger.Debug("similarity search", zap.Int("dimension", len(vector)), zap.Int("results", len(results)))
	return results, nil
}

func scanSearchResults(rows *sql.Rows) ([]domain.SearchResult, error) {
	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(
			&r.ProductID, &r.Description, &r.Category, &r.Stars, &r.Price, &r.BoughtLastMonth,
			&r.ImageURL, &r.ProductURL, &r.Score,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return results, nil
}
