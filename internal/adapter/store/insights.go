package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
)

// Dashboard queries. They are exported so the dashboard can show them.
const (
	TrendingCategoriesQuery = `SELECT category_name, SUM(boughtinlastmonth) AS total_bought
	FROM ` + ProductCatalogTable + `
	GROUP BY category_name
	ORDER BY total_bought DESC
	LIMIT $1`

	TopGrossingProductsQuery = `SELECT product_description, category_name, price * boughtinlastmonth AS total_revenue,
	       boughtinlastmonth, stars, price
	FROM ` + ProductCatalogTable + `
	ORDER BY total_revenue DESC
	LIMIT $1`

	TopSellingProductsQuery = `SELECT product_description, category_name, boughtinlastmonth, stars, price
	FROM ` + ProductCatalogTable + `
	ORDER BY boughtinlastmonth DESC
	LIMIT $1`

	TopRatedCategoriesQuery = `SELECT category_name, AVG(stars) AS avg_rating
	FROM ` + ProductCatalogTable + `
	GROUP BY category_name
	ORDER BY avg_rating DESC
	LIMIT $1`

	BestSellingByCategoryQuery = `SELECT DISTINCT ON (category_name)
	       category_name, product_description, boughtinlastmonth
	FROM ` + ProductCatalogTable + `
	ORDER BY category_name, boughtinlastmonth DESC
	LIMIT $1`

	SpendingHabitsQuery = `WITH price_ranges AS (
	    SELECT
	        CASE
	            WHEN price < 20 THEN 'Under $20'
	            WHEN price >= 20 AND price < 50 THEN '$20 - $49.99'
	            WHEN price >= 50 AND price < 100 THEN '$50 - $99.99'
	            WHEN price >= 100 AND price < 200 THEN '$100 - $199.99'
	            ELSE '$200 and above'
	        END AS price_range,
	        boughtinlastmonth
	    FROM ` + ProductCatalogTable + `
	)
	SELECT price_range, COUNT(*) AS product_count, SUM(boughtinlastmonth) AS total_sold
	FROM price_ranges
	GROUP BY price_range
	ORDER BY
	    CASE price_range
	        WHEN 'Under $20' THEN 1
	        WHEN '$20 - $49.99' THEN 2
	        WHEN '$50 - $99.99' THEN 3
	        WHEN '$100 - $199.99' THEN 4
	        ELSE 5
	    END`
)

// Queries returns the dashboard SQL in display order.
func (s *CatalogStore) Queries() []domain.NamedQuery {
	return []domain.NamedQuery{
		{Name: "trending_categories", SQL: TrendingCategoriesQuery},
		{Name: "top_grossing", SQL: TopGrossingProductsQuery},
		{Name: "top_selling", SQL: TopSellingProductsQuery},
		{Name: "top_rated_categories", SQL: TopRatedCategoriesQuery},
		{Name: "best_selling_by_category", SQL: BestSellingByCategoryQuery},
		{Name: "spending_habits", SQL: SpendingHabitsQuery},
	}
}

// TrendingCategories returns categories by total units sold last month.
func (s *CatalogStore) TrendingCategories(ctx context.Context, limit int) ([]domain.CategoryVolume, error) {
	return queryRows(ctx, s.db, "trending categories", TrendingCategoriesQuery, func(rows *sql.Rows) (domain.CategoryVolume, error) {
		var c domain.CategoryVolume
		err := rows.Scan(&c.Category, &c.TotalBought)
		return c, err
	}, limit)
}

// TopGrossingProducts returns products by last-month revenue.
func (s *CatalogStore) TopGrossingProducts(ctx context.Context, limit int) ([]domain.ProductRevenue, error) {
	return queryRows(ctx, s.db, "top grossing products", TopGrossingProductsQuery, func(rows *sql.Rows) (domain.ProductRevenue, error) {
		var p domain.ProductRevenue
		err := rows.Scan(&p.Description, &p.Category, &p.TotalRevenue, &p.BoughtLastMonth, &p.Stars, &p.Price)
		return p, err
	}, limit)
}

// TopSellingProducts returns products by units sold last month.
func (s *CatalogStore) TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	return queryRows(ctx, s.db, "top selling products", TopSellingProductsQuery, func(rows *sql.Rows) (domain.ProductSales, error) {
		var p domain.ProductSales
		err := rows.Scan(&p.Description, &p.Category, &p.BoughtLastMonth, &p.Stars, &p.Price)
		return p, err
	}, limit)
}

// TopRatedCategories returns categories by average star rating.
func (s *CatalogStore) TopRatedCategories(ctx context.Context, limit int) ([]domain.CategoryRating, error) {
	return queryRows(ctx, s.db, "top rated categories", TopRatedCategoriesQuery, func(rows *sql.Rows) (domain.CategoryRating, error) {
		var c domain.CategoryRating
		err := rows.Scan(&c.Category, &c.AvgRating)
		return c, err
	}, limit)
}

// BestSellingByCategory returns the best seller of each category.
func (s *CatalogStore) BestSellingByCategory(ctx context.Context, limit int) ([]domain.CategoryBestSeller, error) {
	return queryRows(ctx, s.db, "best selling by category", BestSellingByCategoryQuery, func(rows *sql.Rows) (domain.CategoryBestSeller, error) {
		var b domain.CategoryBestSeller
		err := rows.Scan(&b.Category, &b.Description, &b.BoughtLastMonth)
		return b, err
	}, limit)
}

// SpendingHabits groups products and sales into price bands.
func (s *CatalogStore) SpendingHabits(ctx context.Context) ([]domain.PriceBand, error) {
	return queryRows(ctx, s.db, "spending habits", SpendingHabitsQuery, func(rows *sql.Rows) (domain.PriceBand, error) {
		var b domain.PriceBand
		err := rows.Scan(&b.PriceRange, &b.ProductCount, &b.TotalSold)
		return b, err
	})
}

func queryRows[T any](ctx context.Context, db *sql.DB, name, query string, scan func(*sql.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
