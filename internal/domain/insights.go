package domain

// CategoryVolume is the total units sold in a category last month.
type CategoryVolume struct {
	Category    string `json:"category"`
	TotalBought int64  `json:"total_bought"`
}

// ProductRevenue is a product with its last-month revenue (price × units).
type ProductRevenue struct {
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	TotalRevenue    float64 `json:"total_revenue"`
	BoughtLastMonth int     `json:"bought_last_month"`
	Stars           float64 `json:"stars"`
	Price           float64 `json:"price"`
}

// ProductSales is a product ranked by units sold.
type ProductSales struct {
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	BoughtLastMonth int     `json:"bought_last_month"`
	Stars           float64 `json:"stars"`
	Price           float64 `json:"price"`
}

// CategoryRating is the average star rating of a category.
type CategoryRating struct {
	Category  string  `json:"category"`
	AvgRating float64 `json:"avg_rating"`
}

// CategoryBestSeller is the best selling product in a category.
type CategoryBestSeller struct {
	Category        string `json:"category"`
	Description     string `json:"description"`
	BoughtLastMonth int    `json:"bought_last_month"`
}

// PriceBand aggregates products and sales within a price range.
type PriceBand struct {
	PriceRange   string `json:"price_range"`
	ProductCount int64  `json:"product_count"`
	TotalSold    int64  `json:"total_sold"`
}

// Dashboard is the full product insights payload.
type Dashboard struct {
	TrendingCategories    []CategoryVolume     `json:"trending_categories"`
	TopGrossing           []ProductRevenue     `json:"top_grossing"`
	TopSelling            []ProductSales       `json:"top_selling"`
	TopRatedCategories    []CategoryRating     `json:"top_rated_categories"`
	BestSellingByCategory []CategoryBestSeller `json:"best_selling_by_category"`
	SpendingHabits        []PriceBand          `json:"spending_habits"`
}

// NamedQuery is a SQL statement shown next to the chart it feeds.
type NamedQuery struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
}
