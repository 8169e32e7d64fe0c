package domain

import "time"

// Product is a catalog row. The application only reads products; the
// embedding column is produced by the catalog ingestion pipeline.
type Product struct {
	ProductID       string    `json:"product_id"        db:"productId"`
	Description     string    `json:"description"       db:"product_description"`
	Category        string    `json:"category"          db:"category_name"`
	Stars           float64   `json:"stars"             db:"stars"`
	Price           float64   `json:"price"             db:"price"`
	BoughtLastMonth int       `json:"bought_last_month" db:"boughtinlastmonth"`
	ImageURL        string    `json:"image_url"         db:"imgurl"`
	ProductURL      string    `json:"product_url"       db:"producturl"`
	Embedding       []float32 `json:"-"                 db:"embedding"`
}

// SearchResult is a product plus the score it was ranked by: cosine
// similarity for vector search, ts_rank for keyword search.
type SearchResult struct {
	Product
	Score float64 `json:"score"`
}

// Strategy names a retrieval strategy.
type Strategy string

// Retrieval strategies.
const (
	StrategyLexical  Strategy = "lexical"
	StrategySemantic Strategy = "semantic"
)

// ResultSet is the uniform output of a retrieval strategy. Err is set when
// the strategy failed; Results is then empty.
type ResultSet struct {
	Strategy Strategy       `json:"strategy"`
	Query    string         `json:"query"`
	Results  []SearchResult `json:"results"`
	Latency  time.Duration  `json:"-"`
	// LatencyMS is the store query wall-clock time rounded to the millisecond.
	LatencyMS int64 `json:"latency_ms"`
	// EmbedLatencyMS is only set for semantic search.
	EmbedLatencyMS int64 `json:"embed_latency_ms,omitempty"`
	Err            error `json:"-"`
}

// SetLatency records d rounded to millisecond precision.
func (r *ResultSet) SetLatency(d time.Duration) {
	r.Latency = d.Round(time.Millisecond)
	r.LatencyMS = r.Latency.Milliseconds()
}

// NoMatch reports a successful search that found nothing.
func (r ResultSet) NoMatch() bool {
	return r.Err == nil && len(r.Results) == 0
}

// Comparison holds both sides of a keyword vs. semantic search.
type Comparison struct {
	Query    string    `json:"query"`
	TopK     int       `json:"top_k"`
	Lexical  ResultSet `json:"lexical"`
	Semantic ResultSet `json:"semantic"`
}

// Recommendation is a generated recommendation plus the products it was
// conditioned on.
type Recommendation struct {
	Preference      string    `json:"preference"`
	Text            string    `json:"text"`
	Products        ResultSet `json:"products"`
	NoMatch         bool      `json:"no_match"`
	GenerationError string    `json:"generation_error,omitempty"`
}
