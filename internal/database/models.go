package database

// Article is the persisted enriched article. Nullable columns use pointer
// types.
type Article struct {
	ID             int64    `json:"id"`
	Link           string   `json:"link"`
	Title          string   `json:"title"`
	Summary        *string  `json:"summary"`
	Source         *string  `json:"source"`
	Category       *string  `json:"category"`
	Region         string   `json:"region"`
	Sentiment      float64  `json:"sentiment"`
	SentimentLabel string   `json:"sentiment_label"`
	Relevance      float64  `json:"relevance"`
	Location       *string  `json:"location"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	Published      *string  `json:"published"` // UTC RFC3339 or nil
	CollectedAt    *string  `json:"collected_at"`
}

// FeedSource is one entry of the feed registry.
type FeedSource struct {
	ID       int64
	URL      string
	Name     string
	Region   string
	Category *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles int
	WithLocation  int
	Feeds         int
	ByRegion      map[string]int
}
