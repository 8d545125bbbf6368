// Package aggregate computes the per-voivodeship sentiment temperature that
// colors the map.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/sentinews/sentinews/internal/collect"
	"github.com/sentinews/sentinews/internal/database"
	"github.com/sentinews/sentinews/internal/region"
)

// topArticles caps the representative stories returned per region.
const topArticles = 5

// ArticleView is the map-facing projection of one article.
type ArticleView struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Domain      string   `json:"domain"`
	Published   *string  `json:"published"`
	Temperature float64  `json:"temperature"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

// RegionReport is the aggregation result for one voivodeship. Temperature
// is nil when the region had no weighted mass in the window: "no data" is
// distinct from "average zero".
type RegionReport struct {
	Temperature *float64      `json:"temperature"`
	News        []ArticleView `json:"news"`
}

// Store is the read-side storage the engine needs.
type Store interface {
	GetArticlesSince(cutoff string) ([]database.Article, error)
}

// Engine computes relevance-weighted sentiment averages per region.
type Engine struct {
	store Store
	now   func() time.Time
}

// New creates an aggregation engine.
func New(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

type bucket struct {
	weightedSum float64
	totalWeight float64
	articles    []database.Article
}

// Aggregate reads articles published within the window and returns a report
// for every one of the 16 voivodeships. Articles whose stored region does
// not canonicalize to a valid voivodeship are dropped silently; they are
// uncategorizable, not an error.
func (e *Engine) Aggregate(window time.Duration) (map[string]RegionReport, error) {
	cutoff := e.now().UTC().Add(-window).Format(time.RFC3339)
	articles, err := e.store.GetArticlesSince(cutoff)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*bucket)
	for _, a := range articles {
		name := region.Resolve(a.Region)
		if name == "" {
			continue
		}
		b := buckets[name]
		if b == nil {
			b = &bucket{}
			buckets[name] = b
		}
		w := a.Relevance
		b.weightedSum += a.Sentiment * w
		b.totalWeight += w
		b.articles = append(b.articles, a)
	}

	report := make(map[string]RegionReport, len(region.Names))
	for _, name := range region.Names {
		r := RegionReport{News: []ArticleView{}}
		if b, ok := buckets[name]; ok {
			if b.totalWeight > 0 {
				t := round2(b.weightedSum / b.totalWeight)
				r.Temperature = &t
			}
			r.News = topViews(b.articles)
		}
		report[name] = r
	}
	return report, nil
}

// topViews selects the representative articles for a region: most locally
// relevant first, ties broken by emotional salience.
func topViews(articles []database.Article) []ArticleView {
	sorted := make([]database.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Relevance != sorted[j].Relevance {
			return sorted[i].Relevance > sorted[j].Relevance
		}
		return salience(sorted[i]) > salience(sorted[j])
	})

	if len(sorted) > topArticles {
		sorted = sorted[:topArticles]
	}

	views := make([]ArticleView, 0, len(sorted))
	for _, a := range sorted {
		views = append(views, ArticleView{
			Title:       a.Title,
			Link:        a.Link,
			Domain:      collect.Domain(a.Link),
			Published:   a.Published,
			Temperature: a.Sentiment,
			Lat:         a.Lat,
			Lon:         a.Lon,
		})
	}
	return views
}

func salience(a database.Article) float64 {
	return math.Abs(a.Sentiment * a.Relevance)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
