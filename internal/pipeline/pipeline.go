// Package pipeline orchestrates a full sync run: fetch feeds, enrich new
// articles, geocode, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sentinews/sentinews/internal/collect"
	"github.com/sentinews/sentinews/internal/config"
	"github.com/sentinews/sentinews/internal/database"
	"github.com/sentinews/sentinews/internal/enrich"
	"github.com/sentinews/sentinews/internal/fetch"
	"github.com/sentinews/sentinews/internal/geocode"
	"github.com/sentinews/sentinews/internal/llm"
	"github.com/sentinews/sentinews/internal/pubdate"
	"github.com/sentinews/sentinews/internal/textutil"
)

// FeedFetcher lists the entries of one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]collect.Entry, error)
}

// ContentFetcher pulls readable article text for entries whose feed summary
// is empty.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Oracle scores an article for sentiment and regional relevance.
type Oracle interface {
	Enrich(ctx context.Context, in enrich.Input) enrich.Result
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, place string) (geocode.Point, error)
}

// Result holds the counters of one sync run.
type Result struct {
	Feeds         int
	FeedErrors    int
	TotalEntries  int
	Added         int
	Skipped       int
	GeocodeErrors int
}

// Engine runs the sync pipeline. A feed that fails to fetch is skipped, not
// fatal; only storage failures abort a run.
type Engine struct {
	db      *database.DB
	feeds   FeedFetcher
	content ContentFetcher
	oracle  Oracle
	geo     Geocoder // nil when geocoding is disabled
	sources []config.Feed
}

// New creates a sync engine wired from config.
func New(cfg *config.Config, db *database.DB) *Engine {
	e := cfg.Enrichment
	provider := llm.CreateProvider(
		e.Provider,
		e.Model,
		e.OllamaURL,
		e.OpenAIModel,
		e.OpenAIKeyEnv,
		e.GeminiModel,
		e.GeminiKeyEnv,
	)

	var geo Geocoder
	if cfg.Geocoding.Enabled {
		geo = geocode.NewClient(
			cfg.Geocoding.BaseURL,
			cfg.Geocoding.UserAgent,
			time.Duration(cfg.Geocoding.TimeoutSeconds)*time.Second,
		)
	}

	return &Engine{
		db:      db,
		feeds:   collect.NewFetcher(20 * time.Second),
		content: fetch.NewContentFetcher(15 * time.Second),
		oracle:  enrich.NewOracle(provider, cfg.EnrichmentTimeout(), cfg.CacheTTL()),
		geo:     geo,
		sources: cfg.Feeds,
	}
}

// Run executes one sync over the feed registry.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	for _, f := range e.sources {
		var category *string
		if f.Category != "" {
			c := f.Category
			category = &c
		}
		if err := e.db.UpsertFeed(f.URL, f.Name, f.Region, category); err != nil {
			return nil, fmt.Errorf("registering feed %s: %w", f.URL, err)
		}
	}

	feeds, err := e.db.GetFeeds()
	if err != nil {
		return nil, fmt.Errorf("loading feed registry: %w", err)
	}

	r := &Result{}
	for _, feed := range feeds {
		if ctx.Err() != nil {
			return r, ctx.Err()
		}

		entries, err := e.feeds.Fetch(ctx, feed.URL)
		if err != nil {
			log.Printf("Feed %s failed: %v", feed.URL, err)
			r.FeedErrors++
			continue
		}
		r.Feeds++
		r.TotalEntries += len(entries)

		for _, entry := range entries {
			e.processEntry(ctx, feed, entry, r)
		}
	}

	log.Printf("Sync complete: %d added, %d skipped across %d feeds (%d feed errors)",
		r.Added, r.Skipped, r.Feeds, r.FeedErrors)
	return r, nil
}

// processEntry handles one feed entry. Storage problems with a single
// article are logged and skipped; they must not abort the run.
func (e *Engine) processEntry(ctx context.Context, feed database.FeedSource, entry collect.Entry, r *Result) {
	exists, err := e.db.ArticleExists(entry.Link)
	if err != nil {
		log.Printf("Checking article %s failed: %v", entry.Link, err)
		return
	}
	if exists {
		r.Skipped++
		return
	}

	summary := textutil.Normalize(entry.Summary)
	text := summary
	if text == "" && e.content != nil {
		text = textutil.Normalize(e.content.Fetch(ctx, entry.Link))
	}

	scores := e.oracle.Enrich(ctx, enrich.Input{
		Link:       entry.Link,
		Title:      entry.Title,
		Text:       text,
		FeedRegion: feed.Region,
	})

	article := &database.Article{
		Link:           entry.Link,
		Title:          entry.Title,
		Region:         enrich.AttributeRegion(feed.Region, scores.DetectedRegion),
		Sentiment:      scores.Sentiment,
		SentimentLabel: enrich.Label(scores.Sentiment),
		Relevance:      scores.Relevance,
		Published:      pubdate.Format(pubdate.Resolve(entry.Published, entry.RawPublished)),
	}
	if summary != "" {
		article.Summary = &summary
	}
	if feed.Name != "" {
		name := feed.Name
		article.Source = &name
	}
	article.Category = feed.Category
	if scores.Location != "" {
		loc := scores.Location
		article.Location = &loc
		e.geocodeArticle(ctx, article, loc, r)
	}

	id, err := e.db.InsertArticle(article)
	if err != nil {
		log.Printf("Storing article %s failed: %v", entry.Link, err)
		return
	}
	if id == 0 {
		// Lost the race against a concurrent insert of the same link.
		r.Skipped++
		return
	}
	r.Added++
}

func (e *Engine) geocodeArticle(ctx context.Context, a *database.Article, place string, r *Result) {
	if e.geo == nil {
		return
	}
	pt, err := e.geo.Lookup(ctx, place)
	if errors.Is(err, geocode.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("Geocoding %q failed: %v", place, err)
		r.GeocodeErrors++
		return
	}
	a.Lat = &pt.Lat
	a.Lon = &pt.Lon
}
