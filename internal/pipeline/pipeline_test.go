package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sentinews/sentinews/internal/collect"
	"github.com/sentinews/sentinews/internal/config"
	"github.com/sentinews/sentinews/internal/database"
	"github.com/sentinews/sentinews/internal/enrich"
	"github.com/sentinews/sentinews/internal/geocode"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeFeeds serves canned entries per feed URL; URLs in failing return an
// error.
type fakeFeeds struct {
	entries map[string][]collect.Entry
	failing map[string]bool
}

func (f *fakeFeeds) Fetch(ctx context.Context, feedURL string) ([]collect.Entry, error) {
	if f.failing[feedURL] {
		return nil, errors.New("connection refused")
	}
	return f.entries[feedURL], nil
}

// fakeOracle returns canned results per link, recording calls.
type fakeOracle struct {
	results map[string]enrich.Result
	calls   []string
}

func (f *fakeOracle) Enrich(ctx context.Context, in enrich.Input) enrich.Result {
	f.calls = append(f.calls, in.Link)
	return f.results[in.Link]
}

// fakeGeocoder resolves every known place to a fixed point.
type fakeGeocoder struct {
	points map[string]geocode.Point
}

func (f *fakeGeocoder) Lookup(ctx context.Context, place string) (geocode.Point, error) {
	if pt, ok := f.points[place]; ok {
		return pt, nil
	}
	return geocode.Point{}, geocode.ErrNotFound
}

func entry(link, title string) collect.Entry {
	return collect.Entry{Link: link, Title: title, Summary: "<p>" + title + "</p>"}
}

func newTestEngine(db *database.DB, feeds []config.Feed, ff FeedFetcher, oracle Oracle, geo Geocoder) *Engine {
	return &Engine{
		db:      db,
		feeds:   ff,
		oracle:  oracle,
		geo:     geo,
		sources: feeds,
	}
}

func TestRunPersistsEnrichedArticles(t *testing.T) {
	db := openTestDB(t)
	feeds := []config.Feed{
		{URL: "https://regional.pl/rss", Name: "Regional", Region: "pomorskie", Category: "regional"},
	}
	ff := &fakeFeeds{entries: map[string][]collect.Entry{
		"https://regional.pl/rss": {entry("https://regional.pl/1", "Pożar w Gdańsku")},
	}}
	oracle := &fakeOracle{results: map[string]enrich.Result{
		"https://regional.pl/1": {Sentiment: -0.8, Relevance: 0.9, Location: "Gdańsk"},
	}}
	geo := &fakeGeocoder{points: map[string]geocode.Point{
		"Gdańsk": {Lat: 54.35, Lon: 18.65},
	}}

	e := newTestEngine(db, feeds, ff, oracle, geo)
	r, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Added != 1 {
		t.Fatalf("expected 1 added, got %d", r.Added)
	}

	articles, _ := db.GetAllArticles()
	if len(articles) != 1 {
		t.Fatalf("expected 1 stored article, got %d", len(articles))
	}
	a := articles[0]
	if a.Region != "pomorskie" {
		t.Errorf("expected region pomorskie, got %q", a.Region)
	}
	if a.Sentiment != -0.8 || a.SentimentLabel != "very negative" {
		t.Errorf("unexpected sentiment %v/%q", a.Sentiment, a.SentimentLabel)
	}
	if a.Lat == nil || *a.Lat != 54.35 {
		t.Error("expected geocoded latitude")
	}
	if a.Summary == nil || *a.Summary != "Pożar w Gdańsku" {
		t.Error("expected normalized summary without markup")
	}
	if a.Source == nil || *a.Source != "Regional" {
		t.Error("expected feed name as source")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	feeds := []config.Feed{{URL: "https://a.pl/rss", Name: "A", Region: "polska"}}
	ff := &fakeFeeds{entries: map[string][]collect.Entry{
		"https://a.pl/rss": {entry("https://a.pl/1", "Jeden"), entry("https://a.pl/2", "Dwa")},
	}}
	oracle := &fakeOracle{results: map[string]enrich.Result{}}

	e := newTestEngine(db, feeds, ff, oracle, nil)
	r1, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r1.Added != 2 {
		t.Fatalf("expected 2 added on first run, got %d", r1.Added)
	}

	r2, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.Added != 0 || r2.Skipped != 2 {
		t.Errorf("expected 0 added and 2 skipped on second run, got %d/%d", r2.Added, r2.Skipped)
	}
	// Known articles are skipped before enrichment, not re-scored.
	if len(oracle.calls) != 2 {
		t.Errorf("expected 2 oracle calls total, got %d", len(oracle.calls))
	}
}

func TestRunNationwideRegionAttribution(t *testing.T) {
	db := openTestDB(t)
	feeds := []config.Feed{{URL: "https://national.pl/rss", Name: "National", Region: "polska"}}
	ff := &fakeFeeds{entries: map[string][]collect.Entry{
		"https://national.pl/rss": {
			entry("https://national.pl/1", "Wiadomość z Krakowa"),
			entry("https://national.pl/2", "Polityka krajowa"),
		},
	}}
	oracle := &fakeOracle{results: map[string]enrich.Result{
		"https://national.pl/1": {Sentiment: 0.3, Relevance: 1.0, DetectedRegion: "małopolskie"},
		"https://national.pl/2": {Sentiment: 0.1, Relevance: 1.0},
	}}

	e := newTestEngine(db, feeds, ff, oracle, nil)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	articles, _ := db.GetAllArticles()
	byLink := map[string]database.Article{}
	for _, a := range articles {
		byLink[a.Link] = a
	}
	if got := byLink["https://national.pl/1"].Region; got != "małopolskie" {
		t.Errorf("expected detected region małopolskie, got %q", got)
	}
	if got := byLink["https://national.pl/2"].Region; got != "polska" {
		t.Errorf("expected nationwide sentinel for undetected region, got %q", got)
	}
}

func TestRunFeedFailureIsIsolated(t *testing.T) {
	db := openTestDB(t)
	feeds := []config.Feed{
		{URL: "https://down.pl/rss", Name: "Down", Region: "polska"},
		{URL: "https://up.pl/rss", Name: "Up", Region: "śląskie"},
	}
	ff := &fakeFeeds{
		entries: map[string][]collect.Entry{
			"https://up.pl/rss": {entry("https://up.pl/1", "Działa")},
		},
		failing: map[string]bool{"https://down.pl/rss": true},
	}
	oracle := &fakeOracle{results: map[string]enrich.Result{}}

	e := newTestEngine(db, feeds, ff, oracle, nil)
	r, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.FeedErrors != 1 {
		t.Errorf("expected 1 feed error, got %d", r.FeedErrors)
	}
	if r.Added != 1 {
		t.Errorf("expected the healthy feed's article to be stored, got %d added", r.Added)
	}
}

func TestRunOracleFailurePersistsNeutral(t *testing.T) {
	db := openTestDB(t)
	feeds := []config.Feed{{URL: "https://a.pl/rss", Name: "A", Region: "lubuskie"}}
	ff := &fakeFeeds{entries: map[string][]collect.Entry{
		"https://a.pl/rss": {entry("https://a.pl/1", "Bez oceny")},
	}}
	// The zero Result is what the oracle substitutes on provider failure.
	oracle := &fakeOracle{results: map[string]enrich.Result{}}

	e := newTestEngine(db, feeds, ff, oracle, nil)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	articles, _ := db.GetAllArticles()
	if len(articles) != 1 {
		t.Fatalf("expected article stored despite oracle failure, got %d", len(articles))
	}
	a := articles[0]
	if a.Sentiment != 0 || a.Relevance != 0 {
		t.Errorf("expected neutral zero-weight scores, got %v/%v", a.Sentiment, a.Relevance)
	}
	if a.SentimentLabel != "neutral" {
		t.Errorf("expected neutral label, got %q", a.SentimentLabel)
	}
}

func TestRunSeedsFeedRegistry(t *testing.T) {
	db := openTestDB(t)
	feeds := []config.Feed{
		{URL: "https://a.pl/rss", Name: "A", Region: "polska", Category: "general"},
	}
	ff := &fakeFeeds{}
	oracle := &fakeOracle{}

	e := newTestEngine(db, feeds, ff, oracle, nil)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := db.GetFeeds()
	if err != nil {
		t.Fatalf("failed to read feed registry: %v", err)
	}
	if len(stored) != 1 || stored[0].Region != "polska" {
		t.Error("expected config feed registered in the database")
	}
	if stored[0].Category == nil || *stored[0].Category != "general" {
		t.Error("expected feed category stored")
	}
}
