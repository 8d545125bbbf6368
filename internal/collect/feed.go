// Package collect fetches and parses the configured RSS/Atom feeds.
package collect

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 50

// Entry is a raw feed entry before any enrichment. Summary carries the
// original markup; the pipeline normalizes it.
type Entry struct {
	Link         string
	Title        string
	Summary      string
	Published    *time.Time // structured published or updated time, if any
	RawPublished string     // the raw date string, for free-text fallback
}

// Fetcher parses RSS/Atom feeds into raw entries.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher creates a feed fetcher.
func NewFetcher(timeout time.Duration) *Fetcher {
	p := gofeed.NewParser()
	p.UserAgent = "sentinews/1.0 (news sentiment map)"
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	p.Client = &http.Client{Timeout: timeout}
	return &Fetcher{parser: p}
}

// Fetch downloads and parses one feed. A fetch or parse failure is returned
// to the caller, which skips the feed; one bad feed must not abort a run.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range feed.Items {
		if len(entries) >= maxPerFeed {
			break
		}
		e := parseItem(item)
		if e == nil {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func parseItem(item *gofeed.Item) *Entry {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var published *time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return &Entry{
		Link:         link,
		Title:        title,
		Summary:      summary,
		Published:    published,
		RawPublished: item.Published,
	}
}

// Domain extracts a display domain from an article link, without common
// feed-host prefixes.
func Domain(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	return host
}
