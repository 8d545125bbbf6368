// Package fetch backfills article text via HTTP + readability extraction
// for entries whose feed summary is empty.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// minExtractedChars guards against boilerplate-only extractions.
const minExtractedChars = 100

// ContentFetcher fetches full article text. It remembers hosts that failed
// during its lifetime and skips further requests to them; create one per
// sync run.
type ContentFetcher struct {
	client        *http.Client
	failedDomains map[string]struct{}
}

// NewContentFetcher creates a content fetcher. timeout <= 0 falls back to
// 15 seconds.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		failedDomains: make(map[string]struct{}),
	}
}

// Fetch downloads one article page and extracts its readable text. Returns
// "" when nothing useful could be extracted; errors are not surfaced beyond
// that, a missing summary is never fatal.
func (f *ContentFetcher) Fetch(ctx context.Context, articleURL string) string {
	domain := ""
	if u, err := url.Parse(articleURL); err == nil {
		domain = strings.ToLower(u.Host)
	}
	if _, failed := f.failedDomains[domain]; failed {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "sentinews/1.0 (news sentiment map)")

	resp, err := f.client.Do(req)
	if err != nil {
		if domain != "" {
			f.failedDomains[domain] = struct{}{}
		}
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if domain != "" {
			f.failedDomains[domain] = struct{}{}
		}
		return ""
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minExtractedChars {
		return ""
	}
	return text
}
