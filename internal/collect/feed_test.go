package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Wiadomości Pomorskie</title>
    <link>https://example.pl</link>
    <item>
      <title>Nowe molo w Sopocie</title>
      <link>https://example.pl/molo</link>
      <description>&lt;p&gt;Miasto otwiera molo.&lt;/p&gt;</description>
      <pubDate>Sun, 30 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://example.pl/bez-tytulu</link>
    </item>
    <item>
      <title>Wpis bez linku</title>
    </item>
  </channel>
</rss>`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSSFeed))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	entries, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 valid entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Link != "https://example.pl/molo" {
		t.Errorf("unexpected link %q", e.Link)
	}
	if e.Title != "Nowe molo w Sopocie" {
		t.Errorf("unexpected title %q", e.Title)
	}
	if e.Published == nil {
		t.Error("expected structured published time")
	}
	if e.RawPublished == "" {
		t.Error("expected raw published string")
	}
}

func TestFetchMalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error for malformed feed")
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		link, want string
	}{
		{"https://www.polsatnews.pl/artykul/1", "polsatnews.pl"},
		{"https://rss.gazeta.pl/x", "gazeta.pl"},
		{"not a url at all\x7f", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.link); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
