package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Artykuł testowy</title></head>
<body>
<article>
<h1>Artykuł testowy</h1>
<p>To jest pierwszy akapit artykułu, wystarczająco długi aby przejść próg
ekstrakcji treści, z kilkoma dodatkowymi słowami dla pewności działania.</p>
<p>Drugi akapit dodaje jeszcze więcej treści, ponieważ ekstraktor wymaga
sensownej ilości tekstu zanim uzna stronę za artykuł.</p>
</article>
</body>
</html>`

func TestFetchExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	f := NewContentFetcher(5 * time.Second)
	text := f.Fetch(context.Background(), srv.URL+"/artykul")
	if text == "" {
		t.Fatal("expected extracted text")
	}
	if !strings.Contains(text, "pierwszy akapit") {
		t.Errorf("expected article body in extracted text, got %q", text)
	}
}

func TestFetchSkipsFailedDomain(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewContentFetcher(5 * time.Second)
	f.Fetch(context.Background(), srv.URL+"/a")
	f.Fetch(context.Background(), srv.URL+"/b")

	if hits != 1 {
		t.Errorf("expected 1 request to a failing domain, got %d", hits)
	}
}

func TestFetchTooShort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>za krótko</p></body></html>"))
	}))
	defer srv.Close()

	f := NewContentFetcher(5 * time.Second)
	if text := f.Fetch(context.Background(), srv.URL); text != "" {
		t.Errorf("expected empty result for too-short page, got %q", text)
	}
}
