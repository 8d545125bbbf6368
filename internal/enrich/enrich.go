// Package enrich scores articles for emotional sentiment and regional
// relevance via an LLM provider.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sethvargo/go-retry"

	"github.com/sentinews/sentinews/internal/llm"
	"github.com/sentinews/sentinews/internal/region"
)

const nationwidePrompt = `You are analyzing a Polish news article for a sentiment map of Poland.

The article comes from a nationwide source, so you must also determine which
voivodeship (województwo) the story belongs to, if any.

Article title: %s
Article text:
%s

Respond with ONLY this JSON:
{
    "sentiment": <float from -1.0 (very negative) to 1.0 (very positive)>,
    "region": <one of: %s — or null if the story has no clear regional anchor>,
    "location": <the most specific place name mentioned (city, town), or null>
}`

const regionalPrompt = `You are analyzing a Polish news article for a sentiment map of Poland.

The article comes from a source covering the %s voivodeship.

Article title: %s
Article text:
%s

Respond with ONLY this JSON:
{
    "sentiment": <float from -1.0 (very negative) to 1.0 (very positive)>,
    "relevance": <float from 0.0 to 1.0: 1.0 = hyperlocal story, ~0.1 = nationwide story with a weak regional tie, 0.0 = not about this region at all>,
    "location": <the most specific place name mentioned (city, town), or null>
}`

const maxPromptChars = 4000

// Input describes one article to score.
type Input struct {
	Link       string
	Title      string
	Text       string
	FeedRegion string
}

// Result holds the oracle's scores for one article. A zero Result is the
// neutral default substituted on any oracle failure.
type Result struct {
	Sentiment      float64
	Relevance      float64
	DetectedRegion string
	Location       string
}

// Oracle scores articles through an LLM provider with a TTL cache in front.
type Oracle struct {
	provider llm.Provider
	cache    *expirable.LRU[string, Result]
	timeout  time.Duration
}

// NewOracle creates an enrichment oracle. cacheTTL <= 0 disables caching;
// timeout <= 0 falls back to 30 seconds per call.
func NewOracle(provider llm.Provider, timeout, cacheTTL time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var cache *expirable.LRU[string, Result]
	if cacheTTL > 0 {
		cache = expirable.NewLRU[string, Result](2048, nil, cacheTTL)
	}
	return &Oracle{provider: provider, cache: cache, timeout: timeout}
}

// Enrich scores one article. Any provider error, timeout, or unparseable
// response yields the neutral default; enrichment failures never propagate.
func (o *Oracle) Enrich(ctx context.Context, in Input) Result {
	if o.cache != nil {
		if cached, ok := o.cache.Get(in.Link); ok {
			return cached
		}
	}

	if o.provider == nil {
		return Result{}
	}

	result, err := o.callProvider(ctx, in)
	if err != nil {
		log.Printf("Enrichment failed for %s: %v", in.Link, err)
		return Result{}
	}

	if o.cache != nil {
		o.cache.Add(in.Link, result)
	}
	return result
}

func (o *Oracle) callProvider(ctx context.Context, in Input) (Result, error) {
	prompt := buildPrompt(in)

	var responseText string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		text, err := o.provider.Generate(callCtx, prompt, 256)
		if err != nil {
			return retry.RetryableError(err)
		}
		responseText = text
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		return Result{}, fmt.Errorf("unparseable oracle response")
	}

	result := Result{
		Sentiment: clamp(getFloat(parsed, "sentiment", 0), -1, 1),
		Location:  strings.TrimSpace(getString(parsed, "location")),
	}

	if region.IsNationwide(in.FeedRegion) {
		// Relevance is not requested for nationwide feeds; a nationwide
		// article's relevance to a region is meaningless until one is
		// detected.
		result.Relevance = 1.0
		result.DetectedRegion = region.Resolve(getString(parsed, "region"))
	} else {
		result.Relevance = clamp(getFloat(parsed, "relevance", 1.0), 0, 1)
	}

	return result, nil
}

func buildPrompt(in Input) string {
	text := in.Text
	if text == "" {
		text = in.Title
	}
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars] + "..."
	}

	if region.IsNationwide(in.FeedRegion) {
		return fmt.Sprintf(nationwidePrompt, in.Title, text, strings.Join(region.Names, ", "))
	}
	return fmt.Sprintf(regionalPrompt, region.Canonicalize(in.FeedRegion), in.Title, text)
}

// AttributeRegion decides the stored region for an article: a valid detected
// region replaces the nationwide sentinel, everything else keeps the feed's
// declared region.
func AttributeRegion(feedRegion, detected string) string {
	if region.IsNationwide(feedRegion) && detected != "" && region.IsValid(detected) {
		return region.Canonicalize(detected)
	}
	return region.Canonicalize(feedRegion)
}

// Label maps a sentiment score to its display label. Thresholds are fixed;
// label and score must never disagree.
func Label(score float64) string {
	switch {
	case score <= -0.5:
		return "very negative"
	case score < -0.1:
		return "negative"
	case score <= 0.1:
		return "neutral"
	case score <= 0.5:
		return "positive"
	default:
		return "very positive"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getFloat(m map[string]any, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	}
	return fallback
}
