// Package pubdate resolves the heterogeneous date representations found in
// real-world feeds into one canonical UTC timestamp.
package pubdate

import (
	"time"

	"github.com/araddon/dateparse"
)

// Resolve picks the best available publication time for an entry. Preference
// order: the structured parsed time from the feed, then a best-effort parse
// of the raw published string, then nil. Feeds frequently omit structured
// dates or use non-standard formats; dropping the article over that would
// lose otherwise-valid data.
func Resolve(parsed *time.Time, raw string) *time.Time {
	if parsed != nil {
		t := parsed.UTC()
		return &t
	}

	if raw == "" {
		return nil
	}

	t, err := dateparse.ParseLocal(raw)
	if err != nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Format renders a resolved timestamp as RFC3339 in UTC, the storage form.
// Stored values compare correctly as strings.
func Format(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
