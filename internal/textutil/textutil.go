// Package textutil turns raw feed markup into plain text suitable for
// prompting and display.
package textutil

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxDecodePasses bounds repeated entity decoding. Feeds occasionally
// double-encode entities (&amp;amp;); three passes unwind those without
// looping forever on malformed input.
const maxDecodePasses = 3

var stripPolicy = bluemonday.StrictPolicy()

// Normalize strips all markup tags, decodes HTML entities to a fixed point
// (bounded), and collapses whitespace runs to single spaces. Empty input
// yields an empty string.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := stripPolicy.Sanitize(raw)

	for i := 0; i < maxDecodePasses; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}

	return strings.Join(strings.Fields(s), " ")
}
