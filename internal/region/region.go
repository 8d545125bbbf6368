package region

import "strings"

// Nationwide is the sentinel region for feeds that cover all of Poland.
// Articles from such feeds carry no regional attribution until the
// enrichment step detects one.
const Nationwide = "polska"

// Names lists the 16 Polish voivodeships in their canonical form:
// lowercase, Polish diacritics, no surrounding whitespace. The same list
// drives config validation, oracle output validation, and aggregation
// bucketing.
var Names = []string{
	"dolnośląskie",
	"kujawsko-pomorskie",
	"lubelskie",
	"lubuskie",
	"łódzkie",
	"małopolskie",
	"mazowieckie",
	"opolskie",
	"podkarpackie",
	"podlaskie",
	"pomorskie",
	"śląskie",
	"świętokrzyskie",
	"warmińsko-mazurskie",
	"wielkopolskie",
	"zachodniopomorskie",
}

var valid = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Names))
	for _, n := range Names {
		m[n] = struct{}{}
	}
	return m
}()

// Canonicalize normalizes a region string for comparison: lowercase and
// trimmed. Diacritics are kept as-is; the canonical names use them.
func Canonicalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValid reports whether s canonicalizes to one of the 16 voivodeships.
func IsValid(s string) bool {
	_, ok := valid[Canonicalize(s)]
	return ok
}

// IsNationwide reports whether s is the nationwide sentinel.
func IsNationwide(s string) bool {
	return Canonicalize(s) == Nationwide
}

// Resolve returns the canonical voivodeship name for s, or "" if s does
// not match any.
func Resolve(s string) string {
	c := Canonicalize(s)
	if _, ok := valid[c]; ok {
		return c
	}
	return ""
}
