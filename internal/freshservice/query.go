package freshservice

import (
	"net/url"
	"regexp"
	"strings"
)

// The filter expression arrives from a spreadsheet cell, which means
// invisible Unicode spaces and smart quotes pasted from office tooling.
var (
	invisibleSpaces = regexp.MustCompile("[  ᠎ -‍  　\uFEFF]")
	smartQuotes     = regexp.MustCompile("[“”‘’]")
	anyWhitespace   = regexp.MustCompile(`\s+`)
)

// SanitizeQuery normalizes a filter expression: invisible spaces become
// regular spaces, smart quotes become straight single quotes, and whitespace
// runs collapse to one space.
func SanitizeQuery(raw string) string {
	q := invisibleSpaces.ReplaceAllString(raw, " ")
	q = smartQuotes.ReplaceAllString(q, "'")
	q = anyWhitespace.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

// EncodeQuery sanitizes, wraps in the double quotes the filter endpoint
// requires, and URL-encodes the result. Spaces encode as %20; the endpoint
// rejects the form-encoded +.
func EncodeQuery(raw string) string {
	wrapped := `"` + SanitizeQuery(raw) + `"`
	return strings.ReplaceAll(url.QueryEscape(wrapped), "+", "%20")
}
