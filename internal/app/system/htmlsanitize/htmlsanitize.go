// Package htmlsanitize cleans text that came from the upstream API before it
// is shown to the user.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute. bluemonday policies are safe
// for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// Text strips all HTML from s and returns plain text with entities decoded
// and surrounding whitespace trimmed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
