// Package htmlsanitize strips dangerous markup from free-form text fields
// (organization descriptions, contact info) before storage.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain removes all HTML from s, returning trimmed plain text.
func Plain(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
