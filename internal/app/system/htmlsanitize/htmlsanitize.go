// Package htmlsanitize cleans free text typed by sales staff (call notes,
// deactivation reasons, pre-screening notes) before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips every tag and returns trimmed text. Entities produced by
// the policy are decoded again so "Fees & EMI" round-trips unchanged.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

