package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips residual markup from scraped text before it is
// persisted. Scraped excerpts and titles occasionally carry stray tags or
// entity-encoded fragments; everything stored is plain text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a strict text-only sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Plain returns in with all markup removed and entities decoded.
func (s *Sanitizer) Plain(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}
