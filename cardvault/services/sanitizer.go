package services

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from user-supplied text before it is stored.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes all HTML, trims whitespace and truncates to maxRunes (0 means no limit).
// The result is plain text: entities escaped by the policy are decoded again.
func (s *Sanitizer) Text(in string, maxRunes int) string {
	out := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		out = string([]rune(out)[:maxRunes])
	}
	return out
}
