// Package sanitize strips unsafe markup from untrusted email HTML.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

type htmlSanitizer struct {
	policy *bluemonday.Policy
}

// NewHTMLSanitizer returns a sanitizer for rendering email bodies. It allows
// common formatting elements but removes scripts, event handlers, and any
// javascript: URLs; links are forced to open in a new tab with rel=noopener.
func NewHTMLSanitizer() domain.HTMLSanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("span", "p", "div", "td", "tr", "table")
	p.AllowStyling()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &htmlSanitizer{policy: p}
}

func (s *htmlSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
