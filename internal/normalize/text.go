package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	return p
}

// stripControl drops control characters, newlines included.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func (n *Normalizer) sanitize(s string) string {
	if s == "" {
		return ""
	}
	return n.policy.Sanitize(s)
}

// body cleans a long-form WYSIWYG value.
func (n *Normalizer) body(s string) string {
	return stripControl(n.sanitize(s))
}

// linked sanitizes s and autolinks the result.
func (n *Normalizer) linked(s string) string {
	if s == "" {
		return ""
	}
	return n.linker.Link(n.sanitize(s))
}
