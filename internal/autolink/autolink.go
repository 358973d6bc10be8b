// Package autolink turns bare URLs, email addresses and, optionally, hashtags
// inside an HTML fragment into anchors. Text already inside an anchor,
// script or style element is left alone.
package autolink

import (
	"bytes"
	"html"
	"io"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"mvdan.cc/xurls/v2"
)

const defaultHashtagURL = "https://twitter.com/hashtag/"

var hashtagPattern = regexp.MustCompile(`(^|[^\p{L}\p{N}_&/])#([\p{L}\p{N}_]+)`)

// Option configures a Linker.
type Option func(*Linker)

// WithHashtags links #tags to base + tag. An empty base uses the Twitter
// hashtag search.
func WithHashtags(base string) Option {
	return func(l *Linker) {
		if base == "" {
			base = defaultHashtagURL
		}
		l.hashtagURL = base
	}
}

// Linker rewrites HTML fragments. It is safe for concurrent use.
type Linker struct {
	urls       *regexp.Regexp
	hashtagURL string
}

// New builds a Linker.
func New(opts ...Option) *Linker {
	l := &Linker{urls: xurls.Relaxed()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Link returns fragment with linkable text wrapped in anchors. Markup outside
// text nodes is copied through byte for byte.
func (l *Linker) Link(fragment string) string {
	if fragment == "" {
		return ""
	}
	var out bytes.Buffer
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	skipDepth := 0
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			if z.Err() == io.EOF {
				return out.String()
			}
			// Malformed input: give back what we were handed.
			return fragment
		case xhtml.StartTagToken:
			// TagName lower-cases the raw buffer in place.
			out.Write(z.Raw())
			if skipped(z) {
				skipDepth++
			}
		case xhtml.EndTagToken:
			out.Write(z.Raw())
			if skipped(z) && skipDepth > 0 {
				skipDepth--
			}
		case xhtml.TextToken:
			raw := z.Raw()
			if skipDepth > 0 {
				out.Write(raw)
				continue
			}
			out.WriteString(l.linkText(string(raw)))
		default:
			out.Write(z.Raw())
		}
	}
}

func skipped(z *xhtml.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "a", "script", "style", "code", "pre":
		return true
	}
	return false
}

// linkText links a raw (still escaped) text node.
func (l *Linker) linkText(raw string) string {
	text := html.UnescapeString(raw)
	matches := l.urls.FindAllStringIndex(text, -1)
	if len(matches) == 0 && (l.hashtagURL == "" || !strings.Contains(text, "#")) {
		return raw
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(l.linkHashtags(text[last:m[0]]))
		b.WriteString(anchor(href(text[m[0]:m[1]]), text[m[0]:m[1]]))
		last = m[1]
	}
	b.WriteString(l.linkHashtags(text[last:]))
	return b.String()
}

func (l *Linker) linkHashtags(text string) string {
	if l.hashtagURL == "" {
		return html.EscapeString(text)
	}
	var b strings.Builder
	last := 0
	for _, m := range hashtagPattern.FindAllStringSubmatchIndex(text, -1) {
		// m[2:4] is the leading boundary, m[4:6] the tag without '#'.
		b.WriteString(html.EscapeString(text[last:m[3]]))
		tag := text[m[4]:m[5]]
		b.WriteString(anchor(l.hashtagURL+tag, "#"+tag))
		last = m[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

func href(match string) string {
	switch {
	case strings.Contains(match, "://"), strings.HasPrefix(match, "mailto:"):
		return match
	case strings.Contains(match, "@") && !strings.Contains(match, "/"):
		return "mailto:" + match
	default:
		return "http://" + match
	}
}

func anchor(target, label string) string {
	return `<a href="` + html.EscapeString(target) + `" target="_blank" rel="noopener noreferrer">` +
		html.EscapeString(label) + `</a>`
}
