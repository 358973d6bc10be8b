package normalize

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const youtubeEmbedPrefix = "https://www.youtube.com/embed/"

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// socialLinks reads field_social_links.0. show_tweet is consumed here and
// never emitted; a handle is derived only when show_tweet is the string "1"
// and a twitter link exists.
func socialLinks(doc document) (map[string]string, string) {
	links := map[string]string{}
	raw, ok := doc["field_social_links"]
	if !ok {
		return links, ""
	}
	var blocks []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil || len(blocks) == 0 {
		return links, ""
	}
	showTweet := false
	for key, value := range blocks[0] {
		if key == "show_tweet" {
			showTweet = bytes.Equal(bytes.TrimSpace(value), []byte(`"1"`))
			continue
		}
		var v Scalar
		if json.Unmarshal(value, &v) == nil {
			links[key] = v.String()
		}
	}
	if !showTweet || links["twitter"] == "" {
		return links, ""
	}
	return links, twitterHandle(links["twitter"])
}

// twitterHandle returns the first path segment of a profile URL.
func twitterHandle(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return strings.TrimPrefix(seg, "@")
		}
	}
	return ""
}

// EmbedURL converts a video reference (watch URL, short link, embed code or
// bare id) into a canonical embed URL. Empty input yields "".
func EmbedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return youtubeEmbedPrefix + youtubeID(raw)
}

func youtubeID(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "<") {
		raw = embedSource(raw)
	}
	if youtubeIDPattern.MatchString(raw) {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Host == "" && !strings.Contains(raw, "://") {
		// Scheme-less input such as "youtu.be/abc".
		if reparsed, err := url.Parse("https://" + raw); err == nil {
			u = reparsed
		}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	switch {
	case host == "youtu.be":
		if len(segments) > 0 {
			return segments[0]
		}
	case strings.HasSuffix(host, "youtube.com"), strings.HasSuffix(host, "youtube-nocookie.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if len(segments) >= 2 {
			switch segments[0] {
			case "embed", "v", "e", "shorts", "live":
				return segments[1]
			}
		}
	}
	return raw
}

// embedSource pulls the src of the first iframe (or href of the first
// anchor) out of pasted embed markup.
func embedSource(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	if src, ok := doc.Find("iframe[src]").First().Attr("src"); ok {
		return strings.TrimSpace(src)
	}
	if href, ok := doc.Find("a[href]").First().Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	return fragment
}
