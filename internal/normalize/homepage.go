package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/content"
)

// Homepage normalizes the /homepage document.
func (n *Normalizer) Homepage(body []byte) (content.Homepage, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return content.Homepage{}, err
	}
	if msg := doc.message(); msg != "" {
		return content.Homepage{}, &content.UpstreamMessageError{Message: msg}
	}
	government := doc.first("field_government_links")
	primary := make([]content.Link, 0)
	for _, it := range doc.items("field_primary_links") {
		if l := it.link(); l != nil {
			primary = append(primary, *l)
		}
	}
	hp := content.Homepage{
		Meta: doc.meta(),
		Links: content.HomepageLinks{
			Government: content.LinkGroup{
				Headline: government.Headline.String(),
				Links:    toLinks(government.Links),
			},
			Info:    toLinks(doc.first("field_info_links").Links),
			Pay:     toLinks(doc.first("field_pay_links").Links),
			Report:  toLinks(doc.first("field_report_links").Links),
			Request: toLinks(doc.first("field_request_links").Links),
			Video:   videoLinks(doc.first("field_video_links")),
			CTAs: content.CTAs{
				Primary:    primary,
				Featured:   doc.first("field_featured_link").link(),
				Additional: doc.first("field_additional_link").link(),
			},
		},
		Video: EmbedURL(doc.value("field_video_embed")),
	}
	if q := doc.first("field_quote"); q.Value != "" || q.Citation != "" {
		hp.Quote = &content.Quote{Body: q.Value.String(), Author: q.Citation.String()}
	}
	return hp, nil
}

// Redirects maps the redirect feed. Entries may be flat
// ({source, destination, status_code}) or redirect entities
// (redirect_source.0.path, redirect_redirect.0.uri, status_code.0.value).
// A non-array body yields an empty slice; entries without a source are
// dropped.
func (n *Normalizer) Redirects(body []byte) []content.Redirect {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		n.logger.Info("no redirects found")
		return []content.Redirect{}
	}
	out := make([]content.Redirect, 0, len(rows))
	for _, row := range rows {
		doc, err := parseDocument(row)
		if err != nil {
			continue
		}
		source := doc.scalar("source")
		if source == "" {
			source = doc.first("redirect_source").Path.String()
		}
		destination := doc.scalar("destination")
		if destination == "" {
			destination = doc.first("redirect_redirect").URI.String()
		}
		if source == "" || destination == "" {
			n.logger.Debug("skipping incomplete redirect", zap.String("source", source))
			continue
		}
		status, err := strconv.Atoi(doc.scalar("status_code"))
		if err != nil || status < 300 || status > 399 {
			status = 301
		}
		out = append(out, content.Redirect{
			Source:      "/" + strings.TrimLeft(source, "/"),
			Destination: cleanDestination(destination),
			StatusCode:  status,
		})
	}
	return out
}

// cleanDestination turns Drupal link field URIs into hrefs.
func cleanDestination(uri string) string {
	for _, prefix := range []string{"internal:", "entity:"} {
		if strings.HasPrefix(uri, prefix) {
			return "/" + strings.TrimLeft(strings.TrimPrefix(uri, prefix), "/")
		}
	}
	return uri
}

// Menu decodes a menu_items document ({"items": [...]}). Items that fail to
// decode are skipped. Ordering is left to the caller.
func (n *Normalizer) Menu(body []byte) []content.MenuItem {
	var envelope struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		n.logger.Info("menu body has no items", zap.Error(err))
		return []content.MenuItem{}
	}
	out := make([]content.MenuItem, 0, len(envelope.Items))
	for _, raw := range envelope.Items {
		var mi content.MenuItem
		if err := json.Unmarshal(raw, &mi); err != nil {
			n.logger.Debug("skipping malformed menu item", zap.Error(err))
			continue
		}
		fillChildren(&mi)
		out = append(out, mi)
	}
	return out
}

func fillChildren(mi *content.MenuItem) {
	if mi.Children == nil {
		mi.Children = []content.MenuItem{}
	}
	for i := range mi.Children {
		fillChildren(&mi.Children[i])
	}
}
