package normalize

import (
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/autolink"
	"github.com/JakeFAU/cityhall/internal/content"
)

// Options configures a Normalizer.
type Options struct {
	// Location is used for zone-less CMS dates and for rendering. Defaults
	// to time.Local.
	Location *time.Location
	Linker   *autolink.Linker
	Logger   *zap.Logger
}

// Normalizer converts raw payloads into content records. It holds no
// per-call state and is safe for concurrent use.
type Normalizer struct {
	loc    *time.Location
	linker *autolink.Linker
	policy *bluemonday.Policy
	logger *zap.Logger
}

// New builds a Normalizer.
func New(opts Options) *Normalizer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Linker == nil {
		opts.Linker = autolink.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Normalizer{
		loc:    opts.Location,
		linker: opts.Linker,
		policy: newPolicy(),
		logger: opts.Logger.Named("normalize"),
	}
}

// Location returns the zone used for dates.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Page normalizes one single-page payload. eventTypes is the synced event
// type collection used to resolve event type references; when it is empty no
// event types are resolved.
//
// Errors: content.ErrMissingType, *content.UnknownTypeError,
// *content.UpstreamMessageError, or a decode error for non-object bodies.
func (n *Normalizer) Page(body []byte, eventTypes []content.Term) (content.Record, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	if msg := doc.message(); msg != "" {
		return nil, &content.UpstreamMessageError{Message: msg}
	}
	typ := doc.contentType()
	if typ == "" {
		return nil, content.ErrMissingType
	}
	switch ct := content.ContentType(typ); ct {
	case content.TypeDetailedInfo:
		return &content.DetailedInfo{Article: n.article(doc, ct)}, nil
	case content.TypeService:
		return &content.Service{
			Article:  n.article(doc, ct),
			Category: doc.first("field_service_category").TargetID.String(),
		}, nil
	case content.TypeServiceCategory:
		return n.serviceCategory(doc), nil
	case content.TypeEvent:
		return n.event(doc, eventTypes), nil
	case content.TypeDepartment:
		return n.department(doc), nil
	case content.TypePromotionPage:
		return n.promotionPage(doc), nil
	default:
		return nil, &content.UnknownTypeError{Type: typ}
	}
}

func (n *Normalizer) article(doc document, ct content.ContentType) content.Article {
	return content.Article{
		Type:      ct,
		Meta:      doc.meta(),
		HeroImage: doc.first("field_hero_image").URL.String(),
		Title:     doc.value("title"),
		Text:      n.body(doc.value("body")),
		Sidebars:  n.sidebars(doc, false),
	}
}

// sidebars returns the WYSIWYG block followed by the links block.
func (n *Normalizer) sidebars(doc document, autolinked bool) []content.Sidebar {
	wysiwyg := doc.first("field_additional_wysiwyg")
	links := doc.first("field_additional_links")
	description := n.sanitize(wysiwyg.Value.String())
	if autolinked {
		description = n.linked(wysiwyg.Value.String())
	}
	return []content.Sidebar{
		{
			Headline:    wysiwyg.Headline.String(),
			Subheadline: wysiwyg.Subhead.String(),
			Description: description,
		},
		{
			Headline:    links.Headline.String(),
			Subheadline: links.Subhead.String(),
			Links:       toLinks(links.Links),
		},
	}
}

func (n *Normalizer) serviceCategory(doc document) *content.ServiceCategory {
	sidebar := doc.first("field_additional_links")
	return &content.ServiceCategory{
		Type:        content.TypeServiceCategory,
		Meta:        doc.meta(),
		ID:          doc.value("tid"),
		Name:        doc.value("name"),
		Description: n.sanitize(doc.value("description")),
		Sidebar: content.Sidebar{
			Headline:    sidebar.Headline.String(),
			Subheadline: sidebar.Subhead.String(),
			Links:       toLinks(sidebar.Links),
		},
	}
}

func (n *Normalizer) event(doc document, eventTypes []content.Term) *content.Event {
	raw := doc.value("field_event_date")
	ts, err := ParseTimestamp(raw, n.loc)
	if err != nil {
		n.logger.Warn("unparsable event date, using epoch", zap.String("value", raw), zap.Error(err))
		ts = time.Unix(0, 0).In(n.loc)
	}
	sidebar := doc.first("field_additional_wysiwyg")
	return &content.Event{
		Type:          content.TypeEvent,
		Meta:          doc.meta(),
		Timestamp:     ts,
		Title:         doc.value("title"),
		Text:          n.body(doc.value("body")),
		Location:      doc.value("field_location"),
		EventTypes:    n.resolveEventTypes(doc.items("field_event_type"), eventTypes),
		DateFormatted: DateFormatted(ts),
		TimeFormatted: TimeFormatted(ts),
		Sidebar: content.Sidebar{
			Headline:    sidebar.Headline.String(),
			Subheadline: sidebar.Subhead.String(),
			Description: n.body(sidebar.Value.String()),
		},
	}
}

func (n *Normalizer) resolveEventTypes(refs []item, eventTypes []content.Term) []string {
	names := []string{}
	if len(eventTypes) == 0 {
		return names
	}
	byID := make(map[string]string, len(eventTypes))
	for _, term := range eventTypes {
		byID[term.ID] = term.Name
	}
	for _, ref := range refs {
		id := ref.TargetID.String()
		name, ok := byID[id]
		if !ok {
			n.logger.Debug("event type not in synced collection", zap.String("id", id))
			continue
		}
		names = append(names, name)
	}
	return names
}

func (n *Normalizer) department(doc document) *content.Department {
	social, handle := socialLinks(doc)
	if handle != "" {
		n.logger.Debug("parsed twitter handle", zap.String("handle", handle))
	}
	quote := doc.first("field_quote")
	photo := doc.first("field_photo_content_area")
	return &content.Department{
		Type:            content.TypeDepartment,
		Meta:            doc.meta(),
		ID:              doc.value("nid"),
		HeroImage:       doc.first("field_hero_image").URL.String(),
		Title:           doc.value("title"),
		Text:            n.sanitize(doc.value("body")),
		FeaturedLink:    doc.first("field_featured_link").link(),
		Sidebars:        n.sidebars(doc, true),
		SecondaryLink:   doc.first("field_secondary_featured_link").link(),
		FlexContentArea: doc.raw("field_flex_content_area"),
		SocialLinks:     social,
		Video:           EmbedURL(doc.value("field_video_embed")),
		Quote: content.Quote{
			Body:   quote.Value.String(),
			Author: quote.Citation.String(),
		},
		PhotoContentArea: content.PhotoContentArea{
			ImageURL: photo.URL.String(),
			ImageAlt: photo.Alt.String(),
			Headline: photo.Headline.String(),
			Body:     n.sanitize(photo.Value.String()),
		},
		Handle: handle,
	}
}

func (n *Normalizer) promotionPage(doc document) *content.PromotionPage {
	social, handle := socialLinks(doc)
	wysiwyg := doc.first("field_additional_wysiwyg")
	return &content.PromotionPage{
		Type:         content.TypePromotionPage,
		Meta:         doc.meta(),
		ID:           doc.value("nid"),
		HeroImage:    doc.first("field_hero_image").URL.String(),
		Title:        doc.value("title"),
		Text:         n.sanitize(doc.value("body")),
		FeaturedLink: doc.first("field_featured_link").link(),
		AdditionalWysiwyg: content.Sidebar{
			Headline:    wysiwyg.Headline.String(),
			Subheadline: wysiwyg.Subhead.String(),
			Description: n.linked(wysiwyg.Value.String()),
		},
		FlexContentArea: doc.raw("field_flex_content_area"),
		SocialLinks:     social,
		VideoLinks:      videoLinks(doc.first("field_video_links")),
		Video:           EmbedURL(doc.value("field_video_embed")),
		SecondaryBody:   n.sanitize(doc.value("field_secondary_body")),
		Handle:          handle,
	}
}

// videoLinks converts every link of a video link group into an embed URL.
func videoLinks(group item) content.LinkGroup {
	out := content.LinkGroup{Headline: group.Headline.String(), Links: []content.Link{}}
	for _, l := range group.Links {
		out.Links = append(out.Links, content.Link{
			Title: l.Title.String(),
			URI:   youtubeEmbedPrefix + youtubeID(l.URI.String()),
		})
	}
	return out
}
