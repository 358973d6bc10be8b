package content

import (
	"encoding/json"
	"time"
)

// ContentType is the discriminator carried by every single-page record.
type ContentType string

// Content types understood by the normalizer.
const (
	TypeDetailedInfo    ContentType = "detailed_info"
	TypeService         ContentType = "service"
	TypeServiceCategory ContentType = "service_category"
	TypeEvent           ContentType = "event"
	TypeDepartment      ContentType = "department"
	TypePromotionPage   ContentType = "promotion_page"
)

// SourceMode selects the page-serving policy.
type SourceMode string

// Source modes. Production serves from cache; staging always refetches.
const (
	SourceProduction SourceMode = "production"
	SourceStaging    SourceMode = "staging"
)

// Record is a normalized single-page document. The concrete type is one of
// *DetailedInfo, *Service, *ServiceCategory, *Event, *Department or
// *PromotionPage.
type Record interface {
	ContentType() ContentType
}

// TweetTarget is implemented by records that can be enriched with the latest
// microblog post of the owning account.
type TweetTarget interface {
	Record
	TwitterHandle() string
	SetLatestTweet(tweet *Tweet)
}

// Meta is the CMS metadata block passed through untouched.
type Meta map[string]any

// Link is a titled hyperlink as emitted by CMS link fields.
type Link struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Sidebar is either a WYSIWYG block (Description) or a links block (Links).
type Sidebar struct {
	Headline    string `json:"headline,omitempty"`
	Subheadline string `json:"subheadline,omitempty"`
	Description string `json:"description,omitempty"`
	Links       []Link `json:"links,omitempty"`
}

// LinkGroup is a headed list of links.
type LinkGroup struct {
	Headline string `json:"headline,omitempty"`
	Links    []Link `json:"links"`
}

// Quote is a pull quote with attribution.
type Quote struct {
	Body   string `json:"body,omitempty"`
	Author string `json:"author,omitempty"`
}

// PhotoContentArea is the image-with-copy block on department pages.
type PhotoContentArea struct {
	ImageURL string `json:"imageUrl,omitempty"`
	ImageAlt string `json:"imageAlt,omitempty"`
	Headline string `json:"headline,omitempty"`
	Body     string `json:"body,omitempty"`
}

// Tweet is the single most recent post of an account.
type Tweet struct {
	Handle        string    `json:"handle"`
	Body          string    `json:"body"`
	Date          time.Time `json:"date"`
	FormattedDate string    `json:"formattedDate"`
}

// Article holds the fields shared by detailed info and service pages.
type Article struct {
	Type      ContentType `json:"type"`
	Meta      Meta        `json:"meta"`
	HeroImage string      `json:"heroImage,omitempty"`
	Title     string      `json:"title"`
	Text      string      `json:"text"`
	Sidebars  []Sidebar   `json:"sidebars"`
}

// DetailedInfo is a generic informational page.
type DetailedInfo struct {
	Article
}

// ContentType implements Record.
func (*DetailedInfo) ContentType() ContentType { return TypeDetailedInfo }

// Service is a service page; Category references a service category term.
type Service struct {
	Article
	Category string `json:"category"`
}

// ContentType implements Record.
func (*Service) ContentType() ContentType { return TypeService }

// ServiceCategory is a taxonomy landing page.
type ServiceCategory struct {
	Type        ContentType `json:"type"`
	Meta        Meta        `json:"meta"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Sidebar     Sidebar     `json:"sidebar"`
}

// ContentType implements Record.
func (*ServiceCategory) ContentType() ContentType { return TypeServiceCategory }

// Event is a single event page.
type Event struct {
	Type          ContentType `json:"type"`
	Meta          Meta        `json:"meta"`
	Timestamp     time.Time   `json:"timestamp"`
	Title         string      `json:"title"`
	Text          string      `json:"text"`
	Location      string      `json:"location,omitempty"`
	EventTypes    []string    `json:"eventTypes"`
	DateFormatted string      `json:"dateFormatted"`
	TimeFormatted string      `json:"timeFormatted"`
	Sidebar       Sidebar     `json:"sidebar"`
}

// ContentType implements Record.
func (*Event) ContentType() ContentType { return TypeEvent }

// Department is a department landing page.
type Department struct {
	Type             ContentType       `json:"type"`
	Meta             Meta              `json:"meta"`
	ID               string            `json:"id"`
	HeroImage        string            `json:"heroImage,omitempty"`
	Title            string            `json:"title"`
	Text             string            `json:"text"`
	FeaturedLink     *Link             `json:"featuredLink,omitempty"`
	Sidebars         []Sidebar         `json:"sidebars"`
	SecondaryLink    *Link             `json:"secondaryLink,omitempty"`
	FlexContentArea  json.RawMessage   `json:"flexContentArea,omitempty"`
	SocialLinks      map[string]string `json:"socialLinks"`
	Video            string            `json:"video,omitempty"`
	Quote            Quote             `json:"quote"`
	PhotoContentArea PhotoContentArea  `json:"photoContentArea"`
	LatestTweet      *Tweet            `json:"latestTweet,omitempty"`

	Handle string `json:"-"`
}

// ContentType implements Record.
func (*Department) ContentType() ContentType { return TypeDepartment }

// TwitterHandle implements TweetTarget.
func (d *Department) TwitterHandle() string { return d.Handle }

// SetLatestTweet implements TweetTarget.
func (d *Department) SetLatestTweet(tweet *Tweet) { d.LatestTweet = tweet }

// PromotionPage is a campaign page with a flat WYSIWYG block and video links.
type PromotionPage struct {
	Type              ContentType       `json:"type"`
	Meta              Meta              `json:"meta"`
	ID                string            `json:"id"`
	HeroImage         string            `json:"heroImage,omitempty"`
	Title             string            `json:"title"`
	Text              string            `json:"text"`
	FeaturedLink      *Link             `json:"featuredLink,omitempty"`
	AdditionalWysiwyg Sidebar           `json:"additionalWysiwyg"`
	FlexContentArea   json.RawMessage   `json:"flexContentArea,omitempty"`
	SocialLinks       map[string]string `json:"socialLinks"`
	VideoLinks        LinkGroup         `json:"videoLinks"`
	Video             string            `json:"video,omitempty"`
	SecondaryBody     string            `json:"secondaryBody,omitempty"`
	LatestTweet       *Tweet            `json:"latestTweet,omitempty"`

	Handle string `json:"-"`
}

// ContentType implements Record.
func (*PromotionPage) ContentType() ContentType { return TypePromotionPage }

// TwitterHandle implements TweetTarget.
func (p *PromotionPage) TwitterHandle() string { return p.Handle }

// SetLatestTweet implements TweetTarget.
func (p *PromotionPage) SetLatestTweet(tweet *Tweet) { p.LatestTweet = tweet }

// PageEntry is the cached outcome of one single-page request: either a record
// or the error that normalization produced.
type PageEntry struct {
	Record    Record
	Err       error
	FetchedAt time.Time
}
