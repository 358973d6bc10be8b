package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/cityhall/internal/content"
)

func newTestNormalizer() *Normalizer {
	return New(Options{Location: time.UTC})
}

func TestPageDiscriminator(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()
	tests := []struct {
		name    string
		body    string
		want    content.ContentType
		wantErr error
	}{
		{name: "entity reference", body: `{"type":[{"target_id":"detailed_info"}]}`, want: content.TypeDetailedInfo},
		{name: "flat string", body: `{"type":"service"}`, want: content.TypeService},
		{name: "missing", body: `{"title":[{"value":"Parks"}]}`, wantErr: content.ErrMissingType},
		{name: "empty reference", body: `{"type":[]}`, wantErr: content.ErrMissingType},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, err := n.Page([]byte(tt.body), nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, rec)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, rec.ContentType())
		})
	}
}

func TestPageErrors(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()

	_, err := n.Page([]byte(`{"type":"article"}`), nil)
	var unknown *content.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "article", unknown.Type)

	_, err = n.Page([]byte(`{"message":"No route found for \"GET /nope\""}`), nil)
	var upstream *content.UpstreamMessageError
	require.ErrorAs(t, err, &upstream)
	require.Contains(t, upstream.Message, "No route found")

	_, err = n.Page([]byte(`[1,2,3]`), nil)
	require.Error(t, err)
}

func TestPageIsIdempotent(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()
	body := []byte(`{"type":"detailed_info","title":[{"value":"Trash pickup"}],"body":[{"value":"<p>Weekly</p>"}]}`)
	first, err := n.Page(body, nil)
	require.NoError(t, err)
	second, err := n.Page(body, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDetailedInfo(t *testing.T) {
	t.Parallel()

	body := `{
		"type": [{"target_id": "detailed_info"}],
		"meta": [{"description": "About recycling"}],
		"title": [{"value": "Recycling"}],
		"field_hero_image": [{"url": "https://cdn.example.gov/hero.jpg"}],
		"body": [{"value": "<p>Sort\r\nyour\tbins</p><script>alert(1)</script>"}],
		"field_additional_wysiwyg": [{"headline": "Hours", "subhead": "Drop-off", "value": "<p>9 to 5</p>"}],
		"field_additional_links": [{"headline": "Related", "links": [{"title": "Schedule", "uri": "/schedule"}]}]
	}`
	rec, err := newTestNormalizer().Page([]byte(body), nil)
	require.NoError(t, err)

	page, ok := rec.(*content.DetailedInfo)
	require.True(t, ok)
	require.Equal(t, "Recycling", page.Title)
	require.Equal(t, "https://cdn.example.gov/hero.jpg", page.HeroImage)
	require.Equal(t, "<p>Sortyourbins</p>", page.Text)
	require.Equal(t, "About recycling", page.Meta["description"])
	require.Len(t, page.Sidebars, 2)
	require.Equal(t, "Hours", page.Sidebars[0].Headline)
	require.Equal(t, "Drop-off", page.Sidebars[0].Subheadline)
	require.Equal(t, "<p>9 to 5</p>", page.Sidebars[0].Description)
	require.Equal(t, []content.Link{{Title: "Schedule", URI: "/schedule"}}, page.Sidebars[1].Links)
}

func TestServiceCarriesCategory(t *testing.T) {
	t.Parallel()

	body := `{"type":"service","title":[{"value":"Pay a ticket"}],"field_service_category":[{"target_id":42}]}`
	rec, err := newTestNormalizer().Page([]byte(body), nil)
	require.NoError(t, err)
	svc := rec.(*content.Service)
	require.Equal(t, "42", svc.Category)
	require.Equal(t, "Pay a ticket", svc.Title)
	require.Empty(t, svc.Sidebars[1].Links)
}

func TestServiceCategory(t *testing.T) {
	t.Parallel()

	body := `{
		"type": "service_category",
		"tid": [{"value": 7}],
		"name": [{"value": "Permits"}],
		"description": [{"value": "Building and event permits"}],
		"field_additional_links": [{"headline": "Forms", "subhead": "PDF", "links": [{"title": "Form A", "uri": "/a.pdf"}]}]
	}`
	rec, err := newTestNormalizer().Page([]byte(body), nil)
	require.NoError(t, err)
	cat := rec.(*content.ServiceCategory)
	require.Equal(t, "7", cat.ID)
	require.Equal(t, "Permits", cat.Name)
	require.Equal(t, "Building and event permits", cat.Description)
	require.Equal(t, "Forms", cat.Sidebar.Headline)
	require.Equal(t, "PDF", cat.Sidebar.Subheadline)
	require.Len(t, cat.Sidebar.Links, 1)
}

func TestEvent(t *testing.T) {
	t.Parallel()

	body := `{
		"type": "event",
		"title": [{"value": "Council meeting"}],
		"field_event_date": [{"value": "2024-03-05T18:30:00"}],
		"field_location": [{"value": "City Hall, Room 200"}],
		"field_event_type": [{"target_id": 3}, {"target_id": 99}, {"target_id": 1}],
		"field_additional_wysiwyg": [{"headline": "Agenda", "value": "<p>Budget\nreview</p>"}]
	}`
	terms := []content.Term{{ID: "1", Name: "Public hearing"}, {ID: "3", Name: "Meeting"}}

	rec, err := newTestNormalizer().Page([]byte(body), terms)
	require.NoError(t, err)
	ev := rec.(*content.Event)
	require.Equal(t, time.Date(2024, time.March, 5, 18, 30, 0, 0, time.UTC), ev.Timestamp)
	require.Equal(t, "03/05", ev.DateFormatted)
	require.Equal(t, "March 5th, 6:30pm", ev.TimeFormatted)
	require.Equal(t, DateFormatted(ev.Timestamp), ev.DateFormatted)
	require.Equal(t, TimeFormatted(ev.Timestamp), ev.TimeFormatted)
	require.Equal(t, []string{"Meeting", "Public hearing"}, ev.EventTypes)
	require.Equal(t, "City Hall, Room 200", ev.Location)
	require.Equal(t, "<p>Budgetreview</p>", ev.Sidebar.Description)

	// Before event types are synced nothing is resolved.
	rec, err = newTestNormalizer().Page([]byte(body), nil)
	require.NoError(t, err)
	require.Empty(t, rec.(*content.Event).EventTypes)
	require.NotNil(t, rec.(*content.Event).EventTypes)
}

func TestDepartmentTwitterHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		social     string
		wantHandle string
	}{
		{"show tweet on", `[{"twitter":"https://twitter.com/CityHall","facebook":"https://facebook.com/cityhall","show_tweet":"1"}]`, "CityHall"},
		{"show tweet off", `[{"twitter":"https://twitter.com/CityHall","show_tweet":"0"}]`, ""},
		{"show tweet absent", `[{"twitter":"https://twitter.com/CityHall"}]`, ""},
		{"numeric flag is not the string one", `[{"twitter":"https://twitter.com/CityHall","show_tweet":1}]`, ""},
		{"no twitter link", `[{"facebook":"https://facebook.com/cityhall","show_tweet":"1"}]`, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := `{"type":"department","nid":[{"value":12}],"field_social_links":` + tt.social + `}`
			rec, err := newTestNormalizer().Page([]byte(body), nil)
			require.NoError(t, err)
			dept := rec.(*content.Department)
			require.Equal(t, tt.wantHandle, dept.TwitterHandle())
			require.NotContains(t, dept.SocialLinks, "show_tweet")
			require.Nil(t, dept.LatestTweet)
		})
	}
}

func TestDepartmentFields(t *testing.T) {
	t.Parallel()

	body := `{
		"type": "department",
		"nid": [{"value": 12}],
		"title": [{"value": "Parks"}],
		"field_featured_link": [{"title": "Reserve a shelter", "uri": "/reserve"}],
		"field_additional_wysiwyg": [{"headline": "Contact", "value": "Email parks@example.gov"}],
		"field_video_embed": [{"value": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}],
		"field_quote": [{"value": "Parks for all", "citation": "Director"}],
		"field_photo_content_area": [{"url": "/p.jpg", "alt": "Pond", "headline": "Lakeside"}],
		"field_flex_content_area": [{"kind": "cards"}]
	}`
	rec, err := newTestNormalizer().Page([]byte(body), nil)
	require.NoError(t, err)
	dept := rec.(*content.Department)
	require.Equal(t, "12", dept.ID)
	require.Equal(t, &content.Link{Title: "Reserve a shelter", URI: "/reserve"}, dept.FeaturedLink)
	require.Nil(t, dept.SecondaryLink)
	require.Contains(t, dept.Sidebars[0].Description, `href="mailto:parks@example.gov"`)
	require.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", dept.Video)
	require.Equal(t, content.Quote{Body: "Parks for all", Author: "Director"}, dept.Quote)
	require.Equal(t, "Pond", dept.PhotoContentArea.ImageAlt)
	require.JSONEq(t, `[{"kind":"cards"}]`, string(dept.FlexContentArea))
	require.Empty(t, dept.SocialLinks)
}

func TestPromotionPage(t *testing.T) {
	t.Parallel()

	body := `{
		"type": [{"target_id": "promotion_page"}],
		"nid": [{"value": "88"}],
		"title": [{"value": "Summer camps"}],
		"field_additional_wysiwyg": [{"headline": "Sign up", "value": "Visit https://example.gov/camps"}],
		"field_video_links": [{"headline": "Watch", "links": [
			{"title": "Tour", "uri": "https://youtu.be/dQw4w9WgXcQ"},
			{"title": "Recap", "uri": "https://www.youtube.com/embed/abcdefghijk"}
		]}],
		"field_secondary_body": [{"value": "<p>More</p>"}],
		"field_social_links": [{"twitter": "https://twitter.com/CityCamps/", "show_tweet": "1"}]
	}`
	rec, err := newTestNormalizer().Page([]byte(body), nil)
	require.NoError(t, err)
	page := rec.(*content.PromotionPage)
	require.Equal(t, "88", page.ID)
	require.Equal(t, "Sign up", page.AdditionalWysiwyg.Headline)
	require.Contains(t, page.AdditionalWysiwyg.Description, `href="https://example.gov/camps"`)
	require.Equal(t, "Watch", page.VideoLinks.Headline)
	require.Equal(t, []content.Link{
		{Title: "Tour", URI: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{Title: "Recap", URI: "https://www.youtube.com/embed/abcdefghijk"},
	}, page.VideoLinks.Links)
	require.Equal(t, "<p>More</p>", page.SecondaryBody)
	require.Equal(t, "CityCamps", page.TwitterHandle())
	require.Empty(t, page.Video)

	var _ content.TweetTarget = page
}

func TestHomepage(t *testing.T) {
	t.Parallel()

	body := `{
		"meta": [{"title": "Home"}],
		"field_government_links": [{"headline": "Government", "links": [{"title": "Mayor", "uri": "/mayor"}]}],
		"field_pay_links": [{"links": [{"title": "Water bill", "uri": "/pay/water"}]}],
		"field_video_links": [{"headline": "Videos", "links": [{"title": "Welcome", "uri": "dQw4w9WgXcQ"}]}],
		"field_primary_links": [{"title": "Report a pothole", "uri": "/report"}, {"title": "Jobs", "uri": "/jobs"}],
		"field_featured_link": [{"title": "Budget", "uri": "/budget"}],
		"field_quote": [{"value": "Welcome home", "citation": "Mayor"}],
		"field_video_embed": [{"value": "<iframe src=\"https://www.youtube.com/embed/abcdefghijk\"></iframe>"}]
	}`
	hp, err := newTestNormalizer().Homepage([]byte(body))
	require.NoError(t, err)
	require.Equal(t, "Home", hp.Meta["title"])
	require.Equal(t, "Government", hp.Links.Government.Headline)
	require.Len(t, hp.Links.Pay, 1)
	require.Empty(t, hp.Links.Info)
	require.NotNil(t, hp.Links.Info)
	require.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", hp.Links.Video.Links[0].URI)
	require.Len(t, hp.Links.CTAs.Primary, 2)
	require.Equal(t, "/budget", hp.Links.CTAs.Featured.URI)
	require.Nil(t, hp.Links.CTAs.Additional)
	require.Equal(t, &content.Quote{Body: "Welcome home", Author: "Mayor"}, hp.Quote)
	require.Equal(t, "https://www.youtube.com/embed/abcdefghijk", hp.Video)
}

func TestRedirects(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()
	require.Empty(t, n.Redirects([]byte(`{"message":"none"}`)))
	require.NotNil(t, n.Redirects([]byte(`null`)))

	body := `[
		{"source": "old-parks", "destination": "/parks", "status_code": "302"},
		{"redirect_source": [{"path": "/library"}], "redirect_redirect": [{"uri": "internal:/libraries"}], "status_code": [{"value": 301}]},
		{"source": "/orphan"}
	]`
	got := n.Redirects([]byte(body))
	require.Equal(t, []content.Redirect{
		{Source: "/old-parks", Destination: "/parks", StatusCode: 302},
		{Source: "/library", Destination: "/libraries", StatusCode: 301},
	}, got)
}

func TestMenu(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()
	items := n.Menu([]byte(`{"items":[{"title":"Parks","weight":"3","children":[{"title":"Pools","weight":"2"},{"title":"Trails","weight":"1"}]},{"title":"Jobs","weight":"-1"}]}`))
	require.Len(t, items, 2)
	require.Equal(t, content.Weight(3), items[0].Weight)
	require.Equal(t, content.Weight(-1), items[1].Weight)
	require.NotNil(t, items[1].Children)

	require.Empty(t, n.Menu([]byte(`[]`)))
}

func TestMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Access denied", Message([]byte(`{"message":"Access denied"}`)))
	require.Empty(t, Message([]byte(`[]`)))
	require.Empty(t, Message(nil))
}
