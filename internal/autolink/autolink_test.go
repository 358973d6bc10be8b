package autolink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	t.Parallel()

	l := New()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "plain text untouched",
			in:   "<p>Open Monday through Friday</p>",
			want: "<p>Open Monday through Friday</p>",
		},
		{
			name: "scheme url",
			in:   "<p>See https://example.gov/parks today</p>",
			want: `<p>See <a href="https://example.gov/parks" target="_blank" rel="noopener noreferrer">https://example.gov/parks</a> today</p>`,
		},
		{
			name: "bare domain",
			in:   "Visit www.example.gov",
			want: `Visit <a href="http://www.example.gov" target="_blank" rel="noopener noreferrer">www.example.gov</a>`,
		},
		{
			name: "email",
			in:   "Email clerk@example.gov.",
			want: `Email <a href="mailto:clerk@example.gov" target="_blank" rel="noopener noreferrer">clerk@example.gov</a>.`,
		},
		{
			name: "existing anchor untouched",
			in:   `<a href="https://example.gov">https://example.gov</a>`,
			want: `<a href="https://example.gov">https://example.gov</a>`,
		},
		{
			name: "entities preserved around links",
			in:   "Parks &amp; Rec: https://example.gov",
			want: `Parks &amp; Rec: <a href="https://example.gov" target="_blank" rel="noopener noreferrer">https://example.gov</a>`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, l.Link(tt.in))
		})
	}
}

func TestLinkHashtags(t *testing.T) {
	t.Parallel()

	plain := New()
	require.Equal(t, "Go #CityHall", plain.Link("Go #CityHall"))

	l := New(WithHashtags(""))
	got := l.Link("Budget hearing tonight #CityHall")
	require.Equal(t,
		`Budget hearing tonight <a href="https://twitter.com/hashtag/CityHall" target="_blank" rel="noopener noreferrer">#CityHall</a>`,
		got)

	// Fragment identifiers inside URLs are not hashtags.
	got = l.Link("https://example.gov/page#top")
	require.Equal(t,
		`<a href="https://example.gov/page#top" target="_blank" rel="noopener noreferrer">https://example.gov/page#top</a>`,
		got)
}

func TestLinkIsIdempotent(t *testing.T) {
	t.Parallel()

	l := New()
	once := l.Link("Call or write info@example.gov")
	require.Equal(t, once, l.Link(once))
}
