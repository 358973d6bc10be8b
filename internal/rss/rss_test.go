package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func feedXML(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>City news</title>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<item><title>Story %d</title><link>https://example.gov/news/%d</link></item>`, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func TestFetchCapsCount(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML(12)))
	}))
	defer srv.Close()

	r := New(Config{URL: srv.URL}, zap.NewNop())
	posts, err := r.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 8)
	require.Equal(t, Post{Title: "Story 1", Link: "https://example.gov/news/1"}, posts[0])

	r = New(Config{URL: srv.URL, Count: 3}, nil)
	require.Len(t, r.Posts(context.Background()), 3)
}

func TestFetchFewerThanCount(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedXML(2)))
	}))
	defer srv.Close()

	posts, err := New(Config{URL: srv.URL}, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
}

func TestPostsDegradesToEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := New(Config{URL: srv.URL}, nil)
	_, err := r.Fetch(context.Background())
	require.Error(t, err)

	posts := r.Posts(context.Background())
	require.NotNil(t, posts)
	require.Empty(t, posts)
}

func TestNoURL(t *testing.T) {
	t.Parallel()

	posts, err := New(Config{}, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, posts)
}
