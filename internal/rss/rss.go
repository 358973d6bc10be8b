// Package rss reads the city news feed.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const (
	defaultCount   = 8
	defaultTimeout = 10 * time.Second
)

// Post is one feed entry.
type Post struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Config controls the reader.
type Config struct {
	URL     string
	Count   int
	Timeout time.Duration
}

// Reader fetches and parses an RSS or Atom feed.
type Reader struct {
	url     string
	count   int
	timeout time.Duration
	parser  *gofeed.Parser
	logger  *zap.Logger
}

// New builds a Reader. An empty URL yields a Reader whose Posts is always
// empty.
func New(cfg Config, logger *zap.Logger) *Reader {
	if cfg.Count <= 0 {
		cfg.Count = defaultCount
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.Timeout}
	return &Reader{
		url:     cfg.URL,
		count:   cfg.Count,
		timeout: cfg.Timeout,
		parser:  parser,
		logger:  logger.Named("rss"),
	}
}

// Fetch returns at most Count posts in feed order.
func (r *Reader) Fetch(ctx context.Context) ([]Post, error) {
	if r.url == "" {
		return []Post{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	feed, err := r.parser.ParseURLWithContext(r.url, ctx)
	if err != nil {
		return []Post{}, fmt.Errorf("fetch rss %s: %w", r.url, err)
	}
	posts := make([]Post, 0, min(len(feed.Items), r.count))
	for _, item := range feed.Items {
		if len(posts) == r.count {
			break
		}
		posts = append(posts, Post{Title: item.Title, Link: item.Link})
	}
	return posts, nil
}

// Posts is Fetch with failures logged and degraded to an empty list.
func (r *Reader) Posts(ctx context.Context) []Post {
	posts, err := r.Fetch(ctx)
	if err != nil {
		r.logger.Warn("rss fetch failed", zap.Error(err))
		return []Post{}
	}
	return posts
}
