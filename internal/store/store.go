package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/metrics"
	"github.com/JakeFAU/cityhall/internal/normalize"
)

// Options wires a Store.
type Options struct {
	Fetcher    content.Fetcher
	Normalizer *normalize.Normalizer
	Tweets     content.TweetLookup
	Clock      content.Clock
	Source     content.SourceMode
	// LoadTimeout bounds a shared page load. Zero leaves it to the fetcher.
	LoadTimeout time.Duration
	Logger      *zap.Logger
}

// Store is the in-memory cache of synced content.
type Store struct {
	fetcher    content.Fetcher
	normalizer *normalize.Normalizer
	tweets     content.TweetLookup
	clock      content.Clock
	source     content.SourceMode
	timeout    time.Duration
	logger     *zap.Logger

	snap   atomic.Pointer[content.Snapshot]
	synced atomic.Bool
	// mu serializes writers; readers only touch snap.
	mu     sync.Mutex
	flight singleflight.Group
}

// New builds a Store holding an empty snapshot.
func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Source == "" {
		opts.Source = content.SourceProduction
	}
	s := &Store{
		fetcher:    opts.Fetcher,
		normalizer: opts.Normalizer,
		tweets:     opts.Tweets,
		clock:      opts.Clock,
		source:     opts.Source,
		timeout:    opts.LoadTimeout,
		logger:     opts.Logger.Named("store"),
	}
	s.snap.Store(content.Empty())
	return s
}

// Snapshot returns the current snapshot. Callers must treat it as read-only.
func (s *Store) Snapshot() *content.Snapshot {
	return s.snap.Load()
}

// Ready reports whether a synced snapshot has been published.
func (s *Store) Ready() bool {
	return s.synced.Load()
}

// Replace publishes next as the current snapshot in one step. The page cache
// is whatever next carries, so cached pages and errors from the previous
// snapshot are dropped.
func (s *Store) Replace(next *content.Snapshot) {
	if next.Pages == nil {
		next.Pages = map[string]content.PageEntry{}
	}
	s.mu.Lock()
	s.snap.Store(next)
	s.synced.Store(true)
	s.mu.Unlock()
	metrics.SetSnapshotSwapped(next.SyncedAt)
	s.logger.Info("snapshot published",
		zap.String("sync_id", next.ID),
		zap.Time("synced_at", next.SyncedAt),
	)
}

// Get returns the normalized record for uri. In production the cached entry,
// record or error, is returned when present; staging always refetches and
// overwrites the entry. A cached error is returned as is until the next sync.
func (s *Store) Get(ctx context.Context, uri string) (content.Record, error) {
	if s.source != content.SourceStaging {
		if entry, ok := s.snap.Load().Page(uri); ok {
			metrics.ObservePageLookup(metrics.CacheHit)
			return entry.Record, entry.Err
		}
		metrics.ObservePageLookup(metrics.CacheMiss)
		// Concurrent misses for one URI share a single upstream request. The
		// load outlives any one caller; each caller waits on its own context.
		ch := s.flight.DoChan(uri, func() (any, error) {
			lctx, cancel := s.loadContext(ctx)
			defer cancel()
			return s.load(lctx, uri), nil
		})
		select {
		case res := <-ch:
			entry := res.Val.(content.PageEntry)
			return entry.Record, entry.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	metrics.ObservePageLookup(metrics.CacheBypass)
	entry := s.load(ctx, uri)
	return entry.Record, entry.Err
}

// loadContext detaches a shared load from the caller that started it.
func (s *Store) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		return context.WithTimeout(base, s.timeout)
	}
	return context.WithCancel(base)
}

// load fetches, normalizes and enriches uri, then stores the outcome. The
// entry is written exactly once. A failure caused by ctx ending is not
// cached.
func (s *Store) load(ctx context.Context, uri string) content.PageEntry {
	entry := s.fetch(ctx, uri)
	if entry.Err != nil && ctx.Err() != nil && errors.Is(entry.Err, ctx.Err()) {
		return entry
	}
	s.mu.Lock()
	s.snap.Store(s.snap.Load().WithPage(uri, entry))
	s.mu.Unlock()
	return entry
}

func (s *Store) fetch(ctx context.Context, uri string) content.PageEntry {
	entry := content.PageEntry{FetchedAt: s.clock.Now()}
	logger := s.logger.With(zap.String("uri", uri))

	resp, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		// A CMS error message takes precedence over the status code.
		if msg := normalize.Message(resp.Body); msg != "" {
			err = &content.UpstreamMessageError{Message: msg}
		}
		logger.Warn("page fetch failed", zap.Error(err))
		entry.Err = err
		return entry
	}

	eventTypes := s.snap.Load().Collections.EventTypes
	record, err := s.normalizer.Page(resp.Body, eventTypes)
	if err != nil {
		logger.Warn("page normalization failed", zap.Error(err))
		entry.Err = err
		return entry
	}
	s.enrich(ctx, record, logger)
	entry.Record = record
	return entry
}

// enrich attaches the latest tweet before the record is published. Lookup
// failures leave the record without a tweet.
func (s *Store) enrich(ctx context.Context, record content.Record, logger *zap.Logger) {
	target, ok := record.(content.TweetTarget)
	if !ok || target.TwitterHandle() == "" || s.tweets == nil {
		return
	}
	tweet, err := s.tweets.Latest(ctx, target.TwitterHandle())
	if err != nil {
		logger.Warn("tweet lookup failed",
			zap.String("handle", target.TwitterHandle()),
			zap.Error(err),
		)
		return
	}
	target.SetLatestTweet(tweet)
}

// Redirect finds the redirect whose source matches path. Leading and
// trailing slashes are ignored.
func (s *Store) Redirect(path string) (content.Redirect, bool) {
	want := cleanPath(path)
	for _, r := range s.snap.Load().Redirects {
		if cleanPath(r.Source) == want {
			return r, true
		}
	}
	return content.Redirect{}, false
}

func cleanPath(p string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(p), "/"))
}
