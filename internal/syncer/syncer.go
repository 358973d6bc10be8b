package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/cityhall/internal/collections"
	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/metrics"
	"github.com/JakeFAU/cityhall/internal/normalize"
	"github.com/JakeFAU/cityhall/internal/staticdata"
)

// Publisher receives each successfully built snapshot.
type Publisher interface {
	Replace(next *content.Snapshot)
}

// Config selects feed sources and which feeds may fail.
type Config struct {
	// Sources maps seam feeds (see staticdata) to SourceStatic or
	// SourceLive. Missing feeds are static.
	Sources map[string]string
	// OptionalFeeds may fail without failing the sync; they are published
	// empty instead.
	OptionalFeeds []string
}

// Options wires a Syncer.
type Options struct {
	Fetcher    content.Fetcher
	Normalizer *normalize.Normalizer
	Mapper     *collections.Mapper
	Publisher  Publisher
	IDs        content.IDGenerator
	Clock      content.Clock
	// Fingerprints is optional; without it snapshots carry no digest.
	Fingerprints content.Fingerprinter
	Config       Config
	Logger       *zap.Logger
}

// Syncer runs full content syncs. Syncs never overlap.
type Syncer struct {
	fetcher    content.Fetcher
	normalizer *normalize.Normalizer
	mapper     *collections.Mapper
	publisher  Publisher
	ids        content.IDGenerator
	clock      content.Clock
	sources    map[string]string
	optional   map[string]bool
	prints     content.Fingerprinter
	logger     *zap.Logger

	mu         sync.Mutex
	lastDigest string
}

// New builds a Syncer.
func New(opts Options) *Syncer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	optional := make(map[string]bool, len(opts.Config.OptionalFeeds))
	for _, feed := range opts.Config.OptionalFeeds {
		optional[feed] = true
	}
	sources := make(map[string]string, len(opts.Config.Sources))
	for feed, source := range opts.Config.Sources {
		sources[feed] = source
	}
	return &Syncer{
		fetcher:    opts.Fetcher,
		normalizer: opts.Normalizer,
		mapper:     opts.Mapper,
		publisher:  opts.Publisher,
		ids:        opts.IDs,
		clock:      opts.Clock,
		sources:    sources,
		optional:   optional,
		prints:     opts.Fingerprints,
		logger:     opts.Logger.Named("syncer"),
	}
}

// Sync builds a new snapshot and publishes it. On error nothing is
// published and the caller decides whether the failure is fatal.
func (s *Syncer) Sync(ctx context.Context) (*content.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clock.Now()
	id, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate sync id: %w", err)
	}
	logger := s.logger.With(zap.String("sync_id", id))
	logger.Info("sync started")

	next, err := s.Build(ctx)
	elapsed := s.clock.Now().Sub(start)
	if err != nil {
		metrics.ObserveSync("error", elapsed)
		logger.Error("sync failed", zap.Duration("duration", elapsed), zap.Error(err))
		return nil, fmt.Errorf("sync %s: %w", id, err)
	}
	changed := true
	if s.prints != nil {
		digest, err := s.prints.Fingerprint(next)
		if err != nil {
			logger.Warn("fingerprint snapshot", zap.Error(err))
		} else {
			next.Digest = digest
			changed = digest != s.lastDigest
			s.lastDigest = digest
		}
	}
	next.ID = id
	next.SyncedAt = s.clock.Now()
	s.publisher.Replace(next)

	metrics.ObserveSync("success", elapsed)
	logger.Info("sync finished",
		zap.Duration("duration", elapsed),
		zap.String("digest", next.Digest),
		zap.Bool("changed", changed),
	)
	return next, nil
}

// Build fetches every feed and assembles a snapshot without publishing it.
// The page cache of the result is empty.
func (s *Syncer) Build(ctx context.Context) (*content.Snapshot, error) {
	next := content.Empty()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.syncPages(gctx, next)
	})
	g.Go(func() error {
		redirects, err := s.syncRedirects(gctx)
		next.Redirects = redirects
		return err
	})
	g.Go(func() error {
		kiosk, err := s.syncKiosk(gctx)
		next.Kiosk = kiosk
		return err
	})
	g.Go(func() error {
		return s.syncGlobalElements(gctx, &next.GlobalElements)
	})
	g.Go(func() error {
		return s.syncCollections(gctx, &next.Collections)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Syncer) syncPages(ctx context.Context, next *content.Snapshot) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := s.fetch(gctx, pathHomepage)
		if err == nil {
			next.Homepage, err = s.normalizer.Homepage(body)
		}
		if err != nil {
			next.Homepage = content.Homepage{}
			return s.degrade(pathHomepage, err)
		}
		return nil
	})
	landing := []struct {
		feed string
		dst  *json.RawMessage
	}{
		{staticdata.ErrorPage, &next.Landing.Error},
		{staticdata.EventsPage, &next.Landing.Events},
		{staticdata.ServicesPage, &next.Landing.Services},
		{staticdata.DepartmentsPage, &next.Landing.Departments},
	}
	for _, page := range landing {
		g.Go(func() error {
			body, err := s.seam(gctx, page.feed)
			if err != nil {
				return err
			}
			*page.dst = body
			return nil
		})
	}
	return g.Wait()
}

func (s *Syncer) syncRedirects(ctx context.Context) ([]content.Redirect, error) {
	body, err := s.fetch(ctx, pathRedirects)
	if err != nil {
		return []content.Redirect{}, s.tolerate(FeedRedirects, err)
	}
	return s.normalizer.Redirects(body), nil
}

func (s *Syncer) syncKiosk(ctx context.Context) (json.RawMessage, error) {
	body, err := s.fetch(ctx, pathKiosk)
	if err == nil && !json.Valid(body) {
		err = fmt.Errorf("kiosk: invalid json")
	}
	if err != nil {
		return json.RawMessage("null"), s.tolerate(FeedKiosk, err)
	}
	return body, nil
}

func (s *Syncer) syncGlobalElements(ctx context.Context, dst *content.GlobalElements) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := s.fetch(gctx, pathGlobalElements)
		if err != nil {
			return err
		}
		if !json.Valid(body) {
			return fmt.Errorf("global elements: invalid json")
		}
		dst.Sections = body
		return nil
	})
	g.Go(func() error {
		return s.syncMenus(gctx, &dst.Menus)
	})
	return g.Wait()
}

func (s *Syncer) syncMenus(ctx context.Context, dst *content.Menus) error {
	footers := make([][]content.MenuItem, len(footerMenus))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.menu(gctx, "main")
		if err != nil {
			items, err = []content.MenuItem{}, s.degrade(menuPath("main"), err)
		}
		dst.Main = items
		return err
	})
	g.Go(func() error {
		items, err := s.menu(gctx, "utility-navigation")
		if err != nil {
			items, err = []content.MenuItem{}, s.degrade(menuPath("utility-navigation"), err)
		}
		dst.UtilityNavigation = items
		return err
	})
	for i, name := range footerMenus {
		g.Go(func() error {
			items, err := s.menu(gctx, name)
			footers[i] = items
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	dst.Footer = footers
	return nil
}

func (s *Syncer) menu(ctx context.Context, name string) ([]content.MenuItem, error) {
	body, err := s.fetch(ctx, menuPath(name))
	if err != nil {
		return nil, err
	}
	return collections.SortMenu(s.normalizer.Menu(body)), nil
}

func (s *Syncer) syncCollections(ctx context.Context, dst *content.Collections) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.collection(gctx, pathDepartments, func(body []byte) {
			dst.DepartmentListings = s.mapper.DepartmentListings(body)
		})
	})
	g.Go(func() error {
		return s.collection(gctx, termsPath("event_type"), func(body []byte) {
			dst.EventTypes = s.mapper.Terms(body)
		})
	})
	g.Go(func() error {
		return s.collection(gctx, pathEvents, func(body []byte) {
			dst.EventListings = s.mapper.EventListings(body)
		})
	})
	g.Go(func() error {
		body, err := s.seam(gctx, staticdata.PRRIItems)
		if err != nil {
			body, err = nil, s.degrade(staticdata.PRRIItems, err)
		}
		dst.PRRIItems = collections.RawItems(body)
		return err
	})
	g.Go(func() error {
		return s.collection(gctx, termsPath("service_category"), func(body []byte) {
			dst.ServiceCategories = s.mapper.Terms(body)
		})
	})
	g.Go(func() error {
		return s.collection(gctx, pathServices, func(body []byte) {
			dst.ServiceListings = s.mapper.ServiceListings(body)
		})
	})
	g.Go(func() error {
		return s.collection(gctx, termsPath("service_action_type"), func(body []byte) {
			dst.ServiceActionTypes = s.mapper.Terms(body)
		})
	})
	return g.Wait()
}

// collection fetches one collection feed and hands the body to apply. A feed
// the CMS cannot serve is applied as an absent body, which maps to an empty
// collection.
func (s *Syncer) collection(ctx context.Context, path string, apply func(body []byte)) error {
	body, err := s.fetch(ctx, path)
	if err != nil {
		if err := s.degrade(path, err); err != nil {
			return err
		}
		body = nil
	}
	apply(body)
	return nil
}

// seam reads a feed from the CMS when its source is live and from the
// bundled documents otherwise.
func (s *Syncer) seam(ctx context.Context, feed string) ([]byte, error) {
	if s.sources[feed] == SourceLive {
		body, err := s.fetch(ctx, livePaths[feed])
		if err != nil {
			return nil, err
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("%s: invalid json", feed)
		}
		return body, nil
	}
	body, err := staticdata.Read(feed)
	if err != nil {
		return nil, fmt.Errorf("read static %s: %w", feed, err)
	}
	return body, nil
}

func (s *Syncer) fetch(ctx context.Context, path string) ([]byte, error) {
	resp, err := s.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("sync feed: %w", err)
	}
	s.logger.Debug("received feed", zap.String("feed", path), zap.Int("bytes", len(resp.Body)))
	return resp.Body, nil
}

// degrade swallows err for feeds that are published empty when the CMS
// cannot serve them. A canceled sync is never swallowed.
func (s *Syncer) degrade(feed string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Warn("feed failed, publishing empty", zap.String("feed", feed), zap.Error(err))
	return nil
}

// tolerate swallows err for optional feeds. A canceled sync is never
// tolerated.
func (s *Syncer) tolerate(feed string, err error) error {
	if !s.optional[feed] || errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Warn("optional feed failed, publishing empty", zap.String("feed", feed), zap.Error(err))
	return nil
}

// Summary describes a published snapshot.
type Summary struct {
	ID          string         `json:"id"`
	SyncedAt    time.Time      `json:"syncedAt"`
	Digest      string         `json:"digest,omitempty"`
	Redirects   int            `json:"redirects"`
	Menus       map[string]int `json:"menus"`
	Collections map[string]int `json:"collections"`
}

// Summarize counts the contents of snap.
func Summarize(snap *content.Snapshot) Summary {
	footer := 0
	for _, f := range snap.GlobalElements.Menus.Footer {
		footer += len(f)
	}
	c := snap.Collections
	return Summary{
		ID:        snap.ID,
		SyncedAt:  snap.SyncedAt,
		Digest:    snap.Digest,
		Redirects: len(snap.Redirects),
		Menus: map[string]int{
			"main":              len(snap.GlobalElements.Menus.Main),
			"utilityNavigation": len(snap.GlobalElements.Menus.UtilityNavigation),
			"footer":            footer,
		},
		Collections: map[string]int{
			content.CollectionDepartmentListings: len(c.DepartmentListings),
			content.CollectionEventTypes:         len(c.EventTypes),
			content.CollectionEventListings:      len(c.EventListings),
			content.CollectionPRRIItems:          len(c.PRRIItems),
			content.CollectionServiceCategories:  len(c.ServiceCategories),
			content.CollectionServiceListings:    len(c.ServiceListings),
			content.CollectionServiceActionTypes: len(c.ServiceActionTypes),
		},
	}
}
