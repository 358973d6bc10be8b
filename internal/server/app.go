// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/api"
	"github.com/JakeFAU/cityhall/internal/autolink"
	"github.com/JakeFAU/cityhall/internal/calendar"
	"github.com/JakeFAU/cityhall/internal/clock/system"
	"github.com/JakeFAU/cityhall/internal/collections"
	"github.com/JakeFAU/cityhall/internal/config"
	collyfetcher "github.com/JakeFAU/cityhall/internal/fetcher/colly"
	"github.com/JakeFAU/cityhall/internal/hash/sha256"
	"github.com/JakeFAU/cityhall/internal/id/uuid"
	"github.com/JakeFAU/cityhall/internal/metrics"
	"github.com/JakeFAU/cityhall/internal/normalize"
	"github.com/JakeFAU/cityhall/internal/rss"
	"github.com/JakeFAU/cityhall/internal/store"
	"github.com/JakeFAU/cityhall/internal/syncer"
	"github.com/JakeFAU/cityhall/internal/tweet"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *store.Store
	syncer    *syncer.Syncer
	refresher *syncer.Refresher
	apiServer *api.Server
}

// Build wires every component from cfg.
func Build(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clock := system.New(loc)
	linker := autolink.New()

	fetcher, err := collyfetcher.New(collyfetcher.Config{
		BaseURL:           cfg.API.URL,
		Source:            cfg.SourceMode(),
		UserAgent:         cfg.API.UserAgent,
		Timeout:           cfg.FetchTimeout(),
		MaxRetries:        cfg.API.MaxRetries,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	normalizer := normalize.New(normalize.Options{Location: loc, Linker: linker, Logger: logger})
	pages := store.New(store.Options{
		Fetcher:    fetcher,
		Normalizer: normalizer,
		Tweets: tweet.New(tweet.Config{
			BaseURL:     cfg.Twitter.BaseURL,
			BearerToken: cfg.Twitter.BearerToken,
			Timeout:     time.Duration(cfg.Twitter.TimeoutSeconds) * time.Second,
		}, logger),
		Clock:       clock,
		Source:      cfg.SourceMode(),
		LoadTimeout: cfg.RequestTimeout(),
		Logger:      logger,
	})
	runner := syncer.New(syncer.Options{
		Fetcher:      fetcher,
		Normalizer:   normalizer,
		Mapper:       collections.NewMapper(loc, linker, logger),
		Publisher:    pages,
		IDs:          uuid.New("sync"),
		Clock:        clock,
		Fingerprints: sha256.New(),
		Config: syncer.Config{
			Sources:       cfg.Sources,
			OptionalFeeds: cfg.Sync.OptionalFeeds,
		},
		Logger: logger,
	})
	news := rss.New(rss.Config{
		URL:     cfg.RSS.URL,
		Count:   cfg.RSS.Count,
		Timeout: time.Duration(cfg.RSS.TimeoutSeconds) * time.Second,
	}, logger)

	apiServer := api.NewServer(api.Options{
		Store:          pages,
		Syncer:         runner,
		Filters:        collections.NewFilters(cfg.Events.DefaultWindow, loc, logger),
		Calendar:       calendar.New(clock),
		News:           news,
		Clock:          clock,
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger,
	})

	logger.Info("application built",
		zap.String("api_url", cfg.API.URL),
		zap.String("source", string(cfg.SourceMode())),
		zap.Duration("sync_interval", cfg.SyncInterval()),
		zap.Int("server_port", cfg.Server.Port),
	)
	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     pages,
		syncer:    runner,
		refresher: syncer.NewRefresher(runner, cfg.SyncInterval(), logger),
		apiServer: apiServer,
	}, nil
}

// Handler exposes the HTTP API.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// SyncOnce runs a single full sync and publishes the result.
func (a *App) SyncOnce(ctx context.Context) (syncer.Summary, error) {
	snap, err := a.syncer.Sync(ctx)
	if err != nil {
		return syncer.Summary{}, err
	}
	return syncer.Summarize(snap), nil
}

// Run performs the initial sync, then serves HTTP and refreshes content
// until ctx is canceled. A failed initial sync is returned without serving.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.SyncOnce(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	refreshed := make(chan struct{})
	go func() {
		defer close(refreshed)
		a.refresher.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	<-refreshed
	a.logger.Info("shutdown complete")

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	default:
		return nil
	}
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.logger.Sync() //nolint:errcheck // best-effort flush
}
