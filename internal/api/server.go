package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/calendar"
	"github.com/JakeFAU/cityhall/internal/collections"
	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/metrics"
	"github.com/JakeFAU/cityhall/internal/rss"
)

const defaultRequestTimeout = 30 * time.Second

// PageStore is the read side of the content cache.
type PageStore interface {
	Get(ctx context.Context, uri string) (content.Record, error)
	Snapshot() *content.Snapshot
	Ready() bool
	Redirect(path string) (content.Redirect, bool)
}

// Syncer runs an on-demand full sync.
type Syncer interface {
	Sync(ctx context.Context) (*content.Snapshot, error)
}

// Calendar builds month grids.
type Calendar interface {
	Month(yearMonth string) calendar.Month
}

// News returns the latest feed posts.
type News interface {
	Posts(ctx context.Context) []rss.Post
}

// Options wires a Server.
type Options struct {
	Store          PageStore
	Syncer         Syncer
	Filters        *collections.Filters
	Calendar       Calendar
	News           News
	Clock          content.Clock
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Server wires HTTP handlers to the content store.
type Server struct {
	router   chi.Router
	store    PageStore
	syncer   Syncer
	filters  *collections.Filters
	calendar Calendar
	news     News
	clock    content.Clock
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Filters == nil {
		opts.Filters = collections.NewFilters(0, nil, opts.Logger)
	}
	s := &Server{
		store:    opts.Store,
		syncer:   opts.Syncer,
		filters:  opts.Filters,
		calendar: opts.Calendar,
		news:     opts.News,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/pages/*", s.getPage)
		r.Get("/collections/{name}", s.getCollection)
		r.Get("/events", s.listEvents)
		r.Get("/services", s.listServices)
		r.Get("/departments", s.listDepartments)
		r.Get("/homepage", s.getHomepage)
		r.Get("/global", s.getGlobalElements)
		r.Get("/kiosk", s.getKiosk)
		r.Get("/landing/{name}", s.getLanding)
		r.Get("/redirects/resolve", s.resolveRedirect)
		r.Get("/calendar", s.getCalendar)
		r.Get("/rss", s.getRSS)
		r.Post("/sync", s.runSync)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if !s.store.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "syncing"})
		return
	}
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"syncId":   snap.ID,
		"syncedAt": snap.SyncedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
