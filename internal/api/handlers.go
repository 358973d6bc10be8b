package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/collections"
	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/syncer"
)

// pageStatus maps a cached page error to the HTTP status returned to the
// rendering layer.
func pageStatus(err error) int {
	var unknown *content.UnknownTypeError
	var message *content.UpstreamMessageError
	var transport *content.TransportError
	switch {
	case errors.Is(err, content.ErrMissingType), errors.As(err, &unknown), errors.As(err, &message):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transport):
		if transport.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	uri := "/" + strings.Trim(chi.URLParam(r, "*"), "/")
	record, err := s.store.Get(r.Context(), uri)
	if err != nil {
		status := pageStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("page lookup failed", zap.String("uri", uri), zap.Error(err))
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	items, ok := s.store.Snapshot().Collections.Named(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown collection")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type eventsResponse struct {
	Start  time.Time              `json:"start"`
	End    time.Time              `json:"end"`
	Events []content.EventListing `json:"events"`
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := collections.EventQuery{
		Month:      q.Get("month"),
		Date:       q.Get("date"),
		Department: q.Get("department"),
		EventType:  q.Get("eventType"),
	}
	now := s.clock.Now()
	start, end := s.filters.EventWindow(query, now)
	events := s.filters.Events(s.store.Snapshot().Collections, query, now)
	writeJSON(w, http.StatusOK, eventsResponse{Start: start, End: end, Events: events})
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := collections.ServiceQuery{
		Department:      q.Get("department"),
		ServiceCategory: q.Get("serviceCategory"),
		ActionType:      q.Get("actionType"),
	}
	writeJSON(w, http.StatusOK, s.filters.Services(s.store.Snapshot().Collections, query))
}

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	query := collections.DepartmentQuery{ServiceCategory: r.URL.Query().Get("serviceCategory")}
	writeJSON(w, http.StatusOK, s.filters.Departments(s.store.Snapshot().Collections, query))
}

func (s *Server) getHomepage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Homepage)
}

func (s *Server) getGlobalElements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().GlobalElements)
}

func (s *Server) getKiosk(w http.ResponseWriter, _ *http.Request) {
	writeRaw(w, s.store.Snapshot().Kiosk)
}

func (s *Server) getLanding(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.store.Snapshot().Landing.Named(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown landing page")
		return
	}
	writeRaw(w, doc)
}

func (s *Server) resolveRedirect(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path required")
		return
	}
	redirect, ok := s.store.Redirect(path)
	if !ok {
		writeError(w, http.StatusNotFound, "no redirect")
		return
	}
	writeJSON(w, http.StatusOK, redirect)
}

func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.calendar.Month(r.URL.Query().Get("month")))
}

func (s *Server) getRSS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.news.Posts(r.Context()))
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request) {
	snap, err := s.syncer.Sync(r.Context())
	if err != nil {
		s.logger.Warn("on-demand sync failed, keeping previous snapshot", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, syncer.Summarize(snap))
}

// writeRaw writes a stored JSON document; an absent document is null.
func writeRaw(w http.ResponseWriter, doc json.RawMessage) {
	if len(doc) == 0 {
		doc = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}
