package collections

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/content"
)

// DefaultEventWindow is the span of the event window used when a query names
// neither a month nor a date. It is measured from the start of the current
// day.
const DefaultEventWindow = 120 * time.Minute

// noFilter is the sentinel the listing pages send for "any".
const noFilter = "-1"

// EventQuery holds event listing filters. Month is YYYY-MM, Date is
// YYYY-MM-DD; Month wins when both are set.
type EventQuery struct {
	Month      string
	Date       string
	Department string
	EventType  string
}

// ServiceQuery holds service listing filters.
type ServiceQuery struct {
	Department      string
	ServiceCategory string
	ActionType      string
}

// DepartmentQuery holds department listing filters.
type DepartmentQuery struct {
	ServiceCategory string
}

// Filters applies listing queries. Every method is a pure function of its
// arguments and returns a new slice in input order.
type Filters struct {
	window time.Duration
	loc    *time.Location
	logger *zap.Logger
}

// NewFilters builds Filters. A non-positive window selects
// DefaultEventWindow.
func NewFilters(window time.Duration, loc *time.Location, logger *zap.Logger) *Filters {
	if window <= 0 {
		window = DefaultEventWindow
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filters{window: window, loc: loc, logger: logger.Named("filters")}
}

func unset(v string) bool {
	return v == "" || v == noFilter
}

// EventWindow returns the inclusive display window for q.
func (f *Filters) EventWindow(q EventQuery, now time.Time) (time.Time, time.Time) {
	if q.Month != "" {
		if start, err := parseMonth(q.Month, f.loc); err == nil {
			return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		}
		f.logger.Info("ignoring invalid month filter", zap.String("month", q.Month))
	} else if q.Date != "" {
		if day, err := time.ParseInLocation(time.DateOnly, q.Date, f.loc); err == nil {
			return day, day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.logger.Info("ignoring invalid date filter", zap.String("date", q.Date))
	}
	start := startOfDay(now.In(f.loc))
	return start, start.Add(f.window)
}

func parseMonth(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", raw, loc)
	if err != nil {
		t, err = time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Events filters c.EventListings by department, event type and date window.
// An event type id missing from c.EventTypes does not filter.
func (f *Filters) Events(c content.Collections, q EventQuery, now time.Time) []content.EventListing {
	start, end := f.EventWindow(q, now)
	eventType, byType := termName(c.EventTypes, q.EventType)
	out := make([]content.EventListing, 0, len(c.EventListings))
	for _, listing := range c.EventListings {
		if !unset(q.Department) && listing.Department != q.Department {
			continue
		}
		if byType && !slices.Contains(listing.EventTypes, eventType) {
			continue
		}
		if listing.Timestamp.Before(start) || listing.Timestamp.After(end) {
			continue
		}
		out = append(out, listing)
	}
	return out
}

// Services filters c.ServiceListings. A category or action type id that is
// set but unknown matches nothing.
func (f *Filters) Services(c content.Collections, q ServiceQuery) []content.ServiceListing {
	category, categoryKnown := termName(c.ServiceCategories, q.ServiceCategory)
	action, actionKnown := termName(c.ServiceActionTypes, q.ActionType)
	out := make([]content.ServiceListing, 0, len(c.ServiceListings))
	for _, listing := range c.ServiceListings {
		if !unset(q.Department) && listing.Department != q.Department {
			continue
		}
		if !unset(q.ServiceCategory) && (!categoryKnown || listing.ServiceCategory != category) {
			continue
		}
		if !unset(q.ActionType) && (!actionKnown || !slices.Contains(listing.ActionTypes, action)) {
			continue
		}
		out = append(out, listing)
	}
	return out
}

// Departments filters c.DepartmentListings by service category id.
func (f *Filters) Departments(c content.Collections, q DepartmentQuery) []content.DepartmentListing {
	out := make([]content.DepartmentListing, 0, len(c.DepartmentListings))
	for _, listing := range c.DepartmentListings {
		if !unset(q.ServiceCategory) && listing.ServiceCategory != q.ServiceCategory {
			continue
		}
		out = append(out, listing)
	}
	return out
}

// termName resolves id against terms. ok is false when id is unset or not
// found.
func termName(terms []content.Term, id string) (string, bool) {
	if unset(id) {
		return "", false
	}
	for _, t := range terms {
		if t.ID == id {
			return t.Name, true
		}
	}
	return "", false
}
