package content

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Collection names as exposed to downstream consumers.
const (
	CollectionDepartmentListings = "departmentListings"
	CollectionEventTypes         = "eventTypes"
	CollectionEventListings      = "eventListings"
	CollectionPRRIItems          = "prriItems"
	CollectionServiceCategories  = "serviceCategories"
	CollectionServiceListings    = "serviceListings"
	CollectionServiceActionTypes = "serviceActionTypes"
)

// EventListing is one row of the event listings collection.
type EventListing struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	Department    string    `json:"department"`
	EventTypes    []string  `json:"eventType"`
	DateFormatted string    `json:"dateFormatted"`
	TimeFormatted string    `json:"timeFormatted"`
	Href          string    `json:"href"`
}

// DepartmentListing is one row of the department listings collection.
type DepartmentListing struct {
	ID              string `json:"id"`
	Path            string `json:"path"`
	Title           string `json:"title"`
	Links           []Link `json:"links"`
	Contact         string `json:"contact"`
	ServiceCategory string `json:"serviceCategory"`
}

// ServiceListing is one row of the service listings collection.
type ServiceListing struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Text            string   `json:"text"`
	Department      string   `json:"department"`
	ServiceCategory string   `json:"serviceCategory"`
	ActionTypes     []string `json:"actionTypes"`
	Href            string   `json:"href"`
}

// Term is a taxonomy term (event type, service category, action type).
type Term struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Collections groups every synced listing and term set.
type Collections struct {
	DepartmentListings []DepartmentListing `json:"departmentListings"`
	EventTypes         []Term              `json:"eventTypes"`
	EventListings      []EventListing      `json:"eventListings"`
	PRRIItems          []json.RawMessage   `json:"prriItems"`
	ServiceCategories  []Term              `json:"serviceCategories"`
	ServiceListings    []ServiceListing    `json:"serviceListings"`
	ServiceActionTypes []Term              `json:"serviceActionTypes"`
}

// Named returns the collection registered under name.
func (c Collections) Named(name string) (any, bool) {
	switch name {
	case CollectionDepartmentListings:
		return c.DepartmentListings, true
	case CollectionEventTypes:
		return c.EventTypes, true
	case CollectionEventListings:
		return c.EventListings, true
	case CollectionPRRIItems:
		return c.PRRIItems, true
	case CollectionServiceCategories:
		return c.ServiceCategories, true
	case CollectionServiceListings:
		return c.ServiceListings, true
	case CollectionServiceActionTypes:
		return c.ServiceActionTypes, true
	default:
		return nil, false
	}
}

// Weight is a menu ordering key. The CMS sends it as a string or a number.
type Weight int

// UnmarshalJSON accepts numbers and numeric strings; anything unparsable is 0.
func (w *Weight) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	raw = strings.Trim(raw, `"`)
	*w = Weight(leadingInt(raw))
	return nil
}

// leadingInt parses the leading signed integer of s, ignoring trailing junk.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c == '-' || c == '+') && end == 0 {
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// MenuItem is one navigation entry; Children are sorted independently.
type MenuItem struct {
	Key      string     `json:"key,omitempty"`
	Title    string     `json:"title"`
	URI      string     `json:"uri,omitempty"`
	Alias    string     `json:"alias,omitempty"`
	Absolute string     `json:"absolute,omitempty"`
	Relative string     `json:"relative,omitempty"`
	External bool       `json:"external,omitempty"`
	Weight   Weight     `json:"weight"`
	Children []MenuItem `json:"children"`
}

// Menus holds every navigation menu.
type Menus struct {
	Main              []MenuItem   `json:"main"`
	UtilityNavigation []MenuItem   `json:"utilityNavigation"`
	Footer            [][]MenuItem `json:"footer"`
}

// GlobalElements are the site-wide sections and menus.
type GlobalElements struct {
	Sections json.RawMessage `json:"sections"`
	Menus    Menus           `json:"menus"`
}

// Redirect maps a legacy path to its destination.
type Redirect struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	StatusCode  int    `json:"statusCode"`
}

// HomepageLinks groups the homepage link areas.
type HomepageLinks struct {
	Government LinkGroup `json:"government"`
	Info       []Link    `json:"info"`
	Pay        []Link    `json:"pay"`
	Report     []Link    `json:"report"`
	Request    []Link    `json:"request"`
	Video      LinkGroup `json:"video"`
	CTAs       CTAs      `json:"ctas"`
}

// CTAs are the homepage calls to action.
type CTAs struct {
	Primary    []Link `json:"primary"`
	Featured   *Link  `json:"featured,omitempty"`
	Additional *Link  `json:"additional,omitempty"`
}

// Homepage is the normalized homepage document.
type Homepage struct {
	Meta  Meta          `json:"meta"`
	Links HomepageLinks `json:"links"`
	Quote *Quote        `json:"quote,omitempty"`
	Video string        `json:"video,omitempty"`
}

// LandingPages are the static-or-live landing documents.
type LandingPages struct {
	Error       json.RawMessage `json:"error"`
	Events      json.RawMessage `json:"events"`
	Services    json.RawMessage `json:"services"`
	Departments json.RawMessage `json:"departments"`
}

// Named returns the landing page registered under name.
func (l LandingPages) Named(name string) (json.RawMessage, bool) {
	switch name {
	case "error":
		return l.Error, true
	case "events":
		return l.Events, true
	case "services":
		return l.Services, true
	case "departments":
		return l.Departments, true
	default:
		return nil, false
	}
}

// Snapshot is the point-in-time aggregate of all synced content. A Snapshot
// is never mutated after publication; writers build a new value.
type Snapshot struct {
	ID             string               `json:"id"`
	SyncedAt       time.Time            `json:"syncedAt"`
	Digest         string               `json:"digest,omitempty"`
	Pages          map[string]PageEntry `json:"-"`
	Landing        LandingPages         `json:"landing"`
	Homepage       Homepage             `json:"homepage"`
	Collections    Collections          `json:"collections"`
	GlobalElements GlobalElements       `json:"globalElements"`
	Kiosk          json.RawMessage      `json:"kiosk"`
	Redirects      []Redirect           `json:"redirects"`
}

// Empty returns the startup snapshot.
func Empty() *Snapshot {
	return &Snapshot{
		Pages: map[string]PageEntry{},
		GlobalElements: GlobalElements{
			Menus: Menus{Footer: [][]MenuItem{}},
		},
	}
}

// WithPage returns a copy of s whose page map additionally holds entry under
// uri. s itself is left untouched.
func (s *Snapshot) WithPage(uri string, entry PageEntry) *Snapshot {
	next := *s
	next.Pages = make(map[string]PageEntry, len(s.Pages)+1)
	for k, v := range s.Pages {
		next.Pages[k] = v
	}
	next.Pages[uri] = entry
	return &next
}

// Page returns the cached entry for uri.
func (s *Snapshot) Page(uri string) (PageEntry, bool) {
	entry, ok := s.Pages[uri]
	return entry, ok
}
