// Package staticdata bundles the documents served for feeds that have not
// moved to the live CMS yet.
package staticdata

import (
	"embed"
	"fmt"
	"sort"
)

// Feeds with a bundled document.
const (
	PRRIItems       = "prri_items"
	ErrorPage       = "error_page"
	EventsPage      = "events_page"
	ServicesPage    = "services_page"
	DepartmentsPage = "departments_page"
)

//go:embed data/*.json
var files embed.FS

var paths = map[string]string{
	PRRIItems:       "data/prri-items.json",
	ErrorPage:       "data/error.json",
	EventsPage:      "data/events.json",
	ServicesPage:    "data/services.json",
	DepartmentsPage: "data/departments.json",
}

// Read returns the bundled document for feed.
func Read(feed string) ([]byte, error) {
	path, ok := paths[feed]
	if !ok {
		return nil, fmt.Errorf("staticdata: unknown feed %q", feed)
	}
	b, err := files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("staticdata: read %s: %w", feed, err)
	}
	return b, nil
}

// Feeds lists every feed with a bundled document.
func Feeds() []string {
	out := make([]string, 0, len(paths))
	for feed := range paths {
		out = append(out, feed)
	}
	sort.Strings(out)
	return out
}
