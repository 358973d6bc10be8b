package syncer

import (
	"fmt"

	"github.com/JakeFAU/cityhall/internal/staticdata"
)

// CMS paths of the synced feeds.
const (
	pathHomepage       = "/homepage"
	pathRedirects      = "/entity/redirects"
	pathKiosk          = "/entity/kiosk"
	pathGlobalElements = "/entity/global_elements"
	pathMenuItems      = "/entity/menu_items/"
	pathDepartments    = "/entity/departments"
	pathEvents         = "/entity/events"
	pathServices       = "/entity/services"
	pathTerms          = "/entity/taxonomy_vocabulary/terms/"
)

// Feeds that may fail without failing the sync.
const (
	FeedRedirects = "redirects"
	FeedKiosk     = "kiosk"
)

// Source selects where a seam feed is read from.
const (
	SourceStatic = "static"
	SourceLive   = "live"
)

// livePaths are the CMS paths of feeds that can be served from bundled
// documents instead.
var livePaths = map[string]string{
	staticdata.PRRIItems:       "/entity/prri_items",
	staticdata.ErrorPage:       "/error",
	staticdata.EventsPage:      "/events",
	staticdata.ServicesPage:    "/services",
	staticdata.DepartmentsPage: "/departments",
}

// footerMenus are the numbered footer menus by CMS name.
var footerMenus = []string{"footer-1", "footer-2", "footer-3", "footer-4"}

func menuPath(name string) string { return pathMenuItems + name }

func termsPath(vocabulary string) string { return pathTerms + vocabulary }

// ValidateSources reports feeds or sources that are not recognised.
func ValidateSources(sources map[string]string) error {
	for feed, source := range sources {
		if _, ok := livePaths[feed]; !ok {
			return fmt.Errorf("unknown source feed %q", feed)
		}
		if source != SourceStatic && source != SourceLive {
			return fmt.Errorf("source for %s must be %q or %q, got %q", feed, SourceStatic, SourceLive, source)
		}
	}
	return nil
}
