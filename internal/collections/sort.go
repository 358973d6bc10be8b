package collections

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JakeFAU/cityhall/internal/content"
)

// collator builds a fresh Collator; a Collator must not be shared across
// goroutines.
func collator() *collate.Collator {
	return collate.New(language.English)
}

func compareNames(c *collate.Collator, a, b string) int {
	if r := c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// SortEventListings orders listings by timestamp, ascending, in place.
func SortEventListings(listings []content.EventListing) {
	slices.SortStableFunc(listings, func(a, b content.EventListing) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// SortDepartmentListings orders listings by title in place.
func SortDepartmentListings(listings []content.DepartmentListing) {
	c := collator()
	slices.SortStableFunc(listings, func(a, b content.DepartmentListing) int {
		return compareNames(c, a.Title, b.Title)
	})
}

// SortServiceListings orders listings by title in place.
func SortServiceListings(listings []content.ServiceListing) {
	c := collator()
	slices.SortStableFunc(listings, func(a, b content.ServiceListing) int {
		return compareNames(c, a.Title, b.Title)
	})
}

// SortTerms orders taxonomy terms by name in place.
func SortTerms(terms []content.Term) {
	c := collator()
	slices.SortStableFunc(terms, func(a, b content.Term) int {
		return compareNames(c, a.Name, b.Name)
	})
}

// SortMenu returns a copy of items ordered by weight, ascending. Each item's
// children are ordered on their own before the parent list is sorted.
// Items with equal weight keep their relative order.
func SortMenu(items []content.MenuItem) []content.MenuItem {
	out := make([]content.MenuItem, len(items))
	for i, item := range items {
		item.Children = SortMenu(item.Children)
		out[i] = item
	}
	slices.SortStableFunc(out, func(a, b content.MenuItem) int {
		return cmp.Compare(a.Weight, b.Weight)
	})
	return out
}
