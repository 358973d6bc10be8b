package collections

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/cityhall/internal/content"
)

func TestSortMenu(t *testing.T) {
	t.Parallel()

	in := []content.MenuItem{
		{Title: "Parks", Weight: 3, Children: []content.MenuItem{{Title: "Pools", Weight: 2}, {Title: "Trails", Weight: 1}}},
		{Title: "Jobs", Weight: 1, Children: []content.MenuItem{}},
	}
	got := SortMenu(in)

	require.Equal(t, []string{"Jobs", "Parks"}, []string{got[0].Title, got[1].Title})
	require.Equal(t, "Trails", got[1].Children[0].Title)
	require.Equal(t, "Pools", got[1].Children[1].Title)
	// Input is untouched.
	require.Equal(t, "Parks", in[0].Title)
	require.Equal(t, "Pools", in[0].Children[0].Title)

	require.Equal(t, got, SortMenu(got))
}

func TestSortMenuExtremeWeights(t *testing.T) {
	t.Parallel()

	in := []content.MenuItem{
		{Title: "last", Weight: content.Weight(math.MaxInt)},
		{Title: "first", Weight: content.Weight(math.MinInt)},
		{Title: "middle", Weight: -1},
	}
	got := SortMenu(in)
	require.Equal(t, []string{"first", "middle", "last"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

func TestSortMenuStableForEqualWeights(t *testing.T) {
	t.Parallel()

	in := []content.MenuItem{{Title: "b", Weight: 0}, {Title: "a", Weight: 0}, {Title: "c", Weight: -5}}
	got := SortMenu(in)
	require.Equal(t, []string{"c", "b", "a"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

func TestSortTermsUsesCollation(t *testing.T) {
	t.Parallel()

	terms := []content.Term{{Name: "zebra"}, {Name: "Éclair"}, {Name: "apple"}, {Name: "Banana"}}
	SortTerms(terms)
	names := make([]string, len(terms))
	for i, term := range terms {
		names[i] = term.Name
	}
	require.Equal(t, []string{"apple", "Banana", "Éclair", "zebra"}, names)

	again := append([]content.Term(nil), terms...)
	SortTerms(again)
	require.Equal(t, terms, again)
}

func TestSortListingsIdempotent(t *testing.T) {
	t.Parallel()

	services := []content.ServiceListing{{ID: "1", Title: "Pay taxes"}, {ID: "2", Title: "Adopt a pet"}, {ID: "3", Title: "pay taxes"}}
	SortServiceListings(services)
	require.Equal(t, "Adopt a pet", services[0].Title)
	once := append([]content.ServiceListing(nil), services...)
	SortServiceListings(services)
	require.Equal(t, once, services)

	departments := []content.DepartmentListing{{Title: "Water"}, {Title: "Assessor"}}
	SortDepartmentListings(departments)
	require.Equal(t, "Assessor", departments[0].Title)
}

func TestSortEventListings(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	events := []content.EventListing{
		{ID: "late", Timestamp: base.Add(2 * time.Hour)},
		{ID: "early", Timestamp: base},
		{ID: "tie", Timestamp: base.Add(2 * time.Hour)},
	}
	SortEventListings(events)
	require.Equal(t, []string{"early", "late", "tie"}, []string{events[0].ID, events[1].ID, events[2].ID})
}
