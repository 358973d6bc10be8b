package system

import (
	"testing"
	"time"
)

// TestClockNowInZone ensures the clock reports times in its configured zone.
func TestClockNowInZone(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CST", -6*60*60)
	clk := New(loc)

	before := time.Now().Add(-time.Second)
	got := clk.Now()
	after := time.Now().Add(time.Second)

	if got.Location() != loc {
		t.Fatalf("expected %v location, got %v", loc, got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

// TestClockDefaultsToLocal checks a nil zone falls back to time.Local.
func TestClockDefaultsToLocal(t *testing.T) {
	t.Parallel()

	clk := New(nil)
	if clk.Location() != time.Local {
		t.Fatalf("expected time.Local, got %v", clk.Location())
	}
	first := clk.Now()
	second := clk.Now()
	if second.Before(first) {
		t.Fatalf("expected second call %v to be >= first %v", second, first)
	}
}
