// Package system provides the wall clock used for event windows and sync
// timestamps.
package system

import "time"

// Clock implements content.Clock in a fixed time zone.
type Clock struct {
	loc *time.Location
}

// New creates a Clock reporting times in loc. A nil loc means time.Local,
// which is the zone listing pages are shown in.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc}
}

// Now returns the current time in the clock's zone.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the clock's zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}
