package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a CMS date value. Zone-less values are read in loc;
// an all-digit value is a Unix timestamp in seconds. An empty value is the
// Unix epoch.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Unix(0, 0).In(loc), nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).In(loc), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognized layout", raw)
}

// DateFormatted renders t as MM/DD.
func DateFormatted(t time.Time) string {
	return t.Format("01/02")
}

// TimeFormatted renders t as "March 5th, 6:30pm".
func TimeFormatted(t time.Time) string {
	return t.Format("January") + " " + humanize.Ordinal(t.Day()) + ", " + t.Format("3:04pm")
}
