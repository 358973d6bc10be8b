// Package calendar builds the month grid shown next to event listings.
package calendar

import (
	"sync"
	"time"

	"github.com/JakeFAU/cityhall/internal/content"
)

// Day is one cell of the grid.
type Day struct {
	Date          time.Time `json:"date"`
	DateFormatted int       `json:"dateFormatted"`
	// Params is the query string that selects this day in the event filter.
	Params string `json:"params"`
	// Outside marks leading and trailing days from the adjacent months.
	Outside bool `json:"outside"`
	Today   bool `json:"today"`
}

// Month is a Sunday-first grid of whole weeks covering one month.
type Month struct {
	Year                   int        `json:"year"`
	Month                  time.Month `json:"month"`
	TodaysDate             string     `json:"todaysDate"`
	Display                [][]Day    `json:"display"`
	MonthFormatted         string     `json:"monthFormatted"`
	PreviousMonthFormatted string     `json:"previousMonthFormatted"`
	NextMonthFormatted     string     `json:"nextMonthFormatted"`
	PreviousMonthString    string     `json:"previousMonthString"`
	NextMonthString        string     `json:"nextMonthString"`
}

// Generator builds grids and keeps the most recent one.
type Generator struct {
	clock content.Clock

	mu     sync.Mutex
	key    string
	cached Month
}

// New builds a Generator.
func New(clock content.Clock) *Generator {
	return &Generator{clock: clock}
}

// Month returns the grid for yearMonth (YYYY-MM). An empty or invalid value
// selects the current month. The grid is rebuilt only when the month or the
// current day changed since the previous call.
func (g *Generator) Month(yearMonth string) Month {
	now := g.clock.Now()
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	if t, err := time.ParseInLocation("2006-01", yearMonth, loc); err == nil {
		first = t
	}
	today := now.Format(time.DateOnly)
	key := first.Format("2006-01") + "|" + today

	g.mu.Lock()
	defer g.mu.Unlock()
	if key != g.key {
		g.cached = build(first, today)
		g.key = key
	}
	return g.cached
}

func build(first time.Time, today string) Month {
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)

	var weeks [][]Day
	day := first.AddDate(0, 0, -int(first.Weekday()))
	for day.Before(next) {
		week := make([]Day, 0, 7)
		for range 7 {
			iso := day.Format(time.DateOnly)
			week = append(week, Day{
				Date:          day,
				DateFormatted: day.Day(),
				Params:        "date=" + iso,
				Outside:       day.Month() != first.Month(),
				Today:         iso == today,
			})
			day = day.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}

	return Month{
		Year:                   first.Year(),
		Month:                  first.Month(),
		TodaysDate:             today,
		Display:                weeks,
		MonthFormatted:         first.Format("January"),
		PreviousMonthFormatted: prev.Format("2006-01"),
		NextMonthFormatted:     next.Format("2006-01"),
		PreviousMonthString:    prev.Format("January"),
		NextMonthString:        next.Format("January"),
	}
}
