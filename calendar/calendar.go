// Package calendar turns dashboard selectors into inclusive day ranges and
// owns the one function that maps an instant to its day label.
package calendar

import (
	"regexp"
	"time"
)

const (
	// LabelLayout is the day-label format used in every DailySeries.
	LabelLayout = "2006-01-02"
	// MonthLayout is the selector format accepted by Resolve.
	MonthLayout = "2006-01"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Range is an inclusive span of calendar days in a single location.
// Start and End are both midnight.
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolve interprets a "YYYY-MM" selector. Anything that is not a real
// month falls back to the month containing now.
func Resolve(selector string, now time.Time) Range {
	if monthPattern.MatchString(selector) {
		if t, err := time.ParseInLocation(MonthLayout, selector, now.Location()); err == nil {
			return Month(t.Year(), t.Month(), now.Location())
		}
	}
	return Month(now.Year(), now.Month(), now.Location())
}

// Month returns the first through last day of the given month. The last day
// is day 0 of the following month, which time.Date normalizes.
func Month(year int, month time.Month, loc *time.Location) Range {
	return Range{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, month+1, 0, 0, 0, 0, 0, loc),
	}
}

// TrailingDays returns the n days ending on the day containing now.
func TrailingDays(n int, now time.Time) Range {
	if n < 1 {
		n = 1
	}
	end := StartOfDay(now)
	return Range{
		Start: end.AddDate(0, 0, -(n - 1)),
		End:   end,
	}
}

// StartOfDay returns 00:00 of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayLabel is the single day-bucketing function. Labels for the range and
// buckets for stored records both go through it.
func DayLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(LabelLayout)
}

// Location is where the range's day boundaries are drawn.
func (r Range) Location() *time.Location {
	return r.Start.Location()
}

// Labels lists every day of the range in ascending order.
func (r Range) Labels() []string {
	var labels []string
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		labels = append(labels, DayLabel(d, r.Location()))
	}
	return labels
}

// Days is the number of calendar days in the range.
func (r Range) Days() int {
	return len(r.Labels())
}

// Bounds returns the half-open instant interval [from, to) covering the
// range: midnight of Start up to midnight after End.
func (r Range) Bounds() (from, to time.Time) {
	return r.Start, r.End.AddDate(0, 0, 1)
}

// Contains reports whether label names a day of the range.
func (r Range) Contains(label string) bool {
	return label >= DayLabel(r.Start, r.Location()) && label <= DayLabel(r.End, r.Location())
}

// MonthSelector formats the month containing the range start, e.g. "2025-05".
func (r Range) MonthSelector() string {
	return r.Start.Format(MonthLayout)
}
