// Package daterange resolves the from/to query parameters used by the admin
// analytics endpoints into a normalized inclusive UTC day window.
package daterange

import (
	"regexp"
	"time"
)

const dayFormat = "2006-01-02"

// DefaultWindowDays is the size of the trailing window used when the caller
// supplies no usable bounds.
const DefaultWindowDays = 30

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Range is a resolved inclusive calendar-day window.
// From <= To always holds; FromTime/ToTime are the UTC instant bounds
// (From at 00:00:00.000 through To at 23:59:59.999).
type Range struct {
	From     string
	To       string
	FromTime time.Time
	ToTime   time.Time
}

// Resolve normalizes optional from/to day strings against the given clock.
//
// Invalid or missing values fall back to defaults: to = today (UTC),
// from = to minus 29 days. A reversed pair is swapped, and the instant
// bounds are recomputed from the swapped labels.
func Resolve(from, to string, now time.Time) Range {
	today := dayOf(now.UTC())

	toDay := parseDay(to, today)
	fromDay := parseDay(from, toDay.AddDate(0, 0, -(DefaultWindowDays-1)))

	if fromDay.After(toDay) {
		fromDay, toDay = toDay, fromDay
	}

	return Range{
		From:     fromDay.Format(dayFormat),
		To:       toDay.Format(dayFormat),
		FromTime: fromDay,
		ToTime:   toDay.Add(24*time.Hour - time.Millisecond),
	}
}

// Days enumerates every calendar day in the range, ascending.
func (r Range) Days() []string {
	var days []string
	for d := r.FromTime; !d.After(r.ToTime); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dayFormat))
	}
	return days
}

func parseDay(value string, fallback time.Time) time.Time {
	if !dayPattern.MatchString(value) {
		return fallback
	}
	parsed, err := time.ParseInLocation(dayFormat, value, time.UTC)
	if err != nil {
		return fallback
	}
	return parsed
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
