// Package datekey converts between local calendar dates and their
// canonical "YYYY-MM-DD" string form, the sole grouping unit for "which
// day is this event on". Keys compare lexicographically, which matches
// chronological order, and carry no timezone offset.
package datekey

import (
	"time"

	"caldash/internal/model"
)

const layout = "2006-01-02"

// FromTime formats t's local calendar date as a date key. The time of
// day and zone offset are discarded; only year/month/day matter.
func FromTime(t time.Time) string {
	return t.Format(layout)
}

// ToTime parses a date key into local midnight of that day. It is the
// exact inverse of FromTime for any key FromTime produced. Returns
// ok=false for malformed keys.
func ToTime(key string) (time.Time, bool) {
	if !model.IsBareDate(key) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(layout, key, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Valid reports whether key parses as a date key.
func Valid(key string) bool {
	_, ok := ToTime(key)
	return ok
}

// StartOfWeek returns midnight of the Sunday beginning the week that
// contains t.
func StartOfWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// AddDays shifts a date key by n calendar days using date arithmetic,
// crossing month and year boundaries correctly. A malformed key is
// returned unchanged.
func AddDays(key string, n int) string {
	t, ok := ToTime(key)
	if !ok {
		return key
	}
	return FromTime(t.AddDate(0, 0, n))
}
