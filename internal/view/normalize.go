package view

import (
	"math"
	"time"

	"caldash/internal/datekey"
	"caldash/internal/model"
)

const (
	// defaultDurationMinutes is used for all-day events and events
	// whose end is missing or unparsable.
	defaultDurationMinutes = 60
	// minDurationMinutes floors timed durations so zero/negative spans
	// never produce invisible slivers in the grid.
	minDurationMinutes = 15
)

// PrimaryDateKey returns the date key of the event's start day: the bare
// date itself for all-day events, the local calendar date of the start
// timestamp for timed ones. Unparsable starts yield an empty key, which
// buckets such events together out of the way.
func PrimaryDateKey(ev model.CalendarEvent) string {
	if model.IsBareDate(ev.Start) {
		return ev.Start
	}
	if t, ok := ev.StartTime(); ok {
		return datekey.FromTime(t)
	}
	return ""
}

// OccupiedDateKeys returns every date key the event occupies, in
// calendar order.
//
// Timed events occupy exactly their start day. All-day events with a
// valid bare-date range occupy [start, end) — the end date is EXCLUSIVE,
// matching the provider convention, so an event covering June 1–2 with
// end "2025-06-03" yields two keys. Malformed ranges (missing end,
// non-date strings, end <= start) fall back to the start day alone.
func OccupiedDateKeys(ev model.CalendarEvent) []string {
	primary := PrimaryDateKey(ev)
	if !ev.IsAllDay() {
		return []string{primary}
	}
	start, okStart := datekey.ToTime(ev.Start)
	end, okEnd := datekey.ToTime(ev.End)
	if !okStart || !okEnd {
		return []string{primary}
	}

	var keys []string
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, datekey.FromTime(d))
	}
	if len(keys) == 0 {
		// end <= start: degenerate range.
		return []string{primary}
	}
	return keys
}

// IsContinuation reports whether key is not the event's first occupied
// day. Display-only: callers typically append a "(cont'd)" marker.
func IsContinuation(ev model.CalendarEvent, key string) bool {
	return key != PrimaryDateKey(ev)
}

// DurationMinutes returns the event's duration in whole minutes, rounded
// to the nearest minute and floored at minDurationMinutes. All-day
// events and events without a usable end get defaultDurationMinutes.
func DurationMinutes(ev model.CalendarEvent) int {
	if ev.IsAllDay() {
		return defaultDurationMinutes
	}
	start, ok := ev.StartTime()
	if !ok {
		return defaultDurationMinutes
	}
	end, ok := ev.EndTime()
	if !ok {
		return defaultDurationMinutes
	}
	mins := int(math.Round(end.Sub(start).Minutes()))
	if mins < minDurationMinutes {
		mins = minDurationMinutes
	}
	return mins
}

// startMinuteOfDay returns minutes since local midnight of the event's
// start. All-day and unparsable starts count as midnight.
func startMinuteOfDay(ev model.CalendarEvent) int {
	if ev.IsAllDay() {
		return 0
	}
	t, ok := ev.StartTime()
	if !ok {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// midnight truncates t to 00:00 local.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
