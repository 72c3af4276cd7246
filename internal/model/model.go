package model

import (
	"regexp"
	"time"
)

var bareDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsBareDate reports whether s is a date-only value ("YYYY-MM-DD"), the
// shape calendar providers use to signal an all-day event.
func IsBareDate(s string) bool {
	return bareDateRe.MatchString(s)
}

// CalendarEvent is a single already-expanded event instance as delivered
// by a calendar provider. Recurring events reach this type only after the
// provider has expanded them; no recurrence rules appear here.
//
// Start and End keep the provider's string form: either an ISO-8601
// date-time (timed event) or a bare "YYYY-MM-DD" date (all-day). For
// all-day events End is exclusive, following the Google Calendar
// convention: an event covering June 1–2 has End "2025-06-03".
type CalendarEvent struct {
	ID          string `json:"id,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	AllDay      *bool  `json:"allDay,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	HTMLLink    string `json:"htmlLink,omitempty"`
	CalendarID  string `json:"calendarId,omitempty"`
}

// IsAllDay reports whether the event is all-day: the explicit flag when
// present, otherwise inferred from Start being a bare date.
func (e CalendarEvent) IsAllDay() bool {
	if e.AllDay != nil {
		return *e.AllDay
	}
	return IsBareDate(e.Start)
}

// DisplaySummary returns the event title, or a placeholder when empty.
func (e CalendarEvent) DisplaySummary() string {
	if e.Summary == "" {
		return "(untitled)"
	}
	return e.Summary
}

// StartTime parses Start as a local wall-clock time. Bare dates parse to
// local midnight. Returns ok=false when Start is unparsable.
func (e CalendarEvent) StartTime() (time.Time, bool) {
	return ParseEventTime(e.Start)
}

// EndTime parses End like StartTime.
func (e CalendarEvent) EndTime() (time.Time, bool) {
	return ParseEventTime(e.End)
}

// ParseEventTime parses a provider time string. Date-time values carry
// their own offset when the provider sends one; values without an offset
// and bare dates are interpreted in the host's local zone. There is no
// UTC normalization: the provider's wall-clock intent is preserved.
func ParseEventTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if IsBareDate(s) {
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
