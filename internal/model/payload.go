package model

import (
	"encoding/json"
	"errors"
)

// CustomColor associates a calendar with a "#RRGGBB" override color.
type CustomColor struct {
	CalendarID string `json:"calendarId"`
	Color      string `json:"customHexColor"`
}

// EventsPayload is the resolved shape of a provider response. Providers
// have shipped two wire forms over time:
//
//   - a bare JSON array of events
//   - an object {"events": [...], "summaries": {...}, "colors": {...},
//     "errors": [...]}
//
// Both decode into this one struct; downstream code never deals with the
// union again. All fields besides Events may be empty.
type EventsPayload struct {
	Events []CalendarEvent
	// Summaries maps calendarId to a display title.
	Summaries map[string]string
	// Colors maps calendarId to an explicit palette slot.
	Colors map[string]int
	// Errors lists per-calendar fetch failures reported by the provider.
	Errors []string
}

// UnmarshalJSON resolves the bare-array/object union at the boundary.
func (p *EventsPayload) UnmarshalJSON(data []byte) error {
	trimmed := firstNonSpace(data)
	switch trimmed {
	case '[':
		var events []CalendarEvent
		if err := json.Unmarshal(data, &events); err != nil {
			return err
		}
		*p = EventsPayload{Events: events}
		return nil
	case '{':
		var obj struct {
			Events    []CalendarEvent   `json:"events"`
			Summaries map[string]string `json:"summaries"`
			Colors    map[string]int    `json:"colors"`
			Errors    []string          `json:"errors"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*p = EventsPayload{
			Events:    obj.Events,
			Summaries: obj.Summaries,
			Colors:    obj.Colors,
			Errors:    obj.Errors,
		}
		return nil
	default:
		return errors.New("events payload is neither an array nor an object")
	}
}

// Merge appends another payload's contents into p. Event order is
// preserved source by source; summaries and colors from later payloads
// win on calendarId collisions.
func (p *EventsPayload) Merge(other EventsPayload) {
	p.Events = append(p.Events, other.Events...)
	if len(other.Summaries) > 0 {
		if p.Summaries == nil {
			p.Summaries = make(map[string]string, len(other.Summaries))
		}
		for k, v := range other.Summaries {
			p.Summaries[k] = v
		}
	}
	if len(other.Colors) > 0 {
		if p.Colors == nil {
			p.Colors = make(map[string]int, len(other.Colors))
		}
		for k, v := range other.Colors {
			p.Colors[k] = v
		}
	}
	p.Errors = append(p.Errors, other.Errors...)
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
