package provider

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "caldash/internal/log"
	"caldash/internal/model"
)

// maxOccurrencesPerEvent caps recurrence expansion so a malformed rule
// cannot flood the dashboard.
const maxOccurrencesPerEvent = 5000

// icsEvent is a VEVENT after parsing, before recurrence expansion.
type icsEvent struct {
	uid         string
	summary     string
	description string
	location    string

	start  time.Time
	end    time.Time
	allDay bool

	rawRRule   string
	exDates    []time.Time
	recurrence *time.Time // RECURRENCE-ID, set on override instances
}

// parseICS parses one ICS payload into icsEvent values. Individual bad
// VEVENTs are skipped with a log line; the rest of the feed survives.
func parseICS(src Source, body []byte) ([]icsEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]icsEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (icsEvent, error) {
	var out icsEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.uid = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}

	// DTSTART / DTEND via the library's timezone-aware helpers.
	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.start = start
	out.end = end

	// All-day detection: VALUE=DATE parameter or a date-only value.
	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		if params := dtStart.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.allDay = true
			}
		}
		if !strings.Contains(dtStart.Value, "T") {
			out.allDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.recurrence = &t
		}
	}

	return out, nil
}

// parseICSTime parses basic ICS DATE / DATE-TIME / UTC forms, used for
// EXDATE and RECURRENCE-ID values where full parameter context is not
// available.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

// expandICS turns parsed VEVENTs into concrete single-instance
// CalendarEvents inside [rangeStart, rangeEnd], expanding RRULEs,
// honoring EXDATE and RECURRENCE-ID overrides, and converting
// everything into loc. The view engine downstream never sees a
// recurrence rule.
func expandICS(src Source, events []icsEvent, rangeStart, rangeEnd time.Time, loc *time.Location) []model.CalendarEvent {
	if loc == nil {
		loc = time.Local
	}

	// Split overrides from base events by UID.
	var bases []icsEvent
	overridesByUID := make(map[string][]icsEvent)
	for _, ev := range events {
		if ev.recurrence != nil {
			overridesByUID[ev.uid] = append(overridesByUID[ev.uid], ev)
		} else {
			bases = append(bases, ev)
		}
	}

	out := make([]model.CalendarEvent, 0)
	for _, ev := range bases {
		overrides := overridesByUID[ev.uid]

		// A missing DTEND still overlaps on its start instant.
		evEnd := ev.end
		if evEnd.IsZero() {
			evEnd = ev.start
		}

		if ev.rawRRule == "" {
			if overlaps(ev.start, evEnd, rangeStart, rangeEnd) {
				out = append(out, occurrenceToEvent(src, ev, ev.start, ev.end, loc))
			}
			continue
		}

		r, err := rrule.StrToRRule(ev.rawRRule)
		if err != nil {
			appLog.Warn("ics rrule parse failed, event kept as single", "id", src.ID, "uid", ev.uid)
			if overlaps(ev.start, evEnd, rangeStart, rangeEnd) {
				out = append(out, occurrenceToEvent(src, ev, ev.start, ev.end, loc))
			}
			continue
		}
		r.DTStart(ev.start)

		var set rrule.Set
		set.RRule(r)
		for _, ex := range ev.exDates {
			set.ExDate(ex.In(ev.start.Location()))
		}

		occTimes := set.Between(rangeStart.In(ev.start.Location()), rangeEnd.In(ev.start.Location()), true)
		if len(occTimes) > maxOccurrencesPerEvent {
			appLog.Warn("ics expansion truncated", "id", src.ID, "uid", ev.uid, "cap", maxOccurrencesPerEvent)
			occTimes = occTimes[:maxOccurrencesPerEvent]
		}

		dur := evEnd.Sub(ev.start)
		for _, occStart := range occTimes {
			occEnd := occStart.Add(dur)
			instance := ev
			if o, ok := findOverride(overrides, occStart); ok {
				instance = o
				occStart = o.start
				occEnd = o.end
			}
			out = append(out, occurrenceToEvent(src, instance, occStart, occEnd, loc))
		}
	}

	return out
}

// findOverride matches a RECURRENCE-ID override against a base
// occurrence start with exact time equality.
func findOverride(overrides []icsEvent, occStart time.Time) (icsEvent, bool) {
	for _, ov := range overrides {
		if ov.recurrence != nil && ov.recurrence.In(occStart.Location()).Equal(occStart) {
			return ov, true
		}
	}
	return icsEvent{}, false
}

// occurrenceToEvent converts one concrete occurrence into the provider
// wire shape the view engine consumes. All-day events become bare-date
// strings with an EXCLUSIVE end; timed events become RFC 3339 strings in
// the display zone.
func occurrenceToEvent(src Source, ev icsEvent, start, end time.Time, loc *time.Location) model.CalendarEvent {
	allDay := ev.allDay
	startLocal := start.In(loc)
	endLocal := end.In(loc)

	e := model.CalendarEvent{
		ID:          ev.uid + "/" + startLocal.Format(time.RFC3339),
		Summary:     ev.summary,
		Description: ev.description,
		Location:    ev.location,
		AllDay:      &allDay,
		CalendarID:  src.ID,
	}

	if allDay {
		// All-day dates are zone-less; keep the written calendar date
		// instead of shifting it through the display zone.
		startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
		// DTEND for all-day VEVENTs is already exclusive; a missing or
		// degenerate end still spans one day.
		if !endDay.After(startDay) {
			endDay = startDay.AddDate(0, 0, 1)
		}
		e.Start = startDay.Format("2006-01-02")
		e.End = endDay.Format("2006-01-02")
		return e
	}

	e.Start = startLocal.Format(time.RFC3339)
	if endLocal.After(startLocal) {
		e.End = endLocal.Format(time.RFC3339)
	}
	return e
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
