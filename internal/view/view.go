// Package view is the calendar view-model engine: pure functions that
// turn a flat provider event list plus caller-held navigation state into
// day buckets, grid geometry, color assignments and date windows. It
// performs no I/O and holds no state across calls; given the same inputs
// it produces the same outputs, so it is safe to recompute from any
// fetch completion in any order.
package view

import (
	"time"

	"caldash/internal/model"
)

// Options carries the immutable engine configuration the caller threads
// in: palette, collapse threshold, explicit per-calendar slots and
// custom hex overrides.
type Options struct {
	// Palette is the slot-indexed color table. Empty means DefaultPalette.
	Palette []string
	// CollapseHour is the grid-collapse threshold. Zero means
	// DefaultCollapseHour.
	CollapseHour int
	// ExplicitColors maps calendarId to a caller-chosen slot. When
	// non-empty it replaces the derived assignment entirely.
	ExplicitColors map[string]int
	// Overrides maps calendarId to a "#RRGGBB" custom color.
	Overrides map[string]string
}

func (o Options) palette() []string {
	if len(o.Palette) == 0 {
		return DefaultPalette
	}
	return o.Palette
}

// EventView is one event as placed on one day.
type EventView struct {
	ID           string        `json:"id,omitempty"`
	Title        string        `json:"title"`
	Location     string        `json:"location,omitempty"`
	HTMLLink     string        `json:"htmlLink,omitempty"`
	CalendarID   string        `json:"calendarId,omitempty"`
	AllDay       bool          `json:"allDay"`
	Continuation bool          `json:"continuation"`
	ColorSlot    int           `json:"colorSlot"`
	Color        string        `json:"color"`
	Position     *GridPosition `json:"position,omitempty"`
}

// DayView is one visible day with its all-day strip and timed column.
type DayView struct {
	Day
	AllDay []EventView `json:"allDay"`
	Timed  []EventView `json:"timed"`
}

// View is the complete render-ready model for one window.
type View struct {
	Mode          Mode      `json:"mode"`
	SelectedKey   string    `json:"selectedKey"`
	GridStartHour int       `json:"gridStartHour"`
	GridEndHour   int       `json:"gridEndHour"`
	Days          []DayView `json:"days"`
	WeekRows      [][]Day   `json:"weekRows,omitempty"`
}

// Build assembles the full view-model: window selection, day bucketing,
// grid collapse, per-event geometry and color resolution. This is the
// one call the rendering layer needs per frame.
func Build(events []model.CalendarEvent, state State, today time.Time, opts Options) View {
	window := ComputeWindow(state.Mode, state.SelectedKey, today)
	buckets := BucketByDay(events)
	palette := opts.palette()
	colors := BuildColorMap(events, opts.ExplicitColors, len(palette))

	// Grid collapse considers only events on visible days.
	visible := make([]model.CalendarEvent, 0)
	for _, day := range window.Days {
		visible = append(visible, buckets[day.Key]...)
	}
	gridStart := CollapseGridStart(visible, opts.CollapseHour)

	days := make([]DayView, 0, len(window.Days))
	for _, day := range window.Days {
		dv := DayView{Day: day, AllDay: []EventView{}, Timed: []EventView{}}
		for _, ev := range buckets[day.Key] {
			evv := buildEventView(ev, day.Key, colors, opts.Overrides, palette)
			if ev.IsAllDay() {
				dv.AllDay = append(dv.AllDay, evv)
				continue
			}
			if !VisibleInGrid(ev, gridStart, GridEndHour) {
				continue
			}
			pos := Position(ev, gridStart, GridEndHour)
			evv.Position = &pos
			dv.Timed = append(dv.Timed, evv)
		}
		days = append(days, dv)
	}

	return View{
		Mode:          window.Mode,
		SelectedKey:   state.SelectedKey,
		GridStartHour: gridStart,
		GridEndHour:   GridEndHour,
		Days:          days,
		WeekRows:      window.WeekRows,
	}
}

func buildEventView(ev model.CalendarEvent, dayKey string, colors map[string]int, overrides map[string]string, palette []string) EventView {
	slot, hex := ResolveColor(ev, colors, overrides, palette)
	cont := IsContinuation(ev, dayKey)
	title := ev.DisplaySummary()
	if cont {
		title += " (cont'd)"
	}
	return EventView{
		ID:           ev.ID,
		Title:        title,
		Location:     ev.Location,
		HTMLLink:     ev.HTMLLink,
		CalendarID:   ev.CalendarID,
		AllDay:       ev.IsAllDay(),
		Continuation: cont,
		ColorSlot:    slot,
		Color:        hex,
	}
}
