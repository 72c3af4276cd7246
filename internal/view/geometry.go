package view

import "caldash/internal/model"

// GridEndHour is the exclusive end of the time-of-day grid: the grid
// always runs to midnight, only its start collapses.
const GridEndHour = 24

// DefaultCollapseHour is the early-morning threshold below which the
// grid keeps its pre-dawn rows only when some event needs them.
const DefaultCollapseHour = 6

// GridPosition places one event inside one day's time-of-day column,
// expressed as percentages of the visible grid span.
type GridPosition struct {
	TopPercent    float64 `json:"topPercent"`
	HeightPercent float64 `json:"heightPercent"`
}

// Position computes the vertical placement of an event on a grid that
// spans [gridStartHour, gridEndHour) hours of the day.
//
// Events starting before the grid are clipped to its top rather than
// given negative offsets; events running past the grid end are clipped
// so the height never overflows the column. A degenerate result (zero
// height) is possible for events entirely outside the grid — filtering
// those out is the caller's job, via VisibleInGrid.
func Position(ev model.CalendarEvent, gridStartHour, gridEndHour int) GridPosition {
	gridStartMin := gridStartHour * 60
	span := gridEndHour*60 - gridStartMin
	if span <= 0 {
		return GridPosition{}
	}

	startMin := startMinuteOfDay(ev)

	topMin := startMin - gridStartMin
	if topMin < 0 {
		topMin = 0
	}
	endMin := startMin + DurationMinutes(ev) - gridStartMin
	if endMin > span {
		endMin = span
	}
	if endMin < topMin {
		endMin = topMin
	}

	return GridPosition{
		TopPercent:    float64(topMin) / float64(span) * 100,
		HeightPercent: float64(endMin-topMin) / float64(span) * 100,
	}
}

// VisibleInGrid reports whether any part of a timed event overlaps the
// grid's [start, end) span. All-day events are laid out in their own
// section and should not be passed here.
func VisibleInGrid(ev model.CalendarEvent, gridStartHour, gridEndHour int) bool {
	startMin := startMinuteOfDay(ev)
	endMin := startMin + DurationMinutes(ev)
	return endMin > gridStartHour*60 && startMin < gridEndHour*60
}

// CollapseGridStart picks the grid's start hour for a set of visible
// events: when every timed event starts at or after thresholdHour the
// empty pre-dawn rows are dropped and the grid starts at the threshold.
// One earlier event forces the full midnight grid. With no timed events
// at all there is nothing to show in those rows either way, so the grid
// collapses too.
func CollapseGridStart(events []model.CalendarEvent, thresholdHour int) int {
	if thresholdHour <= 0 || thresholdHour >= GridEndHour {
		thresholdHour = DefaultCollapseHour
	}
	for _, ev := range events {
		if ev.IsAllDay() {
			continue
		}
		if startMinuteOfDay(ev) < thresholdHour*60 {
			return 0
		}
	}
	return thresholdHour
}
