package view

import (
	"time"

	"caldash/internal/datekey"
)

// Mode selects which date window the dashboard shows.
type Mode string

const (
	ModeDaily    Mode = "daily"
	ModeWeekly   Mode = "weekly"
	ModeBiweekly Mode = "biweekly"
	ModeMonthly  Mode = "monthly"
)

// ValidMode reports whether m is one of the four view modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeDaily, ModeWeekly, ModeBiweekly, ModeMonthly:
		return true
	}
	return false
}

// Day is one visible day: its date key plus the labels the dashboard
// renders in column/cell headers.
type Day struct {
	Key       string `json:"key"`
	DayName   string `json:"dayName"`
	DayNumber int    `json:"dayNumber"`
}

// Window is the set of days currently on screen. Days is always the
// flat chronological list; WeekRows additionally groups it into 7-day
// rows for the biweekly and monthly layouts.
type Window struct {
	Mode     Mode    `json:"mode"`
	Days     []Day   `json:"days"`
	WeekRows [][]Day `json:"weekRows,omitempty"`
}

// State is the caller-owned navigation state threaded into every window
// computation. The engine keeps nothing between calls.
type State struct {
	SelectedKey string `json:"selectedKey"`
	Mode        Mode   `json:"mode"`
}

// NewState returns the initial navigation state: today, weekly view.
func NewState(today time.Time) State {
	return State{
		SelectedKey: datekey.FromTime(today),
		Mode:        ModeWeekly,
	}
}

// ComputeWindow derives the visible days for a mode.
//
//   - daily: the selected day alone.
//   - weekly: the 7 days of the selected day's Sunday-start week.
//   - biweekly: 14 days from the start of TODAY's week. Selection never
//     moves this window; it is a fixed rolling view, shown as two rows.
//   - monthly: the Sunday-start week rows covering today's month, with
//     rows that ended before today dropped — the monthly view shows the
//     rest of the month, never the elapsed part.
//
// A selected key that does not parse falls back to today.
func ComputeWindow(mode Mode, selectedKey string, today time.Time) Window {
	selected, ok := datekey.ToTime(selectedKey)
	if !ok {
		selected = midnight(today)
	}

	switch mode {
	case ModeDaily:
		return Window{Mode: mode, Days: daysFrom(selected, 1)}

	case ModeWeekly:
		return Window{Mode: mode, Days: daysFrom(datekey.StartOfWeek(selected), 7)}

	case ModeBiweekly:
		days := daysFrom(datekey.StartOfWeek(today), 14)
		return Window{
			Mode:     mode,
			Days:     days,
			WeekRows: [][]Day{days[:7], days[7:]},
		}

	case ModeMonthly:
		rows := monthWeekRows(today)
		flat := make([]Day, 0, len(rows)*7)
		for _, row := range rows {
			flat = append(flat, row...)
		}
		return Window{Mode: mode, Days: flat, WeekRows: rows}
	}

	// Unknown mode: degrade to daily rather than blank the screen.
	return Window{Mode: ModeDaily, Days: daysFrom(selected, 1)}
}

// Navigate shifts the selected key by one step in the given direction
// (+1 next, -1 previous): a day in daily mode, a week in weekly mode.
// Biweekly and monthly windows are anchored to today and do not
// navigate; the key is returned unchanged.
func Navigate(mode Mode, selectedKey string, direction int) string {
	switch mode {
	case ModeDaily:
		return datekey.AddDays(selectedKey, direction)
	case ModeWeekly:
		return datekey.AddDays(selectedKey, 7*direction)
	}
	return selectedKey
}

// Next advances the state's selection one step forward.
func (s State) Next() State {
	s.SelectedKey = Navigate(s.Mode, s.SelectedKey, 1)
	return s
}

// Prev moves the state's selection one step back.
func (s State) Prev() State {
	s.SelectedKey = Navigate(s.Mode, s.SelectedKey, -1)
	return s
}

// monthWeekRows builds the Sunday-start 7-day rows covering today's
// month, then drops every row whose last day is strictly before today's
// start of day.
func monthWeekRows(today time.Time) [][]Day {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	monthEnd := first.AddDate(0, 1, -1)
	todayStart := midnight(today)

	var rows [][]Day
	for rowStart := datekey.StartOfWeek(first); ; rowStart = rowStart.AddDate(0, 0, 7) {
		rowEnd := rowStart.AddDate(0, 0, 6)
		if !rowEnd.Before(todayStart) {
			rows = append(rows, daysFrom(rowStart, 7))
		}
		if !rowEnd.Before(monthEnd) {
			break
		}
	}
	return rows
}

func daysFrom(start time.Time, n int) []Day {
	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, Day{
			Key:       datekey.FromTime(d),
			DayName:   d.Format("Mon"),
			DayNumber: d.Day(),
		})
	}
	return days
}
