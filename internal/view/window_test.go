package view

import (
	"testing"
	"time"
)

// Wednesday June 18 2025; its week starts Sunday June 15.
var testToday = time.Date(2025, time.June, 18, 10, 0, 0, 0, time.Local)

func windowKeys(w Window) []string {
	keys := make([]string, 0, len(w.Days))
	for _, d := range w.Days {
		keys = append(keys, d.Key)
	}
	return keys
}

func TestComputeWindowDaily(t *testing.T) {
	t.Parallel()

	w := ComputeWindow(ModeDaily, "2025-06-15", testToday)
	if len(w.Days) != 1 || w.Days[0].Key != "2025-06-15" {
		t.Fatalf("expected single selected day, got %v", windowKeys(w))
	}
	if w.Days[0].DayName != "Sun" || w.Days[0].DayNumber != 15 {
		t.Fatalf("unexpected labels: %+v", w.Days[0])
	}
}

func TestComputeWindowWeekly(t *testing.T) {
	t.Parallel()

	w := ComputeWindow(ModeWeekly, "2025-06-18", testToday)
	keys := windowKeys(w)
	if len(keys) != 7 {
		t.Fatalf("expected 7 days, got %d", len(keys))
	}
	if keys[0] != "2025-06-15" || keys[6] != "2025-06-21" {
		t.Fatalf("unexpected week bounds: %v", keys)
	}
}

func TestComputeWindowWeeklyFollowsSelection(t *testing.T) {
	t.Parallel()

	// Selecting a day in another week moves the weekly window there.
	w := ComputeWindow(ModeWeekly, "2025-07-02", testToday)
	if windowKeys(w)[0] != "2025-06-29" {
		t.Fatalf("expected week of selection, got %v", windowKeys(w))
	}
}

func TestComputeWindowBiweeklyAnchoredToToday(t *testing.T) {
	t.Parallel()

	w := ComputeWindow(ModeBiweekly, "2025-06-18", testToday)
	keys := windowKeys(w)
	if len(keys) != 14 {
		t.Fatalf("expected 14 days, got %d", len(keys))
	}
	if keys[0] != "2025-06-15" || keys[13] != "2025-06-28" {
		t.Fatalf("unexpected biweekly bounds: %v", keys)
	}
	if len(w.WeekRows) != 2 || len(w.WeekRows[0]) != 7 || len(w.WeekRows[1]) != 7 {
		t.Fatalf("expected two 7-day rows, got %d rows", len(w.WeekRows))
	}

	// Changing the selection must not move the window.
	other := ComputeWindow(ModeBiweekly, "2025-09-01", testToday)
	if len(other.Days) != 14 || other.Days[0].Key != keys[0] || other.Days[13].Key != keys[13] {
		t.Fatalf("biweekly window moved with selection: %v", windowKeys(other))
	}

	// Changing today does move it.
	laterToday := time.Date(2025, time.June, 25, 10, 0, 0, 0, time.Local)
	moved := ComputeWindow(ModeBiweekly, "2025-06-18", laterToday)
	if moved.Days[0].Key != "2025-06-22" {
		t.Fatalf("expected window anchored to new today, got %v", windowKeys(moved))
	}
}

func TestComputeWindowMonthlyDropsElapsedWeeks(t *testing.T) {
	t.Parallel()

	// Today is June 20 2025. June 1 is a Sunday, so the grid rows start
	// June 1, 8, 15, 22 and 29. The first two rows end before the 20th
	// and must be dropped.
	today := time.Date(2025, time.June, 20, 9, 0, 0, 0, time.Local)
	w := ComputeWindow(ModeMonthly, "2025-06-20", today)

	if len(w.WeekRows) != 3 {
		t.Fatalf("expected 3 remaining week rows, got %d", len(w.WeekRows))
	}
	if w.WeekRows[0][0].Key != "2025-06-15" {
		t.Fatalf("expected first remaining row to start 2025-06-15, got %q", w.WeekRows[0][0].Key)
	}
	if last := w.WeekRows[2][6].Key; last != "2025-07-05" {
		t.Fatalf("expected final row to end 2025-07-05, got %q", last)
	}
	for _, d := range w.Days {
		if d.Key == "2025-06-01" || d.Key == "2025-06-08" {
			t.Fatalf("elapsed week leaked into the window: %q", d.Key)
		}
	}
}

func TestComputeWindowMonthlyIncludesCurrentWeek(t *testing.T) {
	t.Parallel()

	// Mid-week today keeps its own row even though part of it already
	// passed.
	today := time.Date(2025, time.June, 18, 9, 0, 0, 0, time.Local)
	w := ComputeWindow(ModeMonthly, "2025-06-18", today)
	if w.WeekRows[0][0].Key != "2025-06-15" {
		t.Fatalf("expected current week kept, got first row start %q", w.WeekRows[0][0].Key)
	}
}

func TestComputeWindowMonthlyLeadingDaysFromPriorMonth(t *testing.T) {
	t.Parallel()

	// July 2025 starts on a Tuesday; its first grid row reaches back to
	// Sunday June 29.
	today := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.Local)
	w := ComputeWindow(ModeMonthly, "2025-07-01", today)
	if w.WeekRows[0][0].Key != "2025-06-29" {
		t.Fatalf("expected first row to start 2025-06-29, got %q", w.WeekRows[0][0].Key)
	}
}

func TestComputeWindowFallsBackOnBadSelection(t *testing.T) {
	t.Parallel()

	w := ComputeWindow(ModeDaily, "garbage", testToday)
	if len(w.Days) != 1 || w.Days[0].Key != "2025-06-18" {
		t.Fatalf("expected fallback to today, got %v", windowKeys(w))
	}
}

func TestNavigate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mode      Mode
		key       string
		direction int
		want      string
	}{
		{ModeDaily, "2025-06-30", 1, "2025-07-01"},
		{ModeDaily, "2025-01-01", -1, "2024-12-31"},
		{ModeWeekly, "2025-06-18", 1, "2025-06-25"},
		{ModeWeekly, "2025-06-18", -1, "2025-06-11"},
		{ModeBiweekly, "2025-06-18", 1, "2025-06-18"},
		{ModeMonthly, "2025-06-18", -1, "2025-06-18"},
	}
	for _, tc := range cases {
		if got := Navigate(tc.mode, tc.key, tc.direction); got != tc.want {
			t.Errorf("Navigate(%s, %q, %d) = %q, want %q", tc.mode, tc.key, tc.direction, got, tc.want)
		}
	}
}

func TestStateNextPrev(t *testing.T) {
	t.Parallel()

	s := NewState(testToday)
	if s.SelectedKey != "2025-06-18" || s.Mode != ModeWeekly {
		t.Fatalf("unexpected initial state: %+v", s)
	}

	s.Mode = ModeDaily
	s = s.Next()
	if s.SelectedKey != "2025-06-19" {
		t.Fatalf("expected next day, got %q", s.SelectedKey)
	}
	s = s.Prev()
	s = s.Prev()
	if s.SelectedKey != "2025-06-17" {
		t.Fatalf("expected previous day, got %q", s.SelectedKey)
	}
}
