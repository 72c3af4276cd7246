package view

import (
	"regexp"
	"sort"

	"caldash/internal/model"
)

// DefaultPalette is the 20-slot display palette. Calendars are assigned
// slots into it; the hex values themselves are only identifiers as far
// as the engine is concerned.
var DefaultPalette = []string{
	"#4285F4", "#DB4437", "#0F9D58", "#F4B400", "#AB47BC",
	"#00ACC1", "#FF7043", "#9E9D24", "#5C6BC0", "#F06292",
	"#00897B", "#C0CE33", "#8D6E63", "#26A69A", "#7E57C2",
	"#EC407A", "#78909C", "#FFA726", "#42A5F5", "#66BB6A",
}

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s is a "#RRGGBB" color literal.
func IsHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

// BuildColorMap assigns a palette slot to every calendar appearing in
// events.
//
// A non-empty explicit map wins outright, with each slot clamped into
// [0, paletteSize). Otherwise the distinct calendar IDs are sorted
// lexicographically and numbered in order, modulo the palette size, so
// the same set of calendars always lands on the same colors no matter
// what order events arrived in. Events without a calendar ID are left
// out of the map; they resolve to slot 0 at lookup time.
func BuildColorMap(events []model.CalendarEvent, explicit map[string]int, paletteSize int) map[string]int {
	if paletteSize <= 0 {
		paletteSize = len(DefaultPalette)
	}

	if len(explicit) > 0 {
		out := make(map[string]int, len(explicit))
		for id, slot := range explicit {
			out[id] = clampSlot(slot, paletteSize)
		}
		return out
	}

	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, ev := range events {
		if ev.CalendarID == "" || seen[ev.CalendarID] {
			continue
		}
		seen[ev.CalendarID] = true
		ids = append(ids, ev.CalendarID)
	}
	sort.Strings(ids)

	out := make(map[string]int, len(ids))
	for i, id := range ids {
		out[id] = i % paletteSize
	}
	return out
}

// ResolveColor picks the display color for one event: the calendar's
// slot color from the map (slot 0 when the calendar is absent or the
// event has none), unless a valid "#RRGGBB" override exists for that
// calendar, in which case the override hex wins. Invalid overrides are
// ignored rather than rejected.
func ResolveColor(ev model.CalendarEvent, colors map[string]int, overrides map[string]string, palette []string) (slot int, hex string) {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if ev.CalendarID != "" {
		if s, ok := colors[ev.CalendarID]; ok {
			slot = clampSlot(s, len(palette))
		}
	}
	if ev.CalendarID != "" {
		if custom, ok := overrides[ev.CalendarID]; ok && IsHexColor(custom) {
			return slot, custom
		}
	}
	return slot, palette[slot]
}

func clampSlot(slot, paletteSize int) int {
	if slot < 0 {
		return 0
	}
	if slot >= paletteSize {
		return paletteSize - 1
	}
	return slot
}
