package view

import "caldash/internal/model"

// BucketByDay groups events by the date keys they occupy. An event
// appears once per occupied day, so a three-day all-day event shows up
// in three buckets. Within a bucket, events keep their input order; any
// ordering guarantee beyond that is the caller's to arrange upstream.
// Bucketing the same list twice yields structurally equal maps.
func BucketByDay(events []model.CalendarEvent) map[string][]model.CalendarEvent {
	buckets := make(map[string][]model.CalendarEvent)
	for _, ev := range events {
		for _, key := range OccupiedDateKeys(ev) {
			buckets[key] = append(buckets[key], ev)
		}
	}
	return buckets
}
