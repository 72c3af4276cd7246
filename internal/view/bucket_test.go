package view

import (
	"reflect"
	"testing"

	"caldash/internal/model"
)

func TestBucketByDayScenario(t *testing.T) {
	t.Parallel()

	events := []model.CalendarEvent{
		{ID: "1", CalendarID: "c1", Start: "2025-06-15T09:00:00", End: "2025-06-15T09:30:00"},
		{ID: "2", CalendarID: "c1", AllDay: boolPtr(true), Start: "2025-06-16", End: "2025-06-18"},
	}

	buckets := BucketByDay(events)

	day15 := buckets["2025-06-15"]
	if len(day15) != 1 || day15[0].ID != "1" {
		t.Fatalf("expected only event 1 on 2025-06-15, got %v", day15)
	}

	for _, key := range []string{"2025-06-16", "2025-06-17"} {
		bucket := buckets[key]
		if len(bucket) != 1 || bucket[0].ID != "2" {
			t.Fatalf("expected only event 2 on %s, got %v", key, bucket)
		}
	}
	if IsContinuation(events[1], "2025-06-16") {
		t.Fatal("2025-06-16 is event 2's first day")
	}
	if !IsContinuation(events[1], "2025-06-17") {
		t.Fatal("2025-06-17 must be a continuation of event 2")
	}

	// Exclusive end: the 18th has no bucket.
	if _, ok := buckets["2025-06-18"]; ok {
		t.Fatal("2025-06-18 must be absent (exclusive end)")
	}
}

func TestBucketByDayKeepsInputOrder(t *testing.T) {
	t.Parallel()

	events := []model.CalendarEvent{
		{ID: "late", Start: "2025-06-15T20:00:00", End: "2025-06-15T21:00:00"},
		{ID: "early", Start: "2025-06-15T08:00:00", End: "2025-06-15T09:00:00"},
	}
	bucket := BucketByDay(events)["2025-06-15"]
	if len(bucket) != 2 || bucket[0].ID != "late" || bucket[1].ID != "early" {
		t.Fatalf("expected input order preserved, got %v", bucket)
	}
}

func TestBucketByDayIdempotent(t *testing.T) {
	t.Parallel()

	events := []model.CalendarEvent{
		{ID: "1", Start: "2025-06-15T09:00:00", End: "2025-06-15T09:30:00"},
		{ID: "2", AllDay: boolPtr(true), Start: "2025-06-16", End: "2025-06-19"},
		{ID: "3", Start: "bogus"},
	}
	first := BucketByDay(events)
	second := BucketByDay(events)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("bucketing the same list twice must yield equal maps")
	}
}

func TestBucketByDayEmptyInput(t *testing.T) {
	t.Parallel()

	buckets := BucketByDay(nil)
	if len(buckets) != 0 {
		t.Fatalf("expected empty map, got %v", buckets)
	}
}
