package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"caldash/internal/config"
)

func TestFetchEventsMergesFeedSources(t *testing.T) {
	t.Parallel()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"events": [{"id":"1","summary":"Standup","start":"2025-06-15T09:00:00"}],
			"colors": {"work": 2}
		}`)
	}))
	defer feed.Close()

	cfg := config.DefaultConfig()
	cfg.Feeds = []config.FeedConfig{{ID: "work", Name: "Work", URL: feed.URL}}

	p := New(cfg, t.TempDir())
	payload := p.FetchEvents(context.Background())

	if len(payload.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(payload.Events))
	}
	// Events without a calendarId inherit the source ID.
	if payload.Events[0].CalendarID != "work" {
		t.Fatalf("expected calendarId defaulted to source ID, got %q", payload.Events[0].CalendarID)
	}
	if payload.Colors["work"] != 2 {
		t.Fatalf("expected provider colors forwarded, got %v", payload.Colors)
	}
	if payload.Summaries["work"] != "Work" {
		t.Fatalf("expected source name as summary, got %v", payload.Summaries)
	}
	if len(payload.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", payload.Errors)
	}
}

func TestFetchEventsBareArrayFeed(t *testing.T) {
	t.Parallel()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"1","start":"2025-06-15T09:00:00"}]`)
	}))
	defer feed.Close()

	cfg := config.DefaultConfig()
	cfg.Feeds = []config.FeedConfig{{ID: "legacy", URL: feed.URL}}

	p := New(cfg, t.TempDir())
	payload := p.FetchEvents(context.Background())
	if len(payload.Events) != 1 || payload.Events[0].CalendarID != "legacy" {
		t.Fatalf("bare array feed not handled: %+v", payload.Events)
	}
}

func TestFetchEventsCollectsPerSourceErrors(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"1","start":"2025-06-15T09:00:00"}]`)
	}))
	defer good.Close()

	cfg := config.DefaultConfig()
	cfg.Feeds = []config.FeedConfig{
		{ID: "broken", URL: bad.URL},
		{ID: "fine", URL: good.URL},
	}

	p := New(cfg, t.TempDir())
	payload := p.FetchEvents(context.Background())

	// Partial results survive alongside the error strings.
	if len(payload.Events) != 1 {
		t.Fatalf("expected the healthy source's event, got %d", len(payload.Events))
	}
	if len(payload.Errors) != 1 {
		t.Fatalf("expected one source error, got %v", payload.Errors)
	}
}

func TestFetchEventsExpandsICS(t *testing.T) {
	t.Parallel()

	// Dates pinned relative to now so the fetch range always covers them.
	day := time.Now().AddDate(0, 0, 1)
	stamp := day.Format("20060102")

	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//caldash//test//EN",
		"BEGIN:VEVENT",
		"UID:recurring@test",
		"SUMMARY:Morning run",
		"DTSTART:" + stamp + "T070000",
		"DTEND:" + stamp + "T073000",
		"RRULE:FREQ=DAILY;COUNT=3",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:offsite@test",
		"SUMMARY:Offsite",
		"DTSTART;VALUE=DATE:" + stamp,
		"DTEND;VALUE=DATE:" + day.AddDate(0, 0, 2).Format("20060102"),
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		fmt.Fprint(w, ics)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.ICS = []config.ICSConfig{{ID: "personal", URL: srv.URL}}

	p := New(cfg, t.TempDir())
	payload := p.FetchEvents(context.Background())

	var runs, offsites int
	for _, ev := range payload.Events {
		switch ev.Summary {
		case "Morning run":
			runs++
			if ev.IsAllDay() {
				t.Fatal("timed occurrence must not be all-day")
			}
			if ev.CalendarID != "personal" {
				t.Fatalf("expected source ID as calendarId, got %q", ev.CalendarID)
			}
		case "Offsite":
			offsites++
			if !ev.IsAllDay() {
				t.Fatal("date-valued VEVENT must be all-day")
			}
			if ev.Start != day.Format("2006-01-02") {
				t.Fatalf("unexpected all-day start %q", ev.Start)
			}
			// DTEND stays exclusive on the wire.
			if ev.End != day.AddDate(0, 0, 2).Format("2006-01-02") {
				t.Fatalf("unexpected all-day end %q", ev.End)
			}
		}
	}
	if runs != 3 {
		t.Fatalf("expected 3 expanded occurrences, got %d", runs)
	}
	if offsites != 1 {
		t.Fatalf("expected 1 all-day event, got %d", offsites)
	}
}

func TestFetcherConditionalGet(t *testing.T) {
	t.Parallel()

	const etag = `"v1"`
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		fmt.Fprint(w, `[{"id":"1","start":"2025-06-15T09:00:00"}]`)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "s", URL: srv.URL, Kind: KindFeed}

	first, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if first.FromCache {
		t.Fatal("first fetch must be fresh")
	}

	second, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second fetch must come from cache after 304")
	}
	if string(first.Body) != string(second.Body) {
		t.Fatal("cached body must match the original")
	}
	if hits != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", hits)
	}
}

func TestFetcherFallsBackToCacheOnServerError(t *testing.T) {
	t.Parallel()

	var failing bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "s", URL: srv.URL, Kind: KindFeed}

	if _, err := f.FetchOne(context.Background(), src); err != nil {
		t.Fatalf("priming fetch failed: %v", err)
	}

	failing = true
	res, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("expected cached fallback, got error: %v", err)
	}
	if !res.FromCache || string(res.Body) != `[]` {
		t.Fatalf("expected cached body, got %+v", res)
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	got := redactURL("https://example.com/private/feed.ics?token=secret")
	if strings.Contains(got, "secret") || strings.Contains(got, "private") {
		t.Fatalf("redaction leaked: %q", got)
	}
	if !strings.HasPrefix(got, "https://example.com") {
		t.Fatalf("host should remain visible: %q", got)
	}
}
