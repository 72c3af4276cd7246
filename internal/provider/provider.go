// Package provider is the calendar-data collaborator: it fetches JSON
// event feeds and ICS subscriptions, expands recurrences, and hands the
// view engine a flat, already-expanded event list. Per-source failures
// degrade to cached or partial data; the engine only ever sees events
// plus a list of error strings.
package provider

import (
	"context"
	"encoding/json"
	"time"

	"caldash/internal/config"
	appLog "caldash/internal/log"
	"caldash/internal/model"
)

// Provider aggregates all configured sources.
type Provider struct {
	fetcher     *Fetcher
	sources     []Source
	horizonDays int
	loc         *time.Location
}

// New builds a Provider from configuration. cacheDir is where the
// conditional-GET cache lives.
func New(cfg *config.Config, cacheDir string) *Provider {
	sources := make([]Source, 0, len(cfg.Feeds)+len(cfg.ICS))
	for _, fc := range cfg.Feeds {
		if fc.URL == "" {
			continue
		}
		sources = append(sources, Source{
			ID:   sourceID(fc.ID, fc.Name, fc.URL),
			Name: fc.Name,
			URL:  fc.URL,
			Kind: KindFeed,
		})
	}
	for _, ic := range cfg.ICS {
		if ic.URL == "" {
			continue
		}
		sources = append(sources, Source{
			ID:   sourceID(ic.ID, ic.Name, ic.URL),
			Name: ic.Name,
			URL:  ic.URL,
			Kind: KindICS,
		})
	}

	return &Provider{
		fetcher:     NewFetcher(cacheDir),
		sources:     sources,
		horizonDays: cfg.HorizonDays,
		loc:         resolveLocation(cfg.Timezone),
	}
}

// FetchEvents fetches every source and merges the results into one
// payload. Source failures are folded into the payload's Errors list so
// partial data still renders.
func (p *Provider) FetchEvents(ctx context.Context) model.EventsPayload {
	now := time.Now().In(p.loc)
	rangeStart := now.AddDate(0, 0, -31)
	rangeEnd := now.AddDate(0, 0, p.horizonDays)

	var merged model.EventsPayload

	results, fetchErrs := p.fetcher.FetchAll(ctx, p.sources)
	for _, err := range fetchErrs {
		merged.Errors = append(merged.Errors, err.Error())
	}

	for _, res := range results {
		switch res.Source.Kind {
		case KindFeed:
			var payload model.EventsPayload
			if err := json.Unmarshal(res.Body, &payload); err != nil {
				appLog.Error("feed decode failed", err, "id", res.Source.ID)
				merged.Errors = append(merged.Errors, res.Source.ID+": "+err.Error())
				continue
			}
			// Feeds rarely stamp calendarId; default to the source ID.
			for i := range payload.Events {
				if payload.Events[i].CalendarID == "" {
					payload.Events[i].CalendarID = res.Source.ID
				}
			}
			merged.Merge(payload)

		case KindICS:
			parsed, err := parseICS(res.Source, res.Body)
			if err != nil {
				appLog.Error("ics parse failed", err, "id", res.Source.ID)
				merged.Errors = append(merged.Errors, res.Source.ID+": "+err.Error())
				continue
			}
			merged.Merge(model.EventsPayload{
				Events: expandICS(res.Source, parsed, rangeStart, rangeEnd, p.loc),
			})
		}

		if res.Source.Name != "" {
			if merged.Summaries == nil {
				merged.Summaries = make(map[string]string)
			}
			if _, ok := merged.Summaries[res.Source.ID]; !ok {
				merged.Summaries[res.Source.ID] = res.Source.Name
			}
		}
	}

	appLog.Info("provider fetch completed",
		"sources", len(p.sources),
		"events", len(merged.Events),
		"errors", len(merged.Errors),
	)
	return merged
}

func sourceID(id, name, url string) string {
	if id != "" {
		return id
	}
	if name != "" {
		return name
	}
	return url
}

func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
