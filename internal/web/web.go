package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"caldash/internal/config"
	appLog "caldash/internal/log"
	"caldash/internal/model"
	"caldash/internal/provider"
	"caldash/internal/view"
)

// DefaultSnapshotPath is where the capture pipeline writes the dashboard
// PNG when no path is configured.
const DefaultSnapshotPath = "/var/lib/caldash/preview.png"

// eventsCacheTTL bounds how often the provider is hit from HTTP
// handlers; the cron refresh loop remains the primary driver.
const eventsCacheTTL = 30 * time.Second

// Server provides the dashboard HTTP API and the embedded UI.
type Server struct {
	cfg     *config.Config
	cfgPath string
	prov    *provider.Provider
	debug   bool
	mux     *http.ServeMux

	// cfgMu guards cfg: handlers serve concurrently and
	// /api/calendars mutates saved calendar settings in place.
	cfgMu sync.RWMutex

	// In-memory cache of the last merged provider payload, so rapid UI
	// navigation does not refetch every source.
	eventsMu    sync.RWMutex
	eventsCache *eventsCache
}

type eventsCache struct {
	payload   model.EventsPayload
	updatedAt time.Time
}

// embeddedStatic contains the static dashboard UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a Server. cfgPath is needed so calendar-settings
// updates can be persisted back to disk.
func NewServer(cfg *config.Config, cfgPath string, prov *provider.Provider, debug bool) *Server {
	s := &Server{
		cfg:     cfg,
		cfgPath: cfgPath,
		prov:    prov,
		debug:   debug,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="caldash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer starts an HTTP server bound to cfg.Listen.
func StartServer(_ context.Context, cfg *config.Config, cfgPath string, prov *provider.Provider, debug bool) error {
	s := NewServer(cfg, cfgPath, prov, debug)
	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "debug", debug)
	return http.ListenAndServe(cfg.Listen, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/view", s.handleView)
	s.mux.HandleFunc("/api/calendars", s.handleCalendars)
	s.mux.HandleFunc("/preview.png", s.handlePreview)

	// All non-API paths fall back to the embedded dashboard UI.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// fetchPayload returns the merged provider payload, served from the TTL
// cache when fresh.
func (s *Server) fetchPayload(ctx context.Context) model.EventsPayload {
	now := time.Now()

	s.eventsMu.RLock()
	ec := s.eventsCache
	s.eventsMu.RUnlock()
	if ec != nil && now.Sub(ec.updatedAt) < eventsCacheTTL {
		return ec.payload
	}

	payload := s.prov.FetchEvents(ctx)

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{payload: payload, updatedAt: time.Now()}
	s.eventsMu.Unlock()

	return payload
}

// InvalidateEvents drops the payload cache; the refresh loop calls this
// after a scheduled provider fetch so the next request sees fresh data.
func (s *Server) InvalidateEvents() {
	s.eventsMu.Lock()
	s.eventsCache = nil
	s.eventsMu.Unlock()
}

// handleEvents returns the raw merged provider payload.
//
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	payload := s.fetchPayload(r.Context())
	writeJSON(w, http.StatusOK, struct {
		Events    []model.CalendarEvent `json:"events"`
		Summaries map[string]string     `json:"summaries,omitempty"`
		Colors    map[string]int        `json:"colors,omitempty"`
		Errors    []string              `json:"errors,omitempty"`
	}{
		Events:    payload.Events,
		Summaries: payload.Summaries,
		Colors:    payload.Colors,
		Errors:    payload.Errors,
	})
}

// viewResponse wraps the engine output with the provider-side extras the
// UI renders around the grid.
type viewResponse struct {
	view.View
	Summaries map[string]string `json:"summaries,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
}

// handleView returns the render-ready view-model.
//
// GET /api/view?mode=weekly&selected=2025-06-15
//   - mode:     daily | weekly | biweekly | monthly (default weekly)
//   - selected: selected date key (default today)
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	state := view.NewState(time.Now())
	if m := view.Mode(q.Get("mode")); view.ValidMode(m) {
		state.Mode = m
	}
	if sel := q.Get("selected"); sel != "" {
		state.SelectedKey = sel
	}

	payload := s.fetchPayload(r.Context())
	built := view.Build(payload.Events, state, time.Now(), s.viewOptions(payload))

	writeJSON(w, http.StatusOK, viewResponse{
		View:      built,
		Summaries: s.mergedSummaries(payload),
		Errors:    payload.Errors,
	})
}

// viewOptions assembles the engine options from saved calendar settings
// and provider-declared colors. Saved slots win over provider slots.
func (s *Server) viewOptions(payload model.EventsPayload) view.Options {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()

	explicit := make(map[string]int, len(payload.Colors))
	for id, slot := range payload.Colors {
		explicit[id] = slot
	}
	overrides := make(map[string]string)
	for _, cal := range s.cfg.Calendars {
		if cal.ColorSlot >= 0 {
			explicit[cal.CalendarID] = cal.ColorSlot
		}
		if cal.CustomColor != "" {
			overrides[cal.CalendarID] = cal.CustomColor
		}
	}
	return view.Options{
		CollapseHour:   s.cfg.GridCollapseHour,
		Palette:        view.DefaultPalette[:min(s.cfg.PaletteSize, len(view.DefaultPalette))],
		ExplicitColors: explicit,
		Overrides:      overrides,
	}
}

func (s *Server) mergedSummaries(payload model.EventsPayload) map[string]string {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()

	out := make(map[string]string, len(payload.Summaries))
	for id, name := range payload.Summaries {
		out[id] = name
	}
	for _, cal := range s.cfg.Calendars {
		if cal.Summary != "" {
			out[cal.CalendarID] = cal.Summary
		}
	}
	return out
}

// handleCalendars reads or updates saved per-calendar settings.
//
//	GET /api/calendars          -> saved calendar list
//	PUT /api/calendars          -> upsert one CalendarConfig (JSON body)
func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.cfgMu.RLock()
		cals := make([]config.CalendarConfig, len(s.cfg.Calendars))
		copy(cals, s.cfg.Calendars)
		s.cfgMu.RUnlock()
		writeJSON(w, http.StatusOK, cals)

	case http.MethodPut, http.MethodPost:
		var cal config.CalendarConfig
		if err := json.NewDecoder(r.Body).Decode(&cal); err != nil {
			writeError(w, http.StatusBadRequest, "invalid calendar body")
			return
		}
		if cal.CalendarID == "" {
			writeError(w, http.StatusBadRequest, "calendarId is required")
			return
		}

		// Write-lock across mutation AND save: Save marshals the whole
		// config, so concurrent readers (or a second PUT) must not see
		// it mid-update.
		s.cfgMu.Lock()
		s.cfg.SetCalendar(cal)
		s.cfg.Normalize()
		err := s.cfg.Save(s.cfgPath)
		saved, _ := s.cfg.Calendar(cal.CalendarID)
		s.cfgMu.Unlock()

		if err != nil {
			appLog.Error("failed to save calendar settings", err, "config_path", s.cfgPath)
			writeError(w, http.StatusInternalServerError, "failed to persist settings")
			return
		}
		writeJSON(w, http.StatusOK, saved)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePreview serves the last captured dashboard PNG from disk. The
// path matches the capture pipeline in cmd/caldash.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.cfgMu.RLock()
	previewPath := s.cfg.SnapshotPath
	s.cfgMu.RUnlock()
	if previewPath == "" {
		previewPath = DefaultSnapshotPath
	}
	if s.debug {
		previewPath = "./cache/preview.png"
	}
	// http.ServeFile maps missing files to 404 on its own.
	http.ServeFile(w, r, previewPath)
}

// staticFileServer serves the embedded dashboard files.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never serve HTML for unknown API routes; a 404 is correct there.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
