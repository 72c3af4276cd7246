package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes a single JSON event-feed source (the calendar
// provider proxy endpoint).
type FeedConfig struct {
	// URL is the feed endpoint returning CalendarEvent JSON.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for logging and de-dup.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// CalendarConfig holds saved per-calendar display settings.
type CalendarConfig struct {
	// CalendarID matches CalendarEvent.CalendarID from the provider.
	CalendarID string `yaml:"calendar_id" json:"calendarId"`
	// Summary is a display title overriding the provider's, if non-empty.
	Summary string `yaml:"summary,omitempty" json:"summary,omitempty"`
	// ColorSlot is an explicit palette slot. Negative means unassigned
	// (the view engine derives one deterministically).
	ColorSlot int `yaml:"color_slot" json:"colorSlot"`
	// CustomColor is an optional "#RRGGBB" override taking precedence
	// over the slot-derived palette color. Invalid values are ignored
	// at use time.
	CustomColor string `yaml:"custom_color,omitempty" json:"customColor,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// driving periodic provider refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of future days fetched from providers.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// PaletteSize is the number of color slots calendars are assigned
	// into. The richest observed palette has 20.
	PaletteSize int `yaml:"palette_size" json:"palette_size"`

	// GridCollapseHour is the early-morning threshold: when every timed
	// event in the visible window starts at or after this hour, the
	// time-of-day grid starts here instead of midnight.
	GridCollapseHour int `yaml:"grid_collapse_hour" json:"grid_collapse_hour"`

	// SnapshotPath, if non-empty, is where dashboard PNG snapshots are
	// written by the capture pipeline.
	SnapshotPath string `yaml:"snapshot_path,omitempty" json:"snapshot_path,omitempty"`

	// Feeds is the list of JSON event-feed sources.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// Calendars holds saved per-calendar display settings (explicit
	// color slots, custom hex overrides, renamed titles).
	Calendars []CalendarConfig `yaml:"calendars" json:"calendars"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		Timezone:         "",
		RefreshCron:      "*/15 * * * *",
		HorizonDays:      31,
		PaletteSize:      20,
		GridCollapseHour: 6,
		Feeds:            []FeedConfig{},
		ICS:              []ICSConfig{},
		Calendars:        []CalendarConfig{},
		BasicAuth:        nil,
	}
}

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 31
	}
	if c.PaletteSize <= 0 {
		c.PaletteSize = 20
	}
	if c.GridCollapseHour <= 0 || c.GridCollapseHour >= 24 {
		c.GridCollapseHour = 6
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarConfig{}
	}
	for i := range c.Calendars {
		cal := &c.Calendars[i]
		if cal.ColorSlot >= c.PaletteSize {
			cal.ColorSlot = c.PaletteSize - 1
		}
		if cal.ColorSlot < 0 {
			cal.ColorSlot = -1
		}
		if cal.CustomColor != "" && !hexColorRe.MatchString(cal.CustomColor) {
			// Drop invalid overrides at the boundary so the view
			// layer never sees them.
			cal.CustomColor = ""
		}
	}
}

// Calendar returns the saved settings for a calendar ID, if any.
func (c *Config) Calendar(calendarID string) (CalendarConfig, bool) {
	for _, cal := range c.Calendars {
		if cal.CalendarID == calendarID {
			return cal, true
		}
	}
	return CalendarConfig{}, false
}

// SetCalendar inserts or replaces the saved settings for a calendar ID.
func (c *Config) SetCalendar(cal CalendarConfig) {
	for i := range c.Calendars {
		if c.Calendars[i].CalendarID == cal.CalendarID {
			c.Calendars[i] = cal
			return
		}
	}
	c.Calendars = append(c.Calendars, cal)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write
//     a default config with 0600 perms, and return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".caldash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
