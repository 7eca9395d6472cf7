package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Battery display modes.
const (
	BatteryHide   = 0
	BatteryAlways = 1
	BatteryLow    = 2
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// GoogleConfig selects Google Calendar sources. Token lifecycle is handled
// outside inkcal; CredentialsFile is handed to the API client as-is.
type GoogleConfig struct {
	CredentialsFile string   `yaml:"credentials_file" json:"credentials_file"`
	Calendars       []string `yaml:"calendars" json:"calendars"`
}

// WeatherConfig configures the OpenWeatherMap forecast shown on the dashboard.
type WeatherConfig struct {
	APIKey string  `yaml:"api_key" json:"-"`
	Lat    float64 `yaml:"lat" json:"lat"`
	Lon    float64 `yaml:"lon" json:"lon"`
	// Units is passed to the API: "metric", "imperial" or "standard".
	Units string `yaml:"units" json:"units"`
}

// DisplayConfig describes the e-paper panel and how captures map onto it.
type DisplayConfig struct {
	// Enabled sends frames to the panel; when false cycles stop after capture.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Width/Height are the panel dimensions in pixels.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	// ImageWidth/ImageHeight are the browser viewport used for captures.
	ImageWidth  int `yaml:"image_width" json:"image_width"`
	ImageHeight int `yaml:"image_height" json:"image_height"`
	// Rotate is applied to captures before packing: 0, 90, 180 or 270.
	Rotate int `yaml:"rotate" json:"rotate"`
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

	// Timezone is the IANA timezone used as the single display zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStartDay is the first column of the month grid, 0 = Monday ... 6 = Sunday.
	WeekStartDay int `yaml:"week_start_day" json:"week_start_day"`

	// DayOfWeekText holds 7 weekday labels, Monday first.
	DayOfWeekText []string `yaml:"day_of_week_text" json:"day_of_week_text"`

	// MonthText holds 12 month names, January first.
	MonthText []string `yaml:"month_text" json:"month_text"`

	// ThresholdHours: events updated within this many hours are highlighted.
	ThresholdHours float64 `yaml:"threshold_hours" json:"threshold_hours"`

	// MaxEventsPerDay caps events per month-grid cell; the rest show as "N more".
	MaxEventsPerDay int `yaml:"max_events_per_day" json:"max_events_per_day"`

	// DayViewDays is the number of day buckets on the dashboard.
	DayViewDays int `yaml:"day_view_days" json:"day_view_days"`

	// Is24Hour switches time labels to 24-hour format.
	Is24Hour bool `yaml:"is_24h" json:"is_24h"`

	// RefreshCron is a cron-style schedule string (e.g. "0 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DayViewDisplaySeconds is how long the dashboard stays on the panel
	// before the month view replaces it.
	DayViewDisplaySeconds int `yaml:"day_view_display_seconds" json:"day_view_display_seconds"`

	// BatteryDisplayMode: 0 hide, 1 always show, 2 show only when low.
	BatteryDisplayMode int `yaml:"battery_display_mode" json:"battery_display_mode"`

	// LogLevel is DEBUG, INFO or ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// CacheDir holds the ICS HTTP cache and the last preview capture.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	Google  GoogleConfig  `yaml:"google" json:"google"`
	Weather WeatherConfig `yaml:"weather" json:"weather"`
	Display DisplayConfig `yaml:"display" json:"display"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"-"`
}

var (
	defaultDayOfWeekText = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	defaultMonthText     = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                "127.0.0.1:8080",
		Timezone:              "Asia/Seoul",
		WeekStartDay:          6,
		DayOfWeekText:         append([]string(nil), defaultDayOfWeekText...),
		MonthText:             append([]string(nil), defaultMonthText...),
		ThresholdHours:        12,
		MaxEventsPerDay:       3,
		DayViewDays:           3,
		Is24Hour:              false,
		RefreshCron:           "0 * * * *",
		DayViewDisplaySeconds: 300,
		BatteryDisplayMode:    BatteryLow,
		LogLevel:              "INFO",
		CacheDir:              "/var/lib/inkcal",
		ICS:                   []ICSConfig{},
		Weather:               WeatherConfig{Units: "metric"},
		Display: DisplayConfig{
			Width:       1304,
			Height:      984,
			ImageWidth:  1304,
			ImageHeight: 984,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly. Values that are present
// but invalid are left for Validate to report.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.DayOfWeekText == nil {
		c.DayOfWeekText = def.DayOfWeekText
	}
	if c.MonthText == nil {
		c.MonthText = def.MonthText
	}
	if c.DayViewDays == 0 {
		c.DayViewDays = def.DayViewDays
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Weather.Units == "" {
		c.Weather.Units = def.Weather.Units
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		c.Display.Width, c.Display.Height = def.Display.Width, def.Display.Height
	}
	if c.Display.ImageWidth <= 0 || c.Display.ImageHeight <= 0 {
		c.Display.ImageWidth, c.Display.ImageHeight = c.Display.Width, c.Display.Height
	}
}

// Validate reports values the layout engines or scheduler would reject.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.WeekStartDay < 0 || c.WeekStartDay > 6 {
		errs = append(errs, fmt.Errorf("week_start_day must be 0..6, got %d", c.WeekStartDay))
	}
	if len(c.DayOfWeekText) != 7 {
		errs = append(errs, fmt.Errorf("day_of_week_text needs 7 entries, got %d", len(c.DayOfWeekText)))
	}
	if len(c.MonthText) != 12 {
		errs = append(errs, fmt.Errorf("month_text needs 12 entries, got %d", len(c.MonthText)))
	}
	if c.ThresholdHours < 0 {
		errs = append(errs, fmt.Errorf("threshold_hours must be >= 0, got %v", c.ThresholdHours))
	}
	if c.MaxEventsPerDay < 0 {
		errs = append(errs, fmt.Errorf("max_events_per_day must be >= 0, got %d", c.MaxEventsPerDay))
	}
	if c.DayViewDays < 1 || c.DayViewDays > 14 {
		errs = append(errs, fmt.Errorf("day_view_days must be 1..14, got %d", c.DayViewDays))
	}
	if c.BatteryDisplayMode < BatteryHide || c.BatteryDisplayMode > BatteryLow {
		errs = append(errs, fmt.Errorf("battery_display_mode must be 0..2, got %d", c.BatteryDisplayMode))
	}
	switch c.Display.Rotate {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, fmt.Errorf("display.rotate must be 0, 90, 180 or 270, got %d", c.Display.Rotate))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MonthName returns the configured label for m.
func (c *Config) MonthName(m time.Month) string {
	if int(m) >= 1 && int(m) <= len(c.MonthText) {
		return c.MonthText[m-1]
	}
	return m.String()
}

// ICSID returns the identifier used for an ICS source: ID, then Name, then URL.
func (s ICSConfig) ICSID() string {
	switch {
	case strings.TrimSpace(s.ID) != "":
		return s.ID
	case strings.TrimSpace(s.Name) != "":
		return s.Name
	default:
		return s.URL
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML over DefaultConfig, so omitted keys keep their defaults
//   - normalize the remaining zero values
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

	// Keys absent from the file keep their defaults; only the capture size
	// is left unset so Normalize can derive it from the panel size.
	cfg := *DefaultConfig()
	cfg.Display.ImageWidth, cfg.Display.ImageHeight = 0, 0
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
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

	tmp, err := os.CreateTemp(dir, ".inkcal-config-*.tmp")
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
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
