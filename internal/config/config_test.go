package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timezone != "Asia/Seoul" || cfg.DayViewDays != 3 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
timezone: UTC
week_start_day: 0
max_events_per_day: 2
is_24h: true
ics:
  - url: https://example.com/a.ics
    name: Work
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("expected default listen, got %q", cfg.Listen)
	}
	if len(cfg.DayOfWeekText) != 7 || cfg.DayOfWeekText[0] != "Mon" {
		t.Errorf("expected default weekday labels, got %v", cfg.DayOfWeekText)
	}
	if cfg.MaxEventsPerDay != 2 || !cfg.Is24Hour || cfg.WeekStartDay != 0 {
		t.Errorf("explicit values were overwritten: %+v", cfg)
	}
	if cfg.Display.ImageWidth != cfg.Display.Width {
		t.Errorf("expected image size to follow panel size")
	}
	if id := cfg.ICS[0].ICSID(); id != "Work" {
		t.Errorf("expected ICS id from name, got %q", id)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
timezone: UTC
threshold_hours: 0
display:
  width: 800
  height: 480
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := DefaultConfig()
	if cfg.MaxEventsPerDay != def.MaxEventsPerDay {
		t.Errorf("expected max_events_per_day %d, got %d", def.MaxEventsPerDay, cfg.MaxEventsPerDay)
	}
	if cfg.ThresholdHours != 0 {
		t.Errorf("expected explicit threshold 0 to be kept, got %v", cfg.ThresholdHours)
	}
	if cfg.WeekStartDay != def.WeekStartDay || cfg.DayViewDisplaySeconds != def.DayViewDisplaySeconds {
		t.Errorf("expected scheduling defaults, got %+v", cfg)
	}
	if cfg.Display.ImageWidth != 800 || cfg.Display.ImageHeight != 480 {
		t.Errorf("expected capture size to follow the panel, got %dx%d", cfg.Display.ImageWidth, cfg.Display.ImageHeight)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Google.Calendars = []string{"primary"}
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Google.Calendars) != 1 || loaded.BasicAuth == nil || loaded.BasicAuth.Username != "u" {
		t.Fatalf("unexpected loaded config: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.WeekStartDay = 9
	cfg.DayOfWeekText = []string{"M"}
	cfg.DayViewDays = 30
	cfg.Display.Rotate = 45

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"week_start_day", "day_of_week_text", "day_view_days", "display.rotate"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestMonthName(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.MonthName(time.March); got != "March" {
		t.Fatalf("expected March, got %q", got)
	}
	cfg.MonthText = nil
	if got := cfg.MonthName(time.May); got != "May" {
		t.Fatalf("expected fallback May, got %q", got)
	}
}
