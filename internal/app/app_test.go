package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"inkcal/internal/battery"
	"inkcal/internal/capture"
	"inkcal/internal/config"
	"inkcal/internal/convert"
	"inkcal/internal/epd"
	"inkcal/internal/layout"
	"inkcal/internal/model"
	"inkcal/internal/source"
	"inkcal/internal/weather"
)

type recordingSource struct {
	source.Static
	start, end time.Time
}

func (r *recordingSource) Fetch(ctx context.Context, start, end time.Time) ([]model.RawEvent, error) {
	r.start, r.end = start, end
	return r.Static.Fetch(ctx, start, end)
}

type fakeWeather struct {
	err error
}

func (f fakeWeather) Forecast(context.Context) (weather.Forecast, error) {
	if f.err != nil {
		return weather.Forecast{}, f.err
	}
	return weather.Forecast{
		Hourly: []weather.Hour{
			{Temp: 1},
			{Temp: 2.6, Weather: []weather.Condition{{ID: 800, Description: "clear sky"}}},
		},
	}, nil
}

func fixtureRaws() []model.RawEvent {
	return []model.RawEvent{
		{
			CalendarID: "work", ID: "standup", Summary: "Standup",
			Start:   &model.Boundary{DateTime: "2025-01-08T09:00:00+09:00"},
			End:     &model.Boundary{DateTime: "2025-01-08T09:30:00+09:00"},
			Updated: "2024-12-01T00:00:00Z",
		},
		{
			CalendarID: "family", ID: "trip", Summary: "Trip",
			Start:   &model.Boundary{Date: "2025-01-09"},
			End:     &model.Boundary{Date: "2025-01-12"},
			Updated: "2024-12-01T00:00:00Z",
		},
		{CalendarID: "family", ID: "broken", Summary: "No bounds"},
	}
}

func newService(t *testing.T, src source.Source, w weather.Provider) *Service {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "Asia/Seoul"
	cfg.WeekStartDay = 6
	svc, err := NewService(Options{
		Config:  cfg,
		Source:  src,
		Weather: w,
		Battery: battery.Fixed{Percent: 10},
		Now:     func() time.Time { return time.Date(2025, 1, 8, 1, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceMonth(t *testing.T) {
	src := &recordingSource{Static: source.Static{ID: "fixture", Events: fixtureRaws()}}
	svc := newService(t, src, nil)

	page, err := svc.Month(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loc := svc.Location()
	if want := time.Date(2025, 1, 5, 0, 0, 0, 0, loc); !src.start.Equal(want) {
		t.Fatalf("expected fetch from %v, got %v", want, src.start)
	}
	if want := time.Date(2025, 2, 9, 0, 0, 0, 0, loc); !src.end.Before(want) || src.end.Before(want.Add(-time.Second)) {
		t.Fatalf("expected fetch up to just before %v, got %v", want, src.end)
	}

	if page.MonthName != "January" || page.Battery != "battery0" {
		t.Fatalf("unexpected header %q / %q", page.MonthName, page.Battery)
	}
	if page.Grid.DayLabels[0] != "Sun" {
		t.Fatalf("expected Sunday first, got %v", page.Grid.DayLabels)
	}
	if cell := page.Grid.Cells[3]; !cell.IsToday || len(cell.Displayed) != 1 || cell.Displayed[0].TimeLabel != "9am" {
		t.Fatalf("unexpected today cell %+v", cell)
	}
	if k := page.Grid.Cells[4].Displayed[0].Kind; k != layout.SpanStart {
		t.Fatalf("expected trip start in cell 4, got %v", k)
	}
	if k := page.Grid.Cells[6].Displayed[0].Kind; k != layout.SpanEnd {
		t.Fatalf("expected trip end in cell 6, got %v", k)
	}
	if len(page.Grid.Cells[5].Displayed) != 0 {
		t.Fatalf("expected no entry between span endpoints")
	}
}

func TestServiceDashboard(t *testing.T) {
	svc := newService(t, &source.Static{ID: "fixture", Events: fixtureRaws()}, fakeWeather{})

	page, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.List.Buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(page.List.Buckets))
	}
	if b := page.List.Buckets[0]; b.Mode != layout.Verbose || len(b.Entries) != 1 {
		t.Fatalf("unexpected first bucket %+v", b)
	}
	for i := 1; i < 3; i++ {
		if b := page.List.Buckets[i]; len(b.Entries) != 1 || b.Entries[0].Title() != "Trip" {
			t.Fatalf("bucket %d: expected trip, got %+v", i, b.Entries)
		}
	}
	if len(page.DayOfWeekText) != 7 || page.DayOfWeekText[0] != "Mon" {
		t.Fatalf("expected configured weekday labels, got %v", page.DayOfWeekText)
	}
	if page.Weather == nil || page.Weather.Current.Text != "Clear Sky" || page.Weather.Current.Temp != 3 {
		t.Fatalf("unexpected weather %+v", page.Weather)
	}
}

func TestServiceDashboardWithoutWeather(t *testing.T) {
	svc := newService(t, &source.Static{ID: "fixture"}, fakeWeather{err: errors.New("quota")})
	page, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Weather != nil {
		t.Fatalf("expected no weather panel")
	}
	if !page.List.Buckets[0].IsEmpty {
		t.Fatalf("expected empty first bucket")
	}
}

type failingSource struct{}

func (failingSource) Name() string { return "down" }

func (failingSource) Fetch(context.Context, time.Time, time.Time) ([]model.RawEvent, error) {
	return nil, errors.New("unreachable")
}

func TestServiceFetchError(t *testing.T) {
	svc := newService(t, failingSource{}, nil)
	if _, err := svc.Month(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := svc.Dashboard(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewServiceValidates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.WeekStartDay = 9
	if _, err := NewService(Options{Config: cfg, Source: failingSource{}}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := NewService(Options{Config: config.DefaultConfig()}); err == nil {
		t.Fatalf("expected error without source")
	}
}

var smallPanel = convert.Panel{Width: 16, Height: 8}

func fakePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, smallPanel.Width, smallPanel.Height))
	for y := 0; y < smallPanel.Height; y++ {
		for x := 0; x < smallPanel.Width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type cycleFixture struct {
	cycle   *Cycle
	display *epd.FileDisplay
	urls    []string
	waited  []time.Duration
}

func newCycle(t *testing.T, today time.Time, failPath string) *cycleFixture {
	t.Helper()
	data := fakePNG(t)
	fx := &cycleFixture{display: epd.NewFileDisplay(t.TempDir(), smallPanel, nil)}
	fx.cycle = &Cycle{
		BaseURL: "http://127.0.0.1:8080/",
		Capture: func(_ context.Context, opts capture.Options) ([]byte, error) {
			fx.urls = append(fx.urls, opts.URL)
			if failPath != "" && strings.HasSuffix(opts.URL, failPath) {
				return nil, errors.New("chromium crashed")
			}
			return data, nil
		},
		Display:         fx.display,
		Panel:           smallPanel,
		DayViewDuration: 5 * time.Minute,
		WeekStartDay:    6,
		Today:           func() time.Time { return today },
		PreviewPath:     filepath.Join(t.TempDir(), "preview.png"),
		Wait: func(_ context.Context, d time.Duration) error {
			fx.waited = append(fx.waited, d)
			return nil
		},
	}
	return fx
}

func TestCycleRun(t *testing.T) {
	wednesday := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	fx := newCycle(t, wednesday, "")

	if err := fx.cycle.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"http://127.0.0.1:8080/dashboard", "http://127.0.0.1:8080/calendar"}
	if strings.Join(fx.urls, ",") != strings.Join(want, ",") {
		t.Fatalf("expected captures %v, got %v", want, fx.urls)
	}
	if len(fx.waited) != 1 || fx.waited[0] != 5*time.Minute {
		t.Fatalf("expected one 5m wait, got %v", fx.waited)
	}
	if fx.display.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", fx.display.Frames())
	}
	if _, err := os.Stat(fx.cycle.PreviewPath); err != nil {
		t.Fatalf("expected preview to be written: %v", err)
	}
}

func TestCycleCalibratesOnWeekStart(t *testing.T) {
	sunday := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	fx := newCycle(t, sunday, "")

	if err := fx.cycle.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// dashboard + 4 calibration frames + month
	if fx.display.Frames() != 6 {
		t.Fatalf("expected 6 frames, got %d", fx.display.Frames())
	}
}

func TestCycleSkipsFailedDashboard(t *testing.T) {
	fx := newCycle(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), "/dashboard")
	if err := fx.cycle.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.display.Frames() != 1 || len(fx.waited) != 0 {
		t.Fatalf("expected only the month frame, got %d frames and waits %v", fx.display.Frames(), fx.waited)
	}
}

func TestCycleFailsOnMonth(t *testing.T) {
	fx := newCycle(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), "/calendar")
	if err := fx.cycle.Run(context.Background()); err == nil {
		t.Fatalf("expected error when the month capture fails")
	}
}

func TestCycleWithoutDisplay(t *testing.T) {
	fx := newCycle(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), "")
	fx.cycle.Display = nil
	if err := fx.cycle.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.urls) != 2 || len(fx.waited) != 0 {
		t.Fatalf("expected captures without waiting, got %v / %v", fx.urls, fx.waited)
	}
}

func TestCycleDefaultWaitHonoursContext(t *testing.T) {
	c := &Cycle{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
