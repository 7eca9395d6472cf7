package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"inkcal/internal/capture"
	"inkcal/internal/convert"
	"inkcal/internal/epd"
	appLog "inkcal/internal/log"
)

// CaptureFunc renders a page URL to PNG bytes.
type CaptureFunc func(ctx context.Context, opts capture.Options) ([]byte, error)

// Cycle is one panel refresh: the dashboard is shown first, then after
// DayViewDuration the month calendar replaces it and stays up until the next
// cycle.
type Cycle struct {
	// BaseURL is where the web server serves /dashboard and /calendar.
	BaseURL string
	// Capture defaults to capture.PNG.
	Capture CaptureFunc

	// Display may be nil, in which case pages are only captured.
	Display epd.Display
	Panel   convert.Panel
	Rotate  int

	ImageWidth  int
	ImageHeight int

	DayViewDuration time.Duration
	// WeekStartDay (0 = Monday) is the day the panel is calibrated.
	WeekStartDay int
	// Today returns the current date in the display zone.
	Today func() time.Time

	// PreviewPath, when set, receives the month capture.
	PreviewPath string

	Log *appLog.Logger

	// Wait defaults to a context-aware sleep.
	Wait func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// Run performs one cycle. A failing dashboard is logged and skipped; a
// failing month view is returned. Overlapping calls are rejected.
func (c *Cycle) Run(ctx context.Context) error {
	if !c.mu.TryLock() {
		return fmt.Errorf("app: cycle already running")
	}
	defer c.mu.Unlock()

	start := time.Now()
	c.Log.Info("starting calendar update")

	if err := c.showDashboard(ctx); err != nil {
		c.Log.Error("dashboard skipped", err)
	}

	if err := c.showMonth(ctx); err != nil {
		return err
	}

	c.Log.Info("completed calendar update", "took", time.Since(start).String())
	return nil
}

func (c *Cycle) showDashboard(ctx context.Context) error {
	png, err := c.capture(ctx, "/dashboard")
	if err != nil {
		return err
	}
	if c.Display == nil {
		return nil
	}
	if err := c.show(png, false); err != nil {
		return err
	}

	c.Log.Info("day view displayed, waiting before month view", "wait", c.DayViewDuration.String())
	return c.wait(ctx, c.DayViewDuration)
}

func (c *Cycle) showMonth(ctx context.Context) error {
	png, err := c.capture(ctx, "/calendar")
	if err != nil {
		return err
	}
	if c.PreviewPath != "" {
		if err := capture.WriteFile(c.PreviewPath, png); err != nil {
			c.Log.Error("failed to store preview", err, "path", c.PreviewPath)
		}
	}
	if c.Display == nil {
		return nil
	}
	return c.show(png, c.calibrationDay())
}

func (c *Cycle) capture(ctx context.Context, path string) ([]byte, error) {
	fn := c.Capture
	if fn == nil {
		fn = capture.PNG
	}
	png, err := fn(ctx, capture.Options{
		URL:    strings.TrimRight(c.BaseURL, "/") + path,
		Width:  c.ImageWidth,
		Height: c.ImageHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("app: capture %s: %w", path, err)
	}
	c.Log.Info("screenshot captured", "page", path, "bytes", len(png))
	return png, nil
}

// show wakes the panel, optionally calibrates it, draws png and puts the
// panel back to sleep.
func (c *Cycle) show(png []byte, calibrate bool) error {
	img, err := convert.Decode(png)
	if err != nil {
		return err
	}
	prepared, err := convert.Prepare(img, c.Panel, c.Rotate)
	if err != nil {
		return err
	}
	black, red, err := convert.Pack(prepared, c.Panel)
	if err != nil {
		return err
	}

	if err := c.Display.Init(); err != nil {
		return fmt.Errorf("app: display init: %w", err)
	}
	defer func() {
		if err := c.Display.Sleep(); err != nil {
			c.Log.Error("display sleep failed", err)
		}
	}()

	if calibrate {
		if err := epd.Calibrate(c.Display, c.Panel, 1); err != nil {
			return err
		}
		c.Log.Info("e-ink display calibration complete")
	}
	if err := c.Display.Show(black, red); err != nil {
		return fmt.Errorf("app: display show: %w", err)
	}
	c.Log.Info("e-ink display update complete")
	return nil
}

func (c *Cycle) calibrationDay() bool {
	if c.Today == nil {
		return false
	}
	wd := c.Today().Weekday()
	return (int(wd)+6)%7 == c.WeekStartDay
}

func (c *Cycle) wait(ctx context.Context, d time.Duration) error {
	if c.Wait != nil {
		return c.Wait(ctx, d)
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
