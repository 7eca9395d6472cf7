package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters. They match the panel in landscape.
const (
	DefaultWidth   = 1304
	DefaultHeight  = 984
	DefaultTimeout = 30 * time.Second

	// ReadySelector is the element every page exposes once rendered.
	ReadySelector = `[data-ready="true"]`
)

// Options defines a Chromium screenshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar".
	URL string

	// Width and Height are the viewport in pixels. Zero selects
	// DefaultWidth / DefaultHeight.
	Width  int
	Height int

	// Timeout bounds the whole capture. Zero selects DefaultTimeout.
	Timeout time.Duration

	// ExecAllocator, when non-empty, replaces chromedp's default browser
	// flags (e.g. to point at /usr/bin/chromium-browser).
	ExecAllocator []chromedp.ExecAllocatorOption
}

func (o *Options) applyDefaults() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// PNG loads opts.URL in headless Chromium, waits for ReadySelector and
// returns a full-page PNG at the requested viewport. Colour reduction for
// the panel is left to the convert package.
func PNG(parentCtx context.Context, opts Options) ([]byte, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}

	ctx := parentCtx
	if len(opts.ExecAllocator) > 0 {
		allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts.ExecAllocator...)
		defer cancel()
		ctx = allocCtx
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		// Let web fonts finish painting.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}

// WriteFile stores a capture atomically so /preview.png never serves a
// partial file.
func WriteFile(path string, png []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("capture: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".capture-*.png")
	if err != nil {
		return fmt.Errorf("capture: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		return fmt.Errorf("capture: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("capture: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("capture: chmod: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
