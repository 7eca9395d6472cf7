package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"time"

	"google.golang.org/api/option"

	"inkcal/internal/app"
	"inkcal/internal/battery"
	"inkcal/internal/config"
	"inkcal/internal/convert"
	"inkcal/internal/epd"
	"inkcal/internal/gcal"
	"inkcal/internal/ics"
	appLog "inkcal/internal/log"
	"inkcal/internal/render"
	"inkcal/internal/source"
	"inkcal/internal/weather"
	"inkcal/internal/web"
)

const previewFile = "preview.png"

// buildSource merges every configured ICS subscription and Google calendar.
func buildSource(ctx context.Context, cfg *config.Config, logger *appLog.Logger) (source.Source, error) {
	var srcs []source.Source

	if len(cfg.ICS) > 0 {
		fetcher := ics.NewFetcher(filepath.Join(cfg.CacheDir, "ics"), logger)
		for _, s := range cfg.ICS {
			id := s.ICSID()
			srcs = append(srcs, ics.NewSource(id, s.URL, fetcher, logger.With("source", id)))
		}
	}

	if len(cfg.Google.Calendars) > 0 {
		var opts []option.ClientOption
		if cfg.Google.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Google.CredentialsFile))
		}
		svc, err := gcal.NewService(ctx, opts...)
		if err != nil {
			return nil, err
		}
		for _, id := range cfg.Google.Calendars {
			srcs = append(srcs, gcal.NewSource(svc, id, logger.With("source", id)))
		}
	}

	if len(srcs) == 0 {
		logger.Info("no calendar sources configured, views will be empty")
	}
	return source.NewMulti(logger, srcs...), nil
}

// buildWeather returns nil when no API key is configured.
func buildWeather(cfg *config.Config, logger *appLog.Logger) weather.Provider {
	if cfg.Weather.APIKey == "" {
		return nil
	}
	return &weather.OWM{
		APIKey: cfg.Weather.APIKey,
		Lat:    cfg.Weather.Lat,
		Lon:    cfg.Weather.Lon,
		Units:  cfg.Weather.Units,
		Log:    logger,
	}
}

func panelOf(cfg *config.Config) convert.Panel {
	return convert.Panel{Width: cfg.Display.Width, Height: cfg.Display.Height}
}

// openDisplay picks where frames go: dumpDir when set, otherwise the
// hardware driver if the panel is enabled. Builds without the C driver fall
// back to dumping planes under the cache dir.
func openDisplay(cfg *config.Config, dumpDir string, logger *appLog.Logger) epd.Display {
	if dumpDir != "" {
		return epd.NewFileDisplay(dumpDir, panelOf(cfg), logger)
	}
	if !cfg.Display.Enabled {
		return nil
	}
	d, err := epd.NewCDriver()
	if err != nil {
		dir := filepath.Join(cfg.CacheDir, "frames")
		logger.Error("e-paper driver unavailable, writing frames to disk", err, "dir", dir)
		return epd.NewFileDisplay(dir, panelOf(cfg), logger)
	}
	return d
}

type stack struct {
	cfg     *config.Config
	log     *appLog.Logger
	service *app.Service
	server  *web.Server
}

func newStack(ctx context.Context, cfg *config.Config, logger *appLog.Logger, src source.Source) (*stack, error) {
	var err error
	if src == nil {
		if src, err = buildSource(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}

	batt := battery.DefaultReader()
	svc, err := app.NewService(app.Options{
		Config:  cfg,
		Source:  src,
		Weather: buildWeather(cfg, logger),
		Battery: batt,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	r, err := render.New()
	if err != nil {
		return nil, err
	}

	return &stack{
		cfg:     cfg,
		log:     logger,
		service: svc,
		server: web.NewServer(web.Options{
			Config:      cfg,
			Views:       svc,
			Battery:     batt,
			Renderer:    r,
			PreviewPath: filepath.Join(cfg.CacheDir, previewFile),
			Logger:      logger,
		}),
	}, nil
}

func (s *stack) cycle(baseURL string, display epd.Display) *app.Cycle {
	return &app.Cycle{
		BaseURL:         baseURL,
		Display:         display,
		Panel:           panelOf(s.cfg),
		Rotate:          s.cfg.Display.Rotate,
		ImageWidth:      s.cfg.Display.ImageWidth,
		ImageHeight:     s.cfg.Display.ImageHeight,
		DayViewDuration: time.Duration(s.cfg.DayViewDisplaySeconds) * time.Second,
		WeekStartDay:    s.cfg.WeekStartDay,
		Today:           s.service.Today,
		PreviewPath:     filepath.Join(s.cfg.CacheDir, previewFile),
		Log:             s.log,
	}
}

// localURL is the address the headless browser uses to reach ln, carrying
// basic auth credentials when they are configured.
func localURL(cfg *config.Config, ln net.Listener) (string, error) {
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return "", errors.New("listener is not TCP")
	}
	host := "127.0.0.1"
	if addr.IP != nil && !addr.IP.IsUnspecified() {
		host = addr.IP.String()
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, fmt.Sprint(addr.Port))}
	if ba := cfg.BasicAuth; ba != nil && ba.Username != "" && ba.Password != "" {
		u.User = url.UserPassword(ba.Username, ba.Password)
	}
	return u.String(), nil
}
