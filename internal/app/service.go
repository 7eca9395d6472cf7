// Package app assembles calendar data into the pages shown on the panel and
// runs the display cycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkcal/internal/battery"
	"inkcal/internal/config"
	"inkcal/internal/layout"
	appLog "inkcal/internal/log"
	"inkcal/internal/model"
	"inkcal/internal/render"
	"inkcal/internal/source"
	"inkcal/internal/weather"
)

// Options wires a Service. Weather and Battery are optional.
type Options struct {
	Config  *config.Config
	Source  source.Source
	Weather weather.Provider
	Battery battery.Reader
	Logger  *appLog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service builds the month and dashboard pages from fresh calendar data.
type Service struct {
	cfg     *config.Config
	loc     *time.Location
	src     source.Source
	weather weather.Provider
	battery battery.Reader
	log     *appLog.Logger
	now     func() time.Time
}

// NewService validates the config and resolves the display zone. Source is
// required.
func NewService(opts Options) (*Service, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	if opts.Source == nil {
		return nil, errors.New("app: source is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	loc, err := opts.Config.Location()
	if err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		cfg:     opts.Config,
		loc:     loc,
		src:     opts.Source,
		weather: opts.Weather,
		battery: opts.Battery,
		log:     opts.Logger,
		now:     now,
	}, nil
}

// Location is the display zone.
func (s *Service) Location() *time.Location { return s.loc }

// Today is the current date in the display zone.
func (s *Service) Today() time.Time {
	return layout.DateOf(s.now().In(s.loc))
}

// Month builds the five-week grid around today.
func (s *Service) Month(ctx context.Context) (render.MonthPage, error) {
	today := s.Today()
	anchor := layout.MonthAnchor(today, s.cfg.WeekStartDay)

	events, err := s.events(ctx, anchor, layout.AddDays(anchor, layout.MonthCells))
	if err != nil {
		return render.MonthPage{}, err
	}

	grid, err := layout.BuildMonth(events, layout.MonthOptions{
		Anchor:          anchor,
		Today:           today,
		WeekStartDay:    s.cfg.WeekStartDay,
		MaxEventsPerDay: s.cfg.MaxEventsPerDay,
		DayOfWeekLabels: s.cfg.DayOfWeekText,
		Use24Hour:       s.cfg.Is24Hour,
	})
	if err != nil {
		return render.MonthPage{}, fmt.Errorf("app: month: %w", err)
	}

	return render.MonthPage{
		MonthName: s.cfg.MonthName(today.Month()),
		Battery:   s.batteryIndicator(ctx),
		Grid:      grid,
		Width:     s.cfg.Display.ImageWidth,
		Height:    s.cfg.Display.ImageHeight,
	}, nil
}

// Dashboard builds the day list starting today, with the weather panel when
// a forecast is available.
func (s *Service) Dashboard(ctx context.Context) (render.DashboardPage, error) {
	now := s.now().In(s.loc)
	today := layout.DateOf(now)
	days := s.cfg.DayViewDays

	events, err := s.events(ctx, today, layout.AddDays(today, days))
	if err != nil {
		return render.DashboardPage{}, err
	}

	list, err := layout.BuildDayList(events, layout.DayListOptions{
		Start:     today,
		Today:     today,
		Days:      days,
		Use24Hour: s.cfg.Is24Hour,
	})
	if err != nil {
		return render.DashboardPage{}, fmt.Errorf("app: day list: %w", err)
	}

	page := render.DashboardPage{
		Today:         today,
		MonthName:     s.cfg.MonthName(today.Month()),
		Battery:       s.batteryIndicator(ctx),
		List:          list,
		DayOfWeekText: s.cfg.DayOfWeekText,
		Width:         s.cfg.Display.ImageWidth,
		Height:        s.cfg.Display.ImageHeight,
	}

	if s.weather != nil {
		f, err := s.weather.Forecast(ctx)
		if err != nil {
			s.log.Error("weather unavailable, dashboard rendered without it", err)
		} else {
			summary := weather.Summarize(f, now, days)
			page.Weather = &summary
		}
	}
	return page, nil
}

// events fetches and normalizes everything intersecting [start, end).
// Malformed records are logged and dropped.
func (s *Service) events(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	fetchStart := time.Now()
	raws, err := s.src.Fetch(ctx, start, end.Add(-time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("app: fetch events: %w", err)
	}

	n, err := model.NewNormalizer(model.NormalizeOptions{
		Location:       s.loc,
		ThresholdHours: s.cfg.ThresholdHours,
		Now:            s.now,
		Logger:         s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	events, err := n.NormalizeAll(raws)
	if err != nil {
		s.log.Error("some events were skipped", err, "skipped", len(raws)-len(events))
	}
	s.log.Info("calendar events retrieved",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"events", len(events),
		"took", time.Since(fetchStart).String(),
	)
	return events, nil
}

func (s *Service) batteryIndicator(ctx context.Context) string {
	mode := battery.DisplayMode(s.cfg.BatteryDisplayMode)
	if mode == battery.Hide || s.battery == nil {
		return battery.Indicator(battery.Hide, 0)
	}
	st, err := s.battery.Read(ctx)
	if err != nil {
		s.log.Error("battery read failed", err)
		return battery.Indicator(battery.Hide, 0)
	}
	return battery.Indicator(mode, float64(st.Percent))
}
