// Package ics reads ICS subscription feeds and expands their recurrences
// into raw events.
package ics

import (
	"context"
	"fmt"
	"time"

	appLog "inkcal/internal/log"
	"inkcal/internal/model"
)

// Source is one ICS subscription.
type Source struct {
	id      string
	url     string
	fetcher *Fetcher
	log     *appLog.Logger
}

// NewSource reads the subscription at url; fetcher may be shared between
// sources.
func NewSource(id, url string, fetcher *Fetcher, logger *appLog.Logger) *Source {
	return &Source{
		id:      id,
		url:     url,
		fetcher: fetcher,
		log:     logger.With("calendar", id),
	}
}

func (s *Source) Name() string { return s.id }

// Fetch downloads, parses and expands the feed over [start, end].
func (s *Source) Fetch(ctx context.Context, start, end time.Time) ([]model.RawEvent, error) {
	res, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("ics: fetch %s: %w", redactURL(s.url), err)
	}

	parsed, err := ParseICS(s.id, res.Body, s.log)
	if err != nil {
		return nil, fmt.Errorf("ics: parse %s: %w", redactURL(s.url), err)
	}

	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		RangeStart: start,
		RangeEnd:   end,
		Logger:     s.log,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("ics source expanded", "events", len(expanded.Events), "from_cache", res.FromCache)
	return expanded.Events, nil
}
