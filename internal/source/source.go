// Package source merges raw events from every configured calendar source.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "inkcal/internal/log"
	"inkcal/internal/model"
)

// maxParallelFetch bounds concurrent source fetches.
const maxParallelFetch = 4

// Source supplies raw events whose span intersects [start, end], with
// recurrences already expanded.
type Source interface {
	Name() string
	Fetch(ctx context.Context, start, end time.Time) ([]model.RawEvent, error)
}

// Multi fetches several sources concurrently and concatenates their events
// in source order. Cross-source ordering is left to the normalizer's sort.
type Multi struct {
	sources []Source
	log     *appLog.Logger
}

// NewMulti wraps sources; their events are returned in this order.
func NewMulti(logger *appLog.Logger, sources ...Source) *Multi {
	return &Multi{sources: sources, log: logger}
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of wrapped sources.
func (m *Multi) Len() int { return len(m.sources) }

// Fetch returns the events of every source that succeeded. Failed sources are
// logged and skipped; an error is returned only when every source failed.
func (m *Multi) Fetch(ctx context.Context, start, end time.Time) ([]model.RawEvent, error) {
	if len(m.sources) == 0 {
		return nil, nil
	}

	results := make([][]model.RawEvent, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	g.SetLimit(maxParallelFetch)
	for i, src := range m.sources {
		g.Go(func() error {
			events, err := src.Fetch(ctx, start, end)
			if err != nil {
				errs[i] = fmt.Errorf("source %s: %w", src.Name(), err)
				m.log.Error("source fetch failed", err, "source", src.Name())
				return nil
			}
			m.log.Debug("source fetched", "source", src.Name(), "events", len(events))
			results[i] = events
			return nil
		})
	}
	_ = g.Wait()

	var out []model.RawEvent
	failed := 0
	for i := range m.sources {
		if errs[i] != nil {
			failed++
			continue
		}
		out = append(out, results[i]...)
	}
	if failed == len(m.sources) {
		return nil, errors.Join(errs...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
