package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"inkcal/internal/model"
)

// Static serves a fixed list of raw events. Events are returned unfiltered;
// the layout engines drop whatever falls outside their window.
type Static struct {
	ID     string
	Events []model.RawEvent
}

func (s *Static) Name() string { return s.ID }

func (s *Static) Fetch(_ context.Context, _, _ time.Time) ([]model.RawEvent, error) {
	return append([]model.RawEvent(nil), s.Events...), nil
}

// fixture is the on-disk shape read by LoadFile.
type fixture struct {
	Events []model.RawEvent `yaml:"events"`
}

// LoadFile reads a YAML fixture of raw events:
//
//	events:
//	  - summary: Standup
//	    start: {dateTime: "2025-01-06T09:00:00+09:00"}
//	    end:   {dateTime: "2025-01-06T09:15:00+09:00"}
//	    updated: "2025-01-05T20:00:00Z"
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", path, err)
	}
	for i := range f.Events {
		if f.Events[i].CalendarID == "" {
			f.Events[i].CalendarID = path
		}
	}
	return &Static{ID: path, Events: f.Events}, nil
}
