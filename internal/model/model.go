package model

import "time"

// Boundary is one raw start or end bound as supplied by a calendar source.
// Exactly one of Date or DateTime is expected to be set: Date holds a
// date-only value ("2006-01-02") for all-day bounds, DateTime an RFC3339
// instant.
type Boundary struct {
	Date     string `yaml:"date,omitempty" json:"date,omitempty"`
	DateTime string `yaml:"dateTime,omitempty" json:"dateTime,omitempty"`
}

// RawEvent is a calendar event before normalization. Sources are expected to
// have expanded recurrences and filtered to the queried range already.
type RawEvent struct {
	CalendarID string `yaml:"calendar,omitempty" json:"calendar,omitempty"`
	ID         string `yaml:"id,omitempty" json:"id,omitempty"`

	Start *Boundary `yaml:"start" json:"start"`
	End   *Boundary `yaml:"end" json:"end"`

	// Updated is the RFC3339 last-modification timestamp.
	Updated string `yaml:"updated" json:"updated"`

	Summary     string `yaml:"summary,omitempty" json:"summary,omitempty"`
	Location    string `yaml:"location,omitempty" json:"location,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Event is a normalized calendar event. All instants are in the display
// timezone. Values are only produced by Normalizer and are never mutated
// afterwards; copies are cheap and safe to share between layout cells.
type Event struct {
	calendarID string
	id         string

	start   time.Time
	end     time.Time
	updated time.Time

	allDay          bool
	multiDay        bool
	recentlyUpdated bool

	title       string
	location    string
	description string
}

// CalendarID is the calendar the event was fetched from.
func (e Event) CalendarID() string { return e.calendarID }

// ID is the source identifier, unique within CalendarID.
func (e Event) ID() string { return e.id }

// Start is the event start in the display timezone.
func (e Event) Start() time.Time { return e.start }

// End is the corrected event end: an end at midnight has already been moved
// to the last nanosecond of the previous day.
func (e Event) End() time.Time { return e.end }

// Updated is the last modification time in the display zone.
func (e Event) Updated() time.Time { return e.updated }

// AllDay reports whether the source gave a date-only start.
func (e Event) AllDay() bool { return e.allDay }

// MultiDay reports whether start and end fall on different calendar dates.
func (e Event) MultiDay() bool { return e.multiDay }

// RecentlyUpdated reports whether the event changed within the configured
// threshold at normalization time.
func (e Event) RecentlyUpdated() bool { return e.recentlyUpdated }

// Title, Location and Description carry the text fields with their
// placeholders applied.
func (e Event) Title() string       { return e.title }
func (e Event) Location() string    { return e.location }
func (e Event) Description() string { return e.description }
