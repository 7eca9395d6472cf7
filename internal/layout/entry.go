// Package layout places normalized events into the two display views: a
// five-week month grid and a short list of day buckets. Both engines are
// pure functions over their inputs and allocate a fresh structure per call.
package layout

import (
	"errors"
	"time"

	"inkcal/internal/model"
)

// ErrInvalidOptions is returned when view options are out of their
// documented range.
var ErrInvalidOptions = errors.New("layout: invalid options")

// EntryKind tells the renderer how an event occurrence in a cell should be
// labelled.
type EntryKind int

const (
	// Timed is a single-day event with a start time.
	Timed EntryKind = iota
	// AllDay is a single-day, date-only event.
	AllDay
	// SpanStart is the first day of a multi-day event.
	SpanStart
	// SpanMiddle is a day strictly inside a multi-day event.
	SpanMiddle
	// SpanEnd is the last day of a multi-day event.
	SpanEnd
)

func (k EntryKind) String() string {
	switch k {
	case Timed:
		return "timed"
	case AllDay:
		return "all-day"
	case SpanStart:
		return "span-start"
	case SpanMiddle:
		return "span-middle"
	case SpanEnd:
		return "span-end"
	default:
		return "unknown"
	}
}

// MarshalText lets views encode kinds by name.
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is one occurrence of an event in a cell or bucket.
type Entry struct {
	Event model.Event
	Kind  EntryKind

	// TimeLabel is set for Timed entries only.
	TimeLabel string

	// Highlight marks recently updated events.
	Highlight bool
	// Muted marks events in month-grid cells outside today's month that are
	// not highlighted.
	Muted bool
}

// Marker returns the span arrow for multi-day entries and "" otherwise.
func (e Entry) Marker() string {
	switch e.Kind {
	case SpanStart:
		return "►"
	case SpanMiddle, SpanEnd:
		return "◄"
	default:
		return ""
	}
}

// Title is a template convenience for Event.Title.
func (e Entry) Title() string { return e.Event.Title() }

func newEntry(ev model.Event, date time.Time, use24Hour bool) Entry {
	entry := Entry{
		Event:     ev,
		Highlight: ev.RecentlyUpdated(),
	}
	switch {
	case ev.MultiDay():
		switch {
		case sameDate(date, ev.Start()):
			entry.Kind = SpanStart
		case sameDate(date, ev.End()):
			entry.Kind = SpanEnd
		default:
			entry.Kind = SpanMiddle
		}
	case ev.AllDay():
		entry.Kind = AllDay
	default:
		entry.Kind = Timed
		entry.TimeLabel = TimeLabel(ev.Start(), use24Hour)
	}
	return entry
}
