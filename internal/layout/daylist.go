package layout

import (
	"fmt"
	"time"

	"inkcal/internal/model"
)

// MaxListDays bounds DayListOptions.Days.
const MaxListDays = 14

// Mode selects how much detail the renderer shows for a bucket.
type Mode int

const (
	// Verbose shows title, time, location and description.
	Verbose Mode = iota
	// Condensed shows the time and title, or the bare title for all-day and
	// multi-day events.
	Condensed
)

func (m Mode) String() string {
	if m == Verbose {
		return "verbose"
	}
	return "condensed"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// DayListOptions configures BuildDayList. Every field is required.
type DayListOptions struct {
	// Start is the date of bucket 0.
	Start time.Time
	Today time.Time
	// Days is the number of buckets, 1..MaxListDays.
	Days int

	Use24Hour bool
}

// DayBucket holds the events of one date in the day list.
type DayBucket struct {
	Index   int
	Date    time.Time
	Mode    Mode
	Entries []Entry

	IsToday bool
	// IsEmpty is set when no event covers the date, so the renderer can
	// print a placeholder.
	IsEmpty bool
}

// IsVerbose reports whether the bucket is rendered with full event details.
func (b DayBucket) IsVerbose() bool { return b.Mode == Verbose }

// DayList is the laid-out dashboard view.
type DayList struct {
	Start   time.Time
	Today   time.Time
	Buckets []DayBucket
}

// BuildDayList lays events (sorted by start) into opts.Days consecutive
// date buckets beginning at opts.Start.
//
// Unlike the month grid, a multi-day event is copied into every bucket its
// span covers, with the span clamped to the list window.
func BuildDayList(events []model.Event, opts DayListOptions) (DayList, error) {
	if opts.Days < 1 || opts.Days > MaxListDays {
		return DayList{}, fmt.Errorf("%w: days %d not in [1,%d]", ErrInvalidOptions, opts.Days, MaxListDays)
	}

	start := DateOf(opts.Start)
	list := DayList{
		Start:   start,
		Today:   DateOf(opts.Today),
		Buckets: make([]DayBucket, opts.Days),
	}
	for i := range list.Buckets {
		b := &list.Buckets[i]
		b.Index = i
		b.Date = AddDays(start, i)
		b.IsToday = sameDate(b.Date, opts.Today)
		b.Mode = Condensed
		if i == 0 {
			b.Mode = Verbose
		}
	}

	for _, ev := range events {
		first := DayIndex(start, ev.Start())
		last := first
		if ev.MultiDay() {
			last = DayIndex(start, ev.End())
		}
		first = max(first, 0)
		last = min(last, opts.Days-1)

		for i := first; i <= last; i++ {
			b := &list.Buckets[i]
			b.Entries = append(b.Entries, newEntry(ev, b.Date, opts.Use24Hour))
		}
	}

	for i := range list.Buckets {
		list.Buckets[i].IsEmpty = len(list.Buckets[i].Entries) == 0
	}
	return list, nil
}
