package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	appLog "inkcal/internal/log"
)

const (
	// DefaultTitle replaces a blank summary.
	DefaultTitle = "(No Title)"
	// DefaultDescription replaces an empty description.
	DefaultDescription = "None"
	// MeetLocation replaces a Google Meet URL in the location field.
	MeetLocation = "Google Meet Conference"

	meetPrefix = "https://meet.google.com"
	dateLayout = "2006-01-02"
	// localDateTimeLayout accepts date-times without an offset, read in the
	// display timezone.
	localDateTimeLayout = "2006-01-02T15:04:05"
)

// NormalizeOptions configures a Normalizer. Location and ThresholdHours are
// required; Now defaults to time.Now and Logger may be nil.
type NormalizeOptions struct {
	// Location is the single display timezone every instant is resolved to.
	Location *time.Location

	// ThresholdHours: events updated less than this many hours ago are
	// flagged as recently updated. The bound itself is not flagged.
	ThresholdHours float64

	Now    func() time.Time
	Logger *appLog.Logger
}

// Normalizer turns RawEvent records into Events. It holds no mutable state
// and is safe for concurrent use.
type Normalizer struct {
	loc       *time.Location
	threshold float64
	now       func() time.Time
	log       *appLog.Logger
}

// NewNormalizer validates opts and returns a Normalizer for the display zone.
func NewNormalizer(opts NormalizeOptions) (*Normalizer, error) {
	if opts.Location == nil {
		return nil, errors.New("model: display location is required")
	}
	if opts.ThresholdHours < 0 {
		return nil, fmt.Errorf("model: threshold hours must be >= 0, got %v", opts.ThresholdHours)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Normalizer{
		loc:       opts.Location,
		threshold: opts.ThresholdHours,
		now:       now,
		log:       opts.Logger,
	}, nil
}

// Location returns the display timezone.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Normalize converts a single raw record. Malformed records yield a
// *MalformedEventError.
func (n *Normalizer) Normalize(raw RawEvent) (Event, error) {
	malformed := func(field string, err error) (Event, error) {
		return Event{}, &MalformedEventError{
			CalendarID: raw.CalendarID,
			ID:         raw.ID,
			Field:      field,
			Err:        err,
		}
	}

	start, allDay, err := n.parseBoundary(raw.Start)
	if err != nil {
		return malformed("start", err)
	}
	end, endDateOnly, err := n.parseBoundary(raw.End)
	if err != nil {
		return malformed("end", err)
	}
	if strings.TrimSpace(raw.Updated) == "" {
		return malformed("updated", errors.New("missing"))
	}
	updated, err := n.parseDateTime(raw.Updated)
	if err != nil {
		return malformed("updated", err)
	}

	if endDateOnly {
		end = lastInstantBefore(end)
	} else {
		end = adjustEnd(end)
	}

	ev := Event{
		calendarID:      raw.CalendarID,
		id:              raw.ID,
		start:           start,
		end:             end,
		updated:         updated,
		allDay:          allDay,
		multiDay:        !sameDate(start, end),
		recentlyUpdated: n.now().UTC().Sub(updated).Hours() < n.threshold,
		title:           raw.Summary,
		location:        raw.Location,
		description:     raw.Description,
	}
	if strings.TrimSpace(ev.title) == "" {
		ev.title = DefaultTitle
	}
	if strings.HasPrefix(ev.location, meetPrefix) {
		ev.location = MeetLocation
	}
	if ev.description == "" {
		ev.description = DefaultDescription
	}
	return ev, nil
}

// NormalizeAll normalizes every record, skipping malformed ones, and returns
// the survivors sorted by start. Equal starts keep input order, since merged
// calendars arrive in no particular cross-calendar order. Skipped records are
// reported through the joined error; the slice is valid either way.
func (n *Normalizer) NormalizeAll(raws []RawEvent) ([]Event, error) {
	events := make([]Event, 0, len(raws))
	var errs []error

	for _, raw := range raws {
		ev, err := n.Normalize(raw)
		if err != nil {
			n.log.Error("skipping malformed event", err, "calendar", raw.CalendarID, "id", raw.ID)
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		return a.start.Compare(b.start)
	})

	n.log.Debug("events normalized", "in", len(raws), "out", len(events), "skipped", len(errs))
	return events, errors.Join(errs...)
}

// parseBoundary resolves a bound into the display zone and reports whether
// it was date-only.
func (n *Normalizer) parseBoundary(b *Boundary) (time.Time, bool, error) {
	if b == nil {
		return time.Time{}, false, errors.New("missing")
	}
	switch {
	case b.DateTime != "":
		t, err := n.parseDateTime(b.DateTime)
		return t, false, err
	case b.Date != "":
		d, err := time.Parse(dateLayout, strings.TrimSpace(b.Date))
		if err != nil {
			return time.Time{}, true, err
		}
		y, m, day := d.Date()
		return startOfDate(y, m, day, n.loc), true, nil
	default:
		return time.Time{}, false, errors.New("neither date nor dateTime set")
	}
}

func (n *Normalizer) parseDateTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.In(n.loc), nil
	}
	return time.ParseInLocation(localDateTimeLayout, v, n.loc)
}

// adjustEnd moves a timed end of exactly midnight to the last instant of the
// previous day, so an event ending at 00:00 does not spill into that date.
func adjustEnd(t time.Time) time.Time {
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	return lastInstantBefore(t)
}

// startOfDate returns the first instant of the civil date in loc. Where a
// DST change skips midnight, time.Date resolves 00:00 into the previous day,
// so the day starts at the zone transition instead.
func startOfDate(y int, m time.Month, d int, loc *time.Location) time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		_, next := t.ZoneBounds()
		t = next
	}
	return t
}

// lastInstantBefore returns the last instant of the date before t's date.
// Date-only ends are exclusive, so this is where such an event stops.
func lastInstantBefore(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-1, 23, 59, 59, 999999999, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
