package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "inkcal/internal/log"
	"inkcal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000

	rawDateLayout = "2006-01-02"
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int

	Logger *appLog.Logger
}

// ExpandResult wraps the expanded raw events and the UIDs that hit the cap.
type ExpandResult struct {
	Events          []model.RawEvent
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed VEVENTs into one RawEvent per concrete
// occurrence inside the configured range. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence (DAILY/WEEKLY/MONTHLY/YEARLY, etc.)
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
//   - All-day semantics (emitted as date-only bounds)
//
// Timezone resolution is left to the normalizer.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("ics: expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID, keeping first-seen UID order
	// so output is deterministic.
	var order []string
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	for _, uid := range order {
		ov := overridesByUID[uid]
		truncated := false

		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			result.Events = append(result.Events, occ...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			cfg.Logger.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.RawEvent, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.RawEvent {
	if !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}

	if o, ok := findOverrideForStart(overrides, ev.Start); ok {
		return []model.RawEvent{makeRaw(o, o.Start, o.End)}
	}
	return []model.RawEvent{makeRaw(ev, ev.Start, ev.End)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.RawEvent, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		cfg.Logger.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the window by the event length so occurrences that start before
	// RangeStart but are still running get included.
	dur := ev.End.Sub(ev.Start)
	rangeStart := cfg.RangeStart.Add(-dur).In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)

	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.RawEvent, 0, len(occTimes))
	for _, occStart := range occTimes {
		occEnd := occStart.Add(dur)
		if ev.AllDay {
			y, m, d := occStart.Date()
			occStart = time.Date(y, m, d, 0, 0, 0, 0, occStart.Location())
			occEnd = occStart.AddDate(0, 0, max(1, int(dur.Hours()+12)/24))
		}

		if o, ok := findOverrideForStart(overrides, occStart); ok {
			out = append(out, makeRaw(o, o.Start, o.End))
			continue
		}
		out = append(out, makeRaw(ev, occStart, occEnd))
	}

	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID matches start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.Equal(start) {
			return ov, true
		}
		// Date-only RECURRENCE-IDs are parsed in time.Local; compare dates.
		if ov.AllDay && sameCivilDate(*ov.Recurrence, start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeRaw emits the source-neutral record the normalizer consumes.
func makeRaw(ev ParsedEvent, start, end time.Time) model.RawEvent {
	raw := model.RawEvent{
		CalendarID:  ev.CalendarID,
		ID:          ev.UID + "/" + start.Format(time.RFC3339),
		Summary:     ev.Summary,
		Location:    ev.Location,
		Description: ev.Description,
	}
	if ev.AllDay {
		raw.Start = &model.Boundary{Date: start.Format(rawDateLayout)}
		raw.End = &model.Boundary{Date: end.Format(rawDateLayout)}
	} else {
		raw.Start = &model.Boundary{DateTime: start.Format(time.RFC3339)}
		raw.End = &model.Boundary{DateTime: end.Format(time.RFC3339)}
	}
	if !ev.Updated.IsZero() {
		raw.Updated = ev.Updated.UTC().Format(time.RFC3339)
	}
	return raw
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}

func sameCivilDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
