package layout

import (
	"fmt"
	"time"

	"inkcal/internal/model"
)

const (
	DaysPerWeek = 7
	MonthWeeks  = 5
	MonthCells  = MonthWeeks * DaysPerWeek
)

// MonthOptions configures BuildMonth. Every field is required.
type MonthOptions struct {
	// Anchor is the date shown in cell 0. It is used as given; see
	// MonthAnchor for the usual week-aligned value.
	Anchor time.Time
	// Today drives the IsToday and OutsideMonth classifications.
	Today time.Time

	// WeekStartDay is 0 = Monday ... 6 = Sunday.
	WeekStartDay int
	// MaxEventsPerDay caps Displayed; the rest are counted in Overflow.
	MaxEventsPerDay int
	// DayOfWeekLabels holds 7 labels, Monday first.
	DayOfWeekLabels []string

	Use24Hour bool
}

// MonthCell is one date slot of the month grid.
type MonthCell struct {
	Date time.Time

	// Events holds every event placed on this date, in start order.
	Events []model.Event
	// Displayed is Events truncated to MaxEventsPerDay.
	Displayed []Entry
	// Overflow counts the events left out of Displayed.
	Overflow int

	IsToday      bool
	OutsideMonth bool
}

func (c MonthCell) DayOfMonth() int { return c.Date.Day() }

// MonthGrid is the laid-out five-week view.
type MonthGrid struct {
	Anchor time.Time
	Today  time.Time

	// DayLabels is the header row, rotated so the week starts on
	// WeekStartDay.
	DayLabels [DaysPerWeek]string
	Cells     [MonthCells]MonthCell
}

// Weeks returns the cells as five rows of seven.
func (g MonthGrid) Weeks() [][]MonthCell {
	rows := make([][]MonthCell, 0, MonthWeeks)
	for w := 0; w < MonthWeeks; w++ {
		rows = append(rows, g.Cells[w*DaysPerWeek:(w+1)*DaysPerWeek])
	}
	return rows
}

func (o MonthOptions) validate() error {
	if o.WeekStartDay < 0 || o.WeekStartDay >= DaysPerWeek {
		return fmt.Errorf("%w: week start day %d not in [0,6]", ErrInvalidOptions, o.WeekStartDay)
	}
	if o.MaxEventsPerDay < 0 {
		return fmt.Errorf("%w: max events per day %d < 0", ErrInvalidOptions, o.MaxEventsPerDay)
	}
	if len(o.DayOfWeekLabels) != DaysPerWeek {
		return fmt.Errorf("%w: %d day-of-week labels, need %d", ErrInvalidOptions, len(o.DayOfWeekLabels), DaysPerWeek)
	}
	return nil
}

// BuildMonth lays events (sorted by start) into a 35-cell grid starting at
// opts.Anchor.
//
// An event lands in the cell of its start date. A multi-day event is also
// placed in the cell of its end date, and only there: days strictly between
// start and end stay empty for it, and the renderer marks the two endpoints
// with arrows. Dates outside the grid are dropped without error.
func BuildMonth(events []model.Event, opts MonthOptions) (MonthGrid, error) {
	if err := opts.validate(); err != nil {
		return MonthGrid{}, err
	}

	anchor := DateOf(opts.Anchor)
	grid := MonthGrid{
		Anchor: anchor,
		Today:  DateOf(opts.Today),
	}
	for i := range grid.DayLabels {
		grid.DayLabels[i] = opts.DayOfWeekLabels[(i+opts.WeekStartDay)%DaysPerWeek]
	}

	for _, ev := range events {
		if idx := DayIndex(anchor, ev.Start()); inGrid(idx) {
			grid.Cells[idx].Events = append(grid.Cells[idx].Events, ev)
		}
		if ev.MultiDay() {
			if endIdx := DayIndex(anchor, ev.End()); inGrid(endIdx) {
				grid.Cells[endIdx].Events = append(grid.Cells[endIdx].Events, ev)
			}
		}
	}

	ty, tm, _ := opts.Today.Date()
	for i := range grid.Cells {
		cell := &grid.Cells[i]
		cell.Date = AddDays(anchor, i)
		cell.IsToday = sameDate(cell.Date, opts.Today)
		cy, cm, _ := cell.Date.Date()
		cell.OutsideMonth = cy != ty || cm != tm

		shown := min(len(cell.Events), opts.MaxEventsPerDay)
		cell.Overflow = len(cell.Events) - shown
		cell.Displayed = make([]Entry, 0, shown)
		for _, ev := range cell.Events[:shown] {
			entry := newEntry(ev, cell.Date, opts.Use24Hour)
			entry.Muted = cell.OutsideMonth && !entry.Highlight
			cell.Displayed = append(cell.Displayed, entry)
		}
	}

	return grid, nil
}

func inGrid(idx int) bool {
	return idx >= 0 && idx < MonthCells
}
