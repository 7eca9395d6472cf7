package layout

import "time"

const day = 24 * time.Hour

// DayIndex returns the number of calendar days from anchor's date to
// target's date. Each argument is read as a date in its own location, so the
// result ignores time of day and DST shifts. It may be negative or exceed
// any grid bound; callers decide what out-of-range means.
func DayIndex(anchor, target time.Time) int {
	return int(civil(target).Sub(civil(anchor)) / day)
}

// DateOf returns midnight of t's calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays returns the date n calendar days after t's date, at midnight.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// MonthAnchor returns the latest date on or before today whose weekday is
// weekStartDay (0 = Monday ... 6 = Sunday). This is where a five-week month
// grid containing today begins.
func MonthAnchor(today time.Time, weekStartDay int) time.Time {
	back := (mondayIndex(today.Weekday()) + 7 - weekStartDay%7) % 7
	return AddDays(today, -back)
}

// mondayIndex maps time.Weekday (Sunday = 0) onto a Monday-first index.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return DayIndex(a, b) == 0
}
