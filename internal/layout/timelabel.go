package layout

import (
	"strconv"
	"time"
)

// TimeLabel formats the time of day of t compactly.
//
// 24-hour mode gives "H:MM" ("9:05", "14:00"). 12-hour mode gives the hour
// with an am/pm suffix and appends minutes as ".MM" only when non-zero
// ("9.05am", "12pm", "11.30pm", "12.15am"). The dot separator is what the
// display templates expect.
func TimeLabel(t time.Time, use24Hour bool) string {
	h, m := t.Hour(), t.Minute()

	if use24Hour {
		return strconv.Itoa(h) + ":" + pad2(m)
	}

	minutes := ""
	if m > 0 {
		minutes = "." + pad2(m)
	}

	suffix := "am"
	if h >= 12 {
		suffix = "pm"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return strconv.Itoa(h) + minutes + suffix
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
