// Package termview prints the laid-out month grid and day list to a
// terminal, for checking a configuration without a browser or a panel.
package termview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"inkcal/internal/layout"
	"inkcal/internal/render"
)

// cellWidth caps month-grid columns so five weeks fit an 80+ column terminal.
const cellWidth = 16

var (
	bold    = color.New(color.Bold)
	faint   = color.New(color.Faint, color.FgWhite)
	today   = color.New(color.Bold, color.FgHiWhite, color.Underline)
	danger  = color.New(color.FgRed)
	heading = color.New(color.FgWhite, color.Italic)
)

// Printer writes views to Out. A nil Out writes to color.Output.
type Printer struct {
	Out io.Writer
}

func (p Printer) out() io.Writer {
	if p.Out == nil {
		return color.Output
	}
	return p.Out
}

// Month prints the grid as a table, one row of dates per week followed by
// one row per displayed entry.
func (p Printer) Month(name string, g layout.MonthGrid) {
	w := p.out()
	_, _ = fmt.Fprintln(w, heading.Sprint(name))

	tbl := uitable.New()
	tbl.Separator = " │ "
	tbl.MaxColWidth = cellWidth

	header := make([]interface{}, 0, layout.DaysPerWeek)
	for _, l := range g.DayLabels {
		header = append(header, bold.Sprint(l))
	}
	tbl.AddRow(header...)

	for _, week := range g.Weeks() {
		dates := make([]interface{}, 0, layout.DaysPerWeek)
		depth := 0
		for _, c := range week {
			dates = append(dates, dateText(c))
			if n := lines(c); n > depth {
				depth = n
			}
		}
		tbl.AddRow(dates...)

		for i := 0; i < depth; i++ {
			row := make([]interface{}, 0, layout.DaysPerWeek)
			for _, c := range week {
				row = append(row, cellLine(c, i))
			}
			tbl.AddRow(row...)
		}
	}

	_, _ = fmt.Fprintln(w, tbl)
}

// DayList prints one block per bucket. The first bucket lists time and
// location; the rest are condensed to one line per entry.
func (p Printer) DayList(l layout.DayList) {
	w := p.out()
	for _, b := range l.Buckets {
		title := b.Date.Format("Monday, January 2")
		if b.IsToday {
			title = today.Sprint(title)
		} else {
			title = bold.Sprint(title)
		}
		_, _ = fmt.Fprintln(w, title)

		tbl := uitable.New()
		tbl.Separator = "  "
		switch {
		case b.IsEmpty:
			tbl.AddRow("", faint.Sprint("None"))
		case b.Mode == layout.Verbose:
			for _, e := range b.Entries {
				tbl.AddRow(faint.Sprint(render.VerboseTime(e)), entryColor(e).Sprint(e.Marker()+e.Title()))
				if loc := e.Event.Location(); loc != "" {
					tbl.AddRow("", faint.Sprint(loc))
				}
			}
			tbl.RightAlign(0)
		default:
			for _, e := range b.Entries {
				label := ""
				if e.Kind == layout.Timed {
					label = e.TimeLabel
				}
				tbl.AddRow(faint.Sprint(label), entryColor(e).Sprint(e.Title()))
			}
			tbl.RightAlign(0)
		}
		_, _ = fmt.Fprintln(w, tbl)
		_, _ = fmt.Fprintln(w, "")
	}
}

func dateText(c layout.MonthCell) string {
	d := fmt.Sprintf("%2d", c.DayOfMonth())
	switch {
	case c.IsToday:
		return today.Sprint(d)
	case c.OutsideMonth:
		return faint.Sprint(d)
	default:
		return bold.Sprint(d)
	}
}

func lines(c layout.MonthCell) int {
	n := len(c.Displayed)
	if c.Overflow > 0 {
		n++
	}
	return n
}

func cellLine(c layout.MonthCell, i int) string {
	switch {
	case i < len(c.Displayed):
		e := c.Displayed[i]
		return entryColor(e).Sprint(render.MonthText(e))
	case i == len(c.Displayed) && c.Overflow > 0:
		return faint.Sprintf("%d more", c.Overflow)
	default:
		return ""
	}
}

func entryColor(e layout.Entry) *color.Color {
	switch {
	case e.Highlight:
		return danger
	case e.Muted:
		return faint
	default:
		return color.New(color.Reset)
	}
}

// Summary is a one-line count of what the grid holds, used in logs.
func Summary(g layout.MonthGrid) string {
	var total, overflow int
	for _, c := range g.Cells {
		total += len(c.Displayed)
		overflow += c.Overflow
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s..%s: %d shown", g.Anchor.Format("2006-01-02"),
		layout.AddDays(g.Anchor, layout.MonthCells-1).Format("2006-01-02"), total)
	if overflow > 0 {
		fmt.Fprintf(&b, ", %d hidden", overflow)
	}
	return b.String()
}
