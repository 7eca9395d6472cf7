// Package render turns laid-out views into the HTML pages captured for the
// panel. Both pages mark their root element with data-ready="true" once
// rendered, which is what the capture step waits for.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"inkcal/internal/layout"
	"inkcal/internal/weather"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// MonthPage is the data behind the month calendar page.
type MonthPage struct {
	MonthName string
	// Battery is a battery.Indicator CSS class.
	Battery string
	Grid    layout.MonthGrid

	Width  int
	Height int
}

// DashboardPage is the data behind the day-list dashboard page.
type DashboardPage struct {
	Today     time.Time
	MonthName string
	Battery   string
	List      layout.DayList

	// DayOfWeekText holds 7 weekday labels, Monday first. When it is not
	// exactly 7 long the English names are used.
	DayOfWeekText []string

	// Weather is nil when no forecast could be fetched; the weather panel is
	// left out in that case.
	Weather *weather.Summary

	Width  int
	Height int
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Month writes the month calendar page to w.
func (r *Renderer) Month(w io.Writer, p MonthPage) error {
	if err := r.tmpl.ExecuteTemplate(w, "month.html.tmpl", p); err != nil {
		return fmt.Errorf("render: month: %w", err)
	}
	return nil
}

// Dashboard writes the day-list dashboard page to w.
func (r *Renderer) Dashboard(w io.Writer, p DashboardPage) error {
	if err := r.tmpl.ExecuteTemplate(w, "dashboard.html.tmpl", p); err != nil {
		return fmt.Errorf("render: dashboard: %w", err)
	}
	return nil
}

var funcs = template.FuncMap{
	"monthText":   MonthText,
	"eventClass":  eventClass,
	"verboseTime": VerboseTime,
	"weekday":     WeekdayLabel,
}

// MonthText is the plain text of a month-grid entry: the span arrow and
// title for multi-day events, "<time> <title>" for timed events and the bare
// title otherwise.
func MonthText(e layout.Entry) string {
	switch e.Kind {
	case layout.SpanStart, layout.SpanMiddle, layout.SpanEnd:
		return e.Marker() + e.Title()
	case layout.Timed:
		return e.TimeLabel + " " + e.Title()
	default:
		return e.Title()
	}
}

// CondensedText is the plain text of a condensed day-list entry.
func CondensedText(e layout.Entry) string {
	if e.Kind == layout.Timed {
		return e.TimeLabel + " " + e.Title()
	}
	return e.Title()
}

// VerboseTime is the "Time:" value of a verbose day-list entry.
func VerboseTime(e layout.Entry) string {
	if e.Kind == layout.Timed {
		return e.TimeLabel
	}
	return "All day"
}

// WeekdayLabel returns the label for t's weekday from Monday-first labels.
func WeekdayLabel(labels []string, t time.Time) string {
	wd := t.Weekday()
	if len(labels) != 7 {
		return wd.String()
	}
	return labels[(int(wd)+6)%7]
}

func eventClass(e layout.Entry) string {
	var b strings.Builder
	b.WriteString("event")
	switch {
	case e.Highlight:
		b.WriteString(" text-danger")
	case e.Muted:
		b.WriteString(" text-muted")
	}
	return b.String()
}
