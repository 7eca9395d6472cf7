package web

import (
	"time"

	"inkcal/internal/layout"
	"inkcal/internal/model"
	"inkcal/internal/render"
	"inkcal/internal/weather"
)

const dateLayout = "2006-01-02"

type eventDTO struct {
	CalendarID      string    `json:"calendar_id"`
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	AllDay          bool      `json:"all_day"`
	MultiDay        bool      `json:"multi_day"`
	RecentlyUpdated bool      `json:"recently_updated"`
}

type entryDTO struct {
	Kind      layout.EntryKind `json:"kind"`
	Text      string           `json:"text"`
	TimeLabel string           `json:"time_label,omitempty"`
	Highlight bool             `json:"highlight"`
	Muted     bool             `json:"muted"`
	Event     eventDTO         `json:"event"`
}

type cellDTO struct {
	Date         string     `json:"date"`
	IsToday      bool       `json:"is_today"`
	OutsideMonth bool       `json:"outside_month"`
	Entries      []entryDTO `json:"entries"`
	Overflow     int        `json:"overflow"`
}

type monthResponse struct {
	MonthName string                     `json:"month_name"`
	Battery   string                     `json:"battery"`
	Anchor    string                     `json:"anchor"`
	Today     string                     `json:"today"`
	DayLabels [layout.DaysPerWeek]string `json:"day_labels"`
	Cells     []cellDTO                  `json:"cells"`
}

type bucketDTO struct {
	Date    string      `json:"date"`
	Mode    layout.Mode `json:"mode"`
	IsToday bool        `json:"is_today"`
	IsEmpty bool        `json:"is_empty"`
	Entries []entryDTO  `json:"entries"`
}

type daysResponse struct {
	Start   string           `json:"start"`
	Today   string           `json:"today"`
	Battery string           `json:"battery"`
	Buckets []bucketDTO      `json:"buckets"`
	Weather *weather.Summary `json:"weather,omitempty"`
}

func eventFrom(ev model.Event) eventDTO {
	return eventDTO{
		CalendarID:      ev.CalendarID(),
		ID:              ev.ID(),
		Title:           ev.Title(),
		Location:        ev.Location(),
		Description:     ev.Description(),
		Start:           ev.Start(),
		End:             ev.End(),
		AllDay:          ev.AllDay(),
		MultiDay:        ev.MultiDay(),
		RecentlyUpdated: ev.RecentlyUpdated(),
	}
}

func entriesFrom(entries []layout.Entry, text func(layout.Entry) string) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryDTO{
			Kind:      e.Kind,
			Text:      text(e),
			TimeLabel: e.TimeLabel,
			Highlight: e.Highlight,
			Muted:     e.Muted,
			Event:     eventFrom(e.Event),
		})
	}
	return out
}

func monthResponseFrom(p render.MonthPage) monthResponse {
	resp := monthResponse{
		MonthName: p.MonthName,
		Battery:   p.Battery,
		Anchor:    p.Grid.Anchor.Format(dateLayout),
		Today:     p.Grid.Today.Format(dateLayout),
		DayLabels: p.Grid.DayLabels,
		Cells:     make([]cellDTO, 0, len(p.Grid.Cells)),
	}
	for _, c := range p.Grid.Cells {
		resp.Cells = append(resp.Cells, cellDTO{
			Date:         c.Date.Format(dateLayout),
			IsToday:      c.IsToday,
			OutsideMonth: c.OutsideMonth,
			Entries:      entriesFrom(c.Displayed, render.MonthText),
			Overflow:     c.Overflow,
		})
	}
	return resp
}

func daysResponseFrom(p render.DashboardPage) daysResponse {
	resp := daysResponse{
		Start:   p.List.Start.Format(dateLayout),
		Today:   p.List.Today.Format(dateLayout),
		Battery: p.Battery,
		Buckets: make([]bucketDTO, 0, len(p.List.Buckets)),
		Weather: p.Weather,
	}
	for _, b := range p.List.Buckets {
		resp.Buckets = append(resp.Buckets, bucketDTO{
			Date:    b.Date.Format(dateLayout),
			Mode:    b.Mode,
			IsToday: b.IsToday,
			IsEmpty: b.IsEmpty,
			Entries: entriesFrom(b.Entries, render.CondensedText),
		})
	}
	return resp
}
