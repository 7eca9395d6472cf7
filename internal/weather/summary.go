package weather

import (
	"math"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HourLabels is the number of hour labels in a Summary, the current hour
// included.
const HourLabels = 7

// Reading is a single rounded observation.
type Reading struct {
	Text        string
	ConditionID int
	Temp        int
}

// DaySummary is one rounded daily forecast.
type DaySummary struct {
	Date        time.Time
	ConditionID int
	// PopPercent is the probability of precipitation, 0..100.
	PopPercent int
	Min        int
	Max        int
}

// HourSummary pairs an hour label with the forecast for that hour, when
// available.
type HourSummary struct {
	Label       string
	Temp        int
	ConditionID int
	HasForecast bool
}

// Summary is what the dashboard prints.
type Summary struct {
	// Current uses the next-hour forecast rather than the current reading.
	Current Reading
	Days    []DaySummary
	Hours   []HourSummary
}

// Summarize rounds f into dashboard values. Days holds at most days entries,
// starting at now's date. Hour labels run from now for HourLabels hours.
func Summarize(f Forecast, now time.Time, days int) Summary {
	var s Summary

	cur := f.Current
	if len(f.Hourly) > 1 {
		cur = f.Hourly[1]
	}
	s.Current = Reading{
		Temp: round(cur.Temp),
	}
	if len(cur.Weather) > 0 {
		s.Current.Text = cases.Title(language.Und).String(cur.Weather[0].Description)
		s.Current.ConditionID = cur.Weather[0].ID
	}

	n := min(days, len(f.Daily))
	for i := 0; i < n; i++ {
		d := f.Daily[i]
		ds := DaySummary{
			Date:       now.AddDate(0, 0, i),
			PopPercent: round(d.Pop * 100),
			Min:        round(d.Temp.Min),
			Max:        round(d.Temp.Max),
		}
		if len(d.Weather) > 0 {
			ds.ConditionID = d.Weather[0].ID
		}
		s.Days = append(s.Days, ds)
	}

	for i := 0; i < HourLabels; i++ {
		hs := HourSummary{Label: now.Add(time.Duration(i) * time.Hour).Format("3 PM")}
		if i < len(f.Hourly) {
			h := f.Hourly[i]
			hs.Temp = round(h.Temp)
			hs.HasForecast = true
			if len(h.Weather) > 0 {
				hs.ConditionID = h.Weather[0].ID
			}
		}
		s.Hours = append(s.Hours, hs)
	}

	return s
}

func round(v float64) int {
	return int(math.Round(v))
}
