package termview

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"inkcal/internal/layout"
	"inkcal/internal/model"
)

var kst = time.FixedZone("KST", 9*60*60)

func init() {
	color.NoColor = true
}

func fixture(t *testing.T) []model.Event {
	t.Helper()
	n, err := model.NewNormalizer(model.NormalizeOptions{
		Location: kst,
		Now:      func() time.Time { return time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	evs, err := n.NormalizeAll([]model.RawEvent{
		{
			CalendarID: "test", ID: "standup", Summary: "Standup", Location: "Room 4",
			Start:   &model.Boundary{DateTime: "2024-03-13T09:00:00+09:00"},
			End:     &model.Boundary{DateTime: "2024-03-13T09:30:00+09:00"},
			Updated: "2024-01-01T00:00:00Z",
		},
		{
			CalendarID: "test", ID: "trip", Summary: "Trip",
			Start:   &model.Boundary{Date: "2024-03-14"},
			End:     &model.Boundary{Date: "2024-03-16"},
			Updated: "2024-01-01T00:00:00Z",
		},
		{CalendarID: "test", ID: "a", Summary: "A", Start: &model.Boundary{Date: "2024-03-13"}, End: &model.Boundary{Date: "2024-03-14"}, Updated: "2024-01-01T00:00:00Z"},
		{CalendarID: "test", ID: "b", Summary: "B", Start: &model.Boundary{Date: "2024-03-13"}, End: &model.Boundary{Date: "2024-03-14"}, Updated: "2024-01-01T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return evs
}

func TestMonth(t *testing.T) {
	today := time.Date(2024, 3, 13, 0, 0, 0, 0, kst)
	grid, err := layout.BuildMonth(fixture(t), layout.MonthOptions{
		Anchor:          layout.MonthAnchor(today, 6),
		Today:           today,
		WeekStartDay:    6,
		MaxEventsPerDay: 2,
		DayOfWeekLabels: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	Printer{Out: &buf}.Month("March", grid)
	out := buf.String()

	for _, want := range []string{"March", "Sun", "Sat", "1 more", "►Trip", "◄Trip"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if got := Summary(grid); !strings.HasPrefix(got, "2024-03-10..2024-04-13: ") || !strings.HasSuffix(got, "1 hidden") {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestDayList(t *testing.T) {
	today := time.Date(2024, 3, 13, 0, 0, 0, 0, kst)
	list, err := layout.BuildDayList(fixture(t), layout.DayListOptions{
		Start: today,
		Today: today,
		Days:  5,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	Printer{Out: &buf}.DayList(list)
	out := buf.String()

	for _, want := range []string{
		"Wednesday, March 13", "9am", "Standup", "Room 4", "All day",
		"Thursday, March 14", "Trip",
		"Sunday, March 17", "None",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "►Trip") {
		t.Errorf("condensed buckets should not carry span markers:\n%s", out)
	}
}
