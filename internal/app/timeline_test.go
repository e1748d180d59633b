package app

import (
	"testing"
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

func tlDate(y int, m time.Month, d int) *time.Time {
	ts := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &ts
}

func TestLayoutWindowPadding(t *testing.T) {
	now := time.Date(2026, 1, 9, 10, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: "a", Title: "a", State: domain.StatePendiente, StartDate: tlDate(2026, 1, 10)},
		{ID: "b", Title: "b", State: domain.StatePendiente, DueDate: tlDate(2026, 1, 5)},
	}
	layout := LayoutTimeline(tasks, now, DefaultTimelineConfig())

	if max := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC); layout.ViewStart.After(max) {
		t.Fatalf("ViewStart = %v, want <= %v", layout.ViewStart, max)
	}
	if min := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC); layout.ViewEnd.Before(min) {
		t.Fatalf("ViewEnd = %v, want >= %v", layout.ViewEnd, min)
	}
	// 2-day pad before the earliest date, 5-day pad after the latest.
	if want := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC); !layout.ViewStart.Equal(want) {
		t.Fatalf("ViewStart = %v, want %v", layout.ViewStart, want)
	}
	if want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC); !layout.ViewEnd.Equal(want) {
		t.Fatalf("ViewEnd = %v, want %v", layout.ViewEnd, want)
	}
}

func TestLayoutEmptyTaskSetWindow(t *testing.T) {
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	layout := LayoutTimeline(nil, now, DefaultTimelineConfig())
	if got := layout.ViewEnd.Sub(layout.ViewStart); got != 30*24*time.Hour {
		t.Fatalf("empty window span = %v, want 30 days", got)
	}
	if len(layout.Bars) != 0 {
		t.Fatalf("expected no bars, got %d", len(layout.Bars))
	}
	if layout.TodayIndex != 0 {
		t.Fatalf("expected today at the window start, got index %d", layout.TodayIndex)
	}
}

func TestLayoutBarGeometry(t *testing.T) {
	// dayWidth 40, viewStart 2026-01-01, task 01-03..01-05:
	// offsetDays 2 -> 80px, durationDays 2 -> 80px.
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultTimelineConfig()
	cfg.PadBefore = 0
	cfg.PadAfter = 0
	tasks := []domain.Task{
		{ID: "a", Title: "a", State: domain.StatePendiente, StartDate: tlDate(2026, 1, 3), DueDate: tlDate(2026, 1, 5)},
	}
	layout := LayoutTimeline(tasks, now, cfg)
	if want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC); !layout.ViewStart.Equal(want) {
		t.Fatalf("ViewStart = %v, want %v", layout.ViewStart, want)
	}
	if len(layout.Bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(layout.Bars))
	}
	bar := layout.Bars[0]
	if bar.OffsetDays != 2 || bar.OffsetPx != 80 {
		t.Fatalf("offset = %d days / %d px, want 2 / 80", bar.OffsetDays, bar.OffsetPx)
	}
	if bar.DurationDays != 2 || bar.WidthPx != 80 {
		t.Fatalf("duration = %d days / %d px, want 2 / 80", bar.DurationDays, bar.WidthPx)
	}
}

func TestLayoutSingleDayAndSingleDateBars(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: "same", Title: "same", State: domain.StatePendiente, StartDate: tlDate(2026, 1, 3), DueDate: tlDate(2026, 1, 3)},
		{ID: "startonly", Title: "startonly", State: domain.StatePendiente, StartDate: tlDate(2026, 1, 4)},
		{ID: "dueonly", Title: "dueonly", State: domain.StatePendiente, DueDate: tlDate(2026, 1, 5)},
		{ID: "undated", Title: "undated", State: domain.StatePendiente},
	}
	layout := LayoutTimeline(tasks, now, DefaultTimelineConfig())
	if len(layout.Bars) != 3 {
		t.Fatalf("expected 3 bars (undated task produces none), got %d", len(layout.Bars))
	}
	for _, bar := range layout.Bars {
		if bar.DurationDays < 1 {
			t.Fatalf("bar %s duration %d, want >= 1", bar.TaskID, bar.DurationDays)
		}
		if bar.WidthPx <= 0 {
			t.Fatalf("bar %s width %d, want > 0", bar.TaskID, bar.WidthPx)
		}
	}
}

func TestLayoutDayAndMonthGrids(t *testing.T) {
	now := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	cfg := DefaultTimelineConfig()
	tasks := []domain.Task{
		{ID: "a", Title: "a", State: domain.StatePendiente, StartDate: tlDate(2026, 1, 30), DueDate: tlDate(2026, 2, 2)},
	}
	layout := LayoutTimeline(tasks, now, cfg)

	// 01-28 .. 02-07 inclusive.
	if len(layout.Days) != 11 {
		t.Fatalf("expected 11 day columns, got %d", len(layout.Days))
	}
	if len(layout.Months) != 2 {
		t.Fatalf("expected 2 month bands, got %d", len(layout.Months))
	}
	if layout.Months[0].Month != time.January || layout.Months[0].Days != 4 {
		t.Fatalf("unexpected first band %v/%d", layout.Months[0].Month, layout.Months[0].Days)
	}
	if layout.Months[1].Month != time.February || layout.Months[1].Days != 7 {
		t.Fatalf("unexpected second band %v/%d", layout.Months[1].Month, layout.Months[1].Days)
	}
	totalBandDays := layout.Months[0].Days + layout.Months[1].Days
	if totalBandDays != len(layout.Days) {
		t.Fatalf("band days %d != day columns %d", totalBandDays, len(layout.Days))
	}

	weekends := 0
	for _, day := range layout.Days {
		if day.Weekend {
			weekends++
		}
	}
	// Jan 31, Feb 1, Feb 7 fall on Sat/Sun/Sat in 2026.
	if weekends != 3 {
		t.Fatalf("expected 3 weekend columns, got %d", weekends)
	}
	if layout.TodayIndex != 2 {
		t.Fatalf("expected today index 2 (01-30), got %d", layout.TodayIndex)
	}
	if !layout.Days[layout.TodayIndex].Today {
		t.Fatal("today column must carry the today flag")
	}
}

func TestLayoutDegradedDatesFloorToOneDay(t *testing.T) {
	// due < start predates write-boundary validation; layout degrades
	// instead of failing.
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: "a", Title: "a", State: domain.StatePendiente, StartDate: tlDate(2026, 1, 10), DueDate: tlDate(2026, 1, 5)},
	}
	layout := LayoutTimeline(tasks, now, DefaultTimelineConfig())
	if len(layout.Bars) != 1 || layout.Bars[0].DurationDays != 1 {
		t.Fatalf("expected one 1-day bar, got %+v", layout.Bars)
	}
}

func TestLayoutOverdueFlag(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: "late", Title: "late", State: domain.StateEnProgreso, DueDate: tlDate(2026, 3, 5)},
		{ID: "done", Title: "done", State: domain.StateCompletada, DueDate: tlDate(2026, 3, 5)},
	}
	layout := LayoutTimeline(tasks, now, DefaultTimelineConfig())
	for _, bar := range layout.Bars {
		switch bar.TaskID {
		case "late":
			if !bar.Overdue {
				t.Fatal("expected late task flagged overdue")
			}
		case "done":
			if bar.Overdue {
				t.Fatal("completada tasks are never overdue")
			}
		}
	}
}
