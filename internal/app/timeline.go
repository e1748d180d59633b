package app

import (
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// TimelineConfig tunes the calendar layout.
type TimelineConfig struct {
	// DayWidth is the fixed pixel/cell width of one day column.
	DayWidth int
	// PadBefore/PadAfter widen the window around the task date range.
	PadBefore int
	PadAfter  int
	// EmptyHorizon is the forward window, in days, when no task has dates.
	EmptyHorizon int
}

// DefaultTimelineConfig returns the layout defaults.
func DefaultTimelineConfig() TimelineConfig {
	return TimelineConfig{
		DayWidth:     40,
		PadBefore:    2,
		PadAfter:     5,
		EmptyHorizon: 30,
	}
}

// TimelineDay is one fixed-width day column.
type TimelineDay struct {
	Date    time.Time
	Weekend bool
	Today   bool
}

// MonthBand groups consecutive days sharing a (month, year) label.
type MonthBand struct {
	Year  int
	Month time.Month
	Days  int
}

// TimelineBar is the rendered geometry of one dated task.
type TimelineBar struct {
	TaskID       string
	Title        string
	State        domain.TaskState
	Priority     domain.Priority
	OffsetDays   int
	DurationDays int
	OffsetPx     int
	WidthPx      int
	Overdue      bool
}

// TimelineLayout is the full derived calendar view for one task set.
type TimelineLayout struct {
	ViewStart time.Time
	ViewEnd   time.Time
	DayWidth  int
	Days      []TimelineDay
	Months    []MonthBand
	Bars      []TimelineBar
	// TodayIndex is the day-column index of today, or -1 when today
	// falls outside the window and the marker is omitted.
	TodayIndex int
}

// LayoutTimeline derives the calendar layout from a task set. Pure and
// cheap enough to recompute on every mirror change. Dates are assumed
// already validated at the write boundary; a task whose dates predate
// validation still degrades to a one-day bar rather than failing.
func LayoutTimeline(tasks []domain.Task, now time.Time, cfg TimelineConfig) TimelineLayout {
	if cfg.DayWidth <= 0 {
		cfg = DefaultTimelineConfig()
	}
	today := truncateDay(now)

	viewStart, viewEnd, dated := viewWindow(tasks, today, cfg)

	layout := TimelineLayout{
		ViewStart:  viewStart,
		ViewEnd:    viewEnd,
		DayWidth:   cfg.DayWidth,
		TodayIndex: -1,
	}

	for day := viewStart; !day.After(viewEnd); day = day.AddDate(0, 0, 1) {
		isToday := day.Equal(today)
		layout.Days = append(layout.Days, TimelineDay{
			Date:    day,
			Weekend: day.Weekday() == time.Saturday || day.Weekday() == time.Sunday,
			Today:   isToday,
		})
		if isToday {
			layout.TodayIndex = len(layout.Days) - 1
		}
		if n := len(layout.Months); n > 0 && layout.Months[n-1].Year == day.Year() && layout.Months[n-1].Month == day.Month() {
			layout.Months[n-1].Days++
		} else {
			layout.Months = append(layout.Months, MonthBand{Year: day.Year(), Month: day.Month(), Days: 1})
		}
	}

	if !dated {
		return layout
	}
	for _, task := range tasks {
		start, end, ok := barSpan(task)
		if !ok {
			continue
		}
		offsetDays := daysBetween(viewStart, start)
		durationDays := daysBetween(start, end)
		if durationDays < 1 {
			durationDays = 1
		}
		layout.Bars = append(layout.Bars, TimelineBar{
			TaskID:       task.ID,
			Title:        task.Title,
			State:        task.State,
			Priority:     task.Priority,
			OffsetDays:   offsetDays,
			DurationDays: durationDays,
			OffsetPx:     offsetDays * cfg.DayWidth,
			WidthPx:      durationDays * cfg.DayWidth,
			Overdue:      task.Overdue(today),
		})
	}
	return layout
}

// viewWindow computes the padded [viewStart, viewEnd] range. The window
// starts at today and is stretched by every dated task, then padded;
// with no dated tasks at all it runs EmptyHorizon days forward.
func viewWindow(tasks []domain.Task, today time.Time, cfg TimelineConfig) (time.Time, time.Time, bool) {
	lower, upper := today, today
	dated := false
	for _, task := range tasks {
		start, end, ok := barSpan(task)
		if !ok {
			continue
		}
		dated = true
		if start.Before(lower) {
			lower = start
		}
		if end.After(upper) {
			upper = end
		}
	}
	if !dated {
		return today, today.AddDate(0, 0, cfg.EmptyHorizon), false
	}
	return lower.AddDate(0, 0, -cfg.PadBefore), upper.AddDate(0, 0, cfg.PadAfter), true
}

// barSpan resolves the effective [start, end] of one task; a task with
// neither date produces no bar.
func barSpan(task domain.Task) (time.Time, time.Time, bool) {
	if task.StartDate == nil && task.DueDate == nil {
		return time.Time{}, time.Time{}, false
	}
	start := task.StartDate
	if start == nil {
		start = task.DueDate
	}
	end := task.DueDate
	if end == nil {
		end = task.StartDate
	}
	return truncateDay(*start), truncateDay(*end), true
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// truncateDay floors to midnight UTC.
func truncateDay(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
