package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityUrgente Priority = "urgente"
	PriorityAlta    Priority = "alta"
	PriorityMedia   Priority = "media"
	PriorityBaja    Priority = "baja"
)

var validPriorities = []Priority{PriorityUrgente, PriorityAlta, PriorityMedia, PriorityBaja}

// PriorityRank orders priorities for display tie-breaks, most urgent first.
// Priority never affects workflow, only visual weight and default sort.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgente:
		return 0
	case PriorityAlta:
		return 1
	case PriorityMedia:
		return 2
	default:
		return 3
	}
}

// ChecklistItem is one checklist entry; order within the checklist is
// meaningful and fixed by index.
type ChecklistItem struct {
	Text string
	Done bool
}

type Task struct {
	ID          string
	ProcessID   string
	Title       string
	Description string
	State       TaskState
	Priority    Priority
	Order       float64
	Assignee    string
	StartDate   *time.Time
	DueDate     *time.Time
	Tags        []string
	Checklist   []ChecklistItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskInput struct {
	ID          string
	ProcessID   string
	Title       string
	Description string
	State       TaskState
	Priority    Priority
	Order       float64
	Assignee    string
	StartDate   *time.Time
	DueDate     *time.Time
	Tags        []string
	Checklist   []ChecklistItem
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProcessID = strings.TrimSpace(in.ProcessID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Assignee = strings.TrimSpace(in.Assignee)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.ProcessID == "" {
		return Task{}, ErrInvalidProcessID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}

	if in.State == "" {
		in.State = StatePendiente
	}
	in.State = NormalizeTaskState(in.State)
	if !IsValidTaskState(in.State) {
		return Task{}, ErrInvalidState
	}

	if in.Priority == "" {
		in.Priority = PriorityMedia
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Task{}, ErrInvalidPriority
	}

	start := normalizeDate(in.StartDate)
	due := normalizeDate(in.DueDate)
	if err := validateDateRange(start, due); err != nil {
		return Task{}, err
	}

	return Task{
		ID:          in.ID,
		ProcessID:   in.ProcessID,
		Title:       in.Title,
		Description: in.Description,
		State:       in.State,
		Priority:    in.Priority,
		Order:       in.Order,
		Assignee:    in.Assignee,
		StartDate:   start,
		DueDate:     due,
		Tags:        normalizeTags(in.Tags),
		Checklist:   normalizeChecklist(in.Checklist),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Move updates state and order together; a cross-column move without a
// valid order value would corrupt the destination column.
func (t *Task) Move(state TaskState, order float64, now time.Time) error {
	state = NormalizeTaskState(state)
	if !IsValidTaskState(state) {
		return ErrInvalidState
	}
	t.State = state
	t.Order = order
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) UpdateDetails(title, description string, priority Priority, assignee string, tags []string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	if !slices.Contains(validPriorities, priority) {
		return ErrInvalidPriority
	}
	t.Title = title
	t.Description = strings.TrimSpace(description)
	t.Priority = priority
	t.Assignee = strings.TrimSpace(assignee)
	t.Tags = normalizeTags(tags)
	t.UpdatedAt = now.UTC()
	return nil
}

// UpdateSchedule replaces both calendar dates. Validation happens here,
// at the write boundary, never at layout time.
func (t *Task) UpdateSchedule(startDate, dueDate *time.Time, now time.Time) error {
	start := normalizeDate(startDate)
	due := normalizeDate(dueDate)
	if err := validateDateRange(start, due); err != nil {
		return err
	}
	t.StartDate = start
	t.DueDate = due
	t.UpdatedAt = now.UTC()
	return nil
}

// SetChecklist replaces the checklist, preserving caller-supplied order.
func (t *Task) SetChecklist(items []ChecklistItem, now time.Time) {
	t.Checklist = normalizeChecklist(items)
	t.UpdatedAt = now.UTC()
}

// ToggleChecklistItem flips completion of the item at index.
func (t *Task) ToggleChecklistItem(index int, now time.Time) error {
	if index < 0 || index >= len(t.Checklist) {
		return ErrInvalidChecklistIndex
	}
	t.Checklist[index].Done = !t.Checklist[index].Done
	t.UpdatedAt = now.UTC()
	return nil
}

// Overdue reports whether the task should render as overdue. Display
// only: an overdue task never transitions state automatically.
func (t Task) Overdue(today time.Time) bool {
	if t.DueDate == nil || t.State == StateCompletada {
		return false
	}
	return t.DueDate.Before(dateOnly(today))
}

// dateOnly truncates to midnight UTC; start/due carry no time component.
func dateOnly(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizeDate(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	d := dateOnly(*ts)
	return &d
}

func validateDateRange(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func normalizeChecklist(items []ChecklistItem) []ChecklistItem {
	out := make([]ChecklistItem, 0, len(items))
	for _, item := range items {
		item.Text = strings.TrimSpace(item.Text)
		if item.Text == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
