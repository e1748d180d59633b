// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// dateLayout is the wire format for date-only fields.
const dateLayout = "2006-01-02"

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// BoardService captures the app operations exposed by transport adapters.
type BoardService interface {
	CreateProcess(context.Context, app.CreateProcessInput) (domain.Process, error)
	ListProcesses(context.Context) ([]domain.Process, error)
	GetProcess(context.Context, string) (domain.Process, error)
	UpdateProcess(context.Context, app.UpdateProcessInput) (domain.Process, error)

	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	ListTasksForProcess(context.Context, string) ([]domain.Task, error)
	GetTask(context.Context, string) (domain.Task, error)
	MoveTask(context.Context, string, domain.TaskState, float64) (domain.Task, error)
	DropTask(context.Context, string, app.DropTarget) (domain.Task, bool, error)
	UpdateTask(context.Context, app.UpdateTaskInput) (domain.Task, error)
	DeleteTask(context.Context, string) error
	ToggleChecklistItem(context.Context, string, int) (domain.Task, error)

	ListComments(context.Context, string) ([]domain.Comment, error)
	AddComment(context.Context, string, string, string) (domain.Comment, error)

	Timeline(context.Context, string, app.TimelineConfig) (app.TimelineLayout, error)
}

// ProcessDTO is the wire representation of one process.
type ProcessDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	State       string `json:"state"`
	Period      string `json:"period,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ChecklistItemDTO is the wire representation of one checklist entry.
type ChecklistItemDTO struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TaskDTO is the wire representation of one task.
type TaskDTO struct {
	ID          string             `json:"id"`
	ProcessID   string             `json:"process_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	State       string             `json:"state"`
	Priority    string             `json:"priority"`
	Order       float64            `json:"order"`
	Assignee    string             `json:"assignee,omitempty"`
	StartDate   string             `json:"start_date,omitempty"`
	DueDate     string             `json:"due_date,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Checklist   []ChecklistItemDTO `json:"checklist,omitempty"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
}

// CommentDTO is the wire representation of one comment.
type CommentDTO struct {
	ID           string `json:"id"`
	TaskID       string `json:"task_id"`
	AuthorName   string `json:"author_name"`
	BodyMarkdown string `json:"body_markdown"`
	CreatedAt    string `json:"created_at"`
}

// TimelineDayDTO is the wire representation of one day cell.
type TimelineDayDTO struct {
	Date    string `json:"date"`
	Weekend bool   `json:"weekend"`
	Today   bool   `json:"today"`
}

// MonthBandDTO is the wire representation of one month header band.
type MonthBandDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Days  int `json:"days"`
}

// TimelineBarDTO is the wire representation of one task bar.
type TimelineBarDTO struct {
	TaskID       string `json:"task_id"`
	Title        string `json:"title"`
	State        string `json:"state"`
	Priority     string `json:"priority"`
	OffsetDays   int    `json:"offset_days"`
	DurationDays int    `json:"duration_days"`
	OffsetPx     int    `json:"offset_px"`
	WidthPx      int    `json:"width_px"`
	Overdue      bool   `json:"overdue"`
}

// TimelineDTO is the wire representation of one layout result.
type TimelineDTO struct {
	ViewStart  string           `json:"view_start"`
	ViewEnd    string           `json:"view_end"`
	DayWidth   int              `json:"day_width"`
	TodayIndex int              `json:"today_index"`
	Days       []TimelineDayDTO `json:"days"`
	Months     []MonthBandDTO   `json:"months"`
	Bars       []TimelineBarDTO `json:"bars"`
}

// NewProcessDTO converts one domain process for the wire.
func NewProcessDTO(p domain.Process) ProcessDTO {
	return ProcessDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		State:       string(p.State),
		Period:      p.Period,
		StartDate:   formatDate(p.StartDate),
		DueDate:     formatDate(p.DueDate),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewTaskDTO converts one domain task for the wire.
func NewTaskDTO(t domain.Task) TaskDTO {
	checklist := make([]ChecklistItemDTO, 0, len(t.Checklist))
	for _, item := range t.Checklist {
		checklist = append(checklist, ChecklistItemDTO{Text: item.Text, Done: item.Done})
	}
	return TaskDTO{
		ID:          t.ID,
		ProcessID:   t.ProcessID,
		Title:       t.Title,
		Description: t.Description,
		State:       string(t.State),
		Priority:    string(t.Priority),
		Order:       t.Order,
		Assignee:    t.Assignee,
		StartDate:   formatDate(t.StartDate),
		DueDate:     formatDate(t.DueDate),
		Tags:        t.Tags,
		Checklist:   checklist,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewTaskDTOs converts a slice of domain tasks for the wire.
func NewTaskDTOs(tasks []domain.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskDTO(t))
	}
	return out
}

// NewCommentDTO converts one domain comment for the wire.
func NewCommentDTO(c domain.Comment) CommentDTO {
	return CommentDTO{
		ID:           c.ID,
		TaskID:       c.TaskID,
		AuthorName:   c.AuthorName,
		BodyMarkdown: c.BodyMarkdown,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewTimelineDTO converts one layout result for the wire.
func NewTimelineDTO(layout app.TimelineLayout) TimelineDTO {
	days := make([]TimelineDayDTO, 0, len(layout.Days))
	for _, d := range layout.Days {
		days = append(days, TimelineDayDTO{
			Date:    d.Date.Format(dateLayout),
			Weekend: d.Weekend,
			Today:   d.Today,
		})
	}
	months := make([]MonthBandDTO, 0, len(layout.Months))
	for _, m := range layout.Months {
		months = append(months, MonthBandDTO{Year: m.Year, Month: int(m.Month), Days: m.Days})
	}
	bars := make([]TimelineBarDTO, 0, len(layout.Bars))
	for _, b := range layout.Bars {
		bars = append(bars, TimelineBarDTO{
			TaskID:       b.TaskID,
			Title:        b.Title,
			State:        string(b.State),
			Priority:     string(b.Priority),
			OffsetDays:   b.OffsetDays,
			DurationDays: b.DurationDays,
			OffsetPx:     b.OffsetPx,
			WidthPx:      b.WidthPx,
			Overdue:      b.Overdue,
		})
	}
	return TimelineDTO{
		ViewStart:  layout.ViewStart.Format(dateLayout),
		ViewEnd:    layout.ViewEnd.Format(dateLayout),
		DayWidth:   layout.DayWidth,
		TodayIndex: layout.TodayIndex,
		Days:       days,
		Months:     months,
		Bars:       bars,
	}
}

// CreateProcessRequest captures transport input for new processes.
type CreateProcessRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Period      string `json:"period,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// ToInput converts the request into app input.
func (r CreateProcessRequest) ToInput() (app.CreateProcessInput, error) {
	start, err := parseOptionalDate("start_date", r.StartDate)
	if err != nil {
		return app.CreateProcessInput{}, err
	}
	due, err := parseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return app.CreateProcessInput{}, err
	}
	return app.CreateProcessInput{
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Period:      r.Period,
		StartDate:   start,
		DueDate:     due,
	}, nil
}

// UpdateProcessRequest captures partial process edits; nil fields stay unchanged.
type UpdateProcessRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
	Period      *string `json:"period,omitempty"`
	State       *string `json:"state,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	ClearDates  bool    `json:"clear_dates,omitempty"`
}

// ToInput converts the request into app input for processID.
func (r UpdateProcessRequest) ToInput(processID string) (app.UpdateProcessInput, error) {
	in := app.UpdateProcessInput{
		ProcessID:   processID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Period:      r.Period,
		ClearDates:  r.ClearDates,
	}
	if r.State != nil {
		state := domain.ProcessState(strings.TrimSpace(*r.State))
		in.State = &state
	}
	if r.StartDate != nil {
		start, err := parseOptionalDate("start_date", *r.StartDate)
		if err != nil {
			return app.UpdateProcessInput{}, err
		}
		in.StartDate = start
	}
	if r.DueDate != nil {
		due, err := parseOptionalDate("due_date", *r.DueDate)
		if err != nil {
			return app.UpdateProcessInput{}, err
		}
		in.DueDate = due
	}
	return in, nil
}

// CreateTaskRequest captures transport input for new tasks.
type CreateTaskRequest struct {
	ProcessID   string             `json:"process_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	State       string             `json:"state,omitempty"`
	Priority    string             `json:"priority,omitempty"`
	Assignee    string             `json:"assignee,omitempty"`
	StartDate   string             `json:"start_date,omitempty"`
	DueDate     string             `json:"due_date,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Checklist   []ChecklistItemDTO `json:"checklist,omitempty"`
}

// ToInput converts the request into app input.
func (r CreateTaskRequest) ToInput() (app.CreateTaskInput, error) {
	start, err := parseOptionalDate("start_date", r.StartDate)
	if err != nil {
		return app.CreateTaskInput{}, err
	}
	due, err := parseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return app.CreateTaskInput{}, err
	}
	checklist := make([]domain.ChecklistItem, 0, len(r.Checklist))
	for _, item := range r.Checklist {
		checklist = append(checklist, domain.ChecklistItem{Text: item.Text, Done: item.Done})
	}
	return app.CreateTaskInput{
		ProcessID:   r.ProcessID,
		Title:       r.Title,
		Description: r.Description,
		State:       domain.TaskState(strings.TrimSpace(r.State)),
		Priority:    domain.Priority(strings.TrimSpace(r.Priority)),
		Assignee:    r.Assignee,
		StartDate:   start,
		DueDate:     due,
		Tags:        r.Tags,
		Checklist:   checklist,
	}, nil
}

// UpdateTaskRequest captures partial task edits; nil fields stay unchanged.
type UpdateTaskRequest struct {
	Title          *string            `json:"title,omitempty"`
	Description    *string            `json:"description,omitempty"`
	Priority       *string            `json:"priority,omitempty"`
	Assignee       *string            `json:"assignee,omitempty"`
	Tags           []string           `json:"tags,omitempty"`
	Checklist      []ChecklistItemDTO `json:"checklist,omitempty"`
	StartDate      *string            `json:"start_date,omitempty"`
	DueDate        *string            `json:"due_date,omitempty"`
	ClearStartDate bool               `json:"clear_start_date,omitempty"`
	ClearDueDate   bool               `json:"clear_due_date,omitempty"`
}

// ToInput converts the request into app input for taskID.
func (r UpdateTaskRequest) ToInput(taskID string) (app.UpdateTaskInput, error) {
	in := app.UpdateTaskInput{
		TaskID:         taskID,
		Title:          r.Title,
		Description:    r.Description,
		Assignee:       r.Assignee,
		Tags:           r.Tags,
		ClearStartDate: r.ClearStartDate,
		ClearDueDate:   r.ClearDueDate,
	}
	if r.Priority != nil {
		priority := domain.Priority(strings.TrimSpace(*r.Priority))
		in.Priority = &priority
	}
	if r.Checklist != nil {
		checklist := make([]domain.ChecklistItem, 0, len(r.Checklist))
		for _, item := range r.Checklist {
			checklist = append(checklist, domain.ChecklistItem{Text: item.Text, Done: item.Done})
		}
		in.Checklist = checklist
	}
	if r.StartDate != nil {
		start, err := parseOptionalDate("start_date", *r.StartDate)
		if err != nil {
			return app.UpdateTaskInput{}, err
		}
		in.StartDate = start
	}
	if r.DueDate != nil {
		due, err := parseOptionalDate("due_date", *r.DueDate)
		if err != nil {
			return app.UpdateTaskInput{}, err
		}
		in.DueDate = due
	}
	return in, nil
}

// MoveTaskRequest captures an explicit state plus order move.
type MoveTaskRequest struct {
	State string   `json:"state"`
	Order *float64 `json:"order,omitempty"`
}

// DropTaskRequest captures a drop-resolution move. Either target_task_id
// or target_state must be set.
type DropTaskRequest struct {
	TargetTaskID string `json:"target_task_id,omitempty"`
	TargetState  string `json:"target_state,omitempty"`
}

// ToTarget converts the request into a drop target.
func (r DropTaskRequest) ToTarget() (app.DropTarget, error) {
	taskID := strings.TrimSpace(r.TargetTaskID)
	state := strings.TrimSpace(r.TargetState)
	switch {
	case taskID != "":
		return app.DropOnTask(taskID), nil
	case state != "":
		return app.DropOnColumn(domain.TaskState(state)), nil
	default:
		return app.DropTarget{}, fmt.Errorf("target_task_id or target_state is required: %w", ErrInvalidRequest)
	}
}

// AddCommentRequest captures transport input for new comments.
type AddCommentRequest struct {
	AuthorName   string `json:"author_name,omitempty"`
	BodyMarkdown string `json:"body_markdown"`
}

// ToggleChecklistRequest captures one checklist toggle by index.
type ToggleChecklistRequest struct {
	Index int `json:"index"`
}

// formatDate renders one optional date as YYYY-MM-DD, or "" when unset.
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// parseOptionalDate parses one optional YYYY-MM-DD wire value.
func parseOptionalDate(field string, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD: %w", field, ErrInvalidRequest)
	}
	return &parsed, nil
}
