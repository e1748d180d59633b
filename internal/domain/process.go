package domain

import (
	"strings"
	"time"
)

// Process owns a collection of tasks; its lifecycle state is independent
// of the task board states.
type Process struct {
	ID          string
	Name        string
	Description string
	Type        string
	State       ProcessState
	Period      string
	StartDate   *time.Time
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProcessInput holds input values for process creation.
type ProcessInput struct {
	ID          string
	Name        string
	Description string
	Type        string
	State       ProcessState
	Period      string
	StartDate   *time.Time
	DueDate     *time.Time
}

// NewProcess constructs a normalized process.
func NewProcess(in ProcessInput, now time.Time) (Process, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" {
		return Process{}, ErrInvalidID
	}
	if in.Name == "" {
		return Process{}, ErrInvalidName
	}
	if in.State == "" {
		in.State = ProcessActivo
	}
	if !IsValidProcessState(in.State) {
		return Process{}, ErrInvalidState
	}
	start := normalizeDate(in.StartDate)
	due := normalizeDate(in.DueDate)
	if err := validateDateRange(start, due); err != nil {
		return Process{}, err
	}

	return Process{
		ID:          in.ID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Type:        strings.TrimSpace(in.Type),
		State:       in.State,
		Period:      strings.TrimSpace(in.Period),
		StartDate:   start,
		DueDate:     due,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// UpdateDetails updates the editable process fields.
func (p *Process) UpdateDetails(name, description, procType, period string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.Type = strings.TrimSpace(procType)
	p.Period = strings.TrimSpace(period)
	p.UpdatedAt = now.UTC()
	return nil
}

// SetState moves the process lifecycle selector.
func (p *Process) SetState(state ProcessState, now time.Time) error {
	if !IsValidProcessState(state) {
		return ErrInvalidState
	}
	p.State = state
	p.UpdatedAt = now.UTC()
	return nil
}

// SetSchedule replaces the process-level planning dates.
func (p *Process) SetSchedule(startDate, dueDate *time.Time, now time.Time) error {
	start := normalizeDate(startDate)
	due := normalizeDate(dueDate)
	if err := validateDateRange(start, due); err != nil {
		return err
	}
	p.StartDate = start
	p.DueDate = due
	p.UpdatedAt = now.UTC()
	return nil
}
