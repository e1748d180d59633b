package app

import (
	"context"
	"strings"
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service wraps the persistence contract with validation, order-key
// allocation, and the board-controller move flow.
type Service struct {
	repo  Repository
	idGen IDGenerator
	clock Clock
}

// NewService constructs a new service.
func NewService(repo Repository, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:  repo,
		idGen: idGen,
		clock: clock,
	}
}

// CreateProcessInput holds input values for create process operations.
type CreateProcessInput struct {
	Name        string
	Description string
	Type        string
	Period      string
	StartDate   *time.Time
	DueDate     *time.Time
}

// CreateProcess creates a process.
func (s *Service) CreateProcess(ctx context.Context, in CreateProcessInput) (domain.Process, error) {
	process, err := domain.NewProcess(domain.ProcessInput{
		ID:          s.idGen(),
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Period:      in.Period,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
	}, s.clock())
	if err != nil {
		return domain.Process{}, err
	}
	if err := s.repo.CreateProcess(ctx, process); err != nil {
		return domain.Process{}, err
	}
	return process, nil
}

// ListProcesses lists processes.
func (s *Service) ListProcesses(ctx context.Context) ([]domain.Process, error) {
	return s.repo.ListProcesses(ctx)
}

// GetProcess returns one process.
func (s *Service) GetProcess(ctx context.Context, processID string) (domain.Process, error) {
	return s.repo.GetProcess(ctx, strings.TrimSpace(processID))
}

// UpdateProcessInput holds partial fields for the process editor; nil
// pointer fields are left unchanged.
type UpdateProcessInput struct {
	ProcessID   string
	Name        *string
	Description *string
	Type        *string
	Period      *string
	State       *domain.ProcessState
	StartDate   *time.Time
	DueDate     *time.Time
	ClearDates  bool
}

// UpdateProcess updates the process-level fields and state selector.
func (s *Service) UpdateProcess(ctx context.Context, in UpdateProcessInput) (domain.Process, error) {
	process, err := s.repo.GetProcess(ctx, in.ProcessID)
	if err != nil {
		return domain.Process{}, err
	}
	now := s.clock()

	name := process.Name
	if in.Name != nil {
		name = *in.Name
	}
	description := process.Description
	if in.Description != nil {
		description = *in.Description
	}
	procType := process.Type
	if in.Type != nil {
		procType = *in.Type
	}
	period := process.Period
	if in.Period != nil {
		period = *in.Period
	}
	if err := process.UpdateDetails(name, description, procType, period, now); err != nil {
		return domain.Process{}, err
	}
	if in.State != nil {
		if err := process.SetState(*in.State, now); err != nil {
			return domain.Process{}, err
		}
	}
	if in.ClearDates || in.StartDate != nil || in.DueDate != nil {
		start, due := process.StartDate, process.DueDate
		if in.ClearDates {
			start, due = nil, nil
		}
		if in.StartDate != nil {
			start = in.StartDate
		}
		if in.DueDate != nil {
			due = in.DueDate
		}
		if err := process.SetSchedule(start, due, now); err != nil {
			return domain.Process{}, err
		}
	}

	if err := s.repo.UpdateProcess(ctx, process); err != nil {
		return domain.Process{}, err
	}
	return process, nil
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	ProcessID   string
	Title       string
	Description string
	State       domain.TaskState
	Priority    domain.Priority
	Assignee    string
	StartDate   *time.Time
	DueDate     *time.Time
	Tags        []string
	Checklist   []domain.ChecklistItem
}

// CreateTask creates a task appended to the end of its column; new
// tasks land in pendiente unless the input says otherwise.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	if _, err := s.repo.GetProcess(ctx, strings.TrimSpace(in.ProcessID)); err != nil {
		return domain.Task{}, err
	}
	tasks, err := s.repo.ListTasksForProcess(ctx, in.ProcessID)
	if err != nil {
		return domain.Task{}, err
	}
	state := in.State
	if state == "" {
		state = domain.StatePendiente
	}

	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		ProcessID:   strings.TrimSpace(in.ProcessID),
		Title:       in.Title,
		Description: in.Description,
		State:       state,
		Priority:    in.Priority,
		Order:       AppendOrder(ColumnTasks(tasks, domain.NormalizeTaskState(state), "")),
		Assignee:    in.Assignee,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
		Checklist:   in.Checklist,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ListTasksForProcess lists a process's tasks in display order.
func (s *Service) ListTasksForProcess(ctx context.Context, processID string) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasksForProcess(ctx, strings.TrimSpace(processID))
	if err != nil {
		return nil, err
	}
	return NewTaskMirror(tasks).Snapshot(), nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, strings.TrimSpace(taskID))
}

// MoveTask persists one move: state and order always change together.
func (s *Service) MoveTask(ctx context.Context, taskID string, state domain.TaskState, order float64) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.Move(state, order, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DropTask runs the full drop flow against the store: plan the move,
// renumber the destination column first when its gap is exhausted, then
// persist. The boolean reports whether anything moved.
func (s *Service) DropTask(ctx context.Context, draggedID string, target DropTarget) (domain.Task, bool, error) {
	dragged, err := s.repo.GetTask(ctx, strings.TrimSpace(draggedID))
	if err != nil {
		return domain.Task{}, false, err
	}
	tasks, err := s.repo.ListTasksForProcess(ctx, dragged.ProcessID)
	if err != nil {
		return domain.Task{}, false, err
	}

	plan, moved, err := PlanDrop(tasks, dragged.ID, target)
	if err != nil || !moved {
		return domain.Task{}, false, err
	}
	if plan.NeedsRenumber {
		column := ColumnTasks(tasks, plan.ToState, dragged.ID)
		for _, changed := range RenumberColumn(column) {
			changed.UpdatedAt = s.clock().UTC()
			if err := s.repo.UpdateTask(ctx, changed); err != nil {
				return domain.Task{}, false, err
			}
		}
		tasks, err = s.repo.ListTasksForProcess(ctx, dragged.ProcessID)
		if err != nil {
			return domain.Task{}, false, err
		}
		plan, moved, err = PlanDrop(tasks, dragged.ID, target)
		if err != nil || !moved {
			return domain.Task{}, false, err
		}
	}

	task, err := s.MoveTask(ctx, plan.TaskID, plan.ToState, plan.ToOrder)
	if err != nil {
		return domain.Task{}, false, err
	}
	return task, true, nil
}

// UpdateTaskInput holds partial fields for the task editor; nil pointer
// fields are left unchanged, nil slices are left unchanged.
type UpdateTaskInput struct {
	TaskID         string
	Title          *string
	Description    *string
	Priority       *domain.Priority
	Assignee       *string
	Tags           []string
	StartDate      *time.Time
	DueDate        *time.Time
	ClearStartDate bool
	ClearDueDate   bool
	Checklist      []domain.ChecklistItem
}

// UpdateTask updates a task's editable fields.
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(in.TaskID))
	if err != nil {
		return domain.Task{}, err
	}
	now := s.clock()

	title := task.Title
	if in.Title != nil {
		title = *in.Title
	}
	description := task.Description
	if in.Description != nil {
		description = *in.Description
	}
	priority := task.Priority
	if in.Priority != nil {
		priority = *in.Priority
	}
	assignee := task.Assignee
	if in.Assignee != nil {
		assignee = *in.Assignee
	}
	tags := task.Tags
	if in.Tags != nil {
		tags = in.Tags
	}
	if err := task.UpdateDetails(title, description, priority, assignee, tags, now); err != nil {
		return domain.Task{}, err
	}

	if in.ClearStartDate || in.ClearDueDate || in.StartDate != nil || in.DueDate != nil {
		start, due := task.StartDate, task.DueDate
		if in.ClearStartDate {
			start = nil
		}
		if in.ClearDueDate {
			due = nil
		}
		if in.StartDate != nil {
			start = in.StartDate
		}
		if in.DueDate != nil {
			due = in.DueDate
		}
		if err := task.UpdateSchedule(start, due, now); err != nil {
			return domain.Task{}, err
		}
	}
	if in.Checklist != nil {
		task.SetChecklist(in.Checklist, now)
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task, irreversibly.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.ErrInvalidID
	}
	return s.repo.DeleteTask(ctx, taskID)
}

// ToggleChecklistItem flips one checklist entry by index.
func (s *Service) ToggleChecklistItem(ctx context.Context, taskID string, index int) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.ToggleChecklistItem(index, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ListComments lists a task's comments oldest first.
func (s *Service) ListComments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	return s.repo.ListComments(ctx, strings.TrimSpace(taskID))
}

// AddComment appends a markdown comment to a task.
func (s *Service) AddComment(ctx context.Context, taskID, authorName, bodyMarkdown string) (domain.Comment, error) {
	if _, err := s.repo.GetTask(ctx, strings.TrimSpace(taskID)); err != nil {
		return domain.Comment{}, err
	}
	comment, err := domain.NewComment(s.idGen(), taskID, authorName, bodyMarkdown, s.clock())
	if err != nil {
		return domain.Comment{}, err
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return domain.Comment{}, err
	}
	return comment, nil
}

// Timeline derives the calendar layout for one process's task set.
func (s *Service) Timeline(ctx context.Context, processID string, cfg TimelineConfig) (TimelineLayout, error) {
	tasks, err := s.repo.ListTasksForProcess(ctx, strings.TrimSpace(processID))
	if err != nil {
		return TimelineLayout{}, err
	}
	return LayoutTimeline(tasks, s.clock(), cfg), nil
}
