package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
	"github.com/atotto/clipboard"
)

// Service represents service data used by this package.
type Service interface {
	ListProcesses(context.Context) ([]domain.Process, error)
	CreateProcess(context.Context, app.CreateProcessInput) (domain.Process, error)
	ListTasksForProcess(context.Context, string) ([]domain.Task, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	UpdateTask(context.Context, app.UpdateTaskInput) (domain.Task, error)
	MoveTask(context.Context, string, domain.TaskState, float64) (domain.Task, error)
	DropTask(context.Context, string, app.DropTarget) (domain.Task, bool, error)
	DeleteTask(context.Context, string) error
	ToggleChecklistItem(context.Context, string, int) (domain.Task, error)
	ListComments(context.Context, string) ([]domain.Comment, error)
	AddComment(context.Context, string, string, string) (domain.Comment, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddTask
	modeEditTask
	modeAddProcess
	modeTaskInfo
	modeTimeline
	modeComment
	modeConfirmDelete
)

// task-form field indexes used throughout keyboard/update logic.
const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldPriority
	taskFieldAssignee
	taskFieldTags
	taskFieldStart
	taskFieldDue
	taskFieldCount
)

// process-form field indexes used for focused form actions.
const (
	processFieldName = iota
	processFieldType
	processFieldPeriod
	processFieldStart
	processFieldDue
	processFieldCount
)

// priorityOptions stores the priority cycle order for the task form.
var priorityOptions = []domain.Priority{
	domain.PriorityUrgente,
	domain.PriorityAlta,
	domain.PriorityMedia,
	domain.PriorityBaja,
}

// stateLabels stores display labels for the board columns.
var stateLabels = map[domain.TaskState]string{
	domain.StatePendiente:  "Pendiente",
	domain.StateEnProgreso: "En Progreso",
	domain.StateEnRevision: "En Revisión",
	domain.StateCompletada: "Completada",
	domain.StateBloqueada:  "Bloqueada",
}

type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	fields      FieldConfig
	timelineCfg app.TimelineConfig
	authorName  string

	clock    func() time.Time
	copyText func(string) error

	processes       []domain.Process
	selectedProcess int
	mirror          *app.TaskMirror
	states          []domain.TaskState
	selectedColumn  int
	selectedTask    int

	grabbedTaskID string

	mode          inputMode
	formInputs    []textinput.Model
	formFocus     int
	priorityIdx   int
	editingTaskID string

	infoTaskID   string
	infoItemIdx  int
	comments     []domain.Comment
	commentInput textinput.Model

	confirmTaskID string

	markdown markdownRenderer
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	processes       []domain.Process
	selectedProcess int
	tasks           []domain.Task
	err             error
}

// moveResultMsg reports one persisted move for reconcile/rollback handling.
type moveResultMsg struct {
	taskID string
	reload bool
	err    error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	err         error
	status      string
	reload      bool
	processID   string
	focusTaskID string
}

// commentsMsg carries one task's comment thread.
type commentsMsg struct {
	taskID   string
	comments []domain.Comment
	err      error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	commentInput := textinput.New()
	commentInput.Prompt = "> "
	commentInput.Placeholder = "markdown comment"
	commentInput.CharLimit = 500

	m := Model{
		svc:          svc,
		status:       "loading...",
		help:         h,
		keys:         newKeyMap(),
		fields:       DefaultFieldConfig(),
		timelineCfg:  app.DefaultTimelineConfig(),
		authorName:   "tablero-user",
		clock:        time.Now,
		copyText:     clipboard.WriteAll,
		mirror:       app.NewTaskMirror(nil),
		states:       domain.BoardStates(),
		commentInput: commentInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.processes = msg.processes
		m.selectedProcess = msg.selectedProcess
		m.mirror.Replace(msg.tasks)
		if len(m.processes) == 0 {
			m.selectedProcess = 0
			m.selectedColumn = 0
			m.selectedTask = 0
			if m.mode == modeNone {
				m.status = "create your first process"
				cmd := m.startProcessForm()
				return m, cmd
			}
			return m, nil
		}
		m.clampSelections()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case moveResultMsg:
		if msg.err != nil {
			if m.mirror.Rollback(msg.taskID) {
				m.status = "move failed, restored: " + msg.err.Error()
			} else {
				m.status = "move failed: " + msg.err.Error()
			}
			m.clampSelections()
			return m, nil
		}
		m.mirror.Reconcile(msg.taskID)
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.focusTaskByID(msg.focusTaskID)
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case commentsMsg:
		if msg.err != nil {
			m.status = "comments unavailable: " + msg.err.Error()
			return m, nil
		}
		if msg.taskID == m.infoTaskID {
			m.comments = msg.comments
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	processes, err := m.svc.ListProcesses(context.Background())
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(processes) == 0 {
		return loadedMsg{processes: processes}
	}
	idx := clamp(m.selectedProcess, 0, len(processes)-1)
	tasks, err := m.svc.ListTasksForProcess(context.Background(), processes[idx].ID)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{processes: processes, selectedProcess: idx, tasks: tasks}
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case msg.String() == "esc":
		if m.grabbedTaskID != "" {
			m.grabbedTaskID = ""
			m.status = "grab cancelled"
			return m, nil
		}
		if m.help.ShowAll {
			m.help.ShowAll = false
		}
		return m, nil

	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData

	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedTask = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.states)-1 {
			m.selectedColumn++
			m.selectedTask = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.moveDown):
		if tasks := m.currentColumnTasks(); len(tasks) > 0 && m.selectedTask < len(tasks)-1 {
			m.selectedTask++
		}
		return m, nil

	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil

	case key.Matches(msg, m.keys.grabTask):
		return m.handleGrabOrDrop()

	case key.Matches(msg, m.keys.moveTaskLeft):
		return m.dropIntoAdjacentColumn(-1)

	case key.Matches(msg, m.keys.moveTaskRight):
		return m.dropIntoAdjacentColumn(1)

	case key.Matches(msg, m.keys.nextProcess):
		if len(m.processes) > 1 {
			m.selectedProcess = (m.selectedProcess + 1) % len(m.processes)
			m.selectedColumn = 0
			m.selectedTask = 0
			m.grabbedTaskID = ""
			return m, m.loadData
		}
		return m, nil

	case key.Matches(msg, m.keys.prevProcess):
		if len(m.processes) > 1 {
			m.selectedProcess = (m.selectedProcess - 1 + len(m.processes)) % len(m.processes)
			m.selectedColumn = 0
			m.selectedTask = 0
			m.grabbedTaskID = ""
			return m, m.loadData
		}
		return m, nil

	case key.Matches(msg, m.keys.addTask):
		if len(m.processes) == 0 {
			m.status = "create a process first"
			return m, nil
		}
		cmd := m.startTaskForm(nil)
		return m, cmd

	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		cmd := m.startTaskForm(&task)
		return m, cmd

	case key.Matches(msg, m.keys.newProcess):
		cmd := m.startProcessForm()
		return m, cmd

	case key.Matches(msg, m.keys.taskInfo):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.infoTaskID = task.ID
		m.infoItemIdx = 0
		m.comments = nil
		return m, m.loadComments(task.ID)

	case key.Matches(msg, m.keys.timelineView):
		m.mode = modeTimeline
		m.status = "timeline"
		return m, nil

	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.confirmTaskID = task.ID
		return m, nil

	case key.Matches(msg, m.keys.yankTask):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if err := m.copyText(task.ID + " " + task.Title); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied " + task.ID
		return m, nil

	default:
		return m, nil
	}
}

// handleGrabOrDrop toggles the drag state and resolves the drop when a task is held.
func (m Model) handleGrabOrDrop() (tea.Model, tea.Cmd) {
	if m.grabbedTaskID == "" {
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task to grab"
			return m, nil
		}
		m.grabbedTaskID = task.ID
		m.status = "moving: " + truncate(task.Title, 32)
		return m, nil
	}

	target := app.DropOnColumn(m.states[m.selectedColumn])
	if sibling, ok := m.selectedTaskInCurrentColumn(); ok && sibling.ID != m.grabbedTaskID {
		target = app.DropOnTask(sibling.ID)
	}
	dragged := m.grabbedTaskID
	m.grabbedTaskID = ""
	return m.applyDrop(dragged, target)
}

// dropIntoAdjacentColumn appends the selected task to the neighbor column.
func (m Model) dropIntoAdjacentColumn(delta int) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTaskInCurrentColumn()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	destIdx := m.selectedColumn + delta
	if destIdx < 0 || destIdx >= len(m.states) {
		return m, nil
	}
	return m.applyDrop(task.ID, app.DropOnColumn(m.states[destIdx]))
}

// applyDrop plans the move, applies it optimistically, and persists it in the background.
func (m Model) applyDrop(draggedID string, target app.DropTarget) (tea.Model, tea.Cmd) {
	plan, ok, err := app.PlanDrop(m.mirror.Snapshot(), draggedID, target)
	if err != nil {
		m.status = "move rejected: " + err.Error()
		return m, nil
	}
	if !ok {
		m.status = "ready"
		return m, nil
	}
	if err := m.mirror.ApplyMove(plan, m.clock()); err != nil {
		m.status = "move rejected: " + err.Error()
		return m, nil
	}
	m.clampSelections()
	m.status = "ready"
	return m, m.persistMove(draggedID, plan, target)
}

// persistMove writes one optimistic move behind the board. Renumber moves
// go through the drop flow so the whole column is rewritten consistently.
func (m Model) persistMove(taskID string, plan app.MovePlan, target app.DropTarget) tea.Cmd {
	return func() tea.Msg {
		if plan.NeedsRenumber {
			_, _, err := m.svc.DropTask(context.Background(), taskID, target)
			return moveResultMsg{taskID: taskID, reload: true, err: err}
		}
		_, err := m.svc.MoveTask(context.Background(), taskID, plan.ToState, plan.ToOrder)
		return moveResultMsg{taskID: taskID, err: err}
	}
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddTask, modeEditTask:
		return m.handleTaskFormKey(msg)
	case modeAddProcess:
		return m.handleProcessFormKey(msg)
	case modeTaskInfo:
		return m.handleTaskInfoKey(msg)
	case modeTimeline:
		switch msg.String() {
		case "esc", "q", "t":
			m.mode = modeNone
			m.status = "ready"
		}
		return m, nil
	case modeComment:
		return m.handleCommentKey(msg)
	case modeConfirmDelete:
		switch msg.String() {
		case "y", "enter":
			taskID := m.confirmTaskID
			m.confirmTaskID = ""
			m.mode = modeNone
			m.mirror.ApplyDelete(taskID)
			m.clampSelections()
			return m, m.deleteTaskCmd(taskID)
		case "n", "esc":
			m.confirmTaskID = ""
			m.mode = modeNone
			m.status = "ready"
		}
		return m, nil
	default:
		m.mode = modeNone
		return m, nil
	}
}

// handleTaskInfoKey handles keys inside the task detail modal.
func (m Model) handleTaskInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	task, ok := m.mirror.Get(m.infoTaskID)
	if !ok {
		m.mode = modeNone
		return m, nil
	}
	switch {
	case msg.String() == "esc" || msg.String() == "q":
		m.mode = modeNone
		m.infoTaskID = ""
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if len(task.Checklist) > 0 && m.infoItemIdx < len(task.Checklist)-1 {
			m.infoItemIdx++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.infoItemIdx > 0 {
			m.infoItemIdx--
		}
		return m, nil
	case key.Matches(msg, m.keys.toggleItem):
		if len(task.Checklist) == 0 {
			return m, nil
		}
		return m, m.toggleChecklistCmd(task.ID, m.infoItemIdx)
	case key.Matches(msg, m.keys.addComment):
		m.mode = modeComment
		m.commentInput.SetValue("")
		cmd := m.commentInput.Focus()
		return m, cmd
	default:
		return m, nil
	}
}

// handleCommentKey handles the comment composer.
func (m Model) handleCommentKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeTaskInfo
		m.commentInput.Blur()
		return m, nil
	case "enter":
		body := strings.TrimSpace(m.commentInput.Value())
		if body == "" {
			return m, nil
		}
		taskID := m.infoTaskID
		m.mode = modeTaskInfo
		m.commentInput.Blur()
		return m, m.addCommentCmd(taskID, body)
	default:
		var cmd tea.Cmd
		m.commentInput, cmd = m.commentInput.Update(msg)
		return m, cmd
	}
}

// handleTaskFormKey handles the add/edit task form.
func (m Model) handleTaskFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.editingTaskID = ""
		m.status = "ready"
		return m, nil
	case "tab", "down":
		cmd := m.focusFormField((m.formFocus + 1) % taskFieldCount)
		return m, cmd
	case "shift+tab", "backtab", "up":
		cmd := m.focusFormField((m.formFocus - 1 + taskFieldCount) % taskFieldCount)
		return m, cmd
	case "left", "right":
		if m.formFocus == taskFieldPriority {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.priorityIdx = (m.priorityIdx + delta + len(priorityOptions)) % len(priorityOptions)
			return m, nil
		}
	case "enter":
		return m.submitTaskForm()
	}
	if m.formFocus == taskFieldPriority {
		return m, nil
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// handleProcessFormKey handles the add process form.
func (m Model) handleProcessFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if len(m.processes) == 0 {
			return m, tea.Quit
		}
		m.mode = modeNone
		m.status = "ready"
		return m, nil
	case "tab", "down":
		cmd := m.focusFormField((m.formFocus + 1) % processFieldCount)
		return m, cmd
	case "shift+tab", "backtab", "up":
		cmd := m.focusFormField((m.formFocus - 1 + processFieldCount) % processFieldCount)
		return m, cmd
	case "enter":
		return m.submitProcessForm()
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// startTaskForm opens the form, prefilled when editing.
func (m *Model) startTaskForm(task *domain.Task) tea.Cmd {
	labels := []string{"title", "description", "priority", "assignee", "tags (comma separated)", "start (YYYY-MM-DD)", "due (YYYY-MM-DD)"}
	m.formInputs = make([]textinput.Model, taskFieldCount)
	for i := range m.formInputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = labels[i]
		ti.CharLimit = 200
		m.formInputs[i] = ti
	}
	m.priorityIdx = indexOfPriority(domain.PriorityMedia)
	m.editingTaskID = ""
	if task != nil {
		m.editingTaskID = task.ID
		m.formInputs[taskFieldTitle].SetValue(task.Title)
		m.formInputs[taskFieldDescription].SetValue(task.Description)
		m.formInputs[taskFieldAssignee].SetValue(task.Assignee)
		m.formInputs[taskFieldTags].SetValue(strings.Join(task.Tags, ", "))
		if task.StartDate != nil {
			m.formInputs[taskFieldStart].SetValue(task.StartDate.Format("2006-01-02"))
		}
		if task.DueDate != nil {
			m.formInputs[taskFieldDue].SetValue(task.DueDate.Format("2006-01-02"))
		}
		m.priorityIdx = indexOfPriority(task.Priority)
		m.mode = modeEditTask
	} else {
		m.mode = modeAddTask
	}
	return m.focusFormField(taskFieldTitle)
}

// startProcessForm opens the new process form.
func (m *Model) startProcessForm() tea.Cmd {
	labels := []string{"name", "type (e.g. cierre_mensual)", "period (e.g. 2026-03)", "start (YYYY-MM-DD)", "due (YYYY-MM-DD)"}
	m.formInputs = make([]textinput.Model, processFieldCount)
	for i := range m.formInputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = labels[i]
		ti.CharLimit = 200
		m.formInputs[i] = ti
	}
	m.mode = modeAddProcess
	return m.focusFormField(processFieldName)
}

// focusFormField moves form focus.
func (m *Model) focusFormField(idx int) tea.Cmd {
	if idx < 0 || idx >= len(m.formInputs) {
		return nil
	}
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.formFocus = idx
	return m.formInputs[idx].Focus()
}

// submitTaskForm validates and persists the task form.
func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.formInputs[taskFieldTitle].Value())
	if title == "" {
		m.status = "title is required"
		return m, nil
	}
	start, err := parseFormDate(m.formInputs[taskFieldStart].Value())
	if err != nil {
		m.status = "start date must be YYYY-MM-DD"
		return m, nil
	}
	due, err := parseFormDate(m.formInputs[taskFieldDue].Value())
	if err != nil {
		m.status = "due date must be YYYY-MM-DD"
		return m, nil
	}
	description := strings.TrimSpace(m.formInputs[taskFieldDescription].Value())
	assignee := strings.TrimSpace(m.formInputs[taskFieldAssignee].Value())
	tags := splitTags(m.formInputs[taskFieldTags].Value())
	priority := priorityOptions[m.priorityIdx]

	editingID := m.editingTaskID
	m.mode = modeNone
	m.editingTaskID = ""
	m.status = "saving..."

	if editingID != "" {
		in := app.UpdateTaskInput{
			TaskID:         editingID,
			Title:          &title,
			Description:    &description,
			Priority:       &priority,
			Assignee:       &assignee,
			Tags:           tags,
			StartDate:      start,
			DueDate:        due,
			ClearStartDate: start == nil,
			ClearDueDate:   due == nil,
		}
		return m, func() tea.Msg {
			task, err := m.svc.UpdateTask(context.Background(), in)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "task updated", reload: true, focusTaskID: task.ID}
		}
	}

	in := app.CreateTaskInput{
		ProcessID:   m.processes[m.selectedProcess].ID,
		Title:       title,
		Description: description,
		State:       m.states[m.selectedColumn],
		Priority:    priority,
		Assignee:    assignee,
		Tags:        tags,
		StartDate:   start,
		DueDate:     due,
	}
	return m, func() tea.Msg {
		task, err := m.svc.CreateTask(context.Background(), in)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "task created", reload: true, focusTaskID: task.ID}
	}
}

// submitProcessForm validates and persists the process form.
func (m Model) submitProcessForm() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.formInputs[processFieldName].Value())
	if name == "" {
		m.status = "name is required"
		return m, nil
	}
	start, err := parseFormDate(m.formInputs[processFieldStart].Value())
	if err != nil {
		m.status = "start date must be YYYY-MM-DD"
		return m, nil
	}
	due, err := parseFormDate(m.formInputs[processFieldDue].Value())
	if err != nil {
		m.status = "due date must be YYYY-MM-DD"
		return m, nil
	}
	in := app.CreateProcessInput{
		Name:      name,
		Type:      strings.TrimSpace(m.formInputs[processFieldType].Value()),
		Period:    strings.TrimSpace(m.formInputs[processFieldPeriod].Value()),
		StartDate: start,
		DueDate:   due,
	}
	m.mode = modeNone
	m.status = "saving..."
	return m, func() tea.Msg {
		process, err := m.svc.CreateProcess(context.Background(), in)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "process created", reload: true, processID: process.ID}
	}
}

// deleteTaskCmd persists one optimistic delete.
func (m Model) deleteTaskCmd(taskID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.DeleteTask(context.Background(), taskID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "task deleted", reload: true}
	}
}

// toggleChecklistCmd persists one checklist toggle and refreshes the mirror row.
func (m Model) toggleChecklistCmd(taskID string, index int) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.ToggleChecklistItem(context.Background(), taskID, index); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "checklist updated", reload: true, focusTaskID: taskID}
	}
}

// loadComments fetches one task's comment thread.
func (m Model) loadComments(taskID string) tea.Cmd {
	return func() tea.Msg {
		comments, err := m.svc.ListComments(context.Background(), taskID)
		return commentsMsg{taskID: taskID, comments: comments, err: err}
	}
}

// addCommentCmd persists one comment and refreshes the thread.
func (m Model) addCommentCmd(taskID, body string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.AddComment(context.Background(), taskID, m.authorName, body); err != nil {
			return commentsMsg{taskID: taskID, err: err}
		}
		comments, err := m.svc.ListComments(context.Background(), taskID)
		return commentsMsg{taskID: taskID, comments: comments, err: err}
	}
}

// currentColumnTasks returns the selected column's tasks in display order.
func (m Model) currentColumnTasks() []domain.Task {
	if m.selectedColumn < 0 || m.selectedColumn >= len(m.states) {
		return nil
	}
	return m.mirror.Column(m.states[m.selectedColumn])
}

// selectedTaskInCurrentColumn resolves the cursor to one task.
func (m Model) selectedTaskInCurrentColumn() (domain.Task, bool) {
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 || m.selectedTask < 0 || m.selectedTask >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.selectedTask], true
}

// focusTaskByID moves the cursor onto taskID wherever it landed.
func (m *Model) focusTaskByID(taskID string) {
	for colIdx, state := range m.states {
		for taskIdx, task := range m.mirror.Column(state) {
			if task.ID == taskID {
				m.selectedColumn = colIdx
				m.selectedTask = taskIdx
				return
			}
		}
	}
}

// clampSelections keeps cursor indices inside the loaded board.
func (m *Model) clampSelections() {
	m.selectedColumn = clamp(m.selectedColumn, 0, max(0, len(m.states)-1))
	tasks := m.currentColumnTasks()
	m.selectedTask = clamp(m.selectedTask, 0, max(0, len(tasks)-1))
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("tablero")
	if len(m.processes) > 0 {
		process := m.processes[clamp(m.selectedProcess, 0, len(m.processes)-1)]
		header += "  " + process.Name
		if process.Period != "" {
			header += statusStyle.Render("  " + process.Period)
		}
		header += statusStyle.Render("  [" + string(process.State) + "]")
	}

	var body string
	switch m.mode {
	case modeTimeline:
		body = m.renderTimeline(accent, muted, dim)
	default:
		body = m.renderBoard(accent, muted, dim)
	}

	sections := []string{header, "", body}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, max(0, m.height-helpHeight))
	}

	fullContent := content + "\n" + helpLine
	if overlay := m.renderModeOverlay(accent, muted, dim); overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	v := tea.NewView(fullContent)
	v.AltScreen = true
	return v
}

// renderBoard renders the five state columns.
func (m Model) renderBoard(accent, muted, dim color.Color) string {
	colWidth := max(16, (m.width-2)/max(1, len(m.states))-4)
	colHeight := max(8, m.height-8)

	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	grabbedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)

	columnViews := make([]string, 0, len(m.states))
	for colIdx, state := range m.states {
		colTasks := m.mirror.Column(state)
		lines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", stateLabels[state], len(colTasks)))}

		if len(colTasks) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		for taskIdx, task := range colTasks {
			selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask
			prefix := "  "
			if selected {
				prefix = "│ "
			}
			title := prefix + truncate(task.Title, max(1, colWidth-6))
			if m.mirror.Dirty(task.ID) {
				title += " ·"
			}
			switch {
			case task.ID == m.grabbedTaskID:
				title = grabbedStyle.Render(title)
			case selected:
				title = selectedTaskStyle.Render(title)
			}
			lines = append(lines, title)
			if sub := m.taskSecondary(task); sub != "" {
				lines = append(lines, prefix+subStyle.Render(truncate(sub, max(1, colWidth-6))))
			}
		}

		content := fitLines(strings.Join(lines, "\n"), max(1, colHeight-2))
		if colIdx == m.selectedColumn {
			columnViews = append(columnViews, selColStyle.Render(content))
		} else {
			columnViews = append(columnViews, baseColStyle.Render(content))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// taskSecondary renders the configured secondary fields for one card.
func (m Model) taskSecondary(task domain.Task) string {
	parts := []string{}
	if m.fields.ShowPriority {
		parts = append(parts, string(task.Priority))
	}
	if m.fields.ShowDueDate && task.DueDate != nil {
		label := task.DueDate.Format("01-02")
		if task.Overdue(m.clock()) {
			label += "!"
		}
		parts = append(parts, label)
	}
	if m.fields.ShowAssignee && task.Assignee != "" {
		parts = append(parts, "@"+task.Assignee)
	}
	if len(task.Checklist) > 0 {
		done := 0
		for _, item := range task.Checklist {
			if item.Done {
				done++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d", done, len(task.Checklist)))
	}
	return strings.Join(parts, " · ")
}

// renderTimeline renders the Gantt view for the current process.
func (m Model) renderTimeline(accent, muted, dim color.Color) string {
	layout := app.LayoutTimeline(m.mirror.Snapshot(), m.clock(), m.timelineCfg)

	monthStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	weekendStyle := lipgloss.NewStyle().Foreground(dim)
	todayStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	barStyle := lipgloss.NewStyle().Foreground(accent)
	overdueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	labelWidth := 24

	var monthRow strings.Builder
	monthRow.WriteString(strings.Repeat(" ", labelWidth))
	for _, band := range layout.Months {
		label := fmt.Sprintf("%04d-%02d", band.Year, band.Month)
		cell := truncate(label, band.Days)
		monthRow.WriteString(monthStyle.Render(cell + strings.Repeat(" ", max(0, band.Days-len([]rune(cell))))))
	}

	var dayRow strings.Builder
	dayRow.WriteString(strings.Repeat(" ", labelWidth))
	for idx, day := range layout.Days {
		ch := fmt.Sprintf("%d", day.Date.Day()%10)
		switch {
		case idx == layout.TodayIndex:
			ch = todayStyle.Render(ch)
		case day.Weekend:
			ch = weekendStyle.Render(ch)
		}
		dayRow.WriteString(ch)
	}

	rows := []string{monthRow.String(), dayRow.String()}
	if len(layout.Bars) == 0 {
		rows = append(rows, "", "no scheduled tasks: add start or due dates")
	}
	for _, bar := range layout.Bars {
		label := truncate(bar.Title, labelWidth-2)
		line := label + strings.Repeat(" ", max(0, labelWidth-len([]rune(label))))
		line += strings.Repeat(" ", clamp(bar.OffsetDays, 0, len(layout.Days)))
		run := strings.Repeat("█", max(1, bar.DurationDays))
		if bar.Overdue {
			line += overdueStyle.Render(run)
		} else {
			line += barStyle.Render(run)
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", weekendStyle.Render("esc/t back • today highlighted"))
	return strings.Join(rows, "\n")
}

// renderModeOverlay renders output for the current model state.
func (m Model) renderModeOverlay(accent, muted, dim color.Color) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2)
	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeAddTask, modeEditTask, modeAddProcess:
		title := "new task"
		if m.mode == modeEditTask {
			title = "edit task"
		}
		if m.mode == modeAddProcess {
			title = "new process"
		}
		lines := []string{labelStyle.Render(title), ""}
		for idx := range m.formInputs {
			marker := "  "
			if idx == m.formFocus {
				marker = "> "
			}
			if m.mode != modeAddProcess && idx == taskFieldPriority {
				lines = append(lines, marker+"priority: "+string(priorityOptions[m.priorityIdx])+" ◂▸")
				continue
			}
			lines = append(lines, marker+m.formInputs[idx].View())
		}
		lines = append(lines, "", hintStyle.Render("tab next • enter save • esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeTaskInfo, modeComment:
		task, ok := m.mirror.Get(m.infoTaskID)
		if !ok {
			return ""
		}
		width := clamp(m.width-12, 32, 88)
		lines := []string{labelStyle.Render(task.Title), hintStyle.Render(m.taskSecondary(task))}
		if len(task.Tags) > 0 {
			lines = append(lines, hintStyle.Render("#"+strings.Join(task.Tags, " #")))
		}
		if task.Description != "" {
			lines = append(lines, "", m.markdown.render(task.Description, width))
		}
		if len(task.Checklist) > 0 {
			lines = append(lines, "", labelStyle.Render("checklist"))
			for idx, item := range task.Checklist {
				box := "[ ]"
				if item.Done {
					box = "[x]"
				}
				row := fmt.Sprintf("%s %s", box, item.Text)
				if idx == m.infoItemIdx {
					row = "> " + row
				} else {
					row = "  " + row
				}
				lines = append(lines, row)
			}
		}
		if len(m.comments) > 0 {
			lines = append(lines, "", labelStyle.Render("comments"))
			for _, comment := range m.comments {
				meta := fmt.Sprintf("%s · %s", comment.AuthorName, comment.CreatedAt.Format("2006-01-02 15:04"))
				lines = append(lines, hintStyle.Render(meta), m.markdown.render(comment.BodyMarkdown, width))
			}
		}
		if m.mode == modeComment {
			lines = append(lines, "", m.commentInput.View())
			lines = append(lines, hintStyle.Render("enter post • esc back"))
		} else {
			lines = append(lines, "", hintStyle.Render("x toggle item • c comment • esc close"))
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeConfirmDelete:
		task, _ := m.mirror.Get(m.confirmTaskID)
		return boxStyle.Render(strings.Join([]string{
			labelStyle.Render("delete task"),
			"",
			truncate(task.Title, 48),
			"",
			hintStyle.Render("y confirm • n cancel"),
		}, "\n"))

	default:
		return ""
	}
}

// indexOfPriority maps one priority to its cycle index.
func indexOfPriority(p domain.Priority) int {
	for idx, option := range priorityOptions {
		if option == p {
			return idx
		}
	}
	return len(priorityOptions) / 2
}

// splitTags parses a comma separated tag list. The result is never nil
// so a cleared form field clears the stored tags on update.
func splitTags(value string) []string {
	tags := []string{}
	for _, part := range strings.Split(value, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// parseFormDate parses one optional form date value.
func parseFormDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// clamp bounds v into [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return string(rs[:maxLen-1]) + "…"
}
