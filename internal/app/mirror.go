package app

import (
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// TaskMirror is the client-side copy of one process's task set. Moves
// and edits mutate it optimistically, before the persistence call is
// confirmed; each mutated task stays dirty, with its pre-mutation value
// retained, until the caller reconciles against the store outcome or a
// full Replace brings in server truth.
//
// The mirror is not synchronized: it belongs to a single event loop,
// with persistence results delivered back into that loop as messages.
type TaskMirror struct {
	tasks   map[string]domain.Task
	pending map[string]domain.Task
}

// NewTaskMirror builds a mirror seeded with server truth.
func NewTaskMirror(tasks []domain.Task) *TaskMirror {
	m := &TaskMirror{}
	m.Replace(tasks)
	return m
}

// Replace swaps in server truth and clears every dirty flag.
func (m *TaskMirror) Replace(tasks []domain.Task) {
	m.tasks = make(map[string]domain.Task, len(tasks))
	m.pending = map[string]domain.Task{}
	for _, task := range tasks {
		m.tasks[task.ID] = task
	}
}

// Get returns one mirrored task.
func (m *TaskMirror) Get(id string) (domain.Task, bool) {
	task, ok := m.tasks[id]
	return task, ok
}

// Len returns the number of mirrored tasks.
func (m *TaskMirror) Len() int {
	return len(m.tasks)
}

// Dirty reports whether a task has an unconfirmed local mutation.
func (m *TaskMirror) Dirty(id string) bool {
	_, ok := m.pending[id]
	return ok
}

// ApplyMove optimistically applies a move plan. Only the moved task's
// state and order change; every sibling in both columns is untouched.
func (m *TaskMirror) ApplyMove(plan MovePlan, now time.Time) error {
	task, ok := m.tasks[plan.TaskID]
	if !ok {
		return ErrNotFound
	}
	m.markDirty(task)
	if err := task.Move(plan.ToState, plan.ToOrder, now); err != nil {
		delete(m.pending, task.ID)
		return err
	}
	m.tasks[task.ID] = task
	return nil
}

// ApplyUpdate optimistically upserts one task's full record.
func (m *TaskMirror) ApplyUpdate(task domain.Task) {
	if prior, ok := m.tasks[task.ID]; ok {
		m.markDirty(prior)
	}
	m.tasks[task.ID] = task
}

// ApplyDelete optimistically removes one task.
func (m *TaskMirror) ApplyDelete(id string) {
	task, ok := m.tasks[id]
	if !ok {
		return
	}
	m.markDirty(task)
	delete(m.tasks, id)
}

// Reconcile confirms the store accepted a mutation and drops the
// retained prior value.
func (m *TaskMirror) Reconcile(id string) {
	delete(m.pending, id)
}

// Rollback restores the pre-mutation value after a persistence failure.
// Reports whether anything was rolled back.
func (m *TaskMirror) Rollback(id string) bool {
	prior, ok := m.pending[id]
	if !ok {
		return false
	}
	delete(m.pending, id)
	m.tasks[id] = prior
	return true
}

// Snapshot returns all mirrored tasks in display order: state column
// order first, then order key within the column.
func (m *TaskMirror) Snapshot() []domain.Task {
	out := make([]domain.Task, 0, len(m.tasks))
	for _, state := range domain.BoardStates() {
		out = append(out, m.Column(state)...)
	}
	return out
}

// Column returns one state column in display order.
func (m *TaskMirror) Column(state domain.TaskState) []domain.Task {
	col := make([]domain.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		if task.State == state {
			col = append(col, task)
		}
	}
	SortByOrder(col)
	return col
}

// markDirty retains the first pre-mutation value of an already-dirty
// task so a rollback lands on the last reconciled state.
func (m *TaskMirror) markDirty(prior domain.Task) {
	if _, ok := m.pending[prior.ID]; ok {
		return
	}
	m.pending[prior.ID] = prior
}
