package app

import (
	"strings"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// DropTarget is either a state column or a sibling task ("drop adjacent
// to this task"). Exactly one of the two fields is set.
type DropTarget struct {
	State  domain.TaskState
	TaskID string
}

// DropOnColumn targets the end of a state column.
func DropOnColumn(state domain.TaskState) DropTarget {
	return DropTarget{State: domain.NormalizeTaskState(state)}
}

// DropOnTask targets the slot directly before a sibling task.
func DropOnTask(taskID string) DropTarget {
	return DropTarget{TaskID: strings.TrimSpace(taskID)}
}

// MovePlan is the computed outcome of one drop gesture.
type MovePlan struct {
	TaskID  string
	ToState domain.TaskState
	ToOrder float64
	// NeedsRenumber is set when the anchor gap is bisected out; the
	// caller renumbers the destination column and plans the drop again.
	NeedsRenumber bool
}

// PlanDrop resolves a drop gesture into a move plan. tasks is the full
// task set of one process. The boolean reports whether a move is needed
// at all: dropping a task onto its own column with no reference sibling
// is a no-op with no side effects.
func PlanDrop(tasks []domain.Task, draggedID string, target DropTarget) (MovePlan, bool, error) {
	dragged, ok := findTask(tasks, draggedID)
	if !ok {
		return MovePlan{}, false, ErrNotFound
	}

	toState := target.State
	var sibling *domain.Task
	if target.TaskID != "" {
		if target.TaskID == dragged.ID {
			return MovePlan{}, false, nil
		}
		ref, ok := findTask(tasks, target.TaskID)
		if !ok {
			return MovePlan{}, false, ErrUnknownTarget
		}
		toState = ref.State
		sibling = &ref
	}
	if !domain.IsValidTaskState(toState) {
		return MovePlan{}, false, ErrUnknownTarget
	}

	if sibling == nil && dragged.State == toState {
		return MovePlan{}, false, nil
	}

	siblings := ColumnTasks(tasks, toState, dragged.ID)
	anchor := Anchor{}
	if sibling != nil {
		for i := range siblings {
			if siblings[i].ID != sibling.ID {
				continue
			}
			if i > 0 {
				anchor.Before = &siblings[i-1]
			}
			anchor.After = &siblings[i]
			break
		}
	} else if len(siblings) > 0 {
		anchor.Before = &siblings[len(siblings)-1]
	}

	plan := MovePlan{
		TaskID:        dragged.ID,
		ToState:       toState,
		ToOrder:       ComputeOrder(anchor),
		NeedsRenumber: GapExhausted(anchor),
	}
	return plan, true, nil
}

// findTask locates a task by id.
func findTask(tasks []domain.Task, id string) (domain.Task, bool) {
	id = strings.TrimSpace(id)
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}
