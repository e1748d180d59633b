package app

import (
	"slices"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// OrderGap is the spacing between appended order keys. Thousands of
// sequential appends stay exactly representable in a float64.
const OrderGap = 1000

// orderEpsilon is the smallest usable gap between two anchors. Below it
// the column needs a renumbering pass before another bisection.
const orderEpsilon = 1e-9

// Anchor names the sibling pair a new order key must land between.
// A nil Before means "before the first element"; a nil After means
// "after the last element"; both nil means "into an empty column".
type Anchor struct {
	Before *domain.Task
	After  *domain.Task
}

// ComputeOrder returns an order key strictly between the anchor pair,
// or strictly beyond the boundary element. It is total: every
// well-formed anchor yields a value without touching any sibling.
func ComputeOrder(anchor Anchor) float64 {
	switch {
	case anchor.Before == nil && anchor.After == nil:
		return OrderGap
	case anchor.After == nil:
		return anchor.Before.Order + OrderGap
	case anchor.Before == nil:
		return anchor.After.Order - OrderGap/2
	default:
		return (anchor.Before.Order + anchor.After.Order) / 2
	}
}

// GapExhausted reports whether the anchor pair is too tight for another
// bisection. Reaching this takes on the order of 50 successive inserts
// between the same two neighbors.
func GapExhausted(anchor Anchor) bool {
	if anchor.Before == nil || anchor.After == nil {
		return false
	}
	gap := anchor.After.Order - anchor.Before.Order
	mid := (anchor.Before.Order + anchor.After.Order) / 2
	return gap <= orderEpsilon || mid <= anchor.Before.Order || mid >= anchor.After.Order
}

// SortByOrder sorts a column's tasks into display order: order key
// ascending, then priority weight, then id for a stable tie-break.
func SortByOrder(tasks []domain.Task) {
	slices.SortStableFunc(tasks, func(a, b domain.Task) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		}
		if ra, rb := domain.PriorityRank(a.Priority), domain.PriorityRank(b.Priority); ra != rb {
			return ra - rb
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
}

// ColumnTasks returns the tasks of one state column sorted by order,
// optionally excluding one task id.
func ColumnTasks(tasks []domain.Task, state domain.TaskState, excludeID string) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.State != state || task.ID == excludeID {
			continue
		}
		out = append(out, task)
	}
	SortByOrder(out)
	return out
}

// AppendOrder returns the order key for appending to the end of a column.
func AppendOrder(columnTasks []domain.Task) float64 {
	if len(columnTasks) == 0 {
		return OrderGap
	}
	return ComputeOrder(Anchor{Before: &columnTasks[len(columnTasks)-1]})
}

// RenumberColumn reassigns fresh gap-spaced order keys to one column,
// preserving current display order. Returns the tasks that changed.
// This is the only operation that rewrites sibling order keys; a
// normal move never does.
func RenumberColumn(columnTasks []domain.Task) []domain.Task {
	changed := make([]domain.Task, 0, len(columnTasks))
	for i := range columnTasks {
		fresh := float64(i+1) * OrderGap
		if columnTasks[i].Order == fresh {
			continue
		}
		columnTasks[i].Order = fresh
		changed = append(changed, columnTasks[i])
	}
	return changed
}
