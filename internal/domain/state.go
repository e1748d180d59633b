package domain

import (
	"slices"
	"strings"
)

// TaskState identifies the board column a task renders in.
type TaskState string

// Task state values in default column order.
const (
	StatePendiente  TaskState = "pendiente"
	StateEnProgreso TaskState = "en_progreso"
	StateEnRevision TaskState = "en_revision"
	StateCompletada TaskState = "completada"
	StateBloqueada  TaskState = "bloqueada"
)

// boardStates stores task states in default column order.
var boardStates = []TaskState{
	StatePendiente,
	StateEnProgreso,
	StateEnRevision,
	StateCompletada,
	StateBloqueada,
}

// BoardStates returns task states in default column order.
func BoardStates() []TaskState {
	return slices.Clone(boardStates)
}

// NormalizeTaskState canonicalizes a task state value.
func NormalizeTaskState(state TaskState) TaskState {
	return TaskState(strings.TrimSpace(strings.ToLower(string(state))))
}

// IsValidTaskState reports whether the state is a known board state.
// Transitions are deliberately unguarded: any state is reachable from
// any other, the column system is advisory rather than a state machine.
func IsValidTaskState(state TaskState) bool {
	return slices.Contains(boardStates, NormalizeTaskState(state))
}

// ProcessState tracks the owning process lifecycle, independent of task states.
type ProcessState string

// Process lifecycle values.
const (
	ProcessActivo  ProcessState = "activo"
	ProcessPausado ProcessState = "pausado"
	ProcessCerrado ProcessState = "cerrado"
)

// validProcessStates stores supported process lifecycle values.
var validProcessStates = []ProcessState{ProcessActivo, ProcessPausado, ProcessCerrado}

// IsValidProcessState reports whether the process state is supported.
func IsValidProcessState(state ProcessState) bool {
	normalized := ProcessState(strings.TrimSpace(strings.ToLower(string(state))))
	return slices.Contains(validProcessStates, normalized)
}
