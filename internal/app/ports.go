package app

import (
	"context"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// Repository is the persistence contract the board core consumes. The
// transport behind it (embedded sqlite here, a remote API elsewhere) is
// irrelevant to the core; only the operation signatures matter.
type Repository interface {
	CreateProcess(context.Context, domain.Process) error
	UpdateProcess(context.Context, domain.Process) error
	GetProcess(context.Context, string) (domain.Process, error)
	ListProcesses(context.Context) ([]domain.Process, error)

	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasksForProcess(context.Context, string) ([]domain.Task, error)
	DeleteTask(context.Context, string) error

	CreateComment(context.Context, domain.Comment) error
	ListComments(context.Context, string) ([]domain.Comment, error)
}
