package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
	_ "modernc.org/sqlite"
)

func TestRepository_ProcessTaskCommentLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tablero.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	process, err := domain.NewProcess(domain.ProcessInput{
		ID:     "p1",
		Name:   "Cierre contable marzo",
		Type:   "cierre_mensual",
		Period: "2026-03",
	}, now)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	if err := repo.CreateProcess(ctx, process); err != nil {
		t.Fatalf("CreateProcess() error = %v", err)
	}

	loadedProcess, err := repo.GetProcess(ctx, process.ID)
	if err != nil {
		t.Fatalf("GetProcess() error = %v", err)
	}
	if loadedProcess.Name != "Cierre contable marzo" {
		t.Fatalf("unexpected process name %q", loadedProcess.Name)
	}
	if loadedProcess.State != domain.ProcessActivo {
		t.Fatalf("unexpected process state %q", loadedProcess.State)
	}

	start := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.TaskInput{
		ID:        "t1",
		ProcessID: process.ID,
		Title:     "Conciliar bancos",
		Priority:  domain.PriorityAlta,
		Order:     1000,
		Assignee:  "ana",
		StartDate: &start,
		DueDate:   &due,
		Tags:      []string{"bancos", "conciliacion"},
		Checklist: []domain.ChecklistItem{
			{Text: "Descargar cartola"},
			{Text: "Cruzar movimientos", Done: true},
		},
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	loadedTask, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if loadedTask.Order != 1000 {
		t.Fatalf("unexpected order %v", loadedTask.Order)
	}
	if loadedTask.StartDate == nil || !loadedTask.StartDate.Equal(start) {
		t.Fatalf("unexpected start date %v", loadedTask.StartDate)
	}
	if len(loadedTask.Tags) != 2 || loadedTask.Tags[0] != "bancos" {
		t.Fatalf("unexpected tags %#v", loadedTask.Tags)
	}
	if len(loadedTask.Checklist) != 2 || !loadedTask.Checklist[1].Done {
		t.Fatalf("unexpected checklist %#v", loadedTask.Checklist)
	}

	if err := loadedTask.Move(domain.StateEnProgreso, 2500, now.Add(time.Hour)); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if err := repo.UpdateTask(ctx, loadedTask); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	movedTask, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() after move error = %v", err)
	}
	if movedTask.State != domain.StateEnProgreso || movedTask.Order != 2500 {
		t.Fatalf("move not persisted, state %q order %v", movedTask.State, movedTask.Order)
	}

	comment, err := domain.NewComment("c1", task.ID, "", "Falta la cartola del 15", now)
	if err != nil {
		t.Fatalf("NewComment() error = %v", err)
	}
	if err := repo.CreateComment(ctx, comment); err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	comments, err := repo.ListComments(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(comments) != 1 || comments[0].AuthorName != "tablero-user" {
		t.Fatalf("unexpected comments %#v", comments)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := repo.GetTask(ctx, task.ID); err != app.ErrNotFound {
		t.Fatalf("expected app.ErrNotFound, got %v", err)
	}
	orphaned, err := repo.ListComments(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListComments() after delete error = %v", err)
	}
	if len(orphaned) != 0 {
		t.Fatalf("expected comments removed with task, got %#v", orphaned)
	}
}

func TestRepository_ListTasksForProcessScoped(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"p1", "p2"} {
		process, err := domain.NewProcess(domain.ProcessInput{ID: id, Name: "Proceso " + id}, now)
		if err != nil {
			t.Fatalf("NewProcess(%s) error = %v", id, err)
		}
		if err := repo.CreateProcess(ctx, process); err != nil {
			t.Fatalf("CreateProcess(%s) error = %v", id, err)
		}
	}

	seed := []struct {
		id        string
		processID string
		order     float64
	}{
		{"t2", "p1", 2000},
		{"t1", "p1", 1000},
		{"t3", "p2", 1000},
	}
	for _, s := range seed {
		task, err := domain.NewTask(domain.TaskInput{
			ID:        s.id,
			ProcessID: s.processID,
			Title:     "Tarea " + s.id,
			Order:     s.order,
		}, now)
		if err != nil {
			t.Fatalf("NewTask(%s) error = %v", s.id, err)
		}
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask(%s) error = %v", s.id, err)
		}
	}

	tasks, err := repo.ListTasksForProcess(ctx, "p1")
	if err != nil {
		t.Fatalf("ListTasksForProcess() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks for p1, got %d", len(tasks))
	}
	if tasks[0].ID != "t1" || tasks[1].ID != "t2" {
		t.Fatalf("expected orden ascending, got %s then %s", tasks[0].ID, tasks[1].ID)
	}
}

func TestRepository_NotFoundCases(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	if _, err := repo.GetProcess(ctx, "missing"); err != app.ErrNotFound {
		t.Fatalf("expected app.ErrNotFound for process, got %v", err)
	}
	if _, err := repo.GetTask(ctx, "missing"); err != app.ErrNotFound {
		t.Fatalf("expected app.ErrNotFound for task, got %v", err)
	}
	if err := repo.DeleteTask(ctx, "missing"); err != app.ErrNotFound {
		t.Fatalf("expected app.ErrNotFound for delete, got %v", err)
	}

	ghost, err := domain.NewTask(domain.TaskInput{ID: "ghost", ProcessID: "none", Title: "Fantasma", Order: 1000}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := repo.UpdateTask(ctx, ghost); err != app.ErrNotFound {
		t.Fatalf("expected app.ErrNotFound for update, got %v", err)
	}
}
