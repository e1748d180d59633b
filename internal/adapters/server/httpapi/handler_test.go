package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/adapters/server/common"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// stubBoardService records requests and returns configured fixtures for handler tests.
type stubBoardService struct {
	process  domain.Process
	task     domain.Task
	tasks    []domain.Task
	comment  domain.Comment
	comments []domain.Comment
	layout   app.TimelineLayout
	moved    bool
	err      error

	lastCreateTask app.CreateTaskInput
	lastUpdateTask app.UpdateTaskInput
	lastMoveState  domain.TaskState
	lastMoveOrder  float64
	lastDropTarget app.DropTarget
	lastDeletedID  string
}

func (s *stubBoardService) CreateProcess(_ context.Context, in app.CreateProcessInput) (domain.Process, error) {
	return s.process, s.err
}

func (s *stubBoardService) ListProcesses(context.Context) ([]domain.Process, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Process{s.process}, nil
}

func (s *stubBoardService) GetProcess(context.Context, string) (domain.Process, error) {
	return s.process, s.err
}

func (s *stubBoardService) UpdateProcess(_ context.Context, in app.UpdateProcessInput) (domain.Process, error) {
	return s.process, s.err
}

func (s *stubBoardService) CreateTask(_ context.Context, in app.CreateTaskInput) (domain.Task, error) {
	s.lastCreateTask = in
	return s.task, s.err
}

func (s *stubBoardService) ListTasksForProcess(context.Context, string) ([]domain.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Task(nil), s.tasks...), nil
}

func (s *stubBoardService) GetTask(context.Context, string) (domain.Task, error) {
	return s.task, s.err
}

func (s *stubBoardService) MoveTask(_ context.Context, _ string, state domain.TaskState, order float64) (domain.Task, error) {
	s.lastMoveState = state
	s.lastMoveOrder = order
	return s.task, s.err
}

func (s *stubBoardService) DropTask(_ context.Context, _ string, target app.DropTarget) (domain.Task, bool, error) {
	s.lastDropTarget = target
	return s.task, s.moved, s.err
}

func (s *stubBoardService) UpdateTask(_ context.Context, in app.UpdateTaskInput) (domain.Task, error) {
	s.lastUpdateTask = in
	return s.task, s.err
}

func (s *stubBoardService) DeleteTask(_ context.Context, id string) error {
	s.lastDeletedID = id
	return s.err
}

func (s *stubBoardService) ToggleChecklistItem(context.Context, string, int) (domain.Task, error) {
	return s.task, s.err
}

func (s *stubBoardService) ListComments(context.Context, string) ([]domain.Comment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Comment(nil), s.comments...), nil
}

func (s *stubBoardService) AddComment(context.Context, string, string, string) (domain.Comment, error) {
	return s.comment, s.err
}

func (s *stubBoardService) Timeline(context.Context, string, app.TimelineConfig) (app.TimelineLayout, error) {
	return s.layout, s.err
}

// fixtureTask builds one deterministic task for handler fixtures.
func fixtureTask(t *testing.T) domain.Task {
	t.Helper()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.TaskInput{
		ID:        "t1",
		ProcessID: "p1",
		Title:     "Conciliar bancos",
		Order:     1000,
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	return task
}

func TestHandlerListTasks(t *testing.T) {
	board := &stubBoardService{tasks: []domain.Task{fixtureTask(t)}}
	handler := NewHandler(board)

	req := httptest.NewRequest(http.MethodGet, "/processes/p1/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got struct {
		Tasks []common.TaskDTO `json:"tasks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "t1" {
		t.Fatalf("unexpected tasks %#v", got.Tasks)
	}
	if got.Tasks[0].State != string(domain.StatePendiente) {
		t.Fatalf("state = %q", got.Tasks[0].State)
	}
}

func TestHandlerCreateTaskParsesDates(t *testing.T) {
	board := &stubBoardService{task: fixtureTask(t)}
	handler := NewHandler(board)

	body := `{"process_id":"p1","title":"Conciliar bancos","priority":"alta","start_date":"2026-03-03","due_date":"2026-03-10"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if board.lastCreateTask.Priority != domain.PriorityAlta {
		t.Fatalf("priority = %q", board.lastCreateTask.Priority)
	}
	want := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	if board.lastCreateTask.StartDate == nil || !board.lastCreateTask.StartDate.Equal(want) {
		t.Fatalf("start date = %v", board.lastCreateTask.StartDate)
	}
}

func TestHandlerCreateTaskRejectsBadDate(t *testing.T) {
	handler := NewHandler(&stubBoardService{})

	body := `{"process_id":"p1","title":"x","due_date":"03/10/2026"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var envelope ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if envelope.Error.Code != "invalid_request" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}

func TestHandlerMoveRequiresOrder(t *testing.T) {
	handler := NewHandler(&stubBoardService{})

	req := httptest.NewRequest(http.MethodPost, "/tasks/t1/move", strings.NewReader(`{"state":"en_progreso"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerMovePersistsStateAndOrder(t *testing.T) {
	board := &stubBoardService{task: fixtureTask(t)}
	handler := NewHandler(board)

	req := httptest.NewRequest(http.MethodPost, "/tasks/t1/move", strings.NewReader(`{"state":"en_progreso","order":2500}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if board.lastMoveState != domain.StateEnProgreso || board.lastMoveOrder != 2500 {
		t.Fatalf("move = %q %v", board.lastMoveState, board.lastMoveOrder)
	}
}

func TestHandlerDropResolvesTarget(t *testing.T) {
	board := &stubBoardService{task: fixtureTask(t), moved: true}
	handler := NewHandler(board)

	req := httptest.NewRequest(http.MethodPost, "/tasks/t1/drop", strings.NewReader(`{"target_task_id":"t2"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if board.lastDropTarget.TaskID != "t2" {
		t.Fatalf("target = %#v", board.lastDropTarget)
	}
	var got struct {
		Moved bool `json:"moved"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !got.Moved {
		t.Fatalf("expected moved=true")
	}
}

func TestHandlerDropRequiresTarget(t *testing.T) {
	handler := NewHandler(&stubBoardService{})

	req := httptest.NewRequest(http.MethodPost, "/tasks/t1/drop", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerNotFoundMapsTo404(t *testing.T) {
	handler := NewHandler(&stubBoardService{err: app.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/tasks/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var envelope ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if envelope.Error.Code != "not_found" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}

func TestHandlerValidationErrorMapsTo400(t *testing.T) {
	handler := NewHandler(&stubBoardService{err: domain.ErrInvalidDateRange})

	body := `{"due_date":"2026-01-01"}`
	req := httptest.NewRequest(http.MethodPatch, "/tasks/t1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerDeleteTask(t *testing.T) {
	board := &stubBoardService{}
	handler := NewHandler(board)

	req := httptest.NewRequest(http.MethodDelete, "/tasks/t1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if board.lastDeletedID != "t1" {
		t.Fatalf("deleted id = %q", board.lastDeletedID)
	}
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	handler := NewHandler(&stubBoardService{})

	req := httptest.NewRequest(http.MethodPut, "/processes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("Allow = %q", allow)
	}
}

func TestHandlerUnknownEndpoint(t *testing.T) {
	handler := NewHandler(&stubBoardService{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandlerTimeline(t *testing.T) {
	layout := app.TimelineLayout{
		ViewStart:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ViewEnd:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DayWidth:   40,
		TodayIndex: 1,
		Bars: []app.TimelineBar{
			{TaskID: "t1", Title: "Conciliar bancos", OffsetDays: 2, DurationDays: 3, OffsetPx: 80, WidthPx: 120},
		},
	}
	handler := NewHandler(&stubBoardService{layout: layout})

	req := httptest.NewRequest(http.MethodGet, "/processes/p1/timeline", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got common.TimelineDTO
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.ViewStart != "2026-03-01" || got.DayWidth != 40 {
		t.Fatalf("unexpected layout %#v", got)
	}
	if len(got.Bars) != 1 || got.Bars[0].WidthPx != 120 {
		t.Fatalf("unexpected bars %#v", got.Bars)
	}
}
