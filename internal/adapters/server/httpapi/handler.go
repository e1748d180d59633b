// Package httpapi provides the REST HTTP adapter for the board surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/adapters/server/common"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board common.BoardService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the board service.
func NewHandler(board common.BoardService) *Handler {
	return &Handler{board: board}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board service is not configured",
		})
		return
	}

	path := normalizePath(r.URL.Path)
	parts := splitPath(path)
	switch {
	case path == "processes":
		switch r.Method {
		case http.MethodGet:
			h.handleListProcesses(w, r)
		case http.MethodPost:
			h.handleCreateProcess(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 2 && parts[0] == "processes":
		switch r.Method {
		case http.MethodGet:
			h.handleGetProcess(w, r, parts[1])
		case http.MethodPatch:
			h.handleUpdateProcess(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch)
		}
	case len(parts) == 3 && parts[0] == "processes" && parts[2] == "tasks":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListTasks(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "processes" && parts[2] == "timeline":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleTimeline(w, r, parts[1])
	case path == "tasks":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateTask(w, r)
	case len(parts) == 2 && parts[0] == "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleGetTask(w, r, parts[1])
		case http.MethodPatch:
			h.handleUpdateTask(w, r, parts[1])
		case http.MethodDelete:
			h.handleDeleteTask(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 3 && parts[0] == "tasks" && parts[2] == "move":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleMoveTask(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "tasks" && parts[2] == "drop":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleDropTask(w, r, parts[1])
	case len(parts) == 4 && parts[0] == "tasks" && parts[2] == "checklist" && parts[3] == "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleToggleChecklist(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "tasks" && parts[2] == "comments":
		switch r.Method {
		case http.MethodGet:
			h.handleListComments(w, r, parts[1])
		case http.MethodPost:
			h.handleAddComment(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handleListProcesses serves GET `/processes`.
func (h *Handler) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := h.board.ListProcesses(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	out := make([]common.ProcessDTO, 0, len(processes))
	for _, p := range processes {
		out = append(out, common.NewProcessDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"processes": out})
}

// handleCreateProcess serves POST `/processes`.
func (h *Handler) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	var req common.CreateProcessRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	process, err := h.board.CreateProcess(r.Context(), in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.NewProcessDTO(process))
}

// handleGetProcess serves GET `/processes/{id}`.
func (h *Handler) handleGetProcess(w http.ResponseWriter, r *http.Request, id string) {
	process, err := h.board.GetProcess(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewProcessDTO(process))
}

// handleUpdateProcess serves PATCH `/processes/{id}`.
func (h *Handler) handleUpdateProcess(w http.ResponseWriter, r *http.Request, id string) {
	var req common.UpdateProcessRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	in, err := req.ToInput(id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	process, err := h.board.UpdateProcess(r.Context(), in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewProcessDTO(process))
}

// handleListTasks serves GET `/processes/{id}/tasks`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request, processID string) {
	tasks, err := h.board.ListTasksForProcess(r.Context(), processID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": common.NewTaskDTOs(tasks)})
}

// handleTimeline serves GET `/processes/{id}/timeline`.
func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request, processID string) {
	cfg := app.DefaultTimelineConfig()
	layout, err := h.board.Timeline(r.Context(), processID, cfg)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewTimelineDTO(layout))
}

// handleCreateTask serves POST `/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req common.CreateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.board.CreateTask(r.Context(), in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.NewTaskDTO(task))
}

// handleGetTask serves GET `/tasks/{id}`.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := h.board.GetTask(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewTaskDTO(task))
}

// handleUpdateTask serves PATCH `/tasks/{id}`.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request, id string) {
	var req common.UpdateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	in, err := req.ToInput(id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.board.UpdateTask(r.Context(), in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewTaskDTO(task))
}

// handleDeleteTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.board.DeleteTask(r.Context(), id); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveTask serves POST `/tasks/{id}/move`.
func (h *Handler) handleMoveTask(w http.ResponseWriter, r *http.Request, id string) {
	var req common.MoveTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if req.Order == nil {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "order is required",
			Hint:    "Use POST /tasks/{id}/drop to let the board compute the order key.",
		})
		return
	}
	task, err := h.board.MoveTask(r.Context(), id, domain.TaskState(strings.TrimSpace(req.State)), *req.Order)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewTaskDTO(task))
}

// handleDropTask serves POST `/tasks/{id}/drop`.
func (h *Handler) handleDropTask(w http.ResponseWriter, r *http.Request, id string) {
	var req common.DropTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	target, err := req.ToTarget()
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, moved, err := h.board.DropTask(r.Context(), id, target)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task":  common.NewTaskDTO(task),
		"moved": moved,
	})
}

// handleToggleChecklist serves POST `/tasks/{id}/checklist/toggle`.
func (h *Handler) handleToggleChecklist(w http.ResponseWriter, r *http.Request, id string) {
	var req common.ToggleChecklistRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.board.ToggleChecklistItem(r.Context(), id, req.Index)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewTaskDTO(task))
}

// handleListComments serves GET `/tasks/{id}/comments`.
func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request, taskID string) {
	comments, err := h.board.ListComments(r.Context(), taskID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	out := make([]common.CommentDTO, 0, len(comments))
	for _, c := range comments {
		out = append(out, common.NewCommentDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": out})
}

// handleAddComment serves POST `/tasks/{id}/comments`.
func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request, taskID string) {
	var req common.AddCommentRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	comment, err := h.board.AddComment(r.Context(), taskID, req.AuthorName, req.BodyMarkdown)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.NewCommentDTO(comment))
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// splitPath splits one normalized path into non-empty segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, app.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, app.ErrUnknownTarget):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "unknown_target",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest), isDomainValidationErr(err):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// isDomainValidationErr reports whether err is one of the domain input errors.
func isDomainValidationErr(err error) bool {
	validationErrs := []error{
		domain.ErrInvalidID,
		domain.ErrInvalidName,
		domain.ErrInvalidTitle,
		domain.ErrInvalidState,
		domain.ErrInvalidPriority,
		domain.ErrInvalidProcessID,
		domain.ErrInvalidDateRange,
		domain.ErrInvalidChecklistIndex,
		domain.ErrInvalidBody,
	}
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
