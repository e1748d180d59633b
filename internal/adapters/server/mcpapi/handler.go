// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/adapters/server/common"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, board common.BoardService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerProcessTools(mcpSrv, board)
	registerTaskTools(mcpSrv, board)
	registerCommentTools(mcpSrv, board)
	registerTimelineTool(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tablero"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// boardStateNames returns the column states in display order for tool enums.
func boardStateNames() []string {
	states := domain.BoardStates()
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, string(s))
	}
	return out
}

// registerProcessTools registers the `tablero.*` process tools.
func registerProcessTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tablero.list_processes",
			mcp.WithDescription("List all accounting processes with state and period."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			processes, err := board.ListProcesses(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			out := make([]common.ProcessDTO, 0, len(processes))
			for _, p := range processes {
				out = append(out, common.NewProcessDTO(p))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"processes": out})
			if err != nil {
				return nil, fmt.Errorf("encode list_processes result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tablero.create_process",
			mcp.WithDescription("Create a new accounting process."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Process name")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("type", mcp.Description("Process type, e.g. cierre_mensual")),
			mcp.WithString("period", mcp.Description("Accounting period, e.g. 2026-03")),
			mcp.WithString("start_date", mcp.Description("YYYY-MM-DD start date")),
			mcp.WithString("due_date", mcp.Description("YYYY-MM-DD due date")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in, err := common.CreateProcessRequest{
				Name:        name,
				Description: req.GetString("description", ""),
				Type:        req.GetString("type", ""),
				Period:      req.GetString("period", ""),
				StartDate:   req.GetString("start_date", ""),
				DueDate:     req.GetString("due_date", ""),
			}.ToInput()
			if err != nil {
				return toolResultFromError(err), nil
			}
			process, err := board.CreateProcess(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewProcessDTO(process))
			if err != nil {
				return nil, fmt.Errorf("encode create_process result: %w", err)
			}
			return result, nil
		},
	)
}

// registerTaskTools registers the `tablero.*` task tools.
func registerTaskTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tablero.list_tasks",
			mcp.WithDescription("List the tasks of one process in board display order."),
			mcp.WithString("process_id", mcp.Required(), mcp.Description("Process identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			processID, err := req.RequireString("process_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			tasks, err := board.ListTasksForProcess(ctx, processID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"tasks": common.NewTaskDTOs(tasks)})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tablero.create_task",
			mcp.WithDescription("Create a task appended at the end of its column."),
			mcp.WithString("process_id", mcp.Required(), mcp.Description("Process identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("state", mcp.Description("Column state"), mcp.Enum(boardStateNames()...)),
			mcp.WithString("priority", mcp.Description("urgente, alta, media or baja")),
			mcp.WithString("assignee", mcp.Description("Assignee name")),
			mcp.WithString("start_date", mcp.Description("YYYY-MM-DD start date")),
			mcp.WithString("due_date", mcp.Description("YYYY-MM-DD due date")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			processID, err := req.RequireString("process_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in, err := common.CreateTaskRequest{
				ProcessID:   processID,
				Title:       title,
				Description: req.GetString("description", ""),
				State:       req.GetString("state", ""),
				Priority:    req.GetString("priority", ""),
				Assignee:    req.GetString("assignee", ""),
				StartDate:   req.GetString("start_date", ""),
				DueDate:     req.GetString("due_date", ""),
			}.ToInput()
			if err != nil {
				return toolResultFromError(err), nil
			}
			task, err := board.CreateTask(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTaskDTO(task))
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tablero.move_task",
			mcp.WithDescription("Move a task by drop target: onto a column to append, onto a sibling task to insert before it."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task to move")),
			mcp.WithString("target_task_id", mcp.Description("Sibling task to insert before")),
			mcp.WithString("target_state", mcp.Description("Column to append into"), mcp.Enum(boardStateNames()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			target, err := common.DropTaskRequest{
				TargetTaskID: req.GetString("target_task_id", ""),
				TargetState:  req.GetString("target_state", ""),
			}.ToTarget()
			if err != nil {
				return toolResultFromError(err), nil
			}
			task, moved, err := board.DropTask(ctx, taskID, target)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"task":  common.NewTaskDTO(task),
				"moved": moved,
			})
			if err != nil {
				return nil, fmt.Errorf("encode move_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tablero.update_task",
			mcp.WithDescription("Update editable task fields; omitted fields stay unchanged."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("priority", mcp.Description("New priority")),
			mcp.WithString("assignee", mcp.Description("New assignee")),
			mcp.WithString("start_date", mcp.Description("YYYY-MM-DD start date")),
			mcp.WithString("due_date", mcp.Description("YYYY-MM-DD due date")),
			mcp.WithBoolean("clear_start_date", mcp.Description("Clear the start date")),
			mcp.WithBoolean("clear_due_date", mcp.Description("Clear the due date")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			wire := common.UpdateTaskRequest{
				ClearStartDate: req.GetBool("clear_start_date", false),
				ClearDueDate:   req.GetBool("clear_due_date", false),
			}
			if v := req.GetString("title", ""); v != "" {
				wire.Title = &v
			}
			if v := req.GetString("description", ""); v != "" {
				wire.Description = &v
			}
			if v := req.GetString("priority", ""); v != "" {
				wire.Priority = &v
			}
			if v := req.GetString("assignee", ""); v != "" {
				wire.Assignee = &v
			}
			if v := req.GetString("start_date", ""); v != "" {
				wire.StartDate = &v
			}
			if v := req.GetString("due_date", ""); v != "" {
				wire.DueDate = &v
			}
			in, err := wire.ToInput(taskID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			task, err := board.UpdateTask(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTaskDTO(task))
			if err != nil {
				return nil, fmt.Errorf("encode update_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tablero.delete_task",
			mcp.WithDescription("Delete one task and its comments."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := board.DeleteTask(ctx, taskID); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"deleted": taskID})
			if err != nil {
				return nil, fmt.Errorf("encode delete_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tablero.toggle_checklist",
			mcp.WithDescription("Toggle one checklist entry by zero-based index."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based checklist index")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			index, err := req.RequireInt("index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := board.ToggleChecklistItem(ctx, taskID, index)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTaskDTO(task))
			if err != nil {
				return nil, fmt.Errorf("encode toggle_checklist result: %w", err)
			}
			return result, nil
		},
	)
}

// registerCommentTools registers the `tablero.*` comment tools.
func registerCommentTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tablero.list_comments",
			mcp.WithDescription("List a task's comments oldest first."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			comments, err := board.ListComments(ctx, taskID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			out := make([]common.CommentDTO, 0, len(comments))
			for _, c := range comments {
				out = append(out, common.NewCommentDTO(c))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"comments": out})
			if err != nil {
				return nil, fmt.Errorf("encode list_comments result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tablero.add_comment",
			mcp.WithDescription("Add a markdown comment to one task."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("body_markdown", mcp.Required(), mcp.Description("Markdown comment body")),
			mcp.WithString("author_name", mcp.Description("Author name, defaults to tablero-user")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			body, err := req.RequireString("body_markdown")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			comment, err := board.AddComment(ctx, taskID, req.GetString("author_name", ""), body)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewCommentDTO(comment))
			if err != nil {
				return nil, fmt.Errorf("encode add_comment result: %w", err)
			}
			return result, nil
		},
	)
}

// registerTimelineTool registers the `tablero.timeline` tool.
func registerTimelineTool(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tablero.timeline",
			mcp.WithDescription("Return the Gantt-style layout of one process: view window, day and month grids, and task bars."),
			mcp.WithString("process_id", mcp.Required(), mcp.Description("Process identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			processID, err := req.RequireString("process_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			layout, err := board.Timeline(ctx, processID, app.DefaultTimelineConfig())
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTimelineDTO(layout))
			if err != nil {
				return nil, fmt.Errorf("encode timeline result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, app.ErrUnknownTarget):
		return mcp.NewToolResultError("unknown_target: " + err.Error())
	case errors.Is(err, common.ErrInvalidRequest), isDomainValidationErr(err):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
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
