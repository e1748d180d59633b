package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository implements the app persistence contract over sqlite.
type Repository struct {
	db *sql.DB
}

// Open opens the database at path, creating directories and schema.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens an in-memory database for tests.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS procesos (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'activo',
			period TEXT NOT NULL DEFAULT '',
			start_date TEXT,
			due_date TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tareas (
			id TEXT PRIMARY KEY,
			proceso_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'pendiente',
			priority TEXT NOT NULL DEFAULT 'media',
			orden REAL NOT NULL,
			assignee TEXT NOT NULL DEFAULT '',
			start_date TEXT,
			due_date TEXT,
			tags_json TEXT NOT NULL DEFAULT '[]',
			checklist_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(proceso_id) REFERENCES procesos(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS comentarios (
			id TEXT PRIMARY KEY,
			tarea_id TEXT NOT NULL,
			author_name TEXT NOT NULL DEFAULT 'tablero-user',
			body_markdown TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY(tarea_id) REFERENCES tareas(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tareas_proceso_state_orden ON tareas(proceso_id, state, orden);`,
		`CREATE INDEX IF NOT EXISTS idx_comentarios_tarea_created_at ON comentarios(tarea_id, created_at ASC, id ASC);`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateProcess creates a process row.
func (r *Repository) CreateProcess(ctx context.Context, p domain.Process) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO procesos(id, name, description, type, state, period, start_date, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.Name,
		p.Description,
		p.Type,
		string(p.State),
		p.Period,
		nullableTS(p.StartDate),
		nullableTS(p.DueDate),
		ts(p.CreatedAt),
		ts(p.UpdatedAt),
	)
	return err
}

// UpdateProcess updates a process row.
func (r *Repository) UpdateProcess(ctx context.Context, p domain.Process) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE procesos
		SET name = ?, description = ?, type = ?, state = ?, period = ?, start_date = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Name,
		p.Description,
		p.Type,
		string(p.State),
		p.Period,
		nullableTS(p.StartDate),
		nullableTS(p.DueDate),
		ts(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetProcess returns one process row.
func (r *Repository) GetProcess(ctx context.Context, id string) (domain.Process, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, type, state, period, start_date, due_date, created_at, updated_at
		FROM procesos WHERE id = ?
	`, id)
	return scanProcess(row)
}

// ListProcesses lists process rows ordered by creation.
func (r *Repository) ListProcesses(ctx context.Context) ([]domain.Process, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, type, state, period, start_date, due_date, created_at, updated_at
		FROM procesos ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Process{}
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateTask creates a task row.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	checklistJSON, err := json.Marshal(checklistToRows(t.Checklist))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tareas(
			id, proceso_id, title, description, state, priority, orden, assignee,
			start_date, due_date, tags_json, checklist_json, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.ProcessID,
		t.Title,
		t.Description,
		string(t.State),
		string(t.Priority),
		t.Order,
		t.Assignee,
		nullableTS(t.StartDate),
		nullableTS(t.DueDate),
		string(tagsJSON),
		string(checklistJSON),
		ts(t.CreatedAt),
		ts(t.UpdatedAt),
	)
	return err
}

// UpdateTask updates a task row.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	checklistJSON, err := json.Marshal(checklistToRows(t.Checklist))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tareas
		SET title = ?, description = ?, state = ?, priority = ?, orden = ?, assignee = ?,
		    start_date = ?, due_date = ?, tags_json = ?, checklist_json = ?, updated_at = ?
		WHERE id = ?
	`,
		t.Title,
		t.Description,
		string(t.State),
		string(t.Priority),
		t.Order,
		t.Assignee,
		nullableTS(t.StartDate),
		nullableTS(t.DueDate),
		string(tagsJSON),
		string(checklistJSON),
		ts(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetTask returns one task row.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, proceso_id, title, description, state, priority, orden, assignee,
		       start_date, due_date, tags_json, checklist_json, created_at, updated_at
		FROM tareas WHERE id = ?
	`, id)
	return scanTask(row)
}

// ListTasksForProcess lists a process's task rows. Ties within the same
// column keep whichever order the store returns them in; display sort
// happens in the app layer.
func (r *Repository) ListTasksForProcess(ctx context.Context, processID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, proceso_id, title, description, state, priority, orden, assignee,
		       start_date, due_date, tags_json, checklist_json, created_at, updated_at
		FROM tareas WHERE proceso_id = ? ORDER BY state ASC, orden ASC
	`, processID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTask deletes one task row and its comments.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM comentarios WHERE tarea_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM tareas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// CreateComment creates a comment row.
func (r *Repository) CreateComment(ctx context.Context, c domain.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comentarios(id, tarea_id, author_name, body_markdown, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		c.ID,
		c.TaskID,
		c.AuthorName,
		c.BodyMarkdown,
		ts(c.CreatedAt),
	)
	return err
}

// ListComments lists a task's comment rows oldest first.
func (r *Repository) ListComments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tarea_id, author_name, body_markdown, created_at
		FROM comentarios WHERE tarea_id = ? ORDER BY created_at ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// checklistRow is the stored form of one checklist entry.
type checklistRow struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// checklistToRows converts domain checklist items for storage.
func checklistToRows(items []domain.ChecklistItem) []checklistRow {
	out := make([]checklistRow, 0, len(items))
	for _, item := range items {
		out = append(out, checklistRow{Text: item.Text, Done: item.Done})
	}
	return out
}

// scanProcess handles scan process.
func scanProcess(s scanner) (domain.Process, error) {
	var (
		p          domain.Process
		state      string
		startRaw   sql.NullString
		dueRaw     sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Type,
		&state,
		&p.Period,
		&startRaw,
		&dueRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Process{}, app.ErrNotFound
		}
		return domain.Process{}, err
	}
	p.State = domain.ProcessState(state)
	p.StartDate = parseNullTS(startRaw)
	p.DueDate = parseNullTS(dueRaw)
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	return p, nil
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t            domain.Task
		state        string
		priority     string
		startRaw     sql.NullString
		dueRaw       sql.NullString
		tagsRaw      string
		checklistRaw string
		createdRaw   string
		updatedRaw   string
	)
	if err := s.Scan(
		&t.ID,
		&t.ProcessID,
		&t.Title,
		&t.Description,
		&state,
		&priority,
		&t.Order,
		&t.Assignee,
		&startRaw,
		&dueRaw,
		&tagsRaw,
		&checklistRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.State = domain.TaskState(state)
	t.Priority = domain.Priority(priority)
	t.StartDate = parseNullTS(startRaw)
	t.DueDate = parseNullTS(dueRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	if err := json.Unmarshal([]byte(tagsRaw), &t.Tags); err != nil {
		return domain.Task{}, fmt.Errorf("decode tags_json: %w", err)
	}
	var checklistRows []checklistRow
	if err := json.Unmarshal([]byte(checklistRaw), &checklistRows); err != nil {
		return domain.Task{}, fmt.Errorf("decode checklist_json: %w", err)
	}
	t.Checklist = make([]domain.ChecklistItem, 0, len(checklistRows))
	for _, row := range checklistRows {
		t.Checklist = append(t.Checklist, domain.ChecklistItem{Text: row.Text, Done: row.Done})
	}
	return t, nil
}

// scanComment handles scan comment.
func scanComment(s scanner) (domain.Comment, error) {
	var (
		c          domain.Comment
		createdRaw string
	)
	if err := s.Scan(
		&c.ID,
		&c.TaskID,
		&c.AuthorName,
		&c.BodyMarkdown,
		&createdRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Comment{}, app.ErrNotFound
		}
		return domain.Comment{}, err
	}
	c.CreatedAt = parseTS(createdRaw)
	return c, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
