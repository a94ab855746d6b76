package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/model"
	"github.com/sabbir/taskboard/internal/repository"
)

// compile-time check that *DB implements repository.TaskRepository
var _ repository.TaskRepository = (*DB)(nil)

// Create inserts a new task. The unique index on (owner_id, title) turns a
// concurrent duplicate insert into a constraint error, which is reported as
// a conflict — same outcome as the service's pre-insert lookup.
func (db *DB) Create(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (id, title, completed, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Completed,
		task.OwnerID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("task", fmt.Sprintf("a task with title %q already exists", task.Title))
		}
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	return nil
}

// List returns the tasks visible in the given owner scope, newest first.
// The empty scope is the open identity model: no filter, every row.
func (db *DB) List(ctx context.Context, owner string) ([]model.Task, error) {
	query := `SELECT id, title, completed, owner_id, created_at, updated_at
	          FROM tasks`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Completed, &t.OwnerID,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetByID retrieves a task by id within the owner scope. A task owned by a
// different scope is reported as not-found, never as forbidden.
func (db *DB) GetByID(ctx context.Context, owner, id string) (*model.Task, error) {
	query := `SELECT id, title, completed, owner_id, created_at, updated_at
	          FROM tasks WHERE id = ?`
	args := []any{id}
	if owner != "" {
		query += ` AND owner_id = ?`
		args = append(args, owner)
	}

	var t model.Task
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.Title, &t.Completed, &t.OwnerID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}

	return &t, nil
}

// GetByTitle finds a task by exact title within the owner scope.
// Returns apperror.ErrNotFound when no such task is visible in the scope.
func (db *DB) GetByTitle(ctx context.Context, owner, title string) (*model.Task, error) {
	query := `SELECT id, title, completed, owner_id, created_at, updated_at
	          FROM tasks WHERE title = ?`
	args := []any{title}
	if owner != "" {
		query += ` AND owner_id = ?`
		args = append(args, owner)
	}

	var t model.Task
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.Title, &t.Completed, &t.OwnerID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", title)
		}
		return nil, fmt.Errorf("sqlite: getting task by title %q: %w", title, err)
	}

	return &t, nil
}

// Update writes title and completed for the task matching both id and the
// task's owner scope. A scope mismatch affects zero rows and is reported as
// not-found, identically to a missing id.
func (db *DB) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now()

	query := `UPDATE tasks SET title = ?, completed = ?, updated_at = ? WHERE id = ?`
	args := []any{task.Title, task.Completed, task.UpdatedAt, task.ID}
	if task.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, task.OwnerID)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("task", fmt.Sprintf("a task with title %q already exists", task.Title))
		}
		return fmt.Errorf("sqlite: updating task %s: %w", task.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", task.ID)
	}

	return nil
}

// Delete removes the task matching both id and the owner scope.
// Same scoping rule as Update: a mismatched scope reads as not-found.
func (db *DB) Delete(ctx context.Context, owner, id string) error {
	query := `DELETE FROM tasks WHERE id = ?`
	args := []any{id}
	if owner != "" {
		query += ` AND owner_id = ?`
		args = append(args, owner)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", id)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
// modernc.org/sqlite surfaces these as "constraint failed: UNIQUE ..." in
// the error string; database/sql exposes no portable error code for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
