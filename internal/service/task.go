// Package service contains the business logic layer: validation, the
// ownership invariant on tasks, and handshake resolution. Services accept
// plain values and return domain errors; they know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/model"
	"github.com/sabbir/taskboard/internal/repository"
)

// MaxTitleLength bounds task titles.
const MaxTitleLength = 200

// TaskService implements the task operations. Every method takes the owner
// scope resolved by the access gate as its first domain argument; the
// service never learns which identity model produced it. The empty scope is
// the open model and applies no ownership filter.
type TaskService struct {
	repo   repository.TaskRepository
	logger *slog.Logger
}

func NewTaskService(repo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger,
	}
}

// TaskPatch is a partial update. Nil fields are left unchanged. Ownership
// is not patchable — it is immutable after creation.
type TaskPatch struct {
	Title     *string
	Completed *bool
}

// List returns the tasks visible in the scope.
func (s *TaskService) List(ctx context.Context, owner string) ([]model.Task, error) {
	tasks, err := s.repo.List(ctx, owner)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// Create validates and saves a new task, stamped with the owner scope.
//
// Title uniqueness within the scope is checked by lookup before insert.
// The check-then-insert sequence is not atomic; the store's unique index
// on (owner_id, title) converts a raced duplicate into the same conflict
// error, so the external 409 contract holds either way.
func (s *TaskService) Create(ctx context.Context, owner, title string) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	if err := s.checkTitleFree(ctx, owner, title); err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:   title,
		OwnerID: owner,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Lost the check-then-insert race; same outcome as the lookup.
			return nil, err
		}
		s.logger.Error("failed to create task",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("ownerID", task.OwnerID),
	)

	return task, nil
}

// Update applies a partial update to the task matching both id and scope.
// A task outside the scope behaves exactly like a missing id: not-found.
func (s *TaskService) Update(ctx context.Context, owner, id string, patch TaskPatch) (*model.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}

	task, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title is required")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		if title != task.Title {
			if err := s.checkTitleFree(ctx, owner, title); err != nil {
				return nil, err
			}
		}
		task.Title = title
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to update task",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated", slog.String("id", task.ID))
	return task, nil
}

// Delete removes the task matching both id and scope.
// Same scoping rule as Update.
func (s *TaskService) Delete(ctx context.Context, owner, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "task ID is required")
	}

	if err := s.repo.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete task",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Info("task deleted", slog.String("id", id))
	return nil
}

// checkTitleFree reports a conflict if a task with this title already
// exists in the scope.
func (s *TaskService) checkTitleFree(ctx context.Context, owner, title string) error {
	_, err := s.repo.GetByTitle(ctx, owner, title)
	if err == nil {
		return apperror.Conflict("task", fmt.Sprintf("a task with title %q already exists", title))
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("checking title uniqueness: %w", err)
	}
	return nil
}
