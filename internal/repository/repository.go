// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the production implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sabbir/taskboard/internal/model"
)

// UserRepository stores identity records. Users are created once per
// first-seen external identifier and never mutated or deleted afterwards.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

// TaskRepository stores task records. Every operation takes the owner scope
// as an explicit parameter: the empty string is the open identity model and
// applies no filter, any other value matches only tasks stamped with that
// owner. A scoped miss and a missing id are indistinguishable — both report
// apperror.ErrNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	List(ctx context.Context, owner string) ([]model.Task, error)
	GetByID(ctx context.Context, owner, id string) (*model.Task, error)
	GetByTitle(ctx context.Context, owner, title string) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, owner, id string) error
}

// SessionRepository stores server-side sessions for the session identity
// model. Lookup by key is the hot path; deletion happens on logout and
// lazily when an expired row is restored.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionByKey(ctx context.Context, key string) (*model.Session, error)
	DeleteSession(ctx context.Context, key string) error
}
