package sqlite

import (
	"context"
	"testing"

	"github.com/sabbir/taskboard/internal/model"
)

// newTestDB opens an in-memory database with the full schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing database: %v", err)
		}
	})
	return db
}

func createTestUser(t *testing.T, db *DB, githubID int64, login string) *model.User {
	t.Helper()
	user := &model.User{
		GitHubID: githubID,
		Login:    login,
		Email:    login + "@example.com",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("creating test user %q: %v", login, err)
	}
	return user
}

func createTestTask(t *testing.T, db *DB, owner, title string) *model.Task {
	t.Helper()
	task := &model.Task{Title: title, OwnerID: owner}
	if err := db.Create(context.Background(), task); err != nil {
		t.Fatalf("creating test task %q: %v", title, err)
	}
	return task
}
