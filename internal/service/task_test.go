package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/model"
)

// mockTaskRepo mirrors the store's scoping rules in memory: an empty owner
// applies no filter, a non-empty owner matches only its own rows, and a
// scoped miss reads as not-found.
type mockTaskRepo struct {
	tasks  map[string]*model.Task
	nextID int
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*model.Task)}
}

func (m *mockTaskRepo) visible(owner string, task *model.Task) bool {
	return owner == "" || task.OwnerID == owner
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	for _, t := range m.tasks {
		if t.OwnerID == task.OwnerID && t.Title == task.Title {
			return apperror.Conflict("task", "duplicate title")
		}
	}
	m.nextID++
	task.ID = fmt.Sprintf("task-%03d", m.nextID)
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) List(_ context.Context, owner string) ([]model.Task, error) {
	var out []model.Task
	for _, t := range m.tasks {
		if m.visible(owner, t) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, owner, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok || !m.visible(owner, t) {
		return nil, apperror.NotFound("task", id)
	}
	result := *t
	return &result, nil
}

func (m *mockTaskRepo) GetByTitle(_ context.Context, owner, title string) (*model.Task, error) {
	for _, t := range m.tasks {
		if t.Title == title && m.visible(owner, t) {
			result := *t
			return &result, nil
		}
	}
	return nil, apperror.NotFound("task", title)
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	existing, ok := m.tasks[task.ID]
	if !ok {
		return apperror.NotFound("task", task.ID)
	}
	for _, t := range m.tasks {
		if t.ID != task.ID && t.OwnerID == existing.OwnerID && t.Title == task.Title {
			return apperror.Conflict("task", "duplicate title")
		}
	}
	existing.Title = task.Title
	existing.Completed = task.Completed
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, owner, id string) error {
	t, ok := m.tasks[id]
	if !ok || !m.visible(owner, t) {
		return apperror.NotFound("task", id)
	}
	delete(m.tasks, id)
	return nil
}

func newTestTaskService(t *testing.T) (*TaskService, *mockTaskRepo) {
	t.Helper()
	repo := newMockTaskRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewTaskService(repo, logger), repo
}

func TestCreate_StampsOwner(t *testing.T) {
	svc, _ := newTestTaskService(t)

	task, err := svc.Create(context.Background(), "user-alice", "buy milk")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if task.OwnerID != "user-alice" {
		t.Errorf("OwnerID = %q, want %q", task.OwnerID, "user-alice")
	}
	if task.Completed {
		t.Error("new task should start incomplete")
	}
}

func TestCreate_TrimsTitle(t *testing.T) {
	svc, _ := newTestTaskService(t)

	task, err := svc.Create(context.Background(), "", "  buy milk  ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Title != "buy milk" {
		t.Errorf("Title = %q, want %q", task.Title, "buy milk")
	}
}

func TestCreate_EmptyTitle(t *testing.T) {
	svc, _ := newTestTaskService(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Create(context.Background(), "", title); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Create(%q) error = %v, want ErrValidation", title, err)
		}
	}
}

func TestCreate_TitleTooLong(t *testing.T) {
	svc, _ := newTestTaskService(t)

	long := strings.Repeat("x", MaxTitleLength+1)
	if _, err := svc.Create(context.Background(), "", long); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation for oversized title", err)
	}

	// Exactly at the limit is fine.
	if _, err := svc.Create(context.Background(), "", strings.Repeat("x", MaxTitleLength)); err != nil {
		t.Fatalf("Create() error = %v for title at the limit", err)
	}
}

func TestCreate_DuplicateTitleInScope(t *testing.T) {
	svc, _ := newTestTaskService(t)

	if _, err := svc.Create(context.Background(), "user-alice", "buy milk"); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-alice", "buy milk"); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate Create() error = %v, want ErrConflict", err)
	}
}

func TestCreate_SameTitleDifferentScopes(t *testing.T) {
	svc, _ := newTestTaskService(t)

	if _, err := svc.Create(context.Background(), "user-alice", "buy milk"); err != nil {
		t.Fatalf("alice Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-bob", "buy milk"); err != nil {
		t.Fatalf("bob Create() error = %v, want none; scopes are independent", err)
	}
}

func TestList_ScopedVisibility(t *testing.T) {
	svc, _ := newTestTaskService(t)

	mustCreate(t, svc, "user-alice", "alice task")
	mustCreate(t, svc, "user-bob", "bob task")

	aliceTasks, err := svc.List(context.Background(), "user-alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(aliceTasks) != 1 || aliceTasks[0].Title != "alice task" {
		t.Errorf("List(alice) = %+v, want only alice's task", aliceTasks)
	}

	// Global scope sees everything.
	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(global) returned %d tasks, want 2", len(all))
	}
}

func TestUpdate_PatchSemantics(t *testing.T) {
	svc, _ := newTestTaskService(t)
	task := mustCreate(t, svc, "user-alice", "buy milk")

	completed := true
	got, err := svc.Update(context.Background(), "user-alice", task.ID, TaskPatch{Completed: &completed})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !got.Completed {
		t.Error("Update() did not apply Completed")
	}
	if got.Title != "buy milk" {
		t.Errorf("Update() changed the title to %q; nil fields must be untouched", got.Title)
	}

	title := "buy bread"
	got, err = svc.Update(context.Background(), "user-alice", task.ID, TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Title != "buy bread" {
		t.Errorf("Title = %q, want %q", got.Title, "buy bread")
	}
	if !got.Completed {
		t.Error("Update() reset Completed; nil fields must be untouched")
	}
}

func TestUpdate_EmptyPatchedTitle(t *testing.T) {
	svc, _ := newTestTaskService(t)
	task := mustCreate(t, svc, "user-alice", "buy milk")

	empty := "   "
	if _, err := svc.Update(context.Background(), "user-alice", task.ID, TaskPatch{Title: &empty}); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() error = %v, want ErrValidation for blank title", err)
	}
}

func TestUpdate_DuplicateTitle(t *testing.T) {
	svc, _ := newTestTaskService(t)
	mustCreate(t, svc, "user-alice", "buy milk")
	task := mustCreate(t, svc, "user-alice", "buy bread")

	title := "buy milk"
	if _, err := svc.Update(context.Background(), "user-alice", task.ID, TaskPatch{Title: &title}); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}
}

func TestUpdate_UnchangedTitleIsNotAConflict(t *testing.T) {
	svc, _ := newTestTaskService(t)
	task := mustCreate(t, svc, "user-alice", "buy milk")

	same := "buy milk"
	completed := true
	if _, err := svc.Update(context.Background(), "user-alice", task.ID, TaskPatch{Title: &same, Completed: &completed}); err != nil {
		t.Fatalf("Update() error = %v; re-sending the current title must not conflict", err)
	}
}

func TestUpdate_CrossScopeIsNotFound(t *testing.T) {
	svc, _ := newTestTaskService(t)
	task := mustCreate(t, svc, "user-alice", "alice task")

	completed := true
	_, err := svc.Update(context.Background(), "user-bob", task.ID, TaskPatch{Completed: &completed})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() across scopes error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_MissingID(t *testing.T) {
	svc, _ := newTestTaskService(t)

	if _, err := svc.Update(context.Background(), "user-alice", "no-such-id", TaskPatch{}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(context.Background(), "user-alice", "  ", TaskPatch{}); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() with blank id error = %v, want ErrValidation", err)
	}
}

func TestDelete_Scoped(t *testing.T) {
	svc, repo := newTestTaskService(t)
	task := mustCreate(t, svc, "user-alice", "alice task")

	// Another scope cannot delete it.
	if err := svc.Delete(context.Background(), "user-bob", task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() across scopes error = %v, want ErrNotFound", err)
	}
	if _, ok := repo.tasks[task.ID]; !ok {
		t.Fatal("cross-scope Delete() removed the row")
	}

	// The owner can.
	if err := svc.Delete(context.Background(), "user-alice", task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), "user-alice", task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func mustCreate(t *testing.T, svc *TaskService, owner, title string) *model.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), owner, title)
	if err != nil {
		t.Fatalf("Create(%q, %q) error = %v", owner, title, err)
	}
	return task
}
