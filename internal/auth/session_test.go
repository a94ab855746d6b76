package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/model"
)

// In-memory repository fakes. The service only needs map semantics plus the
// not-found sentinel, so hand-written mocks keep these tests self-contained.

type mockSessionRepo struct {
	sessions map[string]*model.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) CreateSession(_ context.Context, session *model.Session) error {
	stored := *session
	m.sessions[session.Key] = &stored
	return nil
}

func (m *mockSessionRepo) GetSessionByKey(_ context.Context, key string) (*model.Session, error) {
	s, ok := m.sessions[key]
	if !ok {
		return nil, apperror.NotFound("session", "key")
	}
	result := *s
	return &result, nil
}

func (m *mockSessionRepo) DeleteSession(_ context.Context, key string) error {
	if _, ok := m.sessions[key]; !ok {
		return apperror.NotFound("session", "key")
	}
	delete(m.sessions, key)
	return nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Login
	}
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	for _, u := range m.users {
		if u.GitHubID == githubID {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", "github")
}

func newTestSessionService(t *testing.T) (*SessionService, *mockSessionRepo, *mockUserRepo) {
	t.Helper()
	sessions := newMockSessionRepo()
	users := newMockUserRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewSessionService(sessions, users, 0, logger)
	return svc, sessions, users
}

func seedUser(t *testing.T, users *mockUserRepo, login string) *model.User {
	t.Helper()
	user := &model.User{GitHubID: int64(len(users.users) + 1), Login: login, Email: login + "@example.com"}
	if err := users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func TestEstablish_ReturnsOpaqueKey(t *testing.T) {
	svc, sessions, users := newTestSessionService(t)
	user := seedUser(t, users, "alice")

	key, err := svc.Establish(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	// 32 random bytes, hex encoded.
	if len(key) != 64 {
		t.Errorf("Establish() key length = %d, want 64", len(key))
	}

	stored, ok := sessions.sessions[key]
	if !ok {
		t.Fatal("Establish() did not persist the session")
	}
	if stored.UserID != user.ID {
		t.Errorf("session UserID = %q, want %q", stored.UserID, user.ID)
	}
	if got, want := stored.ExpiresAt.Sub(stored.CreatedAt), DefaultSessionTTL; got != want {
		t.Errorf("session lifetime = %v, want %v", got, want)
	}
}

func TestEstablish_KeysAreUnique(t *testing.T) {
	svc, _, users := newTestSessionService(t)
	user := seedUser(t, users, "alice")

	key1, _ := svc.Establish(context.Background(), user.ID)
	key2, _ := svc.Establish(context.Background(), user.ID)

	if key1 == key2 {
		t.Error("Establish() returned the same key twice")
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	svc, _, users := newTestSessionService(t)
	user := seedUser(t, users, "alice")

	key, err := svc.Establish(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	restored, err := svc.Restore(context.Background(), key)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.ID != user.ID {
		t.Errorf("Restore() user ID = %q, want %q", restored.ID, user.ID)
	}
	if restored.Login != "alice" {
		t.Errorf("Restore() login = %q, want %q", restored.Login, "alice")
	}
}

func TestRestore_UnknownKey(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	_, err := svc.Restore(context.Background(), "no-such-key")
	if !errors.Is(err, ErrSessionAbsent) {
		t.Fatalf("Restore() error = %v, want ErrSessionAbsent", err)
	}
}

func TestRestore_EmptyKey(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	_, err := svc.Restore(context.Background(), "")
	if !errors.Is(err, ErrSessionAbsent) {
		t.Fatalf("Restore() error = %v, want ErrSessionAbsent", err)
	}
}

func TestRestore_Expired(t *testing.T) {
	svc, sessions, users := newTestSessionService(t)
	user := seedUser(t, users, "alice")

	key, _ := svc.Establish(context.Background(), user.ID)

	// Age the session past its fixed lifetime.
	sessions.sessions[key].ExpiresAt = time.Now().Add(-1 * time.Second)

	_, err := svc.Restore(context.Background(), key)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Restore() error = %v, want ErrSessionExpired", err)
	}

	// The dead row is purged; the key now reads as absent.
	if _, err := svc.Restore(context.Background(), key); !errors.Is(err, ErrSessionAbsent) {
		t.Fatalf("Restore() after expiry purge error = %v, want ErrSessionAbsent", err)
	}
}

func TestRestore_SubjectNotFound(t *testing.T) {
	svc, _, users := newTestSessionService(t)
	user := seedUser(t, users, "alice")

	key, _ := svc.Establish(context.Background(), user.ID)

	// Simulate the subject no longer resolving.
	delete(users.users, user.ID)

	_, err := svc.Restore(context.Background(), key)
	if err == nil {
		t.Fatal("Restore() should fail when the session's user no longer resolves")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Restore() error = %v, want wrapped ErrNotFound", err)
	}
}

func TestDestroy_ThenRestore(t *testing.T) {
	svc, _, users := newTestSessionService(t)
	user := seedUser(t, users, "alice")

	key, _ := svc.Establish(context.Background(), user.ID)

	if err := svc.Destroy(context.Background(), key); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	if _, err := svc.Restore(context.Background(), key); !errors.Is(err, ErrSessionAbsent) {
		t.Fatalf("Restore() after Destroy() error = %v, want ErrSessionAbsent", err)
	}
}

func TestDestroy_UnknownKey(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	if err := svc.Destroy(context.Background(), "no-such-key"); !errors.Is(err, ErrSessionAbsent) {
		t.Fatalf("Destroy() error = %v, want ErrSessionAbsent", err)
	}
}
