package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/model"
	"github.com/sabbir/taskboard/internal/repository"
)

// DefaultSessionTTL is the fixed session lifetime: 24 hours from
// establishment. Expiry is not sliding — restoring a session never
// extends it, matching the cookie's max-age.
const DefaultSessionTTL = 24 * time.Hour

var (
	// ErrSessionAbsent means the presented key matches no stored session
	// (never established, destroyed, or purged).
	ErrSessionAbsent = errors.New("auth: session not found")
	// ErrSessionExpired means the session existed but its fixed lifetime
	// has passed.
	ErrSessionExpired = errors.New("auth: session expired")
)

// SessionService manages the server-side sessions of the session identity
// model: establish on login, restore on each request, destroy on logout.
type SessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSessionService creates a SessionService.
// ttl <= 0 selects the default 24-hour session lifetime.
func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		logger:   logger,
	}
}

// TTL returns the fixed session lifetime, for cookie max-age.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Establish creates and persists a session for the given user and returns
// its opaque key. The key is the only thing the client ever holds.
func (s *SessionService) Establish(ctx context.Context, userID string) (string, error) {
	key, err := generateSessionKey()
	if err != nil {
		return "", fmt.Errorf("auth: generating session key: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		Key:       key,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("auth: saving session: %w", err)
	}

	s.logger.Info("session established", slog.String("userID", userID))
	return key, nil
}

// Restore resolves a session key back to its user.
//
// The user is re-resolved from the store on every call rather than cached
// in session state: a user record that stopped resolving would immediately
// invalidate all of its outstanding sessions. Expired sessions are rejected
// and their rows deleted in passing.
func (s *SessionService) Restore(ctx context.Context, key string) (*model.User, error) {
	if key == "" {
		return nil, ErrSessionAbsent
	}

	session, err := s.sessions.GetSessionByKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrSessionAbsent
		}
		return nil, fmt.Errorf("auth: loading session: %w", err)
	}

	if session.Expired(time.Now()) {
		// Purge the dead row; a failure here doesn't change the outcome.
		if err := s.sessions.DeleteSession(ctx, key); err != nil && !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("failed to purge expired session", slog.String("error", err.Error()))
		}
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth: resolving session subject %s: %w", session.UserID, err)
	}

	return user, nil
}

// Destroy terminates a session. Destroying a key that matches no session
// reports ErrSessionAbsent; after a successful destroy, Restore with the
// same key reports ErrSessionAbsent too.
func (s *SessionService) Destroy(ctx context.Context, key string) error {
	if key == "" {
		return ErrSessionAbsent
	}

	if err := s.sessions.DeleteSession(ctx, key); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return ErrSessionAbsent
		}
		return fmt.Errorf("auth: destroying session: %w", err)
	}

	s.logger.Info("session destroyed")
	return nil
}

// generateSessionKey returns 32 bytes of cryptographic randomness, hex
// encoded. 256 bits keeps keys unguessable; hex keeps them cookie-safe.
func generateSessionKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
