package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/auth"
	"github.com/sabbir/taskboard/internal/model"
	"github.com/sabbir/taskboard/internal/repository"
)

// AuthService resolves a completed OAuth handshake to an identity record.
// Credential issuance and session establishment stay in the auth package;
// this service owns only the store side of the handshake.
type AuthService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logger: logger,
	}
}

// CompleteHandshake resolves a provider profile to a stored user, creating
// the record on first sight of the external identifier.
//
// Resolution is idempotent: a second handshake for the same external ID
// returns the first record unchanged — user records are never mutated after
// creation, so a stale avatar or login at the provider does not propagate.
// A profile without an email is rejected; the email column is required.
func (s *AuthService) CompleteHandshake(ctx context.Context, profile *auth.Profile) (*model.User, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: profile must not be nil")
	}
	if profile.Email == "" {
		return nil, apperror.ValidationFailed("email", "provider did not assert an email address")
	}

	user, err := s.users.GetUserByGitHubID(ctx, profile.ID)
	if err == nil {
		s.logger.Info("existing user authenticated",
			slog.String("userID", user.ID),
			slog.String("login", user.Login),
		)
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up user (githubID=%d): %w", profile.ID, err)
	}

	user = &model.User{
		GitHubID:  profile.ID,
		Login:     profile.Login,
		Email:     profile.Email,
		AvatarURL: profile.AvatarURL,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user (githubID=%d): %w", profile.ID, err)
	}

	s.logger.Info("new user created",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return user, nil
}

// GetUserByID returns the stored user for an internal ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
