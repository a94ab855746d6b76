package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/model"
	"github.com/sabbir/taskboard/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user. The caller is expected to have checked for
// an existing row with the same github_id first; the UNIQUE constraint still
// rejects a duplicate insert if two handshakes race.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, login, email, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GitHubID,
		user.Login,
		user.Email,
		user.AvatarURL,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, email, avatar_url, created_at
		 FROM users WHERE id = ?`,
		id,
	), id)
}

// GetUserByGitHubID retrieves a user by their external GitHub identifier.
// Returns apperror.ErrNotFound if this github_id has never been seen.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, email, avatar_url, created_at
		 FROM users WHERE github_id = ?`,
		githubID,
	), fmt.Sprintf("github:%d", githubID))
}

func (db *DB) scanUser(row *sql.Row, ref string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.GitHubID,
		&u.Login,
		&u.Email,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", ref)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", ref, err)
	}
	return &u, nil
}
