package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sabbir/taskboard/internal/apperror"
	"github.com/sabbir/taskboard/internal/model"
	"github.com/sabbir/taskboard/internal/repository"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

// CreateSession persists a new session. The key is generated by the caller
// (auth.SessionService) so this layer never sees key-generation concerns.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (key, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		session.Key,
		session.UserID,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %s: %w", session.UserID, err)
	}

	return nil
}

// GetSessionByKey retrieves a session by its opaque key.
// Returns apperror.ErrNotFound when the key is unknown. Expiry is checked
// by the caller; this layer only reads rows.
func (db *DB) GetSessionByKey(ctx context.Context, key string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT key, user_id, created_at, expires_at
		 FROM sessions WHERE key = ?`,
		key,
	).Scan(
		&s.Key,
		&s.UserID,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", "key")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	return &s, nil
}

// DeleteSession removes a session by key. Deleting an unknown key reports
// apperror.ErrNotFound so the caller can distinguish a no-op logout.
func (db *DB) DeleteSession(ctx context.Context, key string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE key = ?`,
		key,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session", "key")
	}

	return nil
}
