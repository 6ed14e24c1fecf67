package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository constructs the SQLite-backed session store.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, token, expires_at, created_at, revoked_at`

// CreateSession inserts an issued session.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	session.RevokedAt = utcPtr(session.RevokedAt)

	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt, session.RevokedAt,
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return session, nil
}

// GetSessionByToken loads a session by its unique token.
func (r *SessionRepository) GetSessionByToken(ctx context.Context, token string) (persistence.Session, error) {
	var session persistence.Session
	err := r.db.conn.GetContext(ctx, &session, `SELECT `+sessionColumns+` FROM sessions WHERE token = ?`, token)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return session, nil
}

// RevokeSession marks a session revoked. Revoking twice keeps the first
// revocation timestamp.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	result, err := r.db.conn.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		revokedAt.UTC(), token,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions prunes sessions past their expiry.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, reference.UTC())
	return mapError(err)
}
