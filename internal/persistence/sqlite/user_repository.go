package sqlite

import (
	"context"
	"fmt"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	db *DB
}

// NewUserRepository constructs the SQLite-backed user store.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, role, password_hash, disabled, created_at, updated_at`

// CreateUser inserts an account. Emails are unique.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()

	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Role, user.PasswordHash, user.Disabled, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// GetUser loads an account by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	var user persistence.User
	err := r.db.conn.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// GetUserByEmail loads an account by its unique email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	var user persistence.User
	err := r.db.conn.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// UpdateUser rewrites an account row.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	user.UpdatedAt = user.UpdatedAt.UTC()

	result, err := r.db.conn.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, role = ?, password_hash = ?, disabled = ?, updated_at = ?
		WHERE id = ?`,
		user.Name, user.Email, user.Role, user.PasswordHash, user.Disabled, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.User{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// DeleteUser removes an account row.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
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

// ListUsers enumerates accounts ordered by name.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	var users []persistence.User
	err := r.db.conn.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	return users, nil
}
