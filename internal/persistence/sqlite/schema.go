package sqlite

import (
	"context"
	"fmt"
)

// Migrations run in order inside a single transaction per statement batch.
// Statements must stay idempotent (IF NOT EXISTS) so reopening an existing
// database is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		role          TEXT NOT NULL CHECK (role IN ('aluno', 'professor', 'coordenador', 'admin')),
		password_hash TEXT NOT NULL,
		disabled      INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		location   TEXT NOT NULL DEFAULT '',
		capacity   INTEGER NOT NULL CHECK (capacity > 0),
		is_active  INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		professor_id TEXT REFERENCES users(id),
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id                    TEXT PRIMARY KEY,
		room_id               TEXT NOT NULL REFERENCES rooms(id),
		requester_id          TEXT NOT NULL REFERENCES users(id),
		title                 TEXT NOT NULL,
		description           TEXT,
		start_time            TIMESTAMP NOT NULL,
		end_time              TIMESTAMP NOT NULL,
		status                TEXT NOT NULL CHECK (status IN ('pending', 'professor_approved', 'approved', 'rejected', 'cancelled')),
		rejection_reason      TEXT,
		professor_approved_by TEXT REFERENCES users(id),
		professor_approved_at TIMESTAMP,
		approved_by           TEXT REFERENCES users(id),
		approved_at           TIMESTAMP,
		is_recurring          INTEGER NOT NULL DEFAULT 0,
		recurrence_type       TEXT,
		recurrence_end_date   TIMESTAMP,
		priority              INTEGER NOT NULL DEFAULT 0,
		project_id            TEXT REFERENCES projects(id),
		created_at            TIMESTAMP NOT NULL,
		updated_at            TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_room_window
		ON reservations (room_id, start_time, end_time)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_status
		ON reservations (status)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		token      TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		revoked_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id          TEXT PRIMARY KEY,
		actor_id    TEXT NOT NULL,
		action      TEXT NOT NULL,
		entity_kind TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		detail      TEXT,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_entity
		ON audit_log (entity_kind, entity_id)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
