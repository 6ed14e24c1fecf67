package sqlite

import (
	"context"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository constructs the SQLite-backed audit store.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `id, actor_id, action, entity_kind, entity_id, detail, created_at`

// AppendAuditEntry inserts an audit entry.
func (r *AuditRepository) AppendAuditEntry(ctx context.Context, entry persistence.AuditEntry) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO audit_log (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActorID, entry.Action, entry.EntityKind, entry.EntityID, entry.Detail, entry.CreatedAt.UTC(),
	)
	return mapError(err)
}

// ListAuditEntries returns entries for one entity, oldest first.
func (r *AuditRepository) ListAuditEntries(ctx context.Context, entityKind, entityID string) ([]persistence.AuditEntry, error) {
	var entries []persistence.AuditEntry
	err := r.db.conn.SelectContext(ctx, &entries, `
		SELECT `+auditColumns+` FROM audit_log
		WHERE entity_kind = ? AND entity_id = ?
		ORDER BY created_at ASC, id ASC`, entityKind, entityID)
	if err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}
