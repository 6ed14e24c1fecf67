package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// Auditor appends audit entries for mutating operations. Appends are
// fire-and-forget: failures are logged and never propagated, so a broken
// audit store cannot take down the primary operation.
type Auditor struct {
	entries     persistence.AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuditor constructs an Auditor. A nil repository disables recording.
func NewAuditor(entries persistence.AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Auditor {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Auditor{entries: entries, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// Record appends an audit entry describing a mutating operation.
func (a *Auditor) Record(ctx context.Context, actorID, action, entityKind, entityID string, detail string) {
	if a == nil || a.entries == nil {
		return
	}

	entry := persistence.AuditEntry{
		ID:         a.idGenerator(),
		ActorID:    actorID,
		Action:     action,
		EntityKind: entityKind,
		EntityID:   entityID,
		CreatedAt:  a.now(),
	}
	if detail != "" {
		entry.Detail = &detail
	}

	if err := a.entries.AppendAuditEntry(ctx, entry); err != nil {
		serviceLogger(ctx, a.logger, "Auditor", "Record").
			WarnContext(ctx, "failed to append audit entry", "error", err, "action", action, "entity_id", entityID)
	}
}
