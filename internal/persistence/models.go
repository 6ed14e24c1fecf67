package persistence

import (
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
)

// User represents an account in the scheduling domain.
type User struct {
	ID           string        `db:"id"`
	Name         string        `db:"name"`
	Email        string        `db:"email"`
	Role         approval.Role `db:"role"`
	PasswordHash string        `db:"password_hash"`
	Disabled     bool          `db:"disabled"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// Room represents a reservable university space. Inactive rooms refuse new
// reservations but keep their history.
type Room struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Location  string    `db:"location"`
	Capacity  int       `db:"capacity"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Project represents an academic project. Its responsible professor receives
// the intermediate approval step for reservations linked to it.
type Project struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	ProfessorID *string   `db:"professor_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Reservation is a stored room reservation row.
type Reservation struct {
	ID          string  `db:"id"`
	RoomID      string  `db:"room_id"`
	RequesterID string  `db:"requester_id"`
	Title       string  `db:"title"`
	Description *string `db:"description"`

	Start time.Time `db:"start_time"`
	End   time.Time `db:"end_time"`

	Status          approval.Status `db:"status"`
	RejectionReason *string         `db:"rejection_reason"`

	ProfessorApprovedBy *string    `db:"professor_approved_by"`
	ProfessorApprovedAt *time.Time `db:"professor_approved_at"`
	ApprovedBy          *string    `db:"approved_by"`
	ApprovedAt          *time.Time `db:"approved_at"`

	IsRecurring       bool       `db:"is_recurring"`
	RecurrenceType    *string    `db:"recurrence_type"`
	RecurrenceEndDate *time.Time `db:"recurrence_end_date"`

	Priority  int     `db:"priority"`
	ProjectID *string `db:"project_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Session represents an authentication session persisted for revocation.
type Session struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

// AuditEntry records a mutating operation for later inspection. Writes are
// fire-and-forget: a failed append never aborts the primary operation.
type AuditEntry struct {
	ID         string    `db:"id"`
	ActorID    string    `db:"actor_id"`
	Action     string    `db:"action"`
	EntityKind string    `db:"entity_kind"`
	EntityID   string    `db:"entity_id"`
	Detail     *string   `db:"detail"`
	CreatedAt  time.Time `db:"created_at"`
}
