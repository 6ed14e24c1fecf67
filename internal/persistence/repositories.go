package persistence

import (
	"context"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
)

// OverlapQuery selects reservations occupying a room during a half-open
// window, restricted to the given statuses. ExcludeID skips the reservation
// being edited or approved.
type OverlapQuery struct {
	RoomID    string
	Start     time.Time
	End       time.Time
	Statuses  []approval.Status
	ExcludeID string
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	RoomID      string
	RequesterID string
	Statuses    []approval.Status
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ReservationRepository stores reservation rows.
//
// The guard parameter on writes closes the check-then-write race: when
// non-nil, the implementation re-runs the overlap query inside the write
// transaction and fails with ErrConflict if another reservation was committed
// into the slot since the caller's advisory pre-check.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation, guard *OverlapQuery) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation, guard *OverlapQuery) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	FindOverlapping(ctx context.Context, query OverlapQuery) ([]Reservation, error)
	// ListPendingForProfessor returns pending reservations linked to projects
	// the professor is responsible for.
	ListPendingForProfessor(ctx context.Context, professorID string) ([]Reservation, error)
	// ListAdminQueue returns professor-approved reservations plus pending
	// reservations with no resolvable professor approver (no project, or a
	// project without a responsible professor).
	ListAdminQueue(ctx context.Context) ([]Reservation, error)
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	ListRooms(ctx context.Context, includeInactive bool) ([]Room, error)
}

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// ProjectRepository exposes operations for academic projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) (Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
}

// SessionRepository stores issued sessions for revocation checks.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSessionByToken(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuditRepository appends audit entries.
type AuditRepository interface {
	AppendAuditEntry(ctx context.Context, entry AuditEntry) error
	ListAuditEntries(ctx context.Context, entityKind, entityID string) ([]AuditEntry, error)
}
