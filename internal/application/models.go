package application

import (
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
)

// Actor represents the authenticated principal invoking a service method.
// Authentication itself happens at the transport layer; services only see the
// resolved identity and role.
type Actor struct {
	ID   string
	Role approval.Role
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool { return a.Role == approval.RoleAdmin }

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	RoomID      string
	Title       string
	Description *string

	Start time.Time
	End   time.Time

	IsRecurring       bool
	RecurrenceType    *string
	RecurrenceEndDate *time.Time

	Priority  int
	ProjectID *string
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Actor Actor
	Input ReservationInput
}

// EditReservationParams wraps the data required to edit a reservation.
type EditReservationParams struct {
	Actor         Actor
	ReservationID string
	Input         ReservationInput
}

// TransitionParams wraps a requested status transition.
type TransitionParams struct {
	Actor         Actor
	ReservationID string
	Action        approval.Action
	// Reason is required for rejections.
	Reason string
}

// ListReservationsParams narrows reservation listings.
type ListReservationsParams struct {
	Actor       Actor
	RoomID      string
	RequesterID string
	Statuses    []approval.Status
}

// CalendarPeriod identifies the range preset requested for calendar views.
type CalendarPeriod string

const (
	// CalendarPeriodNone indicates the caller supplied explicit bounds.
	CalendarPeriodNone CalendarPeriod = ""
	// CalendarPeriodDay constrains results to a single day.
	CalendarPeriodDay CalendarPeriod = "day"
	// CalendarPeriodWeek constrains results to the Monday-start week
	// containing the reference time.
	CalendarPeriodWeek CalendarPeriod = "week"
	// CalendarPeriodMonth constrains results to the month containing the
	// reference time.
	CalendarPeriodMonth CalendarPeriod = "month"
)

// CalendarParams wraps the data required to render a calendar window.
type CalendarParams struct {
	Actor  Actor
	RoomID string

	WindowStart time.Time
	WindowEnd   time.Time

	Period          CalendarPeriod
	PeriodReference time.Time
}

// CalendarEntry is one concrete calendar event: either a plain reservation or
// a synthesized instance of a recurring one. Instances carry no persisted
// identity; mutations must target OriginalReservationID.
type CalendarEntry struct {
	ID                    string
	IsRecurrenceInstance  bool
	OriginalReservationID string

	RoomID      string
	RequesterID string
	Title       string
	Status      approval.Status

	Start time.Time
	End   time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Location string
	Capacity int
	IsActive *bool
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Actor Actor
	Input RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Actor  Actor
	RoomID string
	Input  RoomInput
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Name     string
	Email    string
	Role     approval.Role
	Password string
	Disabled *bool
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Actor Actor
	Input UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Actor  Actor
	UserID string
	Input  UserInput
}

// ProjectInput captures caller provided project fields.
type ProjectInput struct {
	Name        string
	ProfessorID *string
}

// CreateProjectParams wraps the data required to create a project.
type CreateProjectParams struct {
	Actor Actor
	Input ProjectInput
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful login.
type AuthenticateResult struct {
	UserID    string
	Name      string
	Role      approval.Role
	Token     string
	ExpiresAt time.Time
}
