// Package testfixtures supplies deterministic clocks, identifier generators
// and record builders shared by the test suites.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user record.
type UserOption func(*persistence.User)

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Name:         fmt.Sprintf("Usuário %03d", idx),
		Email:        fmt.Sprintf("%s@example.edu", id),
		Role:         approval.RoleStudent,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithRole overrides the generated user's role.
func WithRole(role approval.Role) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// RoomOption configures a generated room record.
type RoomOption func(*persistence.Room)

// NewRoom returns a deterministic active room record with optional overrides.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Sala %03d", idx),
		Location:  "Bloco A",
		Capacity:  30,
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// Inactive marks the generated room as not accepting reservations.
func Inactive() RoomOption {
	return func(r *persistence.Room) { r.IsActive = false }
}

// ReservationOption configures a generated reservation record.
type ReservationOption func(*persistence.Reservation)

// NewReservation returns a deterministic pending reservation one hour long,
// with each successive fixture shifted a day later to avoid overlaps.
func NewReservation(opts ...ReservationOption) persistence.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := referenceTime.AddDate(0, 0, int(idx))
	reservation := persistence.Reservation{
		ID:          fmt.Sprintf("res-%03d", idx),
		RoomID:      "room-001",
		RequesterID: "user-001",
		Title:       fmt.Sprintf("Reserva %03d", idx),
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      approval.StatusPending,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// WithSlot overrides the reservation window.
func WithSlot(start, end time.Time) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Start = start
		r.End = end
	}
}

// WithStatus overrides the reservation status.
func WithStatus(status approval.Status) ReservationOption {
	return func(r *persistence.Reservation) { r.Status = status }
}

// WithRoom points the reservation at another room.
func WithRoom(roomID string) ReservationOption {
	return func(r *persistence.Reservation) { r.RoomID = roomID }
}

// WithProject links the reservation to a project.
func WithProject(projectID string) ReservationOption {
	return func(r *persistence.Reservation) { r.ProjectID = &projectID }
}
