// Package conflict detects double-bookings of rooms. It operates on plain
// reservation views handed in by the caller so it stays free of persistence
// concerns.
package conflict

import (
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/interval"
)

// Reservation is the minimal view of a reservation needed for conflict
// detection.
type Reservation struct {
	ID     string
	Title  string
	RoomID string
	Slot   interval.Interval
	Status approval.Status
}

// StatusSet is a set of reservation statuses considered to occupy a room
// slot for conflict purposes.
type StatusSet map[approval.Status]struct{}

// Contains reports whether the status belongs to the set.
func (s StatusSet) Contains(status approval.Status) bool {
	_, ok := s[status]
	return ok
}

func newStatusSet(statuses ...approval.Status) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, status := range statuses {
		set[status] = struct{}{}
	}
	return set
}

// Statuses returns the members of the set in stable order.
func (s StatusSet) Statuses() []approval.Status {
	ordered := []approval.Status{
		approval.StatusPending,
		approval.StatusProfessorApproved,
		approval.StatusApproved,
		approval.StatusRejected,
		approval.StatusCancelled,
	}
	out := make([]approval.Status, 0, len(s))
	for _, status := range ordered {
		if s.Contains(status) {
			out = append(out, status)
		}
	}
	return out
}

// BlockingOnSubmit is the conservative set used when a reservation is created
// or its room/time edited: unresolved requests already hold the slot so
// double submissions are refused up front.
func BlockingOnSubmit() StatusSet {
	return newStatusSet(approval.StatusPending, approval.StatusProfessorApproved, approval.StatusApproved)
}

// BlockingOnApprove is the authoritative set used when a reservation is being
// approved: only final commitments block, since competing pending requests
// are expected to coexist until one of them wins.
func BlockingOnApprove() StatusSet {
	return newStatusSet(approval.StatusApproved)
}

// Query describes a candidate slot to be checked against existing
// reservations.
type Query struct {
	RoomID   string
	Slot     interval.Interval
	Blocking StatusSet
	// ExcludeID skips the reservation being edited or approved so that
	// no-op edits do not conflict with themselves.
	ExcludeID string
}

// Find returns every existing reservation that occupies the queried slot, in
// the order given. Callers typically surface the first hit to the user.
func Find(existing []Reservation, q Query) []Reservation {
	var out []Reservation
	for _, r := range existing {
		if r.ID == q.ExcludeID {
			continue
		}
		if r.RoomID != q.RoomID {
			continue
		}
		if !q.Blocking.Contains(r.Status) {
			continue
		}
		if !r.Slot.Overlaps(q.Slot) {
			continue
		}
		out = append(out, r)
	}
	return out
}
