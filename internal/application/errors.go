package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission
	// for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness constraint is violated.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned for failed login attempts.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a disabled account attempts to log in.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session token is past its TTL.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictRef identifies a reservation blocking the requested slot, with
// enough detail for the user to disambiguate.
type ConflictRef struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// ConflictError reports that one or more blocking reservations already occupy
// the requested room slot.
type ConflictError struct {
	Conflicts []ConflictRef
}

func (c *ConflictError) Error() string {
	if c == nil || len(c.Conflicts) == 0 {
		return "conflicting reservation"
	}
	first := c.Conflicts[0]
	return fmt.Sprintf("conflicting reservation %s (%s)", first.ID, first.Title)
}

// StateError reports a transition that is not legal from the reservation's
// current status.
type StateError struct {
	From   approval.Status
	Action approval.Action
	Reason string
}

func (s *StateError) Error() string {
	if s == nil {
		return "invalid state transition"
	}
	if s.Reason != "" {
		return fmt.Sprintf("cannot %s a %s reservation: %s", s.Action, s.From, s.Reason)
	}
	return fmt.Sprintf("cannot %s a %s reservation", s.Action, s.From)
}

// TimingError reports an action forbidden because the reservation already
// started.
type TimingError struct {
	Operation string
	Start     time.Time
}

func (t *TimingError) Error() string {
	if t == nil {
		return "reservation already started"
	}
	return fmt.Sprintf("cannot %s a reservation that started at %s", t.Operation, t.Start.Format(time.RFC3339))
}
