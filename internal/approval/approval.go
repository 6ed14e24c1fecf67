// Package approval models the reservation approval workflow as an explicit
// state machine. Transitions are a closed set keyed by (action, current
// status, actor class) so that illegal combinations are rejected by table
// lookup instead of scattered conditionals.
package approval

import (
	"errors"
	"fmt"
)

// Status enumerates the lifecycle states of a reservation.
type Status string

const (
	StatusPending           Status = "pending"
	StatusProfessorApproved Status = "professor_approved"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusCancelled         Status = "cancelled"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProfessorApproved, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Action enumerates the status-affecting operations a caller may request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// IsValid reports whether the action is one of the known operations.
func (a Action) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionCancel:
		return true
	}
	return false
}

// Role enumerates the account roles recognized by the workflow.
type Role string

const (
	RoleStudent     Role = "aluno"
	RoleProfessor   Role = "professor"
	RoleCoordinator Role = "coordenador"
	RoleAdmin       Role = "admin"
)

// IsValid reports whether the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// AutoApproves reports whether reservations created by this role skip the
// approval queue entirely and start out approved.
func (r Role) AutoApproves() bool {
	return r == RoleAdmin || r == RoleCoordinator
}

// InitialStatus returns the status a new reservation takes given its
// creator's role.
func InitialStatus(creator Role) Status {
	if creator.AutoApproves() {
		return StatusApproved
	}
	return StatusPending
}

// Actor describes the principal requesting a transition, reduced to the
// attributes the state machine cares about.
type Actor struct {
	ID   string
	Role Role
	// IsOwner indicates the actor created the reservation.
	IsOwner bool
	// OwnsProject indicates the actor is the responsible professor of the
	// reservation's linked project.
	OwnsProject bool
}

// Effect describes the outcome of a legal transition and the side effects
// the caller must apply alongside the status change.
type Effect struct {
	To Status
	// StampProfessorApproval records the actor as the intermediate approver.
	StampProfessorApproval bool
	// StampFinalApproval records the actor as the final approver.
	StampFinalApproval bool
	// ClearRejection wipes a previously recorded rejection reason.
	ClearRejection bool
	// RequireReason demands a non-empty justification from the caller.
	RequireReason bool
	// RecheckConflicts requires the caller to re-verify the reservation does
	// not overlap any already-approved reservation before persisting. Approval
	// is the authoritative commitment, so the check cannot be skipped even
	// when a creation-time check already passed.
	RecheckConflicts bool
}

// ErrNotAllowed is returned when the actor's role or ownership does not
// permit the requested action at all.
var ErrNotAllowed = errors.New("approval: actor not allowed to perform this action")

// InvalidTransitionError is returned when the action is one the actor could
// perform in principle, but not from the reservation's current status.
type InvalidTransitionError struct {
	From   Status
	Action Action
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason != "" {
		return fmt.Sprintf("approval: cannot %s a %s reservation: %s", e.Action, e.From, e.Reason)
	}
	return fmt.Sprintf("approval: cannot %s a %s reservation", e.Action, e.From)
}

// actorClass collapses the Actor into the classes the transition table is
// keyed on. An actor may hold several classes; they are tried in order of
// privilege.
type actorClass int

const (
	classAdmin actorClass = iota
	classProjectProfessor
	classOwner
)

func (a Actor) classes() []actorClass {
	var out []actorClass
	if a.Role == RoleAdmin {
		out = append(out, classAdmin)
	}
	if a.Role == RoleProfessor && a.OwnsProject {
		out = append(out, classProjectProfessor)
	}
	if a.IsOwner {
		out = append(out, classOwner)
	}
	return out
}

type transitionKey struct {
	action Action
	from   Status
	class  actorClass
}

// transitions is the closed set of legal status changes.
var transitions = map[transitionKey]Effect{
	// Approval path. The professor of the linked project performs the
	// intermediate step; only an administrator finalizes, and may skip the
	// professor step entirely.
	{ActionApprove, StatusPending, classProjectProfessor}: {
		To:                     StatusProfessorApproved,
		StampProfessorApproval: true,
		RecheckConflicts:       true,
	},
	{ActionApprove, StatusPending, classAdmin}: {
		To:                 StatusApproved,
		StampFinalApproval: true,
		RecheckConflicts:   true,
	},
	{ActionApprove, StatusProfessorApproved, classAdmin}: {
		To:                 StatusApproved,
		StampFinalApproval: true,
		ClearRejection:     true,
		RecheckConflicts:   true,
	},

	// Re-approval after rejection is an explicit reversal path. The conflict
	// check runs again because the slot may have been taken meanwhile.
	{ActionApprove, StatusRejected, classAdmin}: {
		To:                 StatusApproved,
		StampFinalApproval: true,
		ClearRejection:     true,
		RecheckConflicts:   true,
	},
	{ActionApprove, StatusRejected, classProjectProfessor}: {
		To:                     StatusProfessorApproved,
		StampProfessorApproval: true,
		ClearRejection:         true,
		RecheckConflicts:       true,
	},

	// Rejection. Admins may also revoke an already-approved reservation.
	{ActionReject, StatusPending, classAdmin}:             {To: StatusRejected, RequireReason: true},
	{ActionReject, StatusPending, classProjectProfessor}:  {To: StatusRejected, RequireReason: true},
	{ActionReject, StatusProfessorApproved, classAdmin}:   {To: StatusRejected, RequireReason: true},
	{ActionReject, StatusApproved, classAdmin}:            {To: StatusRejected, RequireReason: true},

	// Cancellation by the requester or an administrator. The caller enforces
	// the timing rule (a reservation that already started cannot be
	// cancelled) because the machine holds no clock.
	{ActionCancel, StatusPending, classOwner}:            {To: StatusCancelled},
	{ActionCancel, StatusPending, classAdmin}:            {To: StatusCancelled},
	{ActionCancel, StatusProfessorApproved, classOwner}:  {To: StatusCancelled},
	{ActionCancel, StatusProfessorApproved, classAdmin}:  {To: StatusCancelled},
	{ActionCancel, StatusApproved, classOwner}:           {To: StatusCancelled},
	{ActionCancel, StatusApproved, classAdmin}:           {To: StatusCancelled},
	{ActionCancel, StatusRejected, classOwner}:           {To: StatusCancelled},
	{ActionCancel, StatusRejected, classAdmin}:           {To: StatusCancelled},
}

// blockedTransitions maps combinations that deserve a specific explanation
// rather than the generic "not allowed from this status" message.
var blockedTransitions = map[transitionKey]string{
	{ActionApprove, StatusProfessorApproved, classProjectProfessor}: "already approved by this professor, awaiting administrator approval",
	{ActionApprove, StatusApproved, classAdmin}:                     "already approved",
	{ActionApprove, StatusApproved, classProjectProfessor}:          "already approved",
	{ActionApprove, StatusCancelled, classAdmin}:                    "reservation was cancelled",
	{ActionApprove, StatusCancelled, classProjectProfessor}:         "reservation was cancelled",
	{ActionReject, StatusRejected, classAdmin}:                      "already rejected",
	{ActionReject, StatusRejected, classProjectProfessor}:           "already rejected",
	{ActionReject, StatusCancelled, classAdmin}:                     "reservation was cancelled",
	{ActionReject, StatusCancelled, classProjectProfessor}:          "reservation was cancelled",
	{ActionCancel, StatusCancelled, classOwner}:                     "already cancelled",
	{ActionCancel, StatusCancelled, classAdmin}:                     "already cancelled",
}

// Decide resolves the requested transition for the actor against the current
// status. It returns the effect to apply, ErrNotAllowed when the actor can
// never perform the action, or *InvalidTransitionError when the action exists
// for the actor but is illegal from the current status.
func Decide(actor Actor, from Status, action Action) (Effect, error) {
	if !from.IsValid() {
		return Effect{}, &InvalidTransitionError{From: from, Action: action, Reason: "unknown status"}
	}
	if !action.IsValid() {
		return Effect{}, ErrNotAllowed
	}

	classes := actor.classes()
	for _, class := range classes {
		if effect, ok := transitions[transitionKey{action, from, class}]; ok {
			return effect, nil
		}
	}
	for _, class := range classes {
		if reason, ok := blockedTransitions[transitionKey{action, from, class}]; ok {
			return Effect{}, &InvalidTransitionError{From: from, Action: action, Reason: reason}
		}
	}

	// The actor holds a class that can perform this action from some other
	// status: report a state problem instead of a permission problem.
	for _, class := range classes {
		for key := range transitions {
			if key.action == action && key.class == class {
				return Effect{}, &InvalidTransitionError{From: from, Action: action}
			}
		}
	}

	return Effect{}, ErrNotAllowed
}
