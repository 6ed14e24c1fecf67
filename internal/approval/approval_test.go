package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPending, InitialStatus(RoleStudent))
	assert.Equal(t, StatusPending, InitialStatus(RoleProfessor))
	assert.Equal(t, StatusApproved, InitialStatus(RoleAdmin))
	assert.Equal(t, StatusApproved, InitialStatus(RoleCoordinator))
}

func TestProfessorApprovalPath(t *testing.T) {
	professor := Actor{ID: "p1", Role: RoleProfessor, OwnsProject: true}
	admin := Actor{ID: "a1", Role: RoleAdmin}

	effect, err := Decide(professor, StatusPending, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusProfessorApproved, effect.To)
	assert.True(t, effect.StampProfessorApproval)
	assert.False(t, effect.StampFinalApproval)
	assert.True(t, effect.RecheckConflicts)

	effect, err = Decide(admin, StatusProfessorApproved, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, effect.To)
	assert.True(t, effect.StampFinalApproval)
	assert.True(t, effect.ClearRejection)
}

func TestAdminSkipsProfessorStep(t *testing.T) {
	admin := Actor{ID: "a1", Role: RoleAdmin}

	effect, err := Decide(admin, StatusPending, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, effect.To)
	assert.True(t, effect.StampFinalApproval)
	assert.False(t, effect.StampProfessorApproval)
}

func TestProfessorCannotFinalize(t *testing.T) {
	professor := Actor{ID: "p1", Role: RoleProfessor, OwnsProject: true}

	_, err := Decide(professor, StatusProfessorApproved, ActionApprove)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StatusProfessorApproved, invalid.From)
	assert.Contains(t, invalid.Reason, "awaiting administrator")
}

func TestProfessorWithoutProjectIsNotAllowed(t *testing.T) {
	outsider := Actor{ID: "p2", Role: RoleProfessor, OwnsProject: false}

	_, err := Decide(outsider, StatusPending, ActionApprove)
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestStudentCannotApproveOwnReservation(t *testing.T) {
	owner := Actor{ID: "s1", Role: RoleStudent, IsOwner: true}

	_, err := Decide(owner, StatusPending, ActionApprove)
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestDoubleApprovalFails(t *testing.T) {
	admin := Actor{ID: "a1", Role: RoleAdmin}

	_, err := Decide(admin, StatusApproved, ActionApprove)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "already approved", invalid.Reason)
}

func TestRejectionRequiresReason(t *testing.T) {
	admin := Actor{ID: "a1", Role: RoleAdmin}
	professor := Actor{ID: "p1", Role: RoleProfessor, OwnsProject: true}

	for _, actor := range []Actor{admin, professor} {
		effect, err := Decide(actor, StatusPending, ActionReject)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, effect.To)
		assert.True(t, effect.RequireReason)
	}
}

func TestAdminRevokesApproved(t *testing.T) {
	admin := Actor{ID: "a1", Role: RoleAdmin}
	professor := Actor{ID: "p1", Role: RoleProfessor, OwnsProject: true}

	effect, err := Decide(admin, StatusApproved, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, effect.To)
	assert.True(t, effect.RequireReason)

	// Only an administrator may revoke a finalized approval.
	_, err = Decide(professor, StatusApproved, ActionReject)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestReapprovalAfterRejection(t *testing.T) {
	admin := Actor{ID: "a1", Role: RoleAdmin}
	professor := Actor{ID: "p1", Role: RoleProfessor, OwnsProject: true}

	effect, err := Decide(admin, StatusRejected, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, effect.To)
	assert.True(t, effect.ClearRejection)
	assert.True(t, effect.RecheckConflicts, "slot may have been taken since the rejection")

	effect, err = Decide(professor, StatusRejected, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusProfessorApproved, effect.To)
	assert.True(t, effect.ClearRejection)
	assert.True(t, effect.RecheckConflicts)
}

func TestCancelPermissions(t *testing.T) {
	owner := Actor{ID: "s1", Role: RoleStudent, IsOwner: true}
	admin := Actor{ID: "a1", Role: RoleAdmin}
	stranger := Actor{ID: "s2", Role: RoleStudent}

	for _, from := range []Status{StatusPending, StatusProfessorApproved, StatusApproved, StatusRejected} {
		effect, err := Decide(owner, from, ActionCancel)
		require.NoError(t, err, "owner cancel from %s", from)
		assert.Equal(t, StatusCancelled, effect.To)

		_, err = Decide(admin, from, ActionCancel)
		require.NoError(t, err, "admin cancel from %s", from)
	}

	_, err := Decide(stranger, StatusPending, ActionCancel)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = Decide(owner, StatusCancelled, ActionCancel)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "already cancelled", invalid.Reason)
}

func TestRejectFromCancelledFails(t *testing.T) {
	admin := Actor{ID: "a1", Role: RoleAdmin}

	_, err := Decide(admin, StatusCancelled, ActionReject)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "reservation was cancelled", invalid.Reason)
}

func TestUnknownStatusAndAction(t *testing.T) {
	admin := Actor{ID: "a1", Role: RoleAdmin}

	_, err := Decide(admin, Status("weird"), ActionApprove)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	_, err = Decide(admin, StatusPending, Action("weird"))
	assert.ErrorIs(t, err, ErrNotAllowed)
}
