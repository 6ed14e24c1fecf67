package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
)

func TestClock(t *testing.T) {
	clock := NewClock(time.Time{})
	assert.Equal(t, ReferenceTime(), clock.Now())

	updated := clock.Advance(90 * time.Minute)
	assert.Equal(t, ReferenceTime().Add(90*time.Minute), updated)
	assert.Equal(t, updated, clock.NowFunc()())

	clock.Set(ReferenceTime())
	assert.Equal(t, ReferenceTime(), clock.Now())

	var nilClock *Clock
	assert.NotNil(t, nilClock.NowFunc())
}

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator("res")
	assert.Equal(t, "res-1", gen.Next())
	assert.Equal(t, "res-2", gen.Next())

	gen.SetCounter(41)
	assert.Equal(t, "res-42", gen.NextFunc()())

	var nilGen *IDGenerator
	assert.Equal(t, "", nilGen.NextFunc()())
}

func TestRecordBuilders(t *testing.T) {
	user := NewUser(WithRole(approval.RoleProfessor))
	assert.Equal(t, approval.RoleProfessor, user.Role)
	assert.NotEmpty(t, user.Email)

	room := NewRoom(Inactive())
	assert.False(t, room.IsActive)

	other := NewRoom()
	assert.NotEqual(t, room.ID, other.ID)

	start := ReferenceTime().AddDate(0, 0, 30)
	reservation := NewReservation(
		WithSlot(start, start.Add(2*time.Hour)),
		WithStatus(approval.StatusApproved),
		WithRoom(room.ID),
		WithProject("project-1"),
	)
	assert.Equal(t, start, reservation.Start)
	assert.Equal(t, approval.StatusApproved, reservation.Status)
	assert.Equal(t, room.ID, reservation.RoomID)
	if assert.NotNil(t, reservation.ProjectID) {
		assert.Equal(t, "project-1", *reservation.ProjectID)
	}
}
