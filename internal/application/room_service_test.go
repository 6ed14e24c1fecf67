package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

func newRoomService(rooms *roomRepoStub) *RoomService {
	return NewRoomService(rooms, nil, func() string { return "room-id" }, fixedClock, nil)
}

func TestRoomServiceCreate(t *testing.T) {
	admin := Actor{ID: "admin-1", Role: approval.RoleAdmin}

	t.Run("admin creates an active room", func(t *testing.T) {
		service := newRoomService(&roomRepoStub{})

		room, err := service.Create(context.Background(), CreateRoomParams{
			Actor: admin,
			Input: RoomInput{Name: " Sala 101 ", Location: "Bloco A", Capacity: 40},
		})

		require.NoError(t, err)
		assert.Equal(t, "room-id", room.ID)
		assert.Equal(t, "Sala 101", room.Name)
		assert.True(t, room.IsActive)
		assert.True(t, room.CreatedAt.Equal(testNow))
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		service := newRoomService(&roomRepoStub{})

		_, err := service.Create(context.Background(), CreateRoomParams{
			Actor: Actor{ID: "user-1", Role: approval.RoleProfessor},
			Input: RoomInput{Name: "Sala 101", Capacity: 40},
		})

		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("invalid input", func(t *testing.T) {
		service := newRoomService(&roomRepoStub{})

		_, err := service.Create(context.Background(), CreateRoomParams{
			Actor: admin,
			Input: RoomInput{Name: "  ", Capacity: 0},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "name")
		assert.Contains(t, vErr.FieldErrors, "capacity")
	})

	t.Run("duplicate name", func(t *testing.T) {
		rooms := &roomRepoStub{createFn: func(ctx context.Context, room persistence.Room) (persistence.Room, error) {
			return persistence.Room{}, persistence.ErrDuplicate
		}}
		service := newRoomService(rooms)

		_, err := service.Create(context.Background(), CreateRoomParams{
			Actor: admin,
			Input: RoomInput{Name: "Sala 101", Capacity: 40},
		})

		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestRoomServiceUpdate(t *testing.T) {
	admin := Actor{ID: "admin-1", Role: approval.RoleAdmin}

	t.Run("deactivating keeps other fields", func(t *testing.T) {
		rooms := &roomRepoStub{getFn: func(ctx context.Context, id string) (persistence.Room, error) {
			return persistence.Room{ID: id, Name: "Sala 101", Location: "Bloco A", Capacity: 40, IsActive: true}, nil
		}}
		service := newRoomService(rooms)

		inactive := false
		room, err := service.Update(context.Background(), UpdateRoomParams{
			Actor:  admin,
			RoomID: "room-1",
			Input:  RoomInput{Name: "Sala 101", Location: "Bloco A", Capacity: 40, IsActive: &inactive},
		})

		require.NoError(t, err)
		assert.False(t, room.IsActive)
		assert.Equal(t, "Sala 101", room.Name)
		assert.True(t, room.UpdatedAt.Equal(testNow))
	})

	t.Run("missing room", func(t *testing.T) {
		rooms := &roomRepoStub{getFn: func(ctx context.Context, id string) (persistence.Room, error) {
			return persistence.Room{}, persistence.ErrNotFound
		}}
		service := newRoomService(rooms)

		_, err := service.Update(context.Background(), UpdateRoomParams{
			Actor:  admin,
			RoomID: "missing",
			Input:  RoomInput{Name: "Sala 101", Capacity: 40},
		})

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRoomServiceDeactivate(t *testing.T) {
	admin := Actor{ID: "admin-1", Role: approval.RoleAdmin}

	t.Run("admin deactivates an active room", func(t *testing.T) {
		var updated *persistence.Room
		rooms := &roomRepoStub{
			getFn: func(ctx context.Context, id string) (persistence.Room, error) {
				return persistence.Room{ID: id, Name: "Sala 101", Capacity: 40, IsActive: true}, nil
			},
			updateFn: func(ctx context.Context, room persistence.Room) (persistence.Room, error) {
				updated = &room
				return room, nil
			},
		}
		service := newRoomService(rooms)

		err := service.Deactivate(context.Background(), admin, "room-1")

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.False(t, updated.IsActive)
		assert.True(t, updated.UpdatedAt.Equal(testNow))
	})

	t.Run("already inactive room is left untouched", func(t *testing.T) {
		rooms := &roomRepoStub{
			getFn: func(ctx context.Context, id string) (persistence.Room, error) {
				return persistence.Room{ID: id, Name: "Sala 101", Capacity: 40, IsActive: false}, nil
			},
			updateFn: func(ctx context.Context, room persistence.Room) (persistence.Room, error) {
				t.Fatal("update should not run for an inactive room")
				return room, nil
			},
		}
		service := newRoomService(rooms)

		assert.NoError(t, service.Deactivate(context.Background(), admin, "room-1"))
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		service := newRoomService(&roomRepoStub{})

		err := service.Deactivate(context.Background(), Actor{ID: "user-1", Role: approval.RoleStudent}, "room-1")

		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing room", func(t *testing.T) {
		rooms := &roomRepoStub{getFn: func(ctx context.Context, id string) (persistence.Room, error) {
			return persistence.Room{}, persistence.ErrNotFound
		}}
		service := newRoomService(rooms)

		assert.ErrorIs(t, service.Deactivate(context.Background(), admin, "missing"), ErrNotFound)
	})
}

func TestRoomServiceList(t *testing.T) {
	t.Run("non-admin never sees inactive rooms", func(t *testing.T) {
		var seenIncludeInactive bool
		rooms := &roomRepoStub{listFn: func(ctx context.Context, includeInactive bool) ([]persistence.Room, error) {
			seenIncludeInactive = includeInactive
			return nil, nil
		}}
		service := newRoomService(rooms)

		_, err := service.List(context.Background(), Actor{ID: "user-1", Role: approval.RoleStudent}, true)

		require.NoError(t, err)
		assert.False(t, seenIncludeInactive)
	})

	t.Run("admin may include inactive rooms", func(t *testing.T) {
		var seenIncludeInactive bool
		rooms := &roomRepoStub{listFn: func(ctx context.Context, includeInactive bool) ([]persistence.Room, error) {
			seenIncludeInactive = includeInactive
			return nil, nil
		}}
		service := newRoomService(rooms)

		_, err := service.List(context.Background(), Actor{ID: "admin-1", Role: approval.RoleAdmin}, true)

		require.NoError(t, err)
		assert.True(t, seenIncludeInactive)
	})
}
