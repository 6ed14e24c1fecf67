package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "scheduler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, id string, role approval.Role) persistence.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	user, err := NewUserRepository(db).CreateUser(context.Background(), persistence.User{
		ID:           id,
		Name:         "Usuário " + id,
		Email:        id + "@example.edu",
		Role:         role,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return user
}

func seedRoom(t *testing.T, db *DB, id string) persistence.Room {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	room, err := NewRoomRepository(db).CreateRoom(context.Background(), persistence.Room{
		ID:        id,
		Name:      "Sala " + id,
		Location:  "Bloco A",
		Capacity:  30,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return room
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.db")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())

	// Reopening an existing database must rerun migrations without error.
	db, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "user-1", approval.RoleStudent)

	t.Run("get by id and email", func(t *testing.T) {
		byID, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
		assert.Equal(t, approval.RoleStudent, byID.Role)

		byEmail, err := repo.GetUserByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, persistence.User{
			ID:           "user-2",
			Name:         "Outra",
			Email:        user.Email,
			Role:         approval.RoleStudent,
			PasswordHash: "hash",
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		})
		assert.ErrorIs(t, err, persistence.ErrDuplicate)
	})

	t.Run("update and delete", func(t *testing.T) {
		user.Role = approval.RoleProfessor
		updated, err := repo.UpdateUser(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, approval.RoleProfessor, updated.Role)

		require.NoError(t, repo.DeleteUser(ctx, user.ID))
		_, err = repo.GetUser(ctx, user.ID)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestRoomRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	active := seedRoom(t, db, "room-1")
	inactive := seedRoom(t, db, "room-2")
	inactive.IsActive = false
	_, err := repo.UpdateRoom(ctx, inactive)
	require.NoError(t, err)

	t.Run("list filters inactive rooms", func(t *testing.T) {
		rooms, err := repo.ListRooms(ctx, false)
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, active.ID, rooms[0].ID)

		rooms, err = repo.ListRooms(ctx, true)
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := repo.CreateRoom(ctx, persistence.Room{
			ID:        "room-3",
			Name:      active.Name,
			Capacity:  10,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})
		assert.ErrorIs(t, err, persistence.ErrDuplicate)
	})
}

func TestProjectRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	professor := seedUser(t, db, "prof-1", approval.RoleProfessor)
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("project with professor round trips", func(t *testing.T) {
		created, err := repo.CreateProject(ctx, persistence.Project{
			ID:          "project-1",
			Name:        "Iniciação Científica",
			ProfessorID: &professor.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		require.NoError(t, err)

		loaded, err := repo.GetProject(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded.ProfessorID)
		assert.Equal(t, professor.ID, *loaded.ProfessorID)
	})

	t.Run("project without professor", func(t *testing.T) {
		created, err := repo.CreateProject(ctx, persistence.Project{
			ID:        "project-2",
			Name:      "Semana Acadêmica",
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NoError(t, err)

		loaded, err := repo.GetProject(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded.ProfessorID)
	})

	t.Run("unknown professor violates the foreign key", func(t *testing.T) {
		missing := "missing"
		_, err := repo.CreateProject(ctx, persistence.Project{
			ID:          "project-3",
			Name:        "Projeto Fantasma",
			ProfessorID: &missing,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
	})
}

func TestSessionRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "user-1", approval.RoleStudent)
	now := time.Now().UTC().Truncate(time.Second)

	session, err := repo.CreateSession(ctx, persistence.Session{
		ID:        "session-1",
		UserID:    user.ID,
		Token:     "token-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	})
	require.NoError(t, err)

	t.Run("lookup by token", func(t *testing.T) {
		loaded, err := repo.GetSessionByToken(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, session.ID, loaded.ID)
		assert.Nil(t, loaded.RevokedAt)
	})

	t.Run("revoke", func(t *testing.T) {
		require.NoError(t, repo.RevokeSession(ctx, session.Token, now))

		loaded, err := repo.GetSessionByToken(ctx, session.Token)
		require.NoError(t, err)
		require.NotNil(t, loaded.RevokedAt)

		// Second revocation finds nothing to update.
		assert.ErrorIs(t, repo.RevokeSession(ctx, session.Token, now.Add(time.Minute)), persistence.ErrNotFound)
	})

	t.Run("prune expired", func(t *testing.T) {
		_, err := repo.CreateSession(ctx, persistence.Session{
			ID:        "session-2",
			UserID:    user.ID,
			Token:     "token-2",
			ExpiresAt: now.Add(-time.Minute),
			CreatedAt: now.Add(-time.Hour),
		})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteExpiredSessions(ctx, now))

		_, err = repo.GetSessionByToken(ctx, "token-2")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestAuditRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	detail := "approved"
	entries := []persistence.AuditEntry{
		{ID: "audit-1", ActorID: "user-1", Action: "reservation.create", EntityKind: "reservation", EntityID: "res-1", CreatedAt: now},
		{ID: "audit-2", ActorID: "admin-1", Action: "reservation.approve", EntityKind: "reservation", EntityID: "res-1", Detail: &detail, CreatedAt: now.Add(time.Minute)},
		{ID: "audit-3", ActorID: "admin-1", Action: "room.create", EntityKind: "room", EntityID: "room-1", CreatedAt: now},
	}
	for _, entry := range entries {
		require.NoError(t, repo.AppendAuditEntry(ctx, entry))
	}

	listed, err := repo.ListAuditEntries(ctx, "reservation", "res-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "audit-1", listed[0].ID)
	assert.Equal(t, "audit-2", listed[1].ID)
	require.NotNil(t, listed[1].Detail)
	assert.Equal(t, "approved", *listed[1].Detail)
}
