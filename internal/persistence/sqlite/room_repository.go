package sqlite

import (
	"context"
	"fmt"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository.
type RoomRepository struct {
	db *DB
}

// NewRoomRepository constructs the SQLite-backed room store.
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, name, location, capacity, is_active, created_at, updated_at`

// CreateRoom inserts a room. Room names are unique.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	room.CreatedAt = room.CreatedAt.UTC()
	room.UpdatedAt = room.UpdatedAt.UTC()

	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.Location, room.Capacity, room.IsActive, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

// GetRoom loads a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	var room persistence.Room
	err := r.db.conn.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

// UpdateRoom rewrites a room row.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	room.UpdatedAt = room.UpdatedAt.UTC()

	result, err := r.db.conn.ExecContext(ctx, `
		UPDATE rooms SET name = ?, location = ?, capacity = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		room.Name, room.Location, room.Capacity, room.IsActive, room.UpdatedAt, room.ID,
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Room{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms enumerates rooms ordered by name.
func (r *RoomRepository) ListRooms(ctx context.Context, includeInactive bool) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name ASC`

	var rooms []persistence.Room
	if err := r.db.conn.SelectContext(ctx, &rooms, query); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}
