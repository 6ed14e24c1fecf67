package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// RoomService manages the catalog of reservable spaces. Mutations are
// restricted to administrators; reads are open to any authenticated user.
type RoomService struct {
	rooms       persistence.RoomRepository
	auditor     *Auditor
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService wires dependencies for room operations.
func NewRoomService(rooms persistence.RoomRepository, auditor *Auditor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		auditor:     auditor,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// Create registers a new room. New rooms are active unless stated otherwise.
func (s *RoomService) Create(ctx context.Context, params CreateRoomParams) (room persistence.Room, err error) {
	if s == nil || s.rooms == nil {
		return persistence.Room{}, fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "Create", "actor_id", params.Actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	if err = validateRoomInput(params.Input); err != nil {
		return
	}

	now := s.now()
	room = persistence.Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Location:  strings.TrimSpace(params.Input.Location),
		Capacity:  params.Input.Capacity,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.Input.IsActive != nil {
		room.IsActive = *params.Input.IsActive
	}

	persisted, createErr := s.rooms.CreateRoom(ctx, room)
	if createErr != nil {
		if errors.Is(createErr, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
			return
		}
		err = createErr
		return
	}
	room = persisted

	s.auditor.Record(ctx, params.Actor.ID, "room.create", "room", room.ID, room.Name)
	return
}

// Update changes a room's attributes. Deactivating a room stops new
// reservations without touching existing ones.
func (s *RoomService) Update(ctx context.Context, params UpdateRoomParams) (room persistence.Room, err error) {
	if s == nil || s.rooms == nil {
		return persistence.Room{}, fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "Update", "actor_id", params.Actor.ID, "room_id", params.RoomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !params.Actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	existing, getErr := s.rooms.GetRoom(ctx, params.RoomID)
	if getErr != nil {
		err = mapNotFound(getErr)
		return
	}

	if err = validateRoomInput(params.Input); err != nil {
		return
	}

	existing.Name = strings.TrimSpace(params.Input.Name)
	existing.Location = strings.TrimSpace(params.Input.Location)
	existing.Capacity = params.Input.Capacity
	if params.Input.IsActive != nil {
		existing.IsActive = *params.Input.IsActive
	}
	existing.UpdatedAt = s.now()

	persisted, updateErr := s.rooms.UpdateRoom(ctx, existing)
	if updateErr != nil {
		if errors.Is(updateErr, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
			return
		}
		err = mapNotFound(updateErr)
		return
	}
	room = persisted

	s.auditor.Record(ctx, params.Actor.ID, "room.update", "room", room.ID, room.Name)
	return
}

// Deactivate is the room's soft delete: the room stops accepting new
// reservations while its history stays intact.
func (s *RoomService) Deactivate(ctx context.Context, actor Actor, roomID string) (err error) {
	if s == nil || s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "Deactivate", "actor_id", actor.ID, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to deactivate room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deactivated")
	}()

	if !actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	existing, getErr := s.rooms.GetRoom(ctx, roomID)
	if getErr != nil {
		err = mapNotFound(getErr)
		return
	}

	if existing.IsActive {
		existing.IsActive = false
		existing.UpdatedAt = s.now()
		if _, updateErr := s.rooms.UpdateRoom(ctx, existing); updateErr != nil {
			err = mapNotFound(updateErr)
			return
		}
	}

	s.auditor.Record(ctx, actor.ID, "room.deactivate", "room", existing.ID, existing.Name)
	return
}

// Get returns a single room.
func (s *RoomService) Get(ctx context.Context, roomID string) (persistence.Room, error) {
	if s == nil || s.rooms == nil {
		return persistence.Room{}, fmt.Errorf("room repository not configured")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapNotFound(err)
	}
	return room, nil
}

// List enumerates rooms. Inactive rooms are included only for administrators.
func (s *RoomService) List(ctx context.Context, actor Actor, includeInactive bool) ([]persistence.Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room repository not configured")
	}
	if includeInactive && !actor.IsAdmin() {
		includeInactive = false
	}
	return s.rooms.ListRooms(ctx, includeInactive)
}

func validateRoomInput(input RoomInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
