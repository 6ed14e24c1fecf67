// Package memory implements the persistence interfaces on in-process maps.
// It backs handler tests and the ephemeral storage mode; semantics mirror the
// SQLite implementation, guarded writes included.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/interval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// Store holds every entity collection behind one mutex. A single Store
// instance provides all repository interfaces.
type Store struct {
	mu           sync.RWMutex
	users        map[string]persistence.User
	rooms        map[string]persistence.Room
	projects     map[string]persistence.Project
	reservations map[string]persistence.Reservation
	sessions     map[string]persistence.Session
	audit        []persistence.AuditEntry
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]persistence.User),
		rooms:        make(map[string]persistence.Room),
		projects:     make(map[string]persistence.Project),
		reservations: make(map[string]persistence.Reservation),
		sessions:     make(map[string]persistence.Session),
	}
}

// --- persistence.ReservationRepository ---

func (s *Store) CreateReservation(ctx context.Context, reservation persistence.Reservation, guard *persistence.OverlapQuery) (persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[reservation.ID]; exists {
		return persistence.Reservation{}, persistence.ErrDuplicate
	}
	if guard != nil && len(s.overlappingLocked(*guard)) > 0 {
		return persistence.Reservation{}, persistence.ErrConflict
	}
	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation, guard *persistence.OverlapQuery) (persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if guard != nil && len(s.overlappingLocked(*guard)) > 0 {
		return persistence.Reservation{}, persistence.ErrConflict
	}
	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Reservation
	for _, reservation := range s.reservations {
		if filter.RoomID != "" && reservation.RoomID != filter.RoomID {
			continue
		}
		if filter.RequesterID != "" && reservation.RequesterID != filter.RequesterID {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(reservation.Status, filter.Statuses) {
			continue
		}
		if filter.StartsAfter != nil && !reservation.End.After(*filter.StartsAfter) {
			continue
		}
		if filter.EndsBefore != nil && !reservation.Start.Before(*filter.EndsBefore) {
			continue
		}
		out = append(out, reservation)
	}
	sortReservations(out)
	return out, nil
}

func (s *Store) FindOverlapping(ctx context.Context, query persistence.OverlapQuery) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlappingLocked(query), nil
}

func (s *Store) ListPendingForProfessor(ctx context.Context, professorID string) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Reservation
	for _, reservation := range s.reservations {
		if reservation.Status != approval.StatusPending || reservation.ProjectID == nil {
			continue
		}
		project, ok := s.projects[*reservation.ProjectID]
		if !ok || project.ProfessorID == nil || *project.ProfessorID != professorID {
			continue
		}
		out = append(out, reservation)
	}
	sortReservations(out)
	return out, nil
}

func (s *Store) ListAdminQueue(ctx context.Context) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Reservation
	for _, reservation := range s.reservations {
		switch reservation.Status {
		case approval.StatusProfessorApproved:
			out = append(out, reservation)
		case approval.StatusPending:
			if reservation.ProjectID == nil {
				out = append(out, reservation)
				continue
			}
			project, ok := s.projects[*reservation.ProjectID]
			if !ok || project.ProfessorID == nil {
				out = append(out, reservation)
			}
		}
	}
	sortReservations(out)
	return out, nil
}

func (s *Store) overlappingLocked(query persistence.OverlapQuery) []persistence.Reservation {
	slot := interval.New(query.Start, query.End)

	var out []persistence.Reservation
	for _, reservation := range s.reservations {
		if reservation.RoomID != query.RoomID || reservation.ID == query.ExcludeID {
			continue
		}
		if len(query.Statuses) > 0 && !statusIn(reservation.Status, query.Statuses) {
			continue
		}
		if !interval.New(reservation.Start, reservation.End).Overlaps(slot) {
			continue
		}
		out = append(out, reservation)
	}
	sortReservations(out)
	return out
}

// --- persistence.RoomRepository ---

func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[room.ID]; exists {
		return persistence.Room{}, persistence.ErrDuplicate
	}
	for _, existing := range s.rooms {
		if existing.Name == room.Name {
			return persistence.Room{}, persistence.ErrDuplicate
		}
	}
	s.rooms[room.ID] = room
	return room, nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *Store) UpdateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	for _, existing := range s.rooms {
		if existing.ID != room.ID && existing.Name == room.Name {
			return persistence.Room{}, persistence.ErrDuplicate
		}
	}
	s.rooms[room.ID] = room
	return room, nil
}

func (s *Store) ListRooms(ctx context.Context, includeInactive bool) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Room
	for _, room := range s.rooms {
		if !includeInactive && !room.IsActive {
			continue
		}
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- persistence.UserRepository ---

func (s *Store) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return persistence.User{}, persistence.ErrDuplicate
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return persistence.User{}, persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *Store) UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	for _, existing := range s.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return persistence.User{}, persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- persistence.ProjectRepository ---

func (s *Store) CreateProject(ctx context.Context, project persistence.Project) (persistence.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[project.ID]; exists {
		return persistence.Project{}, persistence.ErrDuplicate
	}
	if project.ProfessorID != nil {
		if _, ok := s.users[*project.ProfessorID]; !ok {
			return persistence.Project{}, persistence.ErrForeignKeyViolation
		}
	}
	s.projects[project.ID] = project
	return project, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return project, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Project, 0, len(s.projects))
	for _, project := range s.projects {
		out = append(out, project)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- persistence.SessionRepository ---

func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.Token]; exists {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok || session.RevokedAt != nil {
		return persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

// --- persistence.AuditRepository ---

func (s *Store) AppendAuditEntry(ctx context.Context, entry persistence.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) ListAuditEntries(ctx context.Context, entityKind, entityID string) ([]persistence.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.AuditEntry
	for _, entry := range s.audit {
		if entry.EntityKind == entityKind && entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func statusIn(status approval.Status, statuses []approval.Status) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func sortReservations(reservations []persistence.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].Start.Equal(reservations[j].Start) {
			return reservations[i].ID < reservations[j].ID
		}
		return reservations[i].Start.Before(reservations[j].Start)
	})
}
