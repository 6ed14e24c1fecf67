package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/conflict"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/interval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/recurrence"
)

// ReservationService orchestrates validation, the approval workflow, conflict
// detection, and persistence for reservations.
//
// Conflict handling is two-phase: an advisory pre-check produces a friendly
// error listing the blocking reservations, and the repository's guarded write
// re-runs the same overlap query inside the write transaction so a row
// committed in between still fails instead of double-booking the room.
type ReservationService struct {
	reservations persistence.ReservationRepository
	rooms        persistence.RoomRepository
	projects     persistence.ProjectRepository
	auditor      *Auditor
	cache        *calendarCache
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(
	reservations persistence.ReservationRepository,
	rooms persistence.RoomRepository,
	projects persistence.ProjectRepository,
	auditor *Auditor,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		projects:     projects,
		auditor:      auditor,
		cache:        newCalendarCache(30*time.Second, 128, now),
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Create validates and persists a new reservation. Privileged roles
// (administrators and coordinators) skip the approval queue and start out
// approved; everyone else starts pending.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	actor := params.Actor
	input := params.Input

	logger := s.loggerWith(ctx, "Create",
		"actor_id", actor.ID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID, "status", reservation.Status).
			InfoContext(ctx, "reservation created")
	}()

	vErr := &ValidationError{}
	validateReservationInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureRoomAcceptsReservations(ctx, input.RoomID); err != nil {
		return
	}
	if err = s.ensureProjectExists(ctx, input.ProjectID); err != nil {
		return
	}

	now := s.now()
	status := approval.InitialStatus(actor.Role)

	reservation = persistence.Reservation{
		ID:                s.idGenerator(),
		RoomID:            input.RoomID,
		RequesterID:       actor.ID,
		Title:             strings.TrimSpace(input.Title),
		Description:       input.Description,
		Start:             input.Start,
		End:               input.End,
		Status:            status,
		IsRecurring:       input.IsRecurring,
		RecurrenceType:    input.RecurrenceType,
		RecurrenceEndDate: input.RecurrenceEndDate,
		Priority:          input.Priority,
		ProjectID:         input.ProjectID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if status == approval.StatusApproved {
		actorID := actor.ID
		reservation.ApprovedBy = &actorID
		approvedAt := now
		reservation.ApprovedAt = &approvedAt
	}

	guard := &persistence.OverlapQuery{
		RoomID:   input.RoomID,
		Start:    input.Start,
		End:      input.End,
		Statuses: conflict.BlockingOnSubmit().Statuses(),
	}

	if err = s.checkConflicts(ctx, *guard); err != nil {
		return
	}

	persisted, createErr := s.reservations.CreateReservation(ctx, reservation, guard)
	if createErr != nil {
		err = s.mapRepoError(ctx, createErr, *guard)
		return
	}
	reservation = persisted

	s.cache.Invalidate()
	s.auditor.Record(ctx, actor.ID, "reservation.create", "reservation", reservation.ID, string(reservation.Status))
	return
}

// Edit applies caller supplied changes to an existing reservation. Changing
// the room or the time window re-triggers the submission-time conflict check
// against all other reservations.
func (s *ReservationService) Edit(ctx context.Context, params EditReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	actor := params.Actor

	logger := s.loggerWith(ctx, "Edit",
		"actor_id", actor.ID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to edit reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation edited")
	}()

	existing, getErr := s.reservations.GetReservation(ctx, params.ReservationID)
	if getErr != nil {
		err = mapNotFound(getErr)
		return
	}

	if existing.RequesterID != actor.ID && !actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	vErr := &ValidationError{}
	validateReservationInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if input.RoomID != existing.RoomID {
		if err = s.ensureRoomAcceptsReservations(ctx, input.RoomID); err != nil {
			return
		}
	}
	if err = s.ensureProjectExists(ctx, input.ProjectID); err != nil {
		return
	}

	slotChanged := input.RoomID != existing.RoomID ||
		!input.Start.Equal(existing.Start) ||
		!input.End.Equal(existing.End)

	updated := existing
	updated.RoomID = input.RoomID
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.Start = input.Start
	updated.End = input.End
	updated.IsRecurring = input.IsRecurring
	updated.RecurrenceType = input.RecurrenceType
	updated.RecurrenceEndDate = input.RecurrenceEndDate
	updated.Priority = input.Priority
	updated.ProjectID = input.ProjectID
	updated.UpdatedAt = s.now()

	var guard *persistence.OverlapQuery
	if slotChanged {
		guard = &persistence.OverlapQuery{
			RoomID:    updated.RoomID,
			Start:     updated.Start,
			End:       updated.End,
			Statuses:  conflict.BlockingOnSubmit().Statuses(),
			ExcludeID: updated.ID,
		}
		if err = s.checkConflicts(ctx, *guard); err != nil {
			return
		}
	}

	persisted, updateErr := s.reservations.UpdateReservation(ctx, updated, guard)
	if updateErr != nil {
		if guard != nil {
			err = s.mapRepoError(ctx, updateErr, *guard)
		} else {
			err = mapNotFound(updateErr)
		}
		return
	}
	reservation = persisted

	s.cache.Invalidate()
	s.auditor.Record(ctx, actor.ID, "reservation.edit", "reservation", reservation.ID, "")
	return
}

// Transition drives the approval workflow: approve, reject, or cancel. The
// legality of the requested change is decided by the approval state machine;
// this method supplies the clock, the conflict re-check, and persistence.
func (s *ReservationService) Transition(ctx context.Context, params TransitionParams) (reservation persistence.Reservation, err error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	actor := params.Actor

	logger := s.loggerWith(ctx, "Transition",
		"actor_id", actor.ID,
		"reservation_id", params.ReservationID,
		"action", params.Action,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "transition refused", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", reservation.Status).InfoContext(ctx, "reservation transitioned")
	}()

	existing, getErr := s.reservations.GetReservation(ctx, params.ReservationID)
	if getErr != nil {
		err = mapNotFound(getErr)
		return
	}

	workflowActor, resolveErr := s.resolveWorkflowActor(ctx, actor, existing)
	if resolveErr != nil {
		err = resolveErr
		return
	}

	effect, decideErr := approval.Decide(workflowActor, existing.Status, params.Action)
	if decideErr != nil {
		err = mapDecisionError(decideErr)
		return
	}

	now := s.now()

	if params.Action == approval.ActionCancel && !existing.Start.After(now) {
		err = &TimingError{Operation: "cancel", Start: existing.Start}
		return
	}

	reason := strings.TrimSpace(params.Reason)
	if effect.RequireReason && reason == "" {
		vErr := &ValidationError{}
		vErr.add("reason", "rejection reason is required")
		err = vErr
		return
	}

	updated := existing
	updated.Status = effect.To
	updated.UpdatedAt = now

	if effect.StampProfessorApproval {
		actorID := actor.ID
		approvedAt := now
		updated.ProfessorApprovedBy = &actorID
		updated.ProfessorApprovedAt = &approvedAt
	}
	if effect.StampFinalApproval {
		actorID := actor.ID
		approvedAt := now
		updated.ApprovedBy = &actorID
		updated.ApprovedAt = &approvedAt
	}
	if effect.ClearRejection || effect.To != approval.StatusRejected {
		updated.RejectionReason = nil
	}
	if effect.To == approval.StatusRejected {
		updated.RejectionReason = &reason
	}

	var guard *persistence.OverlapQuery
	if effect.RecheckConflicts {
		guard = &persistence.OverlapQuery{
			RoomID:    updated.RoomID,
			Start:     updated.Start,
			End:       updated.End,
			Statuses:  conflict.BlockingOnApprove().Statuses(),
			ExcludeID: updated.ID,
		}
		if err = s.checkConflicts(ctx, *guard); err != nil {
			return
		}
	}

	persisted, updateErr := s.reservations.UpdateReservation(ctx, updated, guard)
	if updateErr != nil {
		if guard != nil {
			err = s.mapRepoError(ctx, updateErr, *guard)
		} else {
			err = mapNotFound(updateErr)
		}
		return
	}
	reservation = persisted

	s.cache.Invalidate()
	s.auditor.Record(ctx, actor.ID, "reservation."+string(params.Action), "reservation", reservation.ID, string(reservation.Status))
	return
}

// Delete removes a reservation. Only the requester or an administrator may
// delete, and only while the reservation has not started: rows with history
// behind them stay put.
func (s *ReservationService) Delete(ctx context.Context, actor Actor, reservationID string) (err error) {
	if s == nil || s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete",
		"actor_id", actor.ID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation deleted")
	}()

	existing, getErr := s.reservations.GetReservation(ctx, reservationID)
	if getErr != nil {
		err = mapNotFound(getErr)
		return
	}

	if existing.RequesterID != actor.ID && !actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	if !existing.Start.After(s.now()) {
		err = &TimingError{Operation: "delete", Start: existing.Start}
		return
	}

	if err = s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		err = mapNotFound(err)
		return
	}

	s.cache.Invalidate()
	s.auditor.Record(ctx, actor.ID, "reservation.delete", "reservation", reservationID, "")
	return
}

// Get returns a single reservation.
func (s *ReservationService) Get(ctx context.Context, actor Actor, reservationID string) (persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("reservation repository not configured")
	}
	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return persistence.Reservation{}, mapNotFound(err)
	}
	return reservation, nil
}

// List enumerates reservations matching the filter, ordered by start time.
func (s *ReservationService) List(ctx context.Context, params ListReservationsParams) ([]persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}

	reservations, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		RoomID:      params.RoomID,
		RequesterID: params.RequesterID,
		Statuses:    params.Statuses,
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(reservations, func(i, j int) bool {
		if reservations[i].Start.Equal(reservations[j].Start) {
			return reservations[i].ID < reservations[j].ID
		}
		return reservations[i].Start.Before(reservations[j].Start)
	})
	return reservations, nil
}

// PendingInbox returns the approval queue for the acting principal:
// professors see pending reservations of their projects, administrators see
// professor-approved reservations plus pending ones with no resolvable
// professor approver.
func (s *ReservationService) PendingInbox(ctx context.Context, actor Actor) ([]persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}

	switch actor.Role {
	case approval.RoleAdmin:
		return s.reservations.ListAdminQueue(ctx)
	case approval.RoleProfessor:
		return s.reservations.ListPendingForProfessor(ctx, actor.ID)
	default:
		return nil, ErrUnauthorized
	}
}

// Calendar expands the reservations visible in the requested window into
// concrete occurrences, recurring ones included. Results are cached briefly;
// every mutating operation invalidates the cache.
func (s *ReservationService) Calendar(ctx context.Context, params CalendarParams) ([]CalendarEntry, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}

	windowStart, windowEnd := params.WindowStart, params.WindowEnd
	if params.Period != CalendarPeriodNone {
		windowStart, windowEnd = computePeriodRange(params.Period, params.PeriodReference)
	}
	window := interval.New(windowStart, windowEnd)
	if !window.IsValid() {
		vErr := &ValidationError{}
		vErr.add("window", "a valid time window is required")
		return nil, vErr
	}

	key := calendarCacheKey(params, windowStart, windowEnd)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	reservations, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		RoomID: params.RoomID,
		Statuses: []approval.Status{
			approval.StatusPending,
			approval.StatusProfessorApproved,
			approval.StatusApproved,
		},
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]persistence.Reservation, len(reservations))
	series := make([]recurrence.Series, 0, len(reservations))
	for _, r := range reservations {
		byID[r.ID] = r
		series = append(series, toSeries(r))
	}

	occurrences := recurrence.ExpandWindow(series, window)
	entries := make([]CalendarEntry, 0, len(occurrences))
	for _, occurrence := range occurrences {
		sourceID := occurrence.OriginalID
		if !occurrence.Instance {
			sourceID = occurrence.ID
		}
		source := byID[sourceID]
		entries = append(entries, CalendarEntry{
			ID:                    occurrence.ID,
			IsRecurrenceInstance:  occurrence.Instance,
			OriginalReservationID: occurrence.OriginalID,
			RoomID:                source.RoomID,
			RequesterID:           source.RequesterID,
			Title:                 source.Title,
			Status:                source.Status,
			Start:                 occurrence.Start,
			End:                   occurrence.End,
		})
	}

	s.cache.Store(key, entries)
	return entries, nil
}

// resolveWorkflowActor reduces the principal to the attributes the state
// machine decides on, resolving project ownership when the reservation links
// to a project.
func (s *ReservationService) resolveWorkflowActor(ctx context.Context, actor Actor, reservation persistence.Reservation) (approval.Actor, error) {
	workflowActor := approval.Actor{
		ID:      actor.ID,
		Role:    actor.Role,
		IsOwner: reservation.RequesterID == actor.ID,
	}

	if actor.Role == approval.RoleProfessor && reservation.ProjectID != nil && s.projects != nil {
		project, err := s.projects.GetProject(ctx, *reservation.ProjectID)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return approval.Actor{}, err
		}
		if err == nil && project.ProfessorID != nil && *project.ProfessorID == actor.ID {
			workflowActor.OwnsProject = true
		}
	}

	return workflowActor, nil
}

// checkConflicts runs the advisory pre-check and converts hits into a
// ConflictError carrying the blocking reservations.
func (s *ReservationService) checkConflicts(ctx context.Context, query persistence.OverlapQuery) error {
	overlapping, err := s.reservations.FindOverlapping(ctx, query)
	if err != nil {
		return err
	}
	if len(overlapping) == 0 {
		return nil
	}

	conflictErr := &ConflictError{}
	for _, r := range overlapping {
		conflictErr.Conflicts = append(conflictErr.Conflicts, ConflictRef{
			ID:    r.ID,
			Title: r.Title,
			Start: r.Start,
			End:   r.End,
		})
	}
	return conflictErr
}

// mapRepoError translates guarded-write failures: a transactional conflict is
// re-read so the error carries the rows that won the race.
func (s *ReservationService) mapRepoError(ctx context.Context, err error, guard persistence.OverlapQuery) error {
	if errors.Is(err, persistence.ErrConflict) {
		if checkErr := s.checkConflicts(ctx, guard); checkErr != nil {
			return checkErr
		}
		return &ConflictError{}
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("references", "related records are missing")
		return vErr
	}
	return mapNotFound(err)
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func mapDecisionError(err error) error {
	if errors.Is(err, approval.ErrNotAllowed) {
		return ErrUnauthorized
	}
	var invalid *approval.InvalidTransitionError
	if errors.As(err, &invalid) {
		return &StateError{From: invalid.From, Action: invalid.Action, Reason: invalid.Reason}
	}
	return err
}

func validateReservationInput(input ReservationInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}

	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}

	if input.IsRecurring {
		if input.RecurrenceType == nil || !isKnownRecurrenceType(*input.RecurrenceType) {
			vErr.add("recurrence_type", "recurrence type must be daily, weekly or monthly")
		}
		if input.RecurrenceEndDate == nil {
			vErr.add("recurrence_end_date", "recurrence end date is required")
		} else if !input.Start.IsZero() && input.RecurrenceEndDate.Before(input.Start) {
			vErr.add("recurrence_end_date", "recurrence end date must not precede the start")
		}
	}

	if input.Priority < 0 {
		vErr.add("priority", "priority must not be negative")
	}
}

func isKnownRecurrenceType(value string) bool {
	switch recurrence.Kind(value) {
	case recurrence.KindDaily, recurrence.KindWeekly, recurrence.KindMonthly:
		return true
	}
	return false
}

func toSeries(r persistence.Reservation) recurrence.Series {
	series := recurrence.Series{
		ID:        r.ID,
		Start:     r.Start,
		End:       r.End,
		Recurring: r.IsRecurring,
		Until:     r.RecurrenceEndDate,
	}
	if r.RecurrenceType != nil {
		series.Kind = recurrence.Kind(*r.RecurrenceType)
	}
	return series
}

// computePeriodRange resolves a calendar preset to concrete half-open bounds
// around the reference time. Weeks start on Monday.
func computePeriodRange(period CalendarPeriod, reference time.Time) (time.Time, time.Time) {
	year, month, day := reference.Date()
	location := reference.Location()

	switch period {
	case CalendarPeriodDay:
		start := time.Date(year, month, day, 0, 0, 0, 0, location)
		return start, start.AddDate(0, 0, 1)
	case CalendarPeriodWeek:
		weekday := int(reference.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(year, month, day, 0, 0, 0, 0, location).AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7)
	case CalendarPeriodMonth:
		start := time.Date(year, month, 1, 0, 0, 0, 0, location)
		return start, start.AddDate(0, 1, 0)
	}

	return time.Time{}, time.Time{}
}

func (s *ReservationService) ensureRoomAcceptsReservations(ctx context.Context, roomID string) error {
	if s.rooms == nil {
		return nil
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("room_id", "room does not exist")
			return vErr
		}
		return err
	}
	if !room.IsActive {
		vErr := &ValidationError{}
		vErr.add("room_id", "room is inactive")
		return vErr
	}
	return nil
}

func (s *ReservationService) ensureProjectExists(ctx context.Context, projectID *string) error {
	if projectID == nil || s.projects == nil {
		return nil
	}
	_, err := s.projects.GetProject(ctx, *projectID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("project_id", "project does not exist")
			return vErr
		}
		return err
	}
	return nil
}
