package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/application"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (persistence.Reservation, error)
	Edit(ctx context.Context, params application.EditReservationParams) (persistence.Reservation, error)
	Transition(ctx context.Context, params application.TransitionParams) (persistence.Reservation, error)
	Delete(ctx context.Context, actor application.Actor, reservationID string) error
	Get(ctx context.Context, actor application.Actor, reservationID string) (persistence.Reservation, error)
	List(ctx context.Context, params application.ListReservationsParams) ([]persistence.Reservation, error)
	PendingInbox(ctx context.Context, actor application.Actor) ([]persistence.Reservation, error)
	Calendar(ctx context.Context, params application.CalendarParams) ([]application.CalendarEntry, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	reservation, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Actor: actor,
		Input: req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	reservation, err := h.service.Edit(r.Context(), application.EditReservationParams{
		Actor:         actor,
		ReservationID: reservationID,
		Input:         req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, reservationID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	reservation, err := h.service.Get(r.Context(), actor, reservationID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	params := buildReservationListParams(r.URL.Query(), actor)

	reservations, err := h.service.List(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

// Transition handles the approve, reject and cancel action routes. The
// rejection reason comes from an optional JSON body.
func (h *ReservationHandler) Transition(w http.ResponseWriter, r *http.Request, action approval.Action) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.log(r.Context(), "Transition", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode transition request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	logger := h.log(r.Context(), "Transition", "reservation_id", reservationID, "action", string(action))

	reservation, err := h.service.Transition(r.Context(), application.TransitionParams{
		Actor:         actor,
		ReservationID: reservationID,
		Action:        action,
		Reason:        req.Reason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "transition rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation transitioned", "status", string(reservation.Status))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	reservations, err := h.service.PendingInbox(r.Context(), actor)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	params, ok := buildCalendarParams(r.URL.Query(), actor)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCalendarWindow)
		return
	}

	entries, err := h.service.Calendar(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{Entries: toCalendarEntryDTOs(entries)})
}

type reservationRequest struct {
	RoomID      string  `json:"room_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Start       string  `json:"start"`
	End         string  `json:"end"`

	IsRecurring       bool    `json:"is_recurring"`
	RecurrenceType    *string `json:"recurrence_type"`
	RecurrenceEndDate *string `json:"recurrence_end_date"`

	Priority  int     `json:"priority"`
	ProjectID *string `json:"project_id"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	input := application.ReservationInput{
		RoomID:         strings.TrimSpace(r.RoomID),
		Title:          strings.TrimSpace(r.Title),
		Description:    r.Description,
		Start:          parseTime(r.Start),
		End:            parseTime(r.End),
		IsRecurring:    r.IsRecurring,
		RecurrenceType: r.RecurrenceType,
		Priority:       r.Priority,
		ProjectID:      r.ProjectID,
	}
	if r.RecurrenceEndDate != nil {
		if ts := parseDateOrTime(*r.RecurrenceEndDate); !ts.IsZero() {
			input.RecurrenceEndDate = &ts
		}
	}
	return input
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func parseDateOrTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if ts := parseTime(value); !ts.IsZero() {
		return ts
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts
	}
	return time.Time{}
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID          string  `json:"id"`
	RoomID      string  `json:"room_id"`
	RequesterID string  `json:"requester_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Start       string  `json:"start"`
	End         string  `json:"end"`

	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`

	ProfessorApprovedBy *string `json:"professor_approved_by,omitempty"`
	ProfessorApprovedAt *string `json:"professor_approved_at,omitempty"`
	ApprovedBy          *string `json:"approved_by,omitempty"`
	ApprovedAt          *string `json:"approved_at,omitempty"`

	IsRecurring       bool    `json:"is_recurring"`
	RecurrenceType    *string `json:"recurrence_type,omitempty"`
	RecurrenceEndDate *string `json:"recurrence_end_date,omitempty"`

	Priority  int     `json:"priority"`
	ProjectID *string `json:"project_id,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toReservationDTO(reservation persistence.Reservation) reservationDTO {
	return reservationDTO{
		ID:                  reservation.ID,
		RoomID:              reservation.RoomID,
		RequesterID:         reservation.RequesterID,
		Title:               reservation.Title,
		Description:         reservation.Description,
		Start:               reservation.Start.UTC().Format(time.RFC3339Nano),
		End:                 reservation.End.UTC().Format(time.RFC3339Nano),
		Status:              string(reservation.Status),
		RejectionReason:     reservation.RejectionReason,
		ProfessorApprovedBy: reservation.ProfessorApprovedBy,
		ProfessorApprovedAt: formatTimePtr(reservation.ProfessorApprovedAt),
		ApprovedBy:          reservation.ApprovedBy,
		ApprovedAt:          formatTimePtr(reservation.ApprovedAt),
		IsRecurring:         reservation.IsRecurring,
		RecurrenceType:      reservation.RecurrenceType,
		RecurrenceEndDate:   formatTimePtr(reservation.RecurrenceEndDate),
		Priority:            reservation.Priority,
		ProjectID:           reservation.ProjectID,
		CreatedAt:           reservation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:           reservation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toReservationDTOs(reservations []persistence.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

func formatTimePtr(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	formatted := ts.UTC().Format(time.RFC3339Nano)
	return &formatted
}

type calendarResponse struct {
	Entries []calendarEntryDTO `json:"entries"`
}

type calendarEntryDTO struct {
	ID                    string `json:"id"`
	IsRecurrenceInstance  bool   `json:"is_recurrence_instance"`
	OriginalReservationID string `json:"original_reservation_id,omitempty"`
	RoomID                string `json:"room_id"`
	RequesterID           string `json:"requester_id"`
	Title                 string `json:"title"`
	Status                string `json:"status"`
	Start                 string `json:"start"`
	End                   string `json:"end"`
}

func toCalendarEntryDTOs(entries []application.CalendarEntry) []calendarEntryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]calendarEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, calendarEntryDTO{
			ID:                    entry.ID,
			IsRecurrenceInstance:  entry.IsRecurrenceInstance,
			OriginalReservationID: entry.OriginalReservationID,
			RoomID:                entry.RoomID,
			RequesterID:           entry.RequesterID,
			Title:                 entry.Title,
			Status:                string(entry.Status),
			Start:                 entry.Start.UTC().Format(time.RFC3339Nano),
			End:                   entry.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

func buildReservationListParams(values url.Values, actor application.Actor) application.ListReservationsParams {
	params := application.ListReservationsParams{Actor: actor}

	params.RoomID = strings.TrimSpace(values.Get("room_id"))
	params.RequesterID = strings.TrimSpace(values.Get("requester_id"))

	if statuses := strings.TrimSpace(values.Get("status")); statuses != "" {
		for _, raw := range parseCSV(statuses) {
			status := approval.Status(raw)
			if status.IsValid() {
				params.Statuses = append(params.Statuses, status)
			}
		}
	}

	return params
}

func buildCalendarParams(values url.Values, actor application.Actor) (application.CalendarParams, bool) {
	params := application.CalendarParams{
		Actor:  actor,
		RoomID: strings.TrimSpace(values.Get("room_id")),
	}

	if day := strings.TrimSpace(values.Get("day")); day != "" {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			return params, false
		}
		params.Period = application.CalendarPeriodDay
		params.PeriodReference = ts
		return params, true
	}
	if week := strings.TrimSpace(values.Get("week")); week != "" {
		ts, err := time.Parse("2006-01-02", week)
		if err != nil {
			return params, false
		}
		params.Period = application.CalendarPeriodWeek
		params.PeriodReference = ts
		return params, true
	}
	if month := strings.TrimSpace(values.Get("month")); month != "" {
		ts, err := time.Parse("2006-01", month)
		if err != nil {
			return params, false
		}
		params.Period = application.CalendarPeriodMonth
		params.PeriodReference = ts
		return params, true
	}

	start := parseTime(values.Get("start"))
	end := parseTime(values.Get("end"))
	if start.IsZero() || end.IsZero() {
		return params, false
	}
	params.WindowStart = start
	params.WindowEnd = end
	return params, true
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
