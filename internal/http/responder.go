package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/application"
)

var (
	errBadRequestBody        = errors.New("formato de requisição inválido.")
	errInvalidReservationID  = errors.New("identificador de reserva inválido.")
	errInvalidRoomID         = errors.New("identificador de sala inválido.")
	errInvalidUserID         = errors.New("identificador de usuário inválido.")
	errInvalidProjectID      = errors.New("identificador de projeto inválido.")
	errMissingSessionToken   = errors.New("informe o token de autenticação.")
	errInvalidCalendarWindow = errors.New("informe um período válido para o calendário.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto HTTP responses. Structured
// errors carry their payload: conflicts list the blocking reservations,
// validation errors the offending fields.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "você não tem permissão para executar esta operação.",
		})
		return
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "o recurso solicitado não foi encontrado."})
		return
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "já existe um registro com esses dados.",
		})
		return
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "e-mail ou senha incorretos.",
		})
		return
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_ACCOUNT_DISABLED",
			Message:   "esta conta está desativada.",
		})
		return
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "a sessão expirou. Faça login novamente.",
		})
		return
	case errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_REVOKED",
			Message:   "a sessão foi encerrada. Faça login novamente.",
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "há erros nos dados informados.",
			Errors:  localizeValidationErrors(vErr),
		})
		return
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESERVATION_CONFLICT",
			Message:   "a sala já está reservada no horário solicitado.",
			Conflicts: toConflictDTOs(cErr.Conflicts),
		})
		return
	}

	var sErr *application.StateError
	if errors.As(err, &sErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_TRANSITION",
			Message:   localizeStateError(sErr),
		})
		return
	}

	var tErr *application.TimingError
	if errors.As(err, &tErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESERVATION_STARTED",
			Message:   "a reserva já começou e não pode mais ser alterada.",
		})
		return
	}

	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "ocorreu um erro interno no servidor."})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "a requisição não pôde ser processada."
	case http.StatusUnauthorized:
		return "autenticação necessária."
	case http.StatusForbidden:
		return "você não tem permissão para executar esta operação."
	case http.StatusNotFound:
		return "o recurso solicitado não foi encontrado."
	case http.StatusConflict:
		return "a requisição conflita com o estado atual do recurso."
	case http.StatusTooManyRequests:
		return "muitas tentativas. Aguarde um momento e tente novamente."
	case http.StatusUnprocessableEntity:
		return "há erros nos dados informados."
	default:
		return "ocorreu um erro interno no servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "title is required":
		return "o título é obrigatório."
	case "room is required":
		return "a sala é obrigatória."
	case "room does not exist":
		return "a sala informada não existe."
	case "room is inactive":
		return "a sala informada está desativada."
	case "project does not exist":
		return "o projeto informado não existe."
	case "start is required":
		return "o horário de início é obrigatório."
	case "end is required":
		return "o horário de término é obrigatório."
	case "start must be before end":
		return "o horário de término deve ser posterior ao de início."
	case "recurrence type must be daily, weekly or monthly":
		return "a recorrência deve ser diária, semanal ou mensal."
	case "recurrence end date is required":
		return "a data final da recorrência é obrigatória."
	case "recurrence end date must not precede the start":
		return "a data final da recorrência deve ser posterior ao início."
	case "priority must not be negative":
		return "a prioridade não pode ser negativa."
	case "rejection reason is required":
		return "informe o motivo da rejeição."
	case "a valid time window is required":
		return "informe um período válido."
	case "related records are missing":
		return "há referências a registros inexistentes."
	case "name is required":
		return "o nome é obrigatório."
	case "capacity must be positive":
		return "a capacidade deve ser um número positivo."
	case "email is required":
		return "o e-mail é obrigatório."
	case "email is invalid":
		return "o e-mail informado é inválido."
	case "password is required":
		return "a senha é obrigatória."
	case "role must be aluno, professor, coordenador or admin":
		return "o perfil deve ser aluno, professor, coordenador ou admin."
	case "professor does not exist":
		return "o professor informado não existe."
	case "responsible user must hold the professor role":
		return "o responsável pelo projeto deve ter o perfil professor."
	case "administrators cannot delete their own account":
		return "administradores não podem excluir a própria conta."
	default:
		if strings.HasPrefix(message, "password must have at least") {
			return "a senha deve ter no mínimo 8 caracteres."
		}
		return message
	}
}

func localizeStateError(sErr *application.StateError) string {
	if sErr == nil {
		return "a transição solicitada não é válida."
	}
	switch sErr.Reason {
	case "already approved by this professor, awaiting administrator approval":
		return "a reserva já foi aprovada pelo professor e aguarda o administrador."
	case "already approved":
		return "a reserva já está aprovada."
	case "already rejected":
		return "a reserva já foi rejeitada."
	case "already cancelled":
		return "a reserva já foi cancelada."
	case "reservation was cancelled":
		return "a reserva foi cancelada e não pode mais mudar de estado."
	default:
		return "a transição solicitada não é válida para o estado atual da reserva."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []conflictDTO     `json:"conflicts,omitempty"`
}

type conflictDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toConflictDTOs(conflicts []application.ConflictRef) []conflictDTO {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]conflictDTO, 0, len(conflicts))
	for _, conflict := range conflicts {
		out = append(out, conflictDTO{
			ID:    conflict.ID,
			Title: conflict.Title,
			Start: conflict.Start.UTC().Format(time.RFC3339),
			End:   conflict.End.UTC().Format(time.RFC3339),
		})
	}
	return out
}
