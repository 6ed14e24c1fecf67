package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/application"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

type projectService interface {
	Create(ctx context.Context, params application.CreateProjectParams) (persistence.Project, error)
	Get(ctx context.Context, projectID string) (persistence.Project, error)
	List(ctx context.Context) ([]persistence.Project, error)
}

type ProjectHandler struct {
	service   projectService
	responder responder
}

func NewProjectHandler(service projectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	project, err := h.service.Create(r.Context(), application.CreateProjectParams{
		Actor: actor,
		Input: req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, projectResponse{Project: toProjectDTO(project)})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := ProjectIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	project, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectResponse{Project: toProjectDTO(project)})
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projects, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listProjectsResponse{Projects: toProjectDTOs(projects)})
}

type projectRequest struct {
	Name        string  `json:"name"`
	ProfessorID *string `json:"professor_id"`
}

func (r projectRequest) toInput() application.ProjectInput {
	return application.ProjectInput{
		Name:        strings.TrimSpace(r.Name),
		ProfessorID: r.ProfessorID,
	}
}

type projectResponse struct {
	Project projectDTO `json:"project"`
}

type listProjectsResponse struct {
	Projects []projectDTO `json:"projects"`
}

type projectDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ProfessorID *string `json:"professor_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toProjectDTO(project persistence.Project) projectDTO {
	return projectDTO{
		ID:          project.ID,
		Name:        project.Name,
		ProfessorID: project.ProfessorID,
		CreatedAt:   project.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   project.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toProjectDTOs(projects []persistence.Project) []projectDTO {
	if len(projects) == 0 {
		return nil
	}
	out := make([]projectDTO, 0, len(projects))
	for _, project := range projects {
		out = append(out, toProjectDTO(project))
	}
	return out
}
