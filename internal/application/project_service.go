package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// ProjectService manages academic projects. A project may name a responsible
// professor, who then becomes the intermediate approver for reservations
// linked to the project; projects without one route straight to the
// administrator queue.
type ProjectService struct {
	projects    persistence.ProjectRepository
	users       persistence.UserRepository
	auditor     *Auditor
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewProjectService wires dependencies for project operations.
func NewProjectService(projects persistence.ProjectRepository, users persistence.UserRepository, auditor *Auditor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProjectService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectService{
		projects:    projects,
		users:       users,
		auditor:     auditor,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ProjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProjectService", operation, attrs...)
}

// Create registers a project. Administrators and coordinators may create
// projects; the responsible professor, when given, must hold the professor
// role.
func (s *ProjectService) Create(ctx context.Context, params CreateProjectParams) (project persistence.Project, err error) {
	if s == nil || s.projects == nil {
		return persistence.Project{}, fmt.Errorf("project repository not configured")
	}

	logger := s.loggerWith(ctx, "Create", "actor_id", params.Actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create project", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("project_id", project.ID).InfoContext(ctx, "project created")
	}()

	if params.Actor.Role != approval.RoleAdmin && params.Actor.Role != approval.RoleCoordinator {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.ProfessorID != nil && s.users != nil {
		professor, getErr := s.users.GetUser(ctx, *input.ProfessorID)
		if getErr != nil {
			if errors.Is(getErr, persistence.ErrNotFound) {
				vErr.add("professor_id", "professor does not exist")
			} else {
				err = getErr
				return
			}
		} else if professor.Role != approval.RoleProfessor {
			vErr.add("professor_id", "responsible user must hold the professor role")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	project = persistence.Project{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		ProfessorID: input.ProfessorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	persisted, createErr := s.projects.CreateProject(ctx, project)
	if createErr != nil {
		if errors.Is(createErr, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
			return
		}
		err = createErr
		return
	}
	project = persisted

	s.auditor.Record(ctx, params.Actor.ID, "project.create", "project", project.ID, project.Name)
	return
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, projectID string) (persistence.Project, error) {
	if s == nil || s.projects == nil {
		return persistence.Project{}, fmt.Errorf("project repository not configured")
	}
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return persistence.Project{}, mapNotFound(err)
	}
	return project, nil
}

// List enumerates all projects.
func (s *ProjectService) List(ctx context.Context) ([]persistence.Project, error) {
	if s == nil || s.projects == nil {
		return nil, fmt.Errorf("project repository not configured")
	}
	return s.projects.ListProjects(ctx)
}
