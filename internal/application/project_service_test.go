package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

func newProjectService(users *userRepoStub) *ProjectService {
	return NewProjectService(&projectRepoStub{}, users, nil, func() string { return "project-id" }, fixedClock, nil)
}

func TestProjectServiceCreate(t *testing.T) {
	professor := persistence.User{ID: "prof-1", Name: "Carlos", Role: approval.RoleProfessor}
	student := persistence.User{ID: "user-1", Name: "Ana", Role: approval.RoleStudent}
	users := &userRepoStub{byID: map[string]persistence.User{
		professor.ID: professor,
		student.ID:   student,
	}}

	t.Run("coordinator creates a project with a professor", func(t *testing.T) {
		service := newProjectService(users)

		professorID := "prof-1"
		project, err := service.Create(context.Background(), CreateProjectParams{
			Actor: Actor{ID: "coord-1", Role: approval.RoleCoordinator},
			Input: ProjectInput{Name: "Iniciação Científica", ProfessorID: &professorID},
		})

		require.NoError(t, err)
		assert.Equal(t, "project-id", project.ID)
		require.NotNil(t, project.ProfessorID)
		assert.Equal(t, "prof-1", *project.ProfessorID)
	})

	t.Run("project without a professor is legal", func(t *testing.T) {
		service := newProjectService(users)

		project, err := service.Create(context.Background(), CreateProjectParams{
			Actor: Actor{ID: "admin-1", Role: approval.RoleAdmin},
			Input: ProjectInput{Name: "Semana Acadêmica"},
		})

		require.NoError(t, err)
		assert.Nil(t, project.ProfessorID)
	})

	t.Run("students may not create projects", func(t *testing.T) {
		service := newProjectService(users)

		_, err := service.Create(context.Background(), CreateProjectParams{
			Actor: Actor{ID: "user-1", Role: approval.RoleStudent},
			Input: ProjectInput{Name: "Projeto"},
		})

		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("responsible user must be a professor", func(t *testing.T) {
		service := newProjectService(users)

		studentID := "user-1"
		_, err := service.Create(context.Background(), CreateProjectParams{
			Actor: Actor{ID: "admin-1", Role: approval.RoleAdmin},
			Input: ProjectInput{Name: "Projeto", ProfessorID: &studentID},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "professor_id")
	})

	t.Run("unknown professor", func(t *testing.T) {
		service := newProjectService(users)

		missing := "missing"
		_, err := service.Create(context.Background(), CreateProjectParams{
			Actor: Actor{ID: "admin-1", Role: approval.RoleAdmin},
			Input: ProjectInput{Name: "Projeto", ProfessorID: &missing},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "professor_id")
	})
}
