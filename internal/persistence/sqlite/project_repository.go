package sqlite

import (
	"context"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// ProjectRepository implements persistence.ProjectRepository.
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository constructs the SQLite-backed project store.
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, professor_id, created_at, updated_at`

// CreateProject inserts a project.
func (r *ProjectRepository) CreateProject(ctx context.Context, project persistence.Project) (persistence.Project, error) {
	project.CreatedAt = project.CreatedAt.UTC()
	project.UpdatedAt = project.UpdatedAt.UTC()

	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.ProfessorID, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return persistence.Project{}, mapError(err)
	}
	return project, nil
}

// GetProject loads a project by id.
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	var project persistence.Project
	err := r.db.conn.GetContext(ctx, &project, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	if err != nil {
		return persistence.Project{}, mapError(err)
	}
	return project, nil
}

// ListProjects enumerates projects ordered by name.
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	var projects []persistence.Project
	err := r.db.conn.SelectContext(ctx, &projects, `SELECT `+projectColumns+` FROM projects ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	return projects, nil
}
