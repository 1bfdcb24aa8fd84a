package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"team-access-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ProjectRepository handles projects and their membership rows.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	// GetMembers returns project members ordered by join time, so "first
	// member with a given role" is deterministic.
	GetMembers(ctx context.Context, projectID uuid.UUID) ([]models.User, error)
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO projects (id, name, description, created_at)
		VALUES (:id, :name, :description, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, project)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	query := `SELECT id, name, description, created_at FROM projects WHERE id = $1`
	err := r.db.GetContext(ctx, &project, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project by id: %w", err)
	}
	return &project, nil
}

func (r *projectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `
		INSERT INTO project_members (project_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, projectID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add project member: %w", err)
	}
	return nil
}

func (r *projectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove project member: %w", err)
	}
	return nil
}

func (r *projectRepository) GetMembers(ctx context.Context, projectID uuid.UUID) ([]models.User, error) {
	var users []models.User
	query := `
		SELECT u.id, u.username, u.email, u.full_name, u.role, u.created_at
		FROM users u
		JOIN project_members pm ON pm.user_id = u.id
		WHERE pm.project_id = $1
		ORDER BY pm.joined_at
	`
	err := r.db.SelectContext(ctx, &users, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project members: %w", err)
	}
	return users, nil
}
