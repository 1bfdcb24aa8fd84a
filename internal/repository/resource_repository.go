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

// ResourceRepository handles resource rows.
type ResourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error)
	Update(ctx context.Context, resource *models.Resource) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetAll(ctx context.Context) ([]models.Resource, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Resource, error)
	GetGlobal(ctx context.Context) ([]models.Resource, error)
}

type resourceRepository struct {
	db *sqlx.DB
}

func NewResourceRepository(db *sqlx.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

const resourceColumns = `id, name, description, access_type, allowed_user_groups, project_id, is_global, created_by, created_at`

func (r *resourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == uuid.Nil {
		resource.ID = uuid.New()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO resources (id, name, description, access_type, allowed_user_groups, project_id, is_global, created_by, created_at)
		VALUES (:id, :name, :description, :access_type, :allowed_user_groups, :project_id, :is_global, :created_by, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, resource)
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	var resource models.Resource
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	err := r.db.GetContext(ctx, &resource, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resource %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get resource by id: %w", err)
	}
	return &resource, nil
}

func (r *resourceRepository) Update(ctx context.Context, resource *models.Resource) error {
	query := `
		UPDATE resources SET
			name = :name,
			description = :description,
			access_type = :access_type,
			allowed_user_groups = :allowed_user_groups,
			project_id = :project_id,
			is_global = :is_global
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, resource)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resource %s: %w", resource.ID, ErrNotFound)
	}
	return nil
}

func (r *resourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resource %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *resourceRepository) GetAll(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource
	query := `SELECT ` + resourceColumns + ` FROM resources ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &resources, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	return resources, nil
}

func (r *resourceRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Resource, error) {
	var resources []models.Resource
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE project_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &resources, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources by project id: %w", err)
	}
	return resources, nil
}

func (r *resourceRepository) GetGlobal(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE is_global = TRUE ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &resources, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get global resources: %w", err)
	}
	return resources, nil
}
