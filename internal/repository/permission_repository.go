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

// PermissionRepository handles the explicit (user, resource) grants. The
// (user_id, resource_id) pair is unique; Upsert preserves that invariant by
// updating the existing row instead of inserting a second one.
type PermissionRepository interface {
	Upsert(ctx context.Context, permission *models.Permission) error
	UpsertTx(tx Tx, permission *models.Permission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	GetByPair(ctx context.Context, userID, resourceID uuid.UUID) (*models.Permission, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Permission, error)
	GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.Permission, error)
	Update(ctx context.Context, permission *models.Permission) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	GetActive(ctx context.Context) ([]models.Permission, error)
	GetExpired(ctx context.Context, before time.Time) ([]models.Permission, error)
}

type permissionRepository struct {
	db *sqlx.DB
}

func NewPermissionRepository(db *sqlx.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

const permissionColumns = `id, user_id, resource_id, access_level, granted_at, expires_at, is_active`

const permissionUpsertQuery = `
	INSERT INTO permissions (id, user_id, resource_id, access_level, granted_at, expires_at, is_active)
	VALUES (:id, :user_id, :resource_id, :access_level, :granted_at, :expires_at, :is_active)
	ON CONFLICT (user_id, resource_id) DO UPDATE SET
		access_level = EXCLUDED.access_level,
		granted_at = EXCLUDED.granted_at,
		expires_at = EXCLUDED.expires_at,
		is_active = EXCLUDED.is_active
`

func prepareUpsert(permission *models.Permission) {
	if permission.ID == uuid.Nil {
		permission.ID = uuid.New()
	}
	if permission.GrantedAt.IsZero() {
		permission.GrantedAt = time.Now()
	}
}

func (r *permissionRepository) Upsert(ctx context.Context, permission *models.Permission) error {
	prepareUpsert(permission)
	_, err := r.db.NamedExecContext(ctx, permissionUpsertQuery, permission)
	if err != nil {
		return fmt.Errorf("failed to upsert permission: %w", err)
	}
	return nil
}

func (r *permissionRepository) UpsertTx(tx Tx, permission *models.Permission) error {
	stx, err := sqlxTx(tx)
	if err != nil {
		return err
	}
	prepareUpsert(permission)
	_, err = stx.NamedExec(permissionUpsertQuery, permission)
	if err != nil {
		return fmt.Errorf("failed to upsert permission in transaction: %w", err)
	}
	return nil
}

func (r *permissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	var permission models.Permission
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE id = $1`
	err := r.db.GetContext(ctx, &permission, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get permission by id: %w", err)
	}
	return &permission, nil
}

func (r *permissionRepository) GetByPair(ctx context.Context, userID, resourceID uuid.UUID) (*models.Permission, error) {
	var permission models.Permission
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE user_id = $1 AND resource_id = $2`
	err := r.db.GetContext(ctx, &permission, query, userID, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission for user %s on resource %s: %w", userID, resourceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get permission by pair: %w", err)
	}
	return &permission, nil
}

func (r *permissionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Permission, error) {
	var permissions []models.Permission
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE user_id = $1 ORDER BY granted_at DESC`
	err := r.db.SelectContext(ctx, &permissions, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions by user id: %w", err)
	}
	return permissions, nil
}

func (r *permissionRepository) GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.Permission, error) {
	var permissions []models.Permission
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE resource_id = $1 ORDER BY granted_at DESC`
	err := r.db.SelectContext(ctx, &permissions, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions by resource id: %w", err)
	}
	return permissions, nil
}

func (r *permissionRepository) Update(ctx context.Context, permission *models.Permission) error {
	query := `
		UPDATE permissions SET
			access_level = :access_level,
			expires_at = :expires_at,
			is_active = :is_active
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, permission)
	if err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("permission %s: %w", permission.ID, ErrNotFound)
	}
	return nil
}

func (r *permissionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE permissions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate permission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("permission %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *permissionRepository) GetActive(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE is_active = TRUE ORDER BY granted_at DESC`
	err := r.db.SelectContext(ctx, &permissions, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active permissions: %w", err)
	}
	return permissions, nil
}

func (r *permissionRepository) GetExpired(ctx context.Context, before time.Time) ([]models.Permission, error) {
	var permissions []models.Permission
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE expires_at IS NOT NULL AND expires_at < $1 ORDER BY expires_at`
	err := r.db.SelectContext(ctx, &permissions, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired permissions: %w", err)
	}
	return permissions, nil
}
