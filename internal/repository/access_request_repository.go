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

// AccessRequestRepository handles access request rows and the transactional
// decision update. UpdateDecisionTx only moves a request out of PENDING; the
// returned bool is false when the row was already decided, which is how
// concurrent Approve/Reject calls on the same request are serialized.
type AccessRequestRepository interface {
	Create(ctx context.Context, request *models.AccessRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AccessRequest, error)
	Update(ctx context.Context, request *models.AccessRequest) error
	Delete(ctx context.Context, id uuid.UUID) error

	BeginTransaction() (Tx, error)
	UpdateDecisionTx(tx Tx, id uuid.UUID, status models.RequestStatus, comments string, approverID uuid.UUID, decidedAt time.Time) (bool, error)

	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.AccessRequest, error)
	GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.AccessRequest, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.AccessRequest, error)
	GetByManagerID(ctx context.Context, managerID uuid.UUID) ([]models.AccessRequest, error)
	GetByStatus(ctx context.Context, status models.RequestStatus) ([]models.AccessRequest, error)
	GetPending(ctx context.Context) ([]models.AccessRequest, error)
	GetPendingForManager(ctx context.Context, managerID uuid.UUID) ([]models.AccessRequest, error)
	GetPendingForUser(ctx context.Context, userID uuid.UUID) ([]models.AccessRequest, error)
	GetPendingForProject(ctx context.Context, projectID uuid.UUID) ([]models.AccessRequest, error)
}

type accessRequestRepository struct {
	db *sqlx.DB
}

func NewAccessRequestRepository(db *sqlx.DB) AccessRequestRepository {
	return &accessRequestRepository{db: db}
}

const accessRequestColumns = `id, user_id, resource_id, project_id, project_manager_id, requested_access_level,
	status, justification, approver_comments, approved_by, requested_at, decided_at, requested_until`

func (r *accessRequestRepository) Create(ctx context.Context, request *models.AccessRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now()
	}

	query := `
		INSERT INTO access_requests (
			id, user_id, resource_id, project_id, project_manager_id,
			requested_access_level, status, justification, approver_comments,
			approved_by, requested_at, decided_at, requested_until
		) VALUES (
			:id, :user_id, :resource_id, :project_id, :project_manager_id,
			:requested_access_level, :status, :justification, :approver_comments,
			:approved_by, :requested_at, :decided_at, :requested_until
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("failed to insert access request: %w", err)
	}
	return nil
}

func (r *accessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccessRequest, error) {
	var request models.AccessRequest
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE id = $1`
	err := r.db.GetContext(ctx, &request, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("access request %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get access request by id: %w", err)
	}
	return &request, nil
}

func (r *accessRequestRepository) Update(ctx context.Context, request *models.AccessRequest) error {
	query := `
		UPDATE access_requests SET
			justification = :justification,
			requested_until = :requested_until
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("failed to update access request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("access request %s: %w", request.ID, ErrNotFound)
	}
	return nil
}

func (r *accessRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete access request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("access request %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *accessRequestRepository) BeginTransaction() (Tx, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{tx: tx}, nil
}

func (r *accessRequestRepository) UpdateDecisionTx(tx Tx, id uuid.UUID, status models.RequestStatus, comments string, approverID uuid.UUID, decidedAt time.Time) (bool, error) {
	stx, err := sqlxTx(tx)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE access_requests SET
			status = $2,
			approver_comments = $3,
			approved_by = $4,
			decided_at = $5
		WHERE id = $1 AND status = $6
	`
	result, err := stx.Exec(query, id, status, comments, approverID, decidedAt, models.RequestPending)
	if err != nil {
		return false, fmt.Errorf("failed to update access request decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *accessRequestRepository) selectRequests(ctx context.Context, query string, args ...any) ([]models.AccessRequest, error) {
	var requests []models.AccessRequest
	err := r.db.SelectContext(ctx, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get access requests: %w", err)
	}
	return requests, nil
}

func (r *accessRequestRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE user_id = $1 ORDER BY requested_at DESC`, userID)
}

func (r *accessRequestRepository) GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE resource_id = $1 ORDER BY requested_at DESC`, resourceID)
}

func (r *accessRequestRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE project_id = $1 ORDER BY requested_at DESC`, projectID)
}

func (r *accessRequestRepository) GetByManagerID(ctx context.Context, managerID uuid.UUID) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE project_manager_id = $1 ORDER BY requested_at DESC`, managerID)
}

func (r *accessRequestRepository) GetByStatus(ctx context.Context, status models.RequestStatus) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE status = $1 ORDER BY requested_at DESC`, status)
}

// GetPending lists pending requests oldest-first for FIFO triage.
func (r *accessRequestRepository) GetPending(ctx context.Context) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE status = $1 ORDER BY requested_at ASC`, models.RequestPending)
}

func (r *accessRequestRepository) GetPendingForManager(ctx context.Context, managerID uuid.UUID) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE project_manager_id = $1 AND status = $2 ORDER BY requested_at ASC`, managerID, models.RequestPending)
}

func (r *accessRequestRepository) GetPendingForUser(ctx context.Context, userID uuid.UUID) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE user_id = $1 AND status = $2 ORDER BY requested_at ASC`, userID, models.RequestPending)
}

func (r *accessRequestRepository) GetPendingForProject(ctx context.Context, projectID uuid.UUID) ([]models.AccessRequest, error) {
	return r.selectRequests(ctx, `SELECT `+accessRequestColumns+` FROM access_requests WHERE project_id = $1 AND status = $2 ORDER BY requested_at ASC`, projectID, models.RequestPending)
}
