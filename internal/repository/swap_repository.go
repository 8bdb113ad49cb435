package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
)

const swapColumns = `id, requester_id, target_id, requester_shift_id, target_shift_id, reason, status, created_at, updated_at`

// SwapRepository persists swap requests.
type SwapRepository struct {
	db *sqlx.DB
}

// NewSwapRepository constructs the repository.
func NewSwapRepository(db *sqlx.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

func (r *SwapRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new swap request in PENDING state.
func (r *SwapRepository) Create(ctx context.Context, request *models.SwapRequest) error {
	if request == nil {
		return fmt.Errorf("swap request payload is nil")
	}
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.SwapPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `
INSERT INTO swap_requests (id, requester_id, target_id, requester_shift_id, target_shift_id, reason, status, created_at, updated_at)
VALUES (:id, :requester_id, :target_id, :requester_shift_id, :target_shift_id, :reason, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, request); err != nil {
		return fmt.Errorf("insert swap request: %w", err)
	}
	return nil
}

// GetByID loads one swap request.
func (r *SwapRepository) GetByID(ctx context.Context, id string) (*models.SwapRequest, error) {
	const query = `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1`
	var request models.SwapRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns swap requests matching the filter.
func (r *SwapRepository) List(ctx context.Context, filter models.SwapFilter) ([]models.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE 1=1`
	args := []interface{}{}

	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		query += fmt.Sprintf(" AND (requester_id = $%d OR target_id = $%d)", len(args), len(args))
	}
	if len(filter.Status) > 0 {
		placeholders := ""
		for i, status := range filter.Status {
			args = append(args, status)
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND status IN (%s)", placeholders)
	}
	query += " ORDER BY created_at DESC"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var requests []models.SwapRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list swap requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus advances a request only when it is still in the expected
// state. The guard serialises concurrent decisions on the same request:
// the second writer sees zero rows and fails with sql.ErrNoRows.
func (r *SwapRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.SwapStatus) error {
	const query = `UPDATE swap_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.exec(exec).ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update swap status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a swap request.
func (r *SwapRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM swap_requests WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete swap request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
