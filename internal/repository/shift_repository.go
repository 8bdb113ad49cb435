package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
)

const shiftColumns = `id, employee_id, date, start_time, end_time, crosses_midnight, location, shift_type, required_role, created_at, updated_at`

// ShiftRepository persists shift assignments.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

func (r *ShiftRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns shift assignments matching the filter.
func (r *ShiftRepository) List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error) {
	normalizeLocationFilter(&filter)
	query := `SELECT ` + shiftColumns + ` FROM shift_assignments WHERE 1=1`
	args := []interface{}{}

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.Location != "" {
		args = append(args, filter.Location)
		query += fmt.Sprintf(" AND location = $%d", len(args))
	}
	if filter.ShiftType != "" {
		args = append(args, filter.ShiftType)
		query += fmt.Sprintf(" AND shift_type = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date ASC, start_time ASC"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var shifts []models.ShiftAssignment
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("list shift assignments: %w", err)
	}
	return shifts, nil
}

// ListForEmployee returns an employee's shifts inside [from, to].
func (r *ShiftRepository) ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]models.ShiftAssignment, error) {
	const query = `SELECT ` + shiftColumns + ` FROM shift_assignments
WHERE employee_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, start_time ASC`
	var shifts []models.ShiftAssignment
	if err := r.db.SelectContext(ctx, &shifts, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list employee shifts: %w", err)
	}
	return shifts, nil
}

// FindByID loads one shift assignment.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.ShiftAssignment, error) {
	const query = `SELECT ` + shiftColumns + ` FROM shift_assignments WHERE id = $1`
	var shift models.ShiftAssignment
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create inserts a shift assignment.
func (r *ShiftRepository) Create(ctx context.Context, exec sqlx.ExtContext, shift *models.ShiftAssignment) error {
	if shift == nil {
		return fmt.Errorf("shift payload is nil")
	}
	if shift.EmployeeID == "" || shift.Location == "" {
		return fmt.Errorf("employee_id and location are required")
	}
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = now
	}
	shift.UpdatedAt = now

	const query = `
INSERT INTO shift_assignments (id, employee_id, date, start_time, end_time, crosses_midnight, location, shift_type, required_role, created_at, updated_at)
VALUES (:id, :employee_id, :date, :start_time, :end_time, :crosses_midnight, :location, :shift_type, :required_role, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, shift); err != nil {
		return fmt.Errorf("insert shift assignment: %w", err)
	}
	return nil
}

// BulkCreate inserts a batch of assignments inside the provided transaction.
func (r *ShiftRepository) BulkCreate(ctx context.Context, tx *sqlx.Tx, shifts []models.ShiftAssignment) error {
	for i := range shifts {
		if err := r.Create(ctx, tx, &shifts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Reassign moves a shift to a new employee.
func (r *ShiftRepository) Reassign(ctx context.Context, exec sqlx.ExtContext, shiftID, newEmployeeID string) error {
	const query = `UPDATE shift_assignments SET employee_id = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, newEmployeeID, time.Now().UTC(), shiftID)
	if err != nil {
		return fmt.Errorf("reassign shift: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reassign shift rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a shift assignment.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM shift_assignments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete shift assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("shift assignment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByLocation counts assignments at a location for one date and type.
func (r *ShiftRepository) CountByLocation(ctx context.Context, location string, date time.Time, shiftType models.ShiftType) (int, error) {
	const query = `SELECT COUNT(*) FROM shift_assignments WHERE location = $1 AND date = $2 AND shift_type = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, location, date, shiftType); err != nil {
		return 0, fmt.Errorf("count location shifts: %w", err)
	}
	return count, nil
}

// Location spellings are canonicalised before they reach SQL.
func normalizeLocationFilter(filter *models.ShiftFilter) {
	if filter.Location != "" {
		filter.Location = models.NormalizeLocation(strings.TrimSpace(filter.Location))
	}
}
