package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

type shiftCrudStore interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error)
	FindByID(ctx context.Context, id string) (*models.ShiftAssignment, error)
	Create(ctx context.Context, exec sqlx.ExtContext, shift *models.ShiftAssignment) error
	Delete(ctx context.Context, id string) error
}

type candidateValidator interface {
	Validate(ctx context.Context, candidate dto.ShiftCandidate) (dto.ValidationResult, error)
}

// ShiftService manages shift assignments. Creation is gated by the schedule
// validator so a shift that breaks a hard rule never reaches the roster.
type ShiftService struct {
	shifts    shiftCrudStore
	validator candidateValidator
	logger    *zap.Logger
}

// NewShiftService constructs a ShiftService.
func NewShiftService(shifts shiftCrudStore, validator candidateValidator, logger *zap.Logger) *ShiftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{shifts: shifts, validator: validator, logger: logger}
}

// List returns shift assignments matching the filter.
func (s *ShiftService) List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error) {
	shifts, err := s.shifts.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	if shifts == nil {
		shifts = []models.ShiftAssignment{}
	}
	return shifts, nil
}

// Get loads a single shift assignment.
func (s *ShiftService) Get(ctx context.Context, id string) (*models.ShiftAssignment, error) {
	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	return shift, nil
}

// Create validates the candidate and persists it when no hard rule is broken.
// Warnings do not block creation; they are returned alongside the shift.
func (s *ShiftService) Create(ctx context.Context, candidate dto.ShiftCandidate) (*models.ShiftAssignment, dto.ValidationResult, error) {
	result, err := s.validator.Validate(ctx, candidate)
	if err != nil {
		return nil, dto.ValidationResult{}, err
	}
	if !result.IsValid {
		message := "shift violates scheduling rules"
		if len(result.Violations) > 0 {
			message = "shift violates scheduling rules: " + strings.Join(result.Violations, ", ")
		}
		return nil, result, appErrors.Clone(appErrors.ErrConflict, message)
	}

	shift, err := candidate.ToModel()
	if err != nil {
		return nil, result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed shift payload")
	}

	if err := s.shifts.Create(ctx, nil, &shift); err != nil {
		return nil, result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist shift")
	}

	if len(result.Warnings) > 0 {
		s.logger.Info("shift created with warnings",
			zap.String("shift_id", shift.ID),
			zap.Strings("warnings", result.Warnings))
	}
	return &shift, result, nil
}

// Delete removes a shift assignment.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	if err := s.shifts.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete shift")
	}
	return nil
}
