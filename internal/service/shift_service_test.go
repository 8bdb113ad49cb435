package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

type shiftCrudStoreStub struct {
	shifts  map[string]*models.ShiftAssignment
	created []models.ShiftAssignment
	deleted []string
}

func newShiftCrudStoreStub() *shiftCrudStoreStub {
	return &shiftCrudStoreStub{shifts: map[string]*models.ShiftAssignment{}}
}

func (s *shiftCrudStoreStub) List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error) {
	var out []models.ShiftAssignment
	for _, shift := range s.shifts {
		if filter.EmployeeID != "" && shift.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, *shift)
	}
	return out, nil
}

func (s *shiftCrudStoreStub) FindByID(ctx context.Context, id string) (*models.ShiftAssignment, error) {
	shift, ok := s.shifts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return shift, nil
}

func (s *shiftCrudStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, shift *models.ShiftAssignment) error {
	if shift.ID == "" {
		shift.ID = "shift-created"
	}
	s.created = append(s.created, *shift)
	s.shifts[shift.ID] = shift
	return nil
}

func (s *shiftCrudStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.shifts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.shifts, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type candidateValidatorStub struct {
	result dto.ValidationResult
	err    error
}

func (v *candidateValidatorStub) Validate(ctx context.Context, candidate dto.ShiftCandidate) (dto.ValidationResult, error) {
	if v.err != nil {
		return dto.ValidationResult{}, v.err
	}
	return v.result, nil
}

func validCandidate() dto.ShiftCandidate {
	return dto.ShiftCandidate{
		EmployeeID: "nurse-1",
		Date:       "2024-07-01",
		StartTime:  "07:00",
		EndTime:    "15:00",
		Location:   "GENERAL_WARD",
		ShiftType:  "MORNING",
	}
}

func TestShiftServiceCreatePersistsValidCandidate(t *testing.T) {
	store := newShiftCrudStoreStub()
	validator := &candidateValidatorStub{result: dto.ValidationResult{IsValid: true, Score: 100}}
	svc := NewShiftService(store, validator, nil)

	shift, result, err := svc.Create(context.Background(), validCandidate())
	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.True(t, result.IsValid)
	assert.Equal(t, "nurse-1", shift.EmployeeID)
	assert.Equal(t, models.ShiftMorning, shift.ShiftType)
	require.Len(t, store.created, 1)
}

func TestShiftServiceCreateRejectsRuleViolation(t *testing.T) {
	store := newShiftCrudStoreStub()
	validator := &candidateValidatorStub{result: dto.ValidationResult{
		IsValid:    false,
		Score:      75,
		Violations: []string{ViolationTimeConflict},
	}}
	svc := NewShiftService(store, validator, nil)

	_, result, err := svc.Create(context.Background(), validCandidate())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, ViolationTimeConflict)
	assert.False(t, result.IsValid)
	assert.Empty(t, store.created)
}

func TestShiftServiceCreateAllowsWarnings(t *testing.T) {
	store := newShiftCrudStoreStub()
	validator := &candidateValidatorStub{result: dto.ValidationResult{
		IsValid:  true,
		Score:    95,
		Warnings: []string{WarningLocationOverCapacity},
	}}
	svc := NewShiftService(store, validator, nil)

	shift, result, err := svc.Create(context.Background(), validCandidate())
	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.Equal(t, []string{WarningLocationOverCapacity}, result.Warnings)
	require.Len(t, store.created, 1)
}

func TestShiftServiceGetNotFound(t *testing.T) {
	svc := NewShiftService(newShiftCrudStoreStub(), &candidateValidatorStub{}, nil)

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestShiftServiceDelete(t *testing.T) {
	store := newShiftCrudStoreStub()
	store.shifts["shift-a"] = &models.ShiftAssignment{ID: "shift-a", EmployeeID: "nurse-1"}
	svc := NewShiftService(store, &candidateValidatorStub{}, nil)

	require.NoError(t, svc.Delete(context.Background(), "shift-a"))
	assert.Equal(t, []string{"shift-a"}, store.deleted)

	err := svc.Delete(context.Background(), "shift-a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
