package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

func testLimits() ValidationLimits {
	return ValidationLimits{
		MaxShiftsPerMonth:  18,
		MaxConsecutiveDays: 4,
		ViolationWeight:    25,
		WarningWeight:      5,
	}
}

func dayShift(employeeID, date, start, end, location string) models.ShiftAssignment {
	d, _ := time.Parse("2006-01-02", date)
	return models.ShiftAssignment{
		EmployeeID: employeeID,
		Date:       d,
		StartTime:  start,
		EndTime:    end,
		Location:   models.NormalizeLocation(location),
		ShiftType:  models.ShiftMorning,
	}
}

func TestEvaluateShiftOverlapIsViolation(t *testing.T) {
	candidate := dayShift("nurse-1", "2024-07-31", "07:00", "15:00", "ICU")
	existing := []models.ShiftAssignment{dayShift("nurse-1", "2024-07-31", "08:00", "16:00", "GAWAT_DARURAT")}

	result := EvaluateShift(candidate, &models.User{ID: "nurse-1", Role: models.RoleNurse}, existing, 0, testLimits())
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Violations, ViolationTimeConflict)
	assert.Equal(t, 75.0, result.Score)
}

func TestEvaluateShiftHalfOpenBoundaryDoesNotConflict(t *testing.T) {
	candidate := dayShift("nurse-1", "2024-07-31", "15:00", "23:00", "ICU")
	existing := []models.ShiftAssignment{dayShift("nurse-1", "2024-07-31", "07:00", "15:00", "ICU")}

	result := EvaluateShift(candidate, &models.User{ID: "nurse-1", Role: models.RoleNurse}, existing, 0, testLimits())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 100.0, result.Score)
}

func TestEvaluateShiftOverlapIsSymmetric(t *testing.T) {
	a := dayShift("nurse-1", "2024-07-31", "07:00", "15:00", "ICU")
	b := dayShift("nurse-1", "2024-07-31", "14:00", "22:00", "ICU")

	assert.Equal(t,
		hasTimeConflict(a, []models.ShiftAssignment{b}),
		hasTimeConflict(b, []models.ShiftAssignment{a}))
}

func TestEvaluateShiftNightShiftConflictsAcrossMidnight(t *testing.T) {
	night := dayShift("nurse-1", "2024-07-30", "23:00", "07:00", "ICU")
	night.CrossesMidnight = true
	night.ShiftType = models.ShiftNight
	morning := dayShift("nurse-1", "2024-07-31", "06:00", "14:00", "ICU")

	assert.True(t, hasTimeConflict(morning, []models.ShiftAssignment{night}))
	assert.True(t, hasTimeConflict(night, []models.ShiftAssignment{morning}))
}

func TestEvaluateShiftRoleAndAccessChecks(t *testing.T) {
	candidate := dayShift("staff-1", "2024-07-31", "07:00", "15:00", "ICU")
	candidate.RequiredRole = models.RoleNurse
	employee := &models.User{ID: "staff-1", Role: models.RoleStaff, UnitAccess: models.StringList{"OUTPATIENT"}}

	result := EvaluateShift(candidate, employee, nil, 0, testLimits())
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Violations, ViolationRoleMismatch)
	assert.Contains(t, result.Violations, ViolationLocationAccessDenied)
	assert.Equal(t, 50.0, result.Score)
}

func TestEvaluateShiftMonthlyWorkloadCap(t *testing.T) {
	candidate := dayShift("nurse-1", "2024-07-20", "07:00", "15:00", "ICU")
	existing := make([]models.ShiftAssignment, 0, 18)
	for day := 1; day <= 18; day++ {
		// Spread one shift per day, none overlapping the candidate window.
		existing = append(existing, dayShift("nurse-1", fmt.Sprintf("2024-07-%02d", day), "16:00", "22:00", "ICU"))
	}
	limits := testLimits()
	limits.MaxConsecutiveDays = 0

	result := EvaluateShift(candidate, &models.User{ID: "nurse-1", Role: models.RoleNurse}, existing, 0, limits)
	assert.Contains(t, result.Violations, ViolationWorkloadLimit)
}

func TestEvaluateShiftWeeklyCapProratesFromMonthly(t *testing.T) {
	limits := testLimits()
	// 18 per month prorates to ceil(18 * 7 / 30) = 5 per week.
	assert.Equal(t, 5, limits.WeeklyLimit())

	limits.MaxShiftsPerWeek = 3
	assert.Equal(t, 3, limits.WeeklyLimit())
}

func TestEvaluateShiftWarnsWhenAtTheCap(t *testing.T) {
	limits := testLimits()
	limits.MaxShiftsPerWeek = 3
	limits.MaxConsecutiveDays = 0

	// Monday through Wednesday booked; the candidate is the third of the week.
	candidate := dayShift("nurse-1", "2024-07-17", "07:00", "15:00", "ICU")
	existing := []models.ShiftAssignment{
		dayShift("nurse-1", "2024-07-15", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-16", "07:00", "15:00", "ICU"),
	}

	result := EvaluateShift(candidate, &models.User{ID: "nurse-1", Role: models.RoleNurse}, existing, 0, limits)
	assert.True(t, result.IsValid)
	assert.Contains(t, result.Warnings, ViolationWorkloadLimit)
	assert.Equal(t, 95.0, result.Score)
}

func TestEvaluateShiftConsecutiveDays(t *testing.T) {
	candidate := dayShift("nurse-1", "2024-07-19", "07:00", "15:00", "ICU")
	existing := []models.ShiftAssignment{
		dayShift("nurse-1", "2024-07-15", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-16", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-17", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-18", "07:00", "15:00", "ICU"),
	}

	result := EvaluateShift(candidate, &models.User{ID: "nurse-1", Role: models.RoleNurse}, existing, 0, testLimits())
	assert.Contains(t, result.Violations, ViolationConsecutiveDays)

	// A gap resets the run.
	gapped := existing[:3]
	result = EvaluateShift(candidate, &models.User{ID: "nurse-1", Role: models.RoleNurse}, gapped, 0, testLimits())
	assert.NotContains(t, result.Violations, ViolationConsecutiveDays)
}

func TestEvaluateShiftCapacityIsAdvisory(t *testing.T) {
	limits := testLimits()
	limits.LocationCapacity = 2
	candidate := dayShift("nurse-1", "2024-07-31", "07:00", "15:00", "ICU")

	result := EvaluateShift(candidate, &models.User{ID: "nurse-1", Role: models.RoleNurse}, nil, 2, limits)
	assert.True(t, result.IsValid, "capacity overrun never hard-fails")
	assert.Contains(t, result.Warnings, WarningLocationOverCapacity)
}

func TestValidatorServiceValidateSingleCandidate(t *testing.T) {
	fixture := newValidatorFixture(t, []models.ShiftAssignment{
		dayShift("nurse-1", "2024-07-31", "08:00", "16:00", "UGD"),
	})

	result, err := fixture.service.Validate(context.Background(), dto.ShiftCandidate{
		EmployeeID: "nurse-1",
		Date:       "2024-07-31",
		StartTime:  "07:00",
		EndTime:    "15:00",
		Location:   "ICU",
		ShiftType:  "PAGI",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Violations, ViolationTimeConflict)
}

func TestValidatorServiceRejectsMalformedCandidate(t *testing.T) {
	fixture := newValidatorFixture(t, nil)

	_, err := fixture.service.Validate(context.Background(), dto.ShiftCandidate{
		EmployeeID: "nurse-1",
		Date:       "31-07-2024",
		StartTime:  "07:00",
		EndTime:    "15:00",
		Location:   "ICU",
		ShiftType:  "PAGI",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidatorServiceBulkBatchMembersConflict(t *testing.T) {
	fixture := newValidatorFixture(t, nil)

	resp, err := fixture.service.ValidateBulk(context.Background(), dto.BulkValidationRequest{
		Candidates: []dto.ShiftCandidate{
			{EmployeeID: "nurse-1", Date: "2024-07-31", StartTime: "07:00", EndTime: "15:00", Location: "ICU", ShiftType: "PAGI"},
			{EmployeeID: "nurse-1", Date: "2024-07-31", StartTime: "08:00", EndTime: "16:00", Location: "ICU", ShiftType: "PAGI"},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].IsValid, "first-come-first-validated")
	assert.False(t, resp.Results[1].IsValid)
	assert.Contains(t, resp.Results[1].Violations, ViolationTimeConflict)
	assert.Equal(t, 1, resp.Summary.ValidShifts)
	assert.Equal(t, 1, resp.Summary.InvalidShifts)
	assert.Equal(t, 50.0, resp.Summary.OverallCompliance)
}

func TestValidatorServiceBulkKeepsGoingPastBadEntries(t *testing.T) {
	fixture := newValidatorFixture(t, nil)

	resp, err := fixture.service.ValidateBulk(context.Background(), dto.BulkValidationRequest{
		Candidates: []dto.ShiftCandidate{
			{EmployeeID: "nurse-1", Date: "not-a-date", StartTime: "07:00", EndTime: "15:00", Location: "ICU", ShiftType: "PAGI"},
			{EmployeeID: "ghost", Date: "2024-07-31", StartTime: "07:00", EndTime: "15:00", Location: "ICU", ShiftType: "PAGI"},
			{EmployeeID: "nurse-1", Date: "2024-07-31", StartTime: "07:00", EndTime: "15:00", Location: "ICU", ShiftType: "PAGI"},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Contains(t, resp.Results[0].Violations, ViolationMalformedInput)
	assert.Contains(t, resp.Results[1].Violations, ViolationUnknownEmployee)
	assert.True(t, resp.Results[2].IsValid)
}

func TestValidatorServiceRules(t *testing.T) {
	fixture := newValidatorFixture(t, nil)

	rules := fixture.service.Rules()
	assert.Equal(t, 18, rules.MaxShiftsPerMonth)
	assert.Equal(t, 5, rules.MaxShiftsPerWeek)
	assert.Equal(t, 4, rules.MaxConsecutiveDays)
	assert.Contains(t, rules.CriticalUnits, "ICU")
}

// --- Fixtures ---

type validatorFixture struct {
	service *ScheduleValidatorService
	shifts  *validatorShiftReaderStub
}

func newValidatorFixture(t *testing.T, existing []models.ShiftAssignment) *validatorFixture {
	t.Helper()
	shifts := &validatorShiftReaderStub{items: existing}
	users := &swapUserReaderStub{
		items: map[string]*models.User{
			"nurse-1": {ID: "nurse-1", Role: models.RoleNurse, Active: true},
		},
	}
	service := NewScheduleValidatorService(shifts, users, testLimits(), defaultCriticalSet(), nil)
	return &validatorFixture{service: service, shifts: shifts}
}

type validatorShiftReaderStub struct {
	items []models.ShiftAssignment
}

func (s *validatorShiftReaderStub) ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]models.ShiftAssignment, error) {
	var out []models.ShiftAssignment
	for _, shift := range s.items {
		if shift.EmployeeID == employeeID && !shift.Date.Before(from) && !shift.Date.After(to) {
			out = append(out, shift)
		}
	}
	return out, nil
}

func (s *validatorShiftReaderStub) CountByLocation(ctx context.Context, location string, date time.Time, shiftType models.ShiftType) (int, error) {
	count := 0
	for _, shift := range s.items {
		if models.EqualLocation(shift.Location, location) && shift.SameDay(date) && shift.ShiftType == shiftType {
			count++
		}
	}
	return count, nil
}
