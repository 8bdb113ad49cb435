package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/pkg/config"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

// Violation and warning codes produced by shift validation.
const (
	ViolationTimeConflict         = "TIME_CONFLICT"
	ViolationRoleMismatch         = "ROLE_MISMATCH"
	ViolationLocationAccessDenied = "LOCATION_ACCESS_DENIED"
	ViolationWorkloadLimit        = "WORKLOAD_LIMIT_EXCEEDED"
	ViolationConsecutiveDays      = "CONSECUTIVE_DAYS_EXCEEDED"
	ViolationMalformedInput       = "MALFORMED_INPUT"
	ViolationUnknownEmployee      = "UNKNOWN_EMPLOYEE"
	WarningLocationOverCapacity   = "LOCATION_OVER_CAPACITY"
)

// ValidationLimits is the policy snapshot a validation call runs against.
// Callers capture it once per request; checks never re-read configuration.
type ValidationLimits struct {
	MaxShiftsPerMonth  int
	MaxShiftsPerWeek   int
	MaxConsecutiveDays int
	LocationCapacity   int
	ViolationWeight    int
	WarningWeight      int
}

// NewValidationLimits derives the limit snapshot from configuration.
func NewValidationLimits(cfg *config.Config) ValidationLimits {
	return ValidationLimits{
		MaxShiftsPerMonth:  cfg.Workload.MaxShiftsPerMonth,
		MaxShiftsPerWeek:   cfg.Workload.MaxShiftsPerWeek,
		MaxConsecutiveDays: cfg.Workload.MaxConsecutiveDays,
		LocationCapacity:   cfg.Capacity.DefaultPerShift,
		ViolationWeight:    cfg.Scoring.ViolationWeight,
		WarningWeight:      cfg.Scoring.WarningWeight,
	}
}

// WeeklyLimit returns the explicit weekly cap when set, otherwise the
// monthly cap prorated to seven days, rounded up.
func (l ValidationLimits) WeeklyLimit() int {
	if l.MaxShiftsPerWeek > 0 {
		return l.MaxShiftsPerWeek
	}
	if l.MaxShiftsPerMonth <= 0 {
		return 0
	}
	return (l.MaxShiftsPerMonth*7 + 29) / 30
}

// EvaluateShift runs every rule against one candidate and scores the
// outcome. employeeShifts is the employee's existing schedule around the
// candidate date; locationOccupancy is how many shifts already sit at the
// candidate's location for the same date and shift type. The checks run in a
// fixed order and all of them run; a candidate can carry several violations.
func EvaluateShift(candidate models.ShiftAssignment, employee *models.User, employeeShifts []models.ShiftAssignment, locationOccupancy int, limits ValidationLimits) dto.ValidationResult {
	result := dto.ValidationResult{
		Violations: []string{},
		Warnings:   []string{},
	}

	if hasTimeConflict(candidate, employeeShifts) {
		result.Violations = append(result.Violations, ViolationTimeConflict)
	}
	if candidate.RequiredRole != "" && employee != nil && employee.Role != candidate.RequiredRole {
		result.Violations = append(result.Violations, ViolationRoleMismatch)
	}
	if employee != nil && !employee.HasUnitAccess(candidate.Location) {
		result.Violations = append(result.Violations, ViolationLocationAccessDenied)
	}

	code, warned := checkWorkloadLimit(candidate, employeeShifts, limits)
	if code != "" {
		result.Violations = append(result.Violations, code)
	} else if warned {
		result.Warnings = append(result.Warnings, ViolationWorkloadLimit)
	}

	if consecutiveDays(candidate, employeeShifts) > limits.MaxConsecutiveDays && limits.MaxConsecutiveDays > 0 {
		result.Violations = append(result.Violations, ViolationConsecutiveDays)
	}
	if limits.LocationCapacity > 0 && locationOccupancy >= limits.LocationCapacity {
		result.Warnings = append(result.Warnings, WarningLocationOverCapacity)
	}

	result.IsValid = len(result.Violations) == 0
	result.Score = scoreResult(result, limits)
	return result
}

// hasTimeConflict reports whether the candidate's [start,end) window
// intersects any of the employee's shifts on the same or an adjacent day.
// Adjacent days matter because a night shift spills past midnight.
func hasTimeConflict(candidate models.ShiftAssignment, existing []models.ShiftAssignment) bool {
	candStart, candEnd, err := candidate.Interval()
	if err != nil {
		return false
	}
	for i := range existing {
		other := &existing[i]
		if other.EmployeeID != candidate.EmployeeID {
			continue
		}
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		dayOffset := daysBetween(candidate.Date, other.Date)
		if dayOffset < -1 || dayOffset > 1 {
			continue
		}
		otherStart, otherEnd, err := other.Interval()
		if err != nil {
			continue
		}
		// Shift both endpoints into the candidate-date frame.
		otherStart += dayOffset * 24 * 60
		otherEnd += dayOffset * 24 * 60
		if candStart < otherEnd && otherStart < candEnd {
			return true
		}
	}
	return false
}

// checkWorkloadLimit applies both the weekly and the monthly cap, counting
// the candidate itself. A breach returns the violation code; sitting within
// one shift of either cap returns a warning instead.
func checkWorkloadLimit(candidate models.ShiftAssignment, existing []models.ShiftAssignment, limits ValidationLimits) (string, bool) {
	weekCount, monthCount := 1, 1
	candYear, candWeek := candidate.Date.ISOWeek()
	for i := range existing {
		other := &existing[i]
		if other.EmployeeID != candidate.EmployeeID {
			continue
		}
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		year, week := other.Date.ISOWeek()
		if year == candYear && week == candWeek {
			weekCount++
		}
		if other.Date.Year() == candidate.Date.Year() && other.Date.Month() == candidate.Date.Month() {
			monthCount++
		}
	}

	weeklyLimit := limits.WeeklyLimit()
	if weeklyLimit > 0 && weekCount > weeklyLimit {
		return ViolationWorkloadLimit, false
	}
	if limits.MaxShiftsPerMonth > 0 && monthCount > limits.MaxShiftsPerMonth {
		return ViolationWorkloadLimit, false
	}

	warned := (weeklyLimit > 0 && weekCount >= weeklyLimit) ||
		(limits.MaxShiftsPerMonth > 0 && monthCount >= limits.MaxShiftsPerMonth)
	return "", warned
}

// consecutiveDays returns the length of the unbroken run of scheduled
// calendar days containing the candidate's date.
func consecutiveDays(candidate models.ShiftAssignment, existing []models.ShiftAssignment) int {
	scheduled := map[int64]bool{dayKey(candidate.Date): true}
	for i := range existing {
		if existing[i].EmployeeID == candidate.EmployeeID {
			scheduled[dayKey(existing[i].Date)] = true
		}
	}
	run := 1
	for d := candidate.Date.AddDate(0, 0, -1); scheduled[dayKey(d)]; d = d.AddDate(0, 0, -1) {
		run++
	}
	for d := candidate.Date.AddDate(0, 0, 1); scheduled[dayKey(d)]; d = d.AddDate(0, 0, 1) {
		run++
	}
	return run
}

func scoreResult(result dto.ValidationResult, limits ValidationLimits) float64 {
	score := 100.0
	score -= float64(len(result.Violations) * limits.ViolationWeight)
	score -= float64(len(result.Warnings) * limits.WarningWeight)
	if score < 0 {
		return 0
	}
	return score
}

func dayKey(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type validatorShiftReader interface {
	ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]models.ShiftAssignment, error)
	CountByLocation(ctx context.Context, location string, date time.Time, shiftType models.ShiftType) (int, error)
}

// ScheduleValidatorService resolves the data a validation call needs and
// delegates the rule evaluation to EvaluateShift.
type ScheduleValidatorService struct {
	shifts   validatorShiftReader
	users    swapUserReader
	limits   ValidationLimits
	critical CriticalUnitSet
	logger   *zap.Logger
}

// NewScheduleValidatorService constructs the service.
func NewScheduleValidatorService(shifts validatorShiftReader, users swapUserReader, limits ValidationLimits, critical CriticalUnitSet, logger *zap.Logger) *ScheduleValidatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleValidatorService{
		shifts:   shifts,
		users:    users,
		limits:   limits,
		critical: critical,
		logger:   logger,
	}
}

// Validate checks one candidate against the employee's stored schedule.
// Malformed input and unknown employees fail the call; rule breaches are
// data in the result, never errors.
func (s *ScheduleValidatorService) Validate(ctx context.Context, candidate dto.ShiftCandidate) (dto.ValidationResult, error) {
	shift, err := candidate.ToModel()
	if err != nil {
		return dto.ValidationResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift candidate")
	}
	employee, err := s.users.FindByID(ctx, shift.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dto.ValidationResult{}, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return dto.ValidationResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	existing, err := s.loadContextShifts(ctx, shift)
	if err != nil {
		return dto.ValidationResult{}, err
	}
	occupancy, err := s.shifts.CountByLocation(ctx, shift.Location, shift.Date, shift.ShiftType)
	if err != nil {
		return dto.ValidationResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count location shifts")
	}

	result := EvaluateShift(shift, employee, existing, occupancy, s.limits)
	s.logger.Debug("shift validated",
		zap.String("employee_id", shift.EmployeeID),
		zap.Bool("valid", result.IsValid),
		zap.Strings("violations", result.Violations))
	return result, nil
}

// ValidateBulk validates candidates in input order. Each accepted candidate
// joins the working schedule so later batch members can conflict with it.
// Malformed entries yield an invalid result in place instead of failing the
// whole batch.
func (s *ScheduleValidatorService) ValidateBulk(ctx context.Context, req dto.BulkValidationRequest) (dto.BulkValidationResponse, error) {
	if len(req.Candidates) == 0 {
		return dto.BulkValidationResponse{}, appErrors.Clone(appErrors.ErrValidation, "candidates are required")
	}

	results := make([]dto.ValidationResult, 0, len(req.Candidates))
	accepted := make([]models.ShiftAssignment, 0, len(req.Candidates))
	occupancyDelta := map[string]int{}
	valid := 0

	for _, raw := range req.Candidates {
		shift, err := raw.ToModel()
		if err != nil {
			results = append(results, invalidResult(ViolationMalformedInput, s.limits))
			continue
		}
		employee, err := s.users.FindByID(ctx, shift.EmployeeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				results = append(results, invalidResult(ViolationUnknownEmployee, s.limits))
				continue
			}
			return dto.BulkValidationResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
		}

		existing, err := s.loadContextShifts(ctx, shift)
		if err != nil {
			return dto.BulkValidationResponse{}, err
		}
		existing = append(existing, accepted...)

		occupancy, err := s.shifts.CountByLocation(ctx, shift.Location, shift.Date, shift.ShiftType)
		if err != nil {
			return dto.BulkValidationResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count location shifts")
		}
		occupancy += occupancyDelta[occupancyKey(shift)]

		result := EvaluateShift(shift, employee, existing, occupancy, s.limits)
		results = append(results, result)
		if result.IsValid {
			valid++
			accepted = append(accepted, shift)
			occupancyDelta[occupancyKey(shift)]++
		}
	}

	total := len(results)
	return dto.BulkValidationResponse{
		Results: results,
		Summary: dto.BulkValidationSummary{
			ValidShifts:       valid,
			InvalidShifts:     total - valid,
			OverallCompliance: round2(float64(valid) / float64(total) * 100),
		},
	}, nil
}

// Rules exposes the active policy snapshot.
func (s *ScheduleValidatorService) Rules() dto.RulesResponse {
	return dto.RulesResponse{
		MaxShiftsPerMonth:  s.limits.MaxShiftsPerMonth,
		MaxShiftsPerWeek:   s.limits.WeeklyLimit(),
		MaxConsecutiveDays: s.limits.MaxConsecutiveDays,
		ViolationWeight:    s.limits.ViolationWeight,
		WarningWeight:      s.limits.WarningWeight,
		CriticalUnits:      s.critical,
		LocationCapacity:   s.limits.LocationCapacity,
	}
}

// loadContextShifts fetches the employee's schedule wide enough for every
// rule: the candidate's whole month padded by a week on both sides covers
// ISO-week counting and consecutive-day runs.
func (s *ScheduleValidatorService) loadContextShifts(ctx context.Context, shift models.ShiftAssignment) ([]models.ShiftAssignment, error) {
	monthStart := time.Date(shift.Date.Year(), shift.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := monthStart.AddDate(0, 0, -7)
	to := monthStart.AddDate(0, 1, 7)
	existing, err := s.shifts.ListForEmployee(ctx, shift.EmployeeID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing shifts")
	}
	return existing, nil
}

func invalidResult(code string, limits ValidationLimits) dto.ValidationResult {
	result := dto.ValidationResult{
		IsValid:    false,
		Violations: []string{code},
		Warnings:   []string{},
	}
	result.Score = scoreResult(result, limits)
	return result
}

func occupancyKey(shift models.ShiftAssignment) string {
	return shift.Location + "|" + shift.Date.Format("2006-01-02") + "|" + string(shift.ShiftType)
}
