package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
)

// ShiftCandidate is a proposed shift assignment submitted for validation.
type ShiftCandidate struct {
	EmployeeID      string `json:"employeeId" validate:"required"`
	Date            string `json:"date" validate:"required"`
	StartTime       string `json:"startTime" validate:"required"`
	EndTime         string `json:"endTime" validate:"required"`
	CrossesMidnight bool   `json:"crossesMidnight"`
	Location        string `json:"location" validate:"required"`
	ShiftType       string `json:"shiftType" validate:"required"`
	RequiredRole    string `json:"requiredRole"`
}

// ToModel converts the candidate into a shift assignment, normalising
// external spellings. It is the single place malformed input is rejected.
func (c ShiftCandidate) ToModel() (models.ShiftAssignment, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(c.Date))
	if err != nil {
		return models.ShiftAssignment{}, fmt.Errorf("invalid date %q", c.Date)
	}
	shiftType, err := models.ParseShiftType(c.ShiftType)
	if err != nil {
		return models.ShiftAssignment{}, err
	}
	shift := models.ShiftAssignment{
		EmployeeID:      c.EmployeeID,
		Date:            date,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		CrossesMidnight: c.CrossesMidnight,
		Location:        models.NormalizeLocation(c.Location),
		ShiftType:       shiftType,
		RequiredRole:    models.UserRole(strings.ToUpper(strings.TrimSpace(c.RequiredRole))),
	}
	if _, _, err := shift.Interval(); err != nil {
		return models.ShiftAssignment{}, err
	}
	return shift, nil
}

// ValidationResult reports the outcome of validating one candidate.
// Violations are hard failures; warnings are advisory.
type ValidationResult struct {
	IsValid    bool     `json:"isValid"`
	Score      float64  `json:"score"`
	Violations []string `json:"violations"`
	Warnings   []string `json:"warnings"`
}

// BulkValidationRequest validates several candidates in input order.
type BulkValidationRequest struct {
	Candidates []ShiftCandidate `json:"candidates" validate:"required,min=1,dive"`
}

// BulkValidationSummary aggregates a batch outcome.
type BulkValidationSummary struct {
	ValidShifts       int     `json:"validShifts"`
	InvalidShifts     int     `json:"invalidShifts"`
	OverallCompliance float64 `json:"overallCompliance"`
}

// BulkValidationResponse pairs per-candidate results with the batch summary.
type BulkValidationResponse struct {
	Results []ValidationResult    `json:"results"`
	Summary BulkValidationSummary `json:"summary"`
}

// RulesResponse exposes the active scheduling policy.
type RulesResponse struct {
	MaxShiftsPerMonth  int      `json:"maxShiftsPerMonth"`
	MaxShiftsPerWeek   int      `json:"maxShiftsPerWeek"`
	MaxConsecutiveDays int      `json:"maxConsecutiveDays"`
	ViolationWeight    int      `json:"violationWeight"`
	WarningWeight      int      `json:"warningWeight"`
	CriticalUnits      []string `json:"criticalUnits"`
	LocationCapacity   int      `json:"locationCapacityPerShift"`
}
