package models

import "time"

// WorkloadStatus classifies an employee's current load.
type WorkloadStatus string

const (
	WorkloadNormal     WorkloadStatus = "NORMAL"
	WorkloadWarning    WorkloadStatus = "WARNING"
	WorkloadCritical   WorkloadStatus = "CRITICAL"
	WorkloadOverworked WorkloadStatus = "OVERWORKED"
)

// WorkloadSnapshot holds derived load metrics for one employee over a period.
// It is computed on demand and never persisted.
type WorkloadSnapshot struct {
	EmployeeID      string         `json:"employee_id"`
	PeriodStart     time.Time      `json:"period_start"`
	PeriodEnd       time.Time      `json:"period_end"`
	TotalShifts     int            `json:"total_shifts"`
	ShiftsThisWeek  int            `json:"shifts_this_week"`
	ConsecutiveDays int            `json:"consecutive_days"`
	Status          WorkloadStatus `json:"status"`
}
