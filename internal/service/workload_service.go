package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/pkg/config"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

// WorkloadThresholds classify weekly shift counts into load statuses.
type WorkloadThresholds struct {
	Warning  int
	Critical int
	Overwork int
}

// NewWorkloadThresholds derives the thresholds from configuration.
func NewWorkloadThresholds(cfg *config.Config) WorkloadThresholds {
	return WorkloadThresholds{
		Warning:  cfg.Workload.WarningThreshold,
		Critical: cfg.Workload.CriticalThreshold,
		Overwork: cfg.Workload.OverworkThreshold,
	}
}

// ClassifyWorkload maps a weekly shift count onto a status.
func ClassifyWorkload(shiftsThisWeek int, t WorkloadThresholds) models.WorkloadStatus {
	switch {
	case t.Overwork > 0 && shiftsThisWeek >= t.Overwork:
		return models.WorkloadOverworked
	case t.Critical > 0 && shiftsThisWeek >= t.Critical:
		return models.WorkloadCritical
	case t.Warning > 0 && shiftsThisWeek >= t.Warning:
		return models.WorkloadWarning
	}
	return models.WorkloadNormal
}

// BuildWorkloadSnapshot derives load metrics from a shift list. The weekly
// count uses the ISO week containing asOf; the consecutive-day figure is the
// longest scheduled run inside the period.
func BuildWorkloadSnapshot(employeeID string, shifts []models.ShiftAssignment, periodStart, periodEnd, asOf time.Time, thresholds WorkloadThresholds) models.WorkloadSnapshot {
	refYear, refWeek := asOf.ISOWeek()
	total := 0
	week := 0
	days := map[int64]bool{}
	for i := range shifts {
		if shifts[i].EmployeeID != employeeID {
			continue
		}
		total++
		days[dayKey(shifts[i].Date)] = true
		if y, w := shifts[i].Date.ISOWeek(); y == refYear && w == refWeek {
			week++
		}
	}

	return models.WorkloadSnapshot{
		EmployeeID:      employeeID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		TotalShifts:     total,
		ShiftsThisWeek:  week,
		ConsecutiveDays: longestRun(days),
		Status:          ClassifyWorkload(week, thresholds),
	}
}

func longestRun(days map[int64]bool) int {
	best := 0
	for key := range days {
		prev := dayKey(keyToDate(key).AddDate(0, 0, -1))
		if days[prev] {
			continue
		}
		run := 0
		for d := keyToDate(key); days[dayKey(d)]; d = d.AddDate(0, 0, 1) {
			run++
		}
		if run > best {
			best = run
		}
	}
	return best
}

func keyToDate(key int64) time.Time {
	return time.Date(int(key/10000), time.Month(key/100%100), int(key%100), 0, 0, 0, 0, time.UTC)
}

type workloadShiftReader interface {
	ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]models.ShiftAssignment, error)
}

// WorkloadService reports derived load metrics per employee.
type WorkloadService struct {
	shifts     workloadShiftReader
	thresholds WorkloadThresholds
	logger     *zap.Logger
	now        func() time.Time
}

// NewWorkloadService constructs the service.
func NewWorkloadService(shifts workloadShiftReader, thresholds WorkloadThresholds, logger *zap.Logger) *WorkloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{
		shifts:     shifts,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// Snapshot computes the employee's load over [from, to].
func (s *WorkloadService) Snapshot(ctx context.Context, employeeID string, from, to time.Time) (models.WorkloadSnapshot, error) {
	shifts, err := s.shifts.ListForEmployee(ctx, employeeID, from, to)
	if err != nil {
		return models.WorkloadSnapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee shifts")
	}
	asOf := s.now().UTC()
	if asOf.Before(from) || asOf.After(to) {
		asOf = to
	}
	return BuildWorkloadSnapshot(employeeID, shifts, from, to, asOf, s.thresholds), nil
}
