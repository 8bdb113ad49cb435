package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
	"github.com/prasetya-dev/shift-ops-api/pkg/export"
)

type complianceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type complianceShiftReader interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error)
}

// ComplianceService aggregates rule compliance over a period. Reports are
// cached; exports render from the assembled report, never from raw rows.
type ComplianceService struct {
	shifts   complianceShiftReader
	users    schedulerUserLister
	cache    complianceCache
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	limits   ValidationLimits
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewComplianceService constructs the service.
func NewComplianceService(shifts complianceShiftReader, users schedulerUserLister, cache complianceCache, limits ValidationLimits, cacheTTL time.Duration, logger *zap.Logger) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &ComplianceService{
		shifts:   shifts,
		users:    users,
		cache:    cache,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		limits:   limits,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Report evaluates every stored shift in the period against the scheduling
// rules and aggregates the outcome per employee.
func (s *ComplianceService) Report(ctx context.Context, query dto.ComplianceQuery) (*dto.ComplianceReport, bool, error) {
	start, err := time.Parse("2006-01-02", strings.TrimSpace(query.StartDate))
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid startDate %q", query.StartDate))
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(query.EndDate))
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid endDate %q", query.EndDate))
	}
	if end.Before(start) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}

	key := fmt.Sprintf("compliance:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if s.cache != nil {
		var cached dto.ComplianceReport
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("compliance cache read failed", zap.Error(err))
		}
	}

	report, err := s.build(ctx, start, end)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			s.logger.Warn("compliance cache write failed", zap.Error(err))
		}
	}
	return report, false, nil
}

func (s *ComplianceService) build(ctx context.Context, start, end time.Time) (*dto.ComplianceReport, error) {
	// Context is padded a week each way so weekly and consecutive-day rules
	// judge period-boundary shifts fairly.
	from := start.AddDate(0, 0, -7)
	to := end.AddDate(0, 0, 7)
	shifts, err := s.shifts.List(ctx, models.ShiftFilter{DateFrom: &from, DateTo: &to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shifts")
	}
	users, err := s.users.List(ctx, models.UserFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	usersByID := make(map[string]*models.User, len(users))
	for i := range users {
		usersByID[users[i].ID] = &users[i]
	}

	perEmployee := map[string]*dto.EmployeeCompliance{}
	totalShifts := 0
	compliant := 0

	for i := range shifts {
		shift := shifts[i]
		if shift.Date.Before(start) || shift.Date.After(end) {
			continue
		}
		totalShifts++

		entry, ok := perEmployee[shift.EmployeeID]
		if !ok {
			entry = &dto.EmployeeCompliance{EmployeeID: shift.EmployeeID, Violations: []string{}, Warnings: []string{}}
			if user, found := usersByID[shift.EmployeeID]; found {
				entry.EmployeeName = user.FullName
			}
			perEmployee[shift.EmployeeID] = entry
		}

		occupancy := 0
		for j := range shifts {
			if j != i && models.EqualLocation(shifts[j].Location, shift.Location) &&
				shifts[j].SameDay(shift.Date) && shifts[j].ShiftType == shift.ShiftType {
				occupancy++
			}
		}

		result := EvaluateShift(shift, usersByID[shift.EmployeeID], shifts, occupancy, s.limits)
		entry.TotalShifts++
		if result.IsValid {
			entry.CleanShifts++
			compliant++
		}
		entry.Violations = mergeCodes(entry.Violations, result.Violations)
		entry.Warnings = mergeCodes(entry.Warnings, result.Warnings)
	}

	employees := make([]dto.EmployeeCompliance, 0, len(perEmployee))
	for _, entry := range perEmployee {
		if entry.TotalShifts > 0 {
			entry.Compliance = round2(float64(entry.CleanShifts) / float64(entry.TotalShifts) * 100)
		}
		employees = append(employees, *entry)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].EmployeeID < employees[j].EmployeeID })

	overall := 100.0
	if totalShifts > 0 {
		overall = round2(float64(compliant) / float64(totalShifts) * 100)
	}
	return &dto.ComplianceReport{
		StartDate:         start.Format("2006-01-02"),
		EndDate:           end.Format("2006-01-02"),
		TotalShifts:       totalShifts,
		CompliantShifts:   compliant,
		OverallCompliance: overall,
		Employees:         employees,
	}, nil
}

// ExportCSV renders the report as CSV bytes.
func (s *ComplianceService) ExportCSV(report *dto.ComplianceReport) ([]byte, error) {
	return s.csv.Render(complianceDataset(report))
}

// ExportPDF renders the report as PDF bytes.
func (s *ComplianceService) ExportPDF(report *dto.ComplianceReport) ([]byte, error) {
	title := fmt.Sprintf("Shift Compliance Report %s to %s", report.StartDate, report.EndDate)
	return s.pdf.Render(complianceDataset(report), title)
}

func complianceDataset(report *dto.ComplianceReport) export.Dataset {
	headers := []string{"Employee ID", "Employee Name", "Total Shifts", "Clean Shifts", "Compliance %", "Violations", "Warnings"}
	rows := make([]map[string]string, 0, len(report.Employees))
	for _, entry := range report.Employees {
		rows = append(rows, map[string]string{
			"Employee ID":   entry.EmployeeID,
			"Employee Name": entry.EmployeeName,
			"Total Shifts":  fmt.Sprintf("%d", entry.TotalShifts),
			"Clean Shifts":  fmt.Sprintf("%d", entry.CleanShifts),
			"Compliance %":  fmt.Sprintf("%.2f", entry.Compliance),
			"Violations":    strings.Join(entry.Violations, ";"),
			"Warnings":      strings.Join(entry.Warnings, ";"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func mergeCodes(existing, incoming []string) []string {
	for _, code := range incoming {
		found := false
		for _, have := range existing {
			if have == code {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, code)
		}
	}
	return existing
}
