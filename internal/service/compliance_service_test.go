package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

func TestComplianceReportAggregatesPerEmployee(t *testing.T) {
	overlapping := dayShift("n-1", "2024-07-10", "08:00", "16:00", "ICU")
	overlapping.ID = "s-2"
	clean := dayShift("n-1", "2024-07-10", "07:00", "15:00", "ICU")
	clean.ID = "s-1"
	other := dayShift("n-2", "2024-07-12", "07:00", "15:00", "EMERGENCY")
	other.ID = "s-3"

	fixture := newComplianceFixture(t, []models.ShiftAssignment{clean, overlapping, other})

	report, cached, err := fixture.service.Report(context.Background(), dto.ComplianceQuery{
		StartDate: "2024-07-01",
		EndDate:   "2024-07-31",
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, report.TotalShifts)
	assert.Equal(t, 1, report.CompliantShifts, "both overlapping shifts are non-compliant")
	assert.Equal(t, 33.33, report.OverallCompliance)

	require.Len(t, report.Employees, 2)
	assert.Equal(t, "n-1", report.Employees[0].EmployeeID)
	assert.Equal(t, 2, report.Employees[0].TotalShifts)
	assert.Equal(t, 0, report.Employees[0].CleanShifts)
	assert.Contains(t, report.Employees[0].Violations, ViolationTimeConflict)
	assert.Equal(t, 100.0, report.Employees[1].Compliance)
}

func TestComplianceReportUsesCache(t *testing.T) {
	shift := dayShift("n-1", "2024-07-10", "07:00", "15:00", "ICU")
	shift.ID = "s-1"
	fixture := newComplianceFixture(t, []models.ShiftAssignment{shift})

	_, cached, err := fixture.service.Report(context.Background(), dto.ComplianceQuery{StartDate: "2024-07-01", EndDate: "2024-07-31"})
	require.NoError(t, err)
	assert.False(t, cached)

	report, cached, err := fixture.service.Report(context.Background(), dto.ComplianceQuery{StartDate: "2024-07-01", EndDate: "2024-07-31"})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, report.TotalShifts)
}

func TestComplianceReportRejectsBadPeriod(t *testing.T) {
	fixture := newComplianceFixture(t, nil)

	_, _, err := fixture.service.Report(context.Background(), dto.ComplianceQuery{StartDate: "2024-07-31", EndDate: "2024-07-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = fixture.service.Report(context.Background(), dto.ComplianceQuery{StartDate: "julio", EndDate: "2024-07-31"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestComplianceExportCSV(t *testing.T) {
	fixture := newComplianceFixture(t, nil)
	report := &dto.ComplianceReport{
		StartDate: "2024-07-01",
		EndDate:   "2024-07-31",
		Employees: []dto.EmployeeCompliance{
			{EmployeeID: "n-1", EmployeeName: "Nurse One", TotalShifts: 4, CleanShifts: 3, Compliance: 75, Violations: []string{ViolationTimeConflict}},
		},
	}

	raw, err := fixture.service.ExportCSV(report)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "Employee ID,"))
	assert.Contains(t, text, "n-1,Nurse One,4,3,75.00,TIME_CONFLICT,")
}

// --- Fixtures ---

type complianceFixture struct {
	service *ComplianceService
	cache   *memoryCacheStub
}

func newComplianceFixture(t *testing.T, shifts []models.ShiftAssignment) *complianceFixture {
	t.Helper()
	cache := &memoryCacheStub{items: map[string][]byte{}}
	users := &schedulerUserListerStub{pool: []models.User{
		{ID: "n-1", FullName: "Nurse One", Role: models.RoleNurse, Active: true},
		{ID: "n-2", FullName: "Nurse Two", Role: models.RoleNurse, Active: true},
	}}
	reader := &complianceShiftReaderStub{items: shifts}
	service := NewComplianceService(reader, users, cache, testLimits(), time.Minute, nil)
	return &complianceFixture{service: service, cache: cache}
}

type complianceShiftReaderStub struct {
	items []models.ShiftAssignment
}

func (s *complianceShiftReaderStub) List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error) {
	return s.items, nil
}

type memoryCacheStub struct {
	items map[string][]byte
}

func (c *memoryCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}
