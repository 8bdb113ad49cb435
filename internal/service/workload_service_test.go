package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
)

func testThresholds() WorkloadThresholds {
	return WorkloadThresholds{Warning: 4, Critical: 6, Overwork: 8}
}

func TestClassifyWorkload(t *testing.T) {
	cases := []struct {
		count int
		want  models.WorkloadStatus
	}{
		{0, models.WorkloadNormal},
		{3, models.WorkloadNormal},
		{4, models.WorkloadWarning},
		{6, models.WorkloadCritical},
		{8, models.WorkloadOverworked},
		{12, models.WorkloadOverworked},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyWorkload(c.count, testThresholds()), "count %d", c.count)
	}
}

func TestBuildWorkloadSnapshot(t *testing.T) {
	shifts := []models.ShiftAssignment{
		dayShift("nurse-1", "2024-07-15", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-16", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-17", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-19", "07:00", "15:00", "ICU"),
		dayShift("nurse-2", "2024-07-19", "07:00", "15:00", "ICU"),
	}
	from, _ := time.Parse("2006-01-02", "2024-07-01")
	to, _ := time.Parse("2006-01-02", "2024-07-31")
	asOf, _ := time.Parse("2006-01-02", "2024-07-19")

	snapshot := BuildWorkloadSnapshot("nurse-1", shifts, from, to, asOf, testThresholds())
	assert.Equal(t, 4, snapshot.TotalShifts)
	assert.Equal(t, 4, snapshot.ShiftsThisWeek)
	assert.Equal(t, 3, snapshot.ConsecutiveDays)
	assert.Equal(t, models.WorkloadWarning, snapshot.Status)
}

func TestWorkloadServiceSnapshotUsesPeriodEndWhenOutOfRange(t *testing.T) {
	shifts := &validatorShiftReaderStub{items: []models.ShiftAssignment{
		dayShift("nurse-1", "2024-07-15", "07:00", "15:00", "ICU"),
		dayShift("nurse-1", "2024-07-16", "07:00", "15:00", "ICU"),
	}}
	service := NewWorkloadService(shifts, testThresholds(), nil)

	from, _ := time.Parse("2006-01-02", "2024-07-01")
	to, _ := time.Parse("2006-01-02", "2024-07-21")
	snapshot, err := service.Snapshot(context.Background(), "nurse-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.TotalShifts)
	assert.Equal(t, 2, snapshot.ShiftsThisWeek, "reference week is the period end, not today")
	assert.Equal(t, models.WorkloadNormal, snapshot.Status)
}
