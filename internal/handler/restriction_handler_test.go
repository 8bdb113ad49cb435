package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

type scheduleValidatorMock struct {
	result   dto.ValidationResult
	bulk     dto.BulkValidationResponse
	err      error
	captured dto.ShiftCandidate
}

func (m *scheduleValidatorMock) Validate(ctx context.Context, candidate dto.ShiftCandidate) (dto.ValidationResult, error) {
	m.captured = candidate
	if m.err != nil {
		return dto.ValidationResult{}, m.err
	}
	return m.result, nil
}

func (m *scheduleValidatorMock) ValidateBulk(ctx context.Context, req dto.BulkValidationRequest) (dto.BulkValidationResponse, error) {
	if m.err != nil {
		return dto.BulkValidationResponse{}, m.err
	}
	return m.bulk, nil
}

func (m *scheduleValidatorMock) Rules() dto.RulesResponse {
	return dto.RulesResponse{MaxShiftsPerMonth: 18, MaxConsecutiveDays: 4}
}

type scheduleOptimizerMock struct {
	response  *dto.OptimizeResponse
	commitRes *dto.CommitScheduleResponse
	err       error
}

func (m *scheduleOptimizerMock) Optimize(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *scheduleOptimizerMock) Commit(ctx context.Context, req dto.CommitScheduleRequest) (*dto.CommitScheduleResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.commitRes, nil
}

type workloadReaderMock struct {
	snapshot models.WorkloadSnapshot
	from     time.Time
	to       time.Time
}

func (m *workloadReaderMock) Snapshot(ctx context.Context, employeeID string, from, to time.Time) (models.WorkloadSnapshot, error) {
	m.from = from
	m.to = to
	m.snapshot.EmployeeID = employeeID
	return m.snapshot, nil
}

type complianceReporterMock struct {
	report *dto.ComplianceReport
	cached bool
	err    error
}

func (m *complianceReporterMock) Report(ctx context.Context, query dto.ComplianceQuery) (*dto.ComplianceReport, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.report, m.cached, nil
}

func (m *complianceReporterMock) ExportCSV(report *dto.ComplianceReport) ([]byte, error) {
	return []byte("Employee ID,Employee Name\n"), nil
}

func (m *complianceReporterMock) ExportPDF(report *dto.ComplianceReport) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func newRestrictionHandler() (*RestrictionHandler, *scheduleValidatorMock, *scheduleOptimizerMock, *workloadReaderMock, *complianceReporterMock) {
	validator := &scheduleValidatorMock{result: dto.ValidationResult{IsValid: true, Score: 100}}
	optimizer := &scheduleOptimizerMock{
		response:  &dto.OptimizeResponse{ProposalID: "prop-1", FulfillmentRate: 66.67},
		commitRes: &dto.CommitScheduleResponse{ShiftIDs: []string{"s1", "s2"}, Created: 2},
	}
	workload := &workloadReaderMock{snapshot: models.WorkloadSnapshot{Status: models.WorkloadNormal}}
	compliance := &complianceReporterMock{report: &dto.ComplianceReport{
		StartDate:         "2024-07-01",
		EndDate:           "2024-07-31",
		OverallCompliance: 100,
	}}
	h := &RestrictionHandler{
		validator:  validator,
		optimizer:  optimizer,
		workload:   workload,
		compliance: compliance,
	}
	return h, validator, optimizer, workload, compliance
}

func restrictionRouter(h *RestrictionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/shift-restrictions/validate", h.Validate)
	router.POST("/shift-restrictions/validate-bulk", h.ValidateBulk)
	router.POST("/shift-restrictions/optimize", h.Optimize)
	router.POST("/shift-restrictions/optimize/commit", h.CommitOptimize)
	router.GET("/shift-restrictions/rules", h.Rules)
	router.GET("/shift-restrictions/workload", h.Workload)
	router.GET("/shift-restrictions/compliance-report", h.ComplianceReport)
	return router
}

func TestRestrictionHandlerValidate(t *testing.T) {
	h, validator, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	payload := []byte(`{"employeeId":"nurse-1","date":"2024-07-01","startTime":"07:00","endTime":"15:00","location":"UGD","shiftType":"PAGI"}`)
	req, _ := http.NewRequest(http.MethodPost, "/shift-restrictions/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "nurse-1", validator.captured.EmployeeID)
	require.Equal(t, "UGD", validator.captured.Location)
}

func TestRestrictionHandlerValidateMalformedJSON(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	req, _ := http.NewRequest(http.MethodPost, "/shift-restrictions/validate", bytes.NewReader([]byte(`{"employeeId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestrictionHandlerValidatePropagatesServiceError(t *testing.T) {
	h, validator, _, _, _ := newRestrictionHandler()
	validator.err = appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	router := restrictionRouter(h)

	payload := []byte(`{"employeeId":"ghost","date":"2024-07-01","startTime":"07:00","endTime":"15:00","location":"UGD","shiftType":"PAGI"}`)
	req, _ := http.NewRequest(http.MethodPost, "/shift-restrictions/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestrictionHandlerOptimize(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	payload := []byte(`{"requirements":[{"date":"2024-07-01","location":"ICU","shiftType":"NIGHT","requiredCount":2,"priority":"URGENT"}]}`)
	req, _ := http.NewRequest(http.MethodPost, "/shift-restrictions/optimize", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.OptimizeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "prop-1", envelope.Data.ProposalID)
	require.InDelta(t, 66.67, envelope.Data.FulfillmentRate, 0.001)
}

func TestRestrictionHandlerCommit(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	payload := []byte(`{"proposalId":"prop-1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/shift-restrictions/optimize/commit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRestrictionHandlerCommitExpiredProposal(t *testing.T) {
	h, _, optimizer, _, _ := newRestrictionHandler()
	optimizer.err = appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	router := restrictionRouter(h)

	payload := []byte(`{"proposalId":"gone"}`)
	req, _ := http.NewRequest(http.MethodPost, "/shift-restrictions/optimize/commit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestrictionHandlerRules(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/shift-restrictions/rules", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.RulesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 18, envelope.Data.MaxShiftsPerMonth)
}

func TestRestrictionHandlerWorkloadMonthRange(t *testing.T) {
	h, _, _, workload, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/shift-restrictions/workload?employeeId=nurse-1&month=2024-07", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), workload.from)
	require.Equal(t, time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC), workload.to)
}

func TestRestrictionHandlerWorkloadRequiresEmployee(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/shift-restrictions/workload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestrictionHandlerComplianceReportJSON(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/shift-restrictions/compliance-report?startDate=2024-07-01&endDate=2024-07-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "2024-07-01")
}

func TestRestrictionHandlerComplianceReportCSV(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/shift-restrictions/compliance-report?startDate=2024-07-01&endDate=2024-07-31&format=csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "compliance_2024-07-01_2024-07-31.csv")
	require.Contains(t, w.Body.String(), "Employee ID")
}

func TestRestrictionHandlerComplianceReportUnknownFormat(t *testing.T) {
	h, _, _, _, _ := newRestrictionHandler()
	router := restrictionRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/shift-restrictions/compliance-report?startDate=2024-07-01&endDate=2024-07-31&format=xml", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
