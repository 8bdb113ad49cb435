package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/internal/service"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
	"github.com/prasetya-dev/shift-ops-api/pkg/response"
)

type scheduleValidator interface {
	Validate(ctx context.Context, candidate dto.ShiftCandidate) (dto.ValidationResult, error)
	ValidateBulk(ctx context.Context, req dto.BulkValidationRequest) (dto.BulkValidationResponse, error)
	Rules() dto.RulesResponse
}

type scheduleOptimizer interface {
	Optimize(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizeResponse, error)
	Commit(ctx context.Context, req dto.CommitScheduleRequest) (*dto.CommitScheduleResponse, error)
}

type workloadReader interface {
	Snapshot(ctx context.Context, employeeID string, from, to time.Time) (models.WorkloadSnapshot, error)
}

type complianceReporter interface {
	Report(ctx context.Context, query dto.ComplianceQuery) (*dto.ComplianceReport, bool, error)
	ExportCSV(report *dto.ComplianceReport) ([]byte, error)
	ExportPDF(report *dto.ComplianceReport) ([]byte, error)
}

// RestrictionHandler exposes validation, optimization and reporting endpoints
// under /shift-restrictions.
type RestrictionHandler struct {
	validator  scheduleValidator
	optimizer  scheduleOptimizer
	workload   workloadReader
	compliance complianceReporter
	metrics    *service.MetricsService
}

// NewRestrictionHandler constructs the handler.
func NewRestrictionHandler(
	validator *service.ScheduleValidatorService,
	optimizer *service.AutoSchedulerService,
	workload *service.WorkloadService,
	compliance *service.ComplianceService,
	metrics *service.MetricsService,
) *RestrictionHandler {
	return &RestrictionHandler{
		validator:  validator,
		optimizer:  optimizer,
		workload:   workload,
		compliance: compliance,
		metrics:    metrics,
	}
}

// Validate godoc
// @Summary Validate one proposed shift assignment
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param payload body dto.ShiftCandidate true "Shift candidate"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shift-restrictions/validate [post]
func (h *RestrictionHandler) Validate(c *gin.Context) {
	var candidate dto.ShiftCandidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}

	result, err := h.validator.Validate(c.Request.Context(), candidate)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordValidation(result.IsValid)
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateBulk godoc
// @Summary Validate a batch of proposed shifts in order
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param payload body dto.BulkValidationRequest true "Batch of candidates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shift-restrictions/validate-bulk [post]
func (h *RestrictionHandler) ValidateBulk(c *gin.Context) {
	var req dto.BulkValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}

	result, err := h.validator.ValidateBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	for _, r := range result.Results {
		h.metrics.RecordValidation(r.IsValid)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Optimize godoc
// @Summary Generate an optimized schedule proposal
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Shift requirements"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shift-restrictions/optimize [post]
func (h *RestrictionHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimize payload"))
		return
	}

	result, err := h.optimizer.Optimize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordOptimizeRun(result.FulfillmentRate)
	response.JSON(c, http.StatusOK, result, nil)
}

// CommitOptimize godoc
// @Summary Persist a previously generated schedule proposal
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param payload body dto.CommitScheduleRequest true "Proposal reference"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shift-restrictions/optimize/commit [post]
func (h *RestrictionHandler) CommitOptimize(c *gin.Context) {
	var req dto.CommitScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commit payload"))
		return
	}

	result, err := h.optimizer.Commit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Rules godoc
// @Summary Get the active scheduling policy
// @Tags Restrictions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shift-restrictions/rules [get]
func (h *RestrictionHandler) Rules(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.validator.Rules(), nil)
}

// Workload godoc
// @Summary Get an employee's workload snapshot for a month
// @Tags Restrictions
// @Produce json
// @Param employeeId query string true "Employee ID"
// @Param month query string false "Month in YYYY-MM format, defaults to current"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shift-restrictions/workload [get]
func (h *RestrictionHandler) Workload(c *gin.Context) {
	var query dto.WorkloadQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.EmployeeID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "employeeId is required"))
		return
	}

	month := time.Now().UTC()
	if query.Month != "" {
		parsed, err := time.Parse("2006-01", query.Month)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must use YYYY-MM format"))
			return
		}
		month = parsed
	}
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	snapshot, err := h.workload.Snapshot(c.Request.Context(), query.EmployeeID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// ComplianceReport godoc
// @Summary Compliance report over a period
// @Description Re-validates every shift in the period. Use format=csv or format=pdf to download.
// @Tags Restrictions
// @Produce json
// @Param startDate query string true "Period start (YYYY-MM-DD)"
// @Param endDate query string true "Period end (YYYY-MM-DD)"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shift-restrictions/compliance-report [get]
func (h *RestrictionHandler) ComplianceReport(c *gin.Context) {
	var query dto.ComplianceQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.StartDate == "" || query.EndDate == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "startDate and endDate are required"))
		return
	}

	report, cached, err := h.compliance.Report(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheOperation(cached)

	switch strings.ToLower(query.Format) {
	case "", "json":
		response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"cached": cached})
	case "csv":
		data, err := h.compliance.ExportCSV(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.serveDownload(c, data, "text/csv", "csv", report)
	case "pdf":
		data, err := h.compliance.ExportPDF(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.serveDownload(c, data, "application/pdf", "pdf", report)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
	}
}

func (h *RestrictionHandler) serveDownload(c *gin.Context, data []byte, mimeType, extension string, report *dto.ComplianceReport) {
	filename := fmt.Sprintf("compliance_%s_%s.%s", report.StartDate, report.EndDate, extension)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, data)
}
