package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/internal/service"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
	"github.com/prasetya-dev/shift-ops-api/pkg/response"
)

type shiftManager interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error)
	Get(ctx context.Context, id string) (*models.ShiftAssignment, error)
	Create(ctx context.Context, candidate dto.ShiftCandidate) (*models.ShiftAssignment, dto.ValidationResult, error)
	Delete(ctx context.Context, id string) error
}

// ShiftHandler exposes shift assignment CRUD endpoints.
type ShiftHandler struct {
	service shiftManager
}

// NewShiftHandler constructs the handler.
func NewShiftHandler(svc *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{service: svc}
}

// List godoc
// @Summary List shift assignments
// @Tags Shifts
// @Produce json
// @Param employeeId query string false "Employee ID"
// @Param location query string false "Location"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /shifts [get]
func (h *ShiftHandler) List(c *gin.Context) {
	filter := models.ShiftFilter{
		EmployeeID: c.Query("employeeId"),
		Location:   c.Query("location"),
	}
	if raw := c.Query("dateFrom"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateFrom must use YYYY-MM-DD format"))
			return
		}
		filter.DateFrom = &parsed
	}
	if raw := c.Query("dateTo"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTo must use YYYY-MM-DD format"))
			return
		}
		filter.DateTo = &parsed
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	shifts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}

// Get godoc
// @Summary Get one shift assignment
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	shift, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// Create godoc
// @Summary Create a shift assignment
// @Description The candidate is validated against scheduling rules before it is persisted.
// @Tags Shifts
// @Accept json
// @Produce json
// @Param payload body dto.ShiftCandidate true "Shift candidate"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /shifts [post]
func (h *ShiftHandler) Create(c *gin.Context) {
	var candidate dto.ShiftCandidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid shift payload"))
		return
	}

	shift, result, err := h.service.Create(c.Request.Context(), candidate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"shift": shift, "validation": result}, nil)
}

// Delete godoc
// @Summary Delete a shift assignment
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /shifts/{id} [delete]
func (h *ShiftHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
