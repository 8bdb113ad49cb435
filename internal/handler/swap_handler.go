package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/internal/service"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
	"github.com/prasetya-dev/shift-ops-api/pkg/response"
)

type swapManager interface {
	Create(ctx context.Context, req dto.CreateSwapRequest, requesterID string) (*models.SwapRequest, error)
	List(ctx context.Context, viewerID string, viewerRole models.UserRole, page, pageSize int) ([]dto.SwapView, error)
	Get(ctx context.Context, id, viewerID string, viewerRole models.UserRole) (*models.SwapRequest, error)
	Decide(ctx context.Context, id, actorID string, actorRole models.UserRole, decision models.SwapDecision) (*models.SwapRequest, error)
	Delete(ctx context.Context, id, actorID string, actorRole models.UserRole) error
}

// SwapHandler exposes the swap request approval chain over HTTP.
type SwapHandler struct {
	service swapManager
	metrics *service.MetricsService
}

// NewSwapHandler constructs the handler.
func NewSwapHandler(svc *service.SwapService, metrics *service.MetricsService) *SwapHandler {
	return &SwapHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Create a shift swap request
// @Tags Swaps
// @Accept json
// @Produce json
// @Param payload body dto.CreateSwapRequest true "Swap request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shift-swap-requests [post]
func (h *SwapHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}

	request, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewSwapView(request))
}

// List godoc
// @Summary List swap requests visible to the caller
// @Tags Swaps
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /shift-swap-requests [get]
func (h *SwapHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	views, err := h.service.List(c.Request.Context(), claims.UserID, claims.Role, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Get godoc
// @Summary Get one swap request
// @Tags Swaps
// @Produce json
// @Param id path string true "Swap request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shift-swap-requests/{id} [get]
func (h *SwapHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSwapView(request), nil)
}

// Update godoc
// @Summary Advance a swap request through its approval chain
// @Tags Swaps
// @Accept json
// @Produce json
// @Param id path string true "Swap request ID"
// @Param payload body dto.UpdateSwapStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /shift-swap-requests/{id} [patch]
func (h *SwapHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateSwapStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	decision, err := req.Decision()
	if err != nil {
		response.Error(c, err)
		return
	}

	request, err := h.service.Decide(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role, decision)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSwapDecision(request.Status)
	response.JSON(c, http.StatusOK, dto.NewSwapView(request), nil)
}

// Delete godoc
// @Summary Withdraw a swap request
// @Tags Swaps
// @Produce json
// @Param id path string true "Swap request ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /shift-swap-requests/{id} [delete]
func (h *SwapHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
