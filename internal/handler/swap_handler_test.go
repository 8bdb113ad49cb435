package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	internalmiddleware "github.com/prasetya-dev/shift-ops-api/internal/middleware"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

type swapManagerMock struct {
	created      dto.CreateSwapRequest
	createdBy    string
	decidedID    string
	decidedBy    string
	decision     models.SwapDecision
	decideErr    error
	request      *models.SwapRequest
	deleteErr    error
	listViewerID string
	listRole     models.UserRole
}

func (m *swapManagerMock) Create(ctx context.Context, req dto.CreateSwapRequest, requesterID string) (*models.SwapRequest, error) {
	m.created = req
	m.createdBy = requesterID
	return m.swapOrDefault(), nil
}

func (m *swapManagerMock) List(ctx context.Context, viewerID string, viewerRole models.UserRole, page, pageSize int) ([]dto.SwapView, error) {
	m.listViewerID = viewerID
	m.listRole = viewerRole
	return []dto.SwapView{}, nil
}

func (m *swapManagerMock) Get(ctx context.Context, id, viewerID string, viewerRole models.UserRole) (*models.SwapRequest, error) {
	return m.swapOrDefault(), nil
}

func (m *swapManagerMock) Decide(ctx context.Context, id, actorID string, actorRole models.UserRole, decision models.SwapDecision) (*models.SwapRequest, error) {
	if m.decideErr != nil {
		return nil, m.decideErr
	}
	m.decidedID = id
	m.decidedBy = actorID
	m.decision = decision
	return m.swapOrDefault(), nil
}

func (m *swapManagerMock) Delete(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	return m.deleteErr
}

func (m *swapManagerMock) swapOrDefault() *models.SwapRequest {
	if m.request != nil {
		return m.request
	}
	return &models.SwapRequest{
		ID:               "swap-1",
		RequesterID:      "nurse-1",
		TargetID:         "nurse-2",
		RequesterShiftID: "shift-a",
		Status:           models.SwapPending,
	}
}

func swapRouter(handler *SwapHandler, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(internalmiddleware.ContextUserKey, claims)
			c.Next()
		})
	}
	router.POST("/shift-swap-requests", handler.Create)
	router.GET("/shift-swap-requests", handler.List)
	router.PATCH("/shift-swap-requests/:id", handler.Update)
	router.DELETE("/shift-swap-requests/:id", handler.Delete)
	return router
}

func nurseClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "nurse-1", Role: models.RoleNurse}
}

func TestSwapHandlerCreate(t *testing.T) {
	mockSvc := &swapManagerMock{}
	router := swapRouter(&SwapHandler{service: mockSvc}, nurseClaims())

	payload := []byte(`{"targetId":"nurse-2","requesterShiftId":"shift-a","reason":"family event"}`)
	req, _ := http.NewRequest(http.MethodPost, "/shift-swap-requests", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "nurse-1", mockSvc.createdBy)
	require.Equal(t, "nurse-2", mockSvc.created.TargetID)
}

func TestSwapHandlerCreateRequiresAuth(t *testing.T) {
	router := swapRouter(&SwapHandler{service: &swapManagerMock{}}, nil)

	req, _ := http.NewRequest(http.MethodPost, "/shift-swap-requests", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSwapHandlerUpdateTranslatesStatus(t *testing.T) {
	mockSvc := &swapManagerMock{}
	router := swapRouter(&SwapHandler{service: mockSvc}, nurseClaims())

	payload := []byte(`{"status":"approved"}`)
	req, _ := http.NewRequest(http.MethodPatch, "/shift-swap-requests/swap-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "swap-1", mockSvc.decidedID)
	require.Equal(t, models.DecisionApprove, mockSvc.decision)
}

func TestSwapHandlerUpdateRejectsUnknownStatus(t *testing.T) {
	router := swapRouter(&SwapHandler{service: &swapManagerMock{}}, nurseClaims())

	payload := []byte(`{"status":"maybe-later"}`)
	req, _ := http.NewRequest(http.MethodPatch, "/shift-swap-requests/swap-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSwapHandlerUpdatePropagatesConflict(t *testing.T) {
	mockSvc := &swapManagerMock{decideErr: appErrors.Clone(appErrors.ErrInvalidTransition, "swap request is already final")}
	router := swapRouter(&SwapHandler{service: mockSvc}, nurseClaims())

	payload := []byte(`{"status":"approved"}`)
	req, _ := http.NewRequest(http.MethodPatch, "/shift-swap-requests/swap-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSwapHandlerDelete(t *testing.T) {
	router := swapRouter(&SwapHandler{service: &swapManagerMock{}}, nurseClaims())

	req, _ := http.NewRequest(http.MethodDelete, "/shift-swap-requests/swap-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestSwapHandlerListUsesCallerIdentity(t *testing.T) {
	mockSvc := &swapManagerMock{}
	router := swapRouter(&SwapHandler{service: mockSvc}, &models.JWTClaims{UserID: "sup-1", Role: models.RoleSupervisor})

	req, _ := http.NewRequest(http.MethodGet, "/shift-swap-requests", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "sup-1", mockSvc.listViewerID)
	require.Equal(t, models.RoleSupervisor, mockSvc.listRole)
}
