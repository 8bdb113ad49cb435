package dto

import (
	"strings"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

// CreateSwapRequest proposes a shift exchange or give-away.
type CreateSwapRequest struct {
	TargetID         string  `json:"targetId" validate:"required"`
	RequesterShiftID string  `json:"requesterShiftId" validate:"required"`
	TargetShiftID    *string `json:"targetShiftId"`
	Reason           string  `json:"reason" validate:"required"`
}

// UpdateSwapStatusRequest drives an approval-chain transition. Clients send a
// status spelling; it is reduced to an approve/reject decision here, at the
// boundary, so the engine never parses free text.
type UpdateSwapStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Decision translates the external status spelling into a canonical decision.
func (r UpdateSwapStatusRequest) Decision() (models.SwapDecision, error) {
	key := strings.ToUpper(strings.TrimSpace(r.Status))
	key = strings.ReplaceAll(key, "-", "_")
	switch {
	case strings.Contains(key, "REJECT"), strings.Contains(key, "DECLIN"), key == "DITOLAK", key == "TOLAK":
		return models.DecisionReject, nil
	case strings.Contains(key, "APPROV"), strings.Contains(key, "ACCEPT"), key == "DISETUJUI", key == "SETUJU", strings.Contains(key, "WAITING"):
		return models.DecisionApprove, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "status must resolve to an approval or rejection")
}

// SwapView is the API projection of a swap request.
type SwapView struct {
	ID               string            `json:"id"`
	RequesterID      string            `json:"requester_id"`
	TargetID         string            `json:"target_id"`
	RequesterShiftID string            `json:"requester_shift_id"`
	TargetShiftID    *string           `json:"target_shift_id,omitempty"`
	Reason           string            `json:"reason"`
	Status           models.SwapStatus `json:"status"`
	CreatedAt        string            `json:"created_at"`
}

// NewSwapView projects a swap request for API responses.
func NewSwapView(r *models.SwapRequest) SwapView {
	return SwapView{
		ID:               r.ID,
		RequesterID:      r.RequesterID,
		TargetID:         r.TargetID,
		RequesterShiftID: r.RequesterShiftID,
		TargetShiftID:    r.TargetShiftID,
		Reason:           r.Reason,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
