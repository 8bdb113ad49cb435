package models

import "time"

// SwapStatus captures the approval-chain state of a swap request.
type SwapStatus string

const (
	SwapPending              SwapStatus = "PENDING"
	SwapApprovedByTarget     SwapStatus = "APPROVED_BY_TARGET"
	SwapWaitingUnitHead      SwapStatus = "WAITING_UNIT_HEAD"
	SwapApproved             SwapStatus = "APPROVED"
	SwapRejectedByTarget     SwapStatus = "REJECTED_BY_TARGET"
	SwapRejectedBySupervisor SwapStatus = "REJECTED_BY_SUPERVISOR"
	SwapRejectedByUnitHead   SwapStatus = "REJECTED_BY_UNIT_HEAD"
)

// IsTerminal reports whether no further transitions are permitted.
func (s SwapStatus) IsTerminal() bool {
	switch s {
	case SwapApproved, SwapRejectedByTarget, SwapRejectedBySupervisor, SwapRejectedByUnitHead:
		return true
	}
	return false
}

// IsRejected reports whether the request ended in a rejection state.
func (s SwapStatus) IsRejected() bool {
	switch s {
	case SwapRejectedByTarget, SwapRejectedBySupervisor, SwapRejectedByUnitHead:
		return true
	}
	return false
}

// SwapDecision is the canonical action applied to a pending request. External
// status spellings are translated to a decision at the DTO boundary so the
// approval engine only ever sees these two values.
type SwapDecision string

const (
	DecisionApprove SwapDecision = "APPROVE"
	DecisionReject  SwapDecision = "REJECT"
)

// SwapRequest proposes an exchange of duty between two employees of the same
// role, or a one-sided give-away when TargetShiftID is nil.
type SwapRequest struct {
	ID               string     `db:"id" json:"id"`
	RequesterID      string     `db:"requester_id" json:"requester_id"`
	TargetID         string     `db:"target_id" json:"target_id"`
	RequesterShiftID string     `db:"requester_shift_id" json:"requester_shift_id"`
	TargetShiftID    *string    `db:"target_shift_id" json:"target_shift_id,omitempty"`
	Reason           string     `db:"reason" json:"reason"`
	Status           SwapStatus `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// OneSided reports whether the request gives a shift away instead of
// exchanging two.
func (r *SwapRequest) OneSided() bool {
	return r.TargetShiftID == nil || *r.TargetShiftID == ""
}

// SwapFilter constrains swap-request listing queries.
type SwapFilter struct {
	Status        []SwapStatus
	ParticipantID string
	Page          int
	PageSize      int
}

// ReassignShiftCommand instructs the shift store to move one assignment to a
// new employee. Commands are the only way the approval engine mutates
// schedule data; the caller executes them in a single transaction.
type ReassignShiftCommand struct {
	ShiftID       string `json:"shift_id"`
	NewEmployeeID string `json:"new_employee_id"`
}
