package dto

import (
	"strings"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
)

// RequirementPriority orders requirements during optimization.
type RequirementPriority string

const (
	PriorityUrgent RequirementPriority = "URGENT"
	PriorityHigh   RequirementPriority = "HIGH"
	PriorityNormal RequirementPriority = "NORMAL"
	PriorityLow    RequirementPriority = "LOW"
)

var priorityRank = map[RequirementPriority]int{
	PriorityUrgent: 3,
	PriorityHigh:   2,
	PriorityNormal: 1,
	PriorityLow:    0,
}

// Rank returns the sort weight; unknown priorities sort as NORMAL.
func (p RequirementPriority) Rank() int {
	if rank, ok := priorityRank[RequirementPriority(strings.ToUpper(string(p)))]; ok {
		return rank
	}
	return priorityRank[PriorityNormal]
}

// ShiftRequirement describes one staffing demand for the auto-scheduler.
type ShiftRequirement struct {
	Date           string              `json:"date" validate:"required"`
	Location       string              `json:"location" validate:"required"`
	ShiftType      string              `json:"shiftType" validate:"required"`
	RequiredCount  int                 `json:"requiredCount" validate:"required,min=1"`
	PreferredRoles []string            `json:"preferredRoles"`
	Priority       RequirementPriority `json:"priority"`
}

// OptimizeRequest asks the scheduler to fill a batch of requirements.
type OptimizeRequest struct {
	Requirements []ShiftRequirement `json:"requirements" validate:"required,min=1,dive"`
}

// AssignmentProposal is one shift the scheduler intends to create.
type AssignmentProposal struct {
	EmployeeID   string           `json:"employeeId"`
	EmployeeName string           `json:"employeeName,omitempty"`
	Date         string           `json:"date"`
	StartTime    string           `json:"startTime"`
	EndTime      string           `json:"endTime"`
	Location     string           `json:"location"`
	ShiftType    models.ShiftType `json:"shiftType"`
	RequiredRole models.UserRole  `json:"requiredRole"`
}

// OptimizeConflict describes an unmet requirement slot.
type OptimizeConflict struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// WorkloadAlert flags an employee whose committed load is concerning.
type WorkloadAlert struct {
	EmployeeID string                `json:"employeeId"`
	Status     models.WorkloadStatus `json:"status"`
	ShiftCount int                   `json:"shiftCount"`
	Message    string                `json:"message"`
}

// OptimizeResponse is the scheduler result. It is always populated, even at
// zero fulfillment; business infeasibility is data, not an error.
type OptimizeResponse struct {
	ProposalID      string               `json:"proposalId"`
	Assignments     []AssignmentProposal `json:"assignments"`
	Conflicts       []OptimizeConflict   `json:"conflicts"`
	WorkloadAlerts  []WorkloadAlert      `json:"workloadAlerts"`
	FulfillmentRate float64              `json:"fulfillmentRate"`
	Recommendations []string             `json:"recommendations"`
}

// CommitScheduleRequest persists a previously generated proposal.
type CommitScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// CommitScheduleResponse reports the persisted shift ids.
type CommitScheduleResponse struct {
	ShiftIDs []string `json:"shiftIds"`
	Created  int      `json:"created"`
}

// WorkloadQuery selects the employee and month for a workload snapshot.
type WorkloadQuery struct {
	EmployeeID string `form:"employeeId" validate:"required"`
	Month      string `form:"month"`
}
