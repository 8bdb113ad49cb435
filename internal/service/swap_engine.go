package service

import (
	"fmt"
	"strings"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

// CriticalUnitSet holds the location keywords that force the extra unit-head
// approval step. Reads are against the slice captured at call time; callers
// never mutate a set after handing it over.
type CriticalUnitSet []string

// NewCriticalUnitSet normalises configured keywords.
func NewCriticalUnitSet(keywords []string) CriticalUnitSet {
	set := make(CriticalUnitSet, 0, len(keywords))
	for _, keyword := range keywords {
		trimmed := strings.ToUpper(strings.TrimSpace(keyword))
		if trimmed != "" {
			set = append(set, trimmed)
		}
	}
	return set
}

// IsCritical reports whether the location matches any configured keyword,
// case-insensitive substring semantics.
func (s CriticalUnitSet) IsCritical(location string) bool {
	normalized := strings.ToUpper(models.NormalizeLocation(location))
	for _, keyword := range s {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

// SwapTransition is the outcome of advancing a swap request: the new state,
// the shift-store commands to execute atomically, and the notification
// events to signal. The engine never touches storage itself.
type SwapTransition struct {
	From     models.SwapStatus
	To       models.SwapStatus
	Commands []models.ReassignShiftCommand
	Events   []models.NotificationEvent
}

// AdvanceSwap applies one approve/reject decision to a swap request. It is a
// pure function: authorization depends only on the supplied actor, the
// request state, and the shifts' locations.
func AdvanceSwap(
	request *models.SwapRequest,
	requesterShift *models.ShiftAssignment,
	targetShift *models.ShiftAssignment,
	actorID string,
	actorRole models.UserRole,
	decision models.SwapDecision,
	critical CriticalUnitSet,
) (SwapTransition, error) {
	if request == nil {
		return SwapTransition{}, appErrors.Clone(appErrors.ErrValidation, "swap request is required")
	}
	if decision != models.DecisionApprove && decision != models.DecisionReject {
		return SwapTransition{}, appErrors.Clone(appErrors.ErrValidation, "decision must be approve or reject")
	}
	if request.Status.IsTerminal() {
		return SwapTransition{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("request is already %s", request.Status))
	}

	transition := SwapTransition{From: request.Status}

	switch request.Status {
	case models.SwapPending:
		if actorID != request.TargetID {
			return SwapTransition{}, appErrors.Clone(appErrors.ErrForbidden, "only the target employee may respond to a pending request")
		}
		if decision == models.DecisionReject {
			transition.To = models.SwapRejectedByTarget
			transition.Events = rejectionEvents(request, transition.To)
			return transition, nil
		}
		transition.To = models.SwapApprovedByTarget
		transition.Events = []models.NotificationEvent{swapEvent(request.RequesterID, models.NotifySwapApprovedByTarget, request)}
		return transition, nil

	case models.SwapApprovedByTarget:
		if !actorRole.IsReviewer() {
			return SwapTransition{}, appErrors.Clone(appErrors.ErrForbidden, "only a supervisor or unit head may review this request")
		}
		if decision == models.DecisionReject {
			transition.To = models.SwapRejectedBySupervisor
			transition.Events = rejectionEvents(request, transition.To)
			return transition, nil
		}
		if swapTouchesCriticalUnit(requesterShift, targetShift, critical) {
			transition.To = models.SwapWaitingUnitHead
			transition.Events = []models.NotificationEvent{swapEvent(request.RequesterID, models.NotifySwapWaitingUnitHead, request)}
			return transition, nil
		}
		transition.To = models.SwapApproved
		transition.Commands = reassignCommands(request)
		transition.Events = approvalEvents(request)
		return transition, nil

	case models.SwapWaitingUnitHead:
		if !actorRole.IsReviewer() {
			return SwapTransition{}, appErrors.Clone(appErrors.ErrForbidden, "only a unit head or supervisor may finalise this request")
		}
		if decision == models.DecisionReject {
			transition.To = models.SwapRejectedByUnitHead
			transition.Events = rejectionEvents(request, transition.To)
			return transition, nil
		}
		transition.To = models.SwapApproved
		transition.Commands = reassignCommands(request)
		transition.Events = approvalEvents(request)
		return transition, nil
	}

	return SwapTransition{}, appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("no transition defined from state %s", request.Status))
}

// swapTouchesCriticalUnit checks both referenced shifts; a swap involving any
// critical location needs the unit-head step.
func swapTouchesCriticalUnit(requesterShift, targetShift *models.ShiftAssignment, critical CriticalUnitSet) bool {
	if requesterShift != nil && critical.IsCritical(requesterShift.Location) {
		return true
	}
	if targetShift != nil && critical.IsCritical(targetShift.Location) {
		return true
	}
	return false
}

// reassignCommands emits one reassignment per swapped shift. A one-sided
// give-away only moves the requester's shift to the target.
func reassignCommands(request *models.SwapRequest) []models.ReassignShiftCommand {
	commands := []models.ReassignShiftCommand{
		{ShiftID: request.RequesterShiftID, NewEmployeeID: request.TargetID},
	}
	if !request.OneSided() {
		commands = append(commands, models.ReassignShiftCommand{
			ShiftID:       *request.TargetShiftID,
			NewEmployeeID: request.RequesterID,
		})
	}
	return commands
}

func approvalEvents(request *models.SwapRequest) []models.NotificationEvent {
	return []models.NotificationEvent{
		swapEvent(request.RequesterID, models.NotifySwapApproved, request),
		swapEvent(request.TargetID, models.NotifySwapApproved, request),
	}
}

func rejectionEvents(request *models.SwapRequest, state models.SwapStatus) []models.NotificationEvent {
	events := []models.NotificationEvent{swapEvent(request.RequesterID, models.NotifySwapRejected, request)}
	if state != models.SwapRejectedByTarget {
		events = append(events, swapEvent(request.TargetID, models.NotifySwapRejected, request))
	}
	return events
}

func swapEvent(userID string, kind models.NotificationKind, request *models.SwapRequest) models.NotificationEvent {
	return models.NotificationEvent{
		UserID:      userID,
		Kind:        kind,
		Title:       swapEventTitle(kind),
		Body:        swapEventBody(kind, request.ID),
		RelatedType: "swap_request",
		RelatedID:   request.ID,
	}
}

func swapEventTitle(kind models.NotificationKind) string {
	switch kind {
	case models.NotifySwapCreated:
		return "New shift swap request"
	case models.NotifySwapApprovedByTarget:
		return "Swap accepted by colleague"
	case models.NotifySwapWaitingUnitHead:
		return "Swap awaiting unit head approval"
	case models.NotifySwapApproved:
		return "Shift swap approved"
	case models.NotifySwapRejected:
		return "Shift swap rejected"
	}
	return "Shift swap update"
}

func swapEventBody(kind models.NotificationKind, requestID string) string {
	switch kind {
	case models.NotifySwapCreated:
		return fmt.Sprintf("You have been asked to swap shifts (request %s)", requestID)
	case models.NotifySwapApprovedByTarget:
		return fmt.Sprintf("Swap request %s was accepted and is awaiting supervisor review", requestID)
	case models.NotifySwapWaitingUnitHead:
		return fmt.Sprintf("Swap request %s involves a critical unit and needs unit head approval", requestID)
	case models.NotifySwapApproved:
		return fmt.Sprintf("Swap request %s was approved and shifts have been reassigned", requestID)
	case models.NotifySwapRejected:
		return fmt.Sprintf("Swap request %s was rejected", requestID)
	}
	return fmt.Sprintf("Swap request %s was updated", requestID)
}
