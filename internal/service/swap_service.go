package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

type swapStore interface {
	Create(ctx context.Context, request *models.SwapRequest) error
	GetByID(ctx context.Context, id string) (*models.SwapRequest, error)
	List(ctx context.Context, filter models.SwapFilter) ([]models.SwapRequest, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.SwapStatus) error
	Delete(ctx context.Context, id string) error
}

type swapShiftStore interface {
	FindByID(ctx context.Context, id string) (*models.ShiftAssignment, error)
	Reassign(ctx context.Context, exec sqlx.ExtContext, shiftID, newEmployeeID string) error
}

type swapUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type notificationEmitter interface {
	Emit(ctx context.Context, events ...models.NotificationEvent)
}

// SwapService orchestrates the shift-swap approval chain around the
// transition engine: loading state, committing the outcome atomically,
// and signalling participants.
type SwapService struct {
	swaps    swapStore
	shifts   swapShiftStore
	users    swapUserReader
	tx       txProvider
	notifier notificationEmitter
	critical CriticalUnitSet
	logger   *zap.Logger
}

// NewSwapService constructs the service.
func NewSwapService(swaps swapStore, shifts swapShiftStore, users swapUserReader, tx txProvider, notifier notificationEmitter, critical CriticalUnitSet, logger *zap.Logger) *SwapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{
		swaps:    swaps,
		shifts:   shifts,
		users:    users,
		tx:       tx,
		notifier: notifier,
		critical: critical,
		logger:   logger,
	}
}

// Create registers a new swap request in PENDING state. The requester must
// own the offered shift, both employees must share a role, and the target
// shift, when given, must belong to the target employee.
func (s *SwapService) Create(ctx context.Context, req dto.CreateSwapRequest, requesterID string) (*models.SwapRequest, error) {
	if requesterID == req.TargetID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot request a swap with yourself")
	}

	requesterShift, err := s.loadShift(ctx, req.RequesterShiftID)
	if err != nil {
		return nil, err
	}
	if requesterShift.EmployeeID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you may only offer your own shift")
	}

	requester, err := s.loadUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	target, err := s.loadUser(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	if requester.Role != target.Role {
		return nil, appErrors.Clone(appErrors.ErrValidation, "swaps are only allowed between employees of the same role")
	}
	if !target.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target employee is inactive")
	}

	if req.TargetShiftID != nil && *req.TargetShiftID != "" {
		targetShift, err := s.loadShift(ctx, *req.TargetShiftID)
		if err != nil {
			return nil, err
		}
		if targetShift.EmployeeID != req.TargetID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "target shift does not belong to the target employee")
		}
	}

	request := &models.SwapRequest{
		RequesterID:      requesterID,
		TargetID:         req.TargetID,
		RequesterShiftID: req.RequesterShiftID,
		TargetShiftID:    req.TargetShiftID,
		Reason:           req.Reason,
		Status:           models.SwapPending,
	}
	if err := s.swaps.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create swap request")
	}

	if s.notifier != nil {
		s.notifier.Emit(ctx, swapEvent(request.TargetID, models.NotifySwapCreated, request))
	}
	s.logger.Info("swap request created",
		zap.String("swap_id", request.ID),
		zap.String("requester_id", requesterID),
		zap.String("target_id", req.TargetID))
	return request, nil
}

// List returns the swap requests the viewer is allowed to see. Admins see
// everything. Reviewers see requests in the stages they act on or decided,
// plus anything they participate in. Everyone else sees only their own.
func (s *SwapService) List(ctx context.Context, viewerID string, viewerRole models.UserRole, page, pageSize int) ([]dto.SwapView, error) {
	filter := models.SwapFilter{Page: page, PageSize: pageSize}

	switch viewerRole {
	case models.RoleAdmin:
		// no constraints
	case models.RoleSupervisor:
		filter.Status = supervisorVisibleStates()
	case models.RoleUnitHead:
		filter.Status = unitHeadVisibleStates()
	default:
		filter.ParticipantID = viewerID
	}

	requests, err := s.swaps.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list swap requests")
	}

	// Reviewers additionally see requests they participate in regardless
	// of state, merged without duplicates.
	if viewerRole.IsReviewer() {
		own, err := s.swaps.List(ctx, models.SwapFilter{ParticipantID: viewerID, Page: page, PageSize: pageSize})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list swap requests")
		}
		requests = mergeSwapRequests(requests, own)
	}

	views := make([]dto.SwapView, 0, len(requests))
	for i := range requests {
		views = append(views, dto.NewSwapView(&requests[i]))
	}
	return views, nil
}

// Get loads one swap request, applying the same visibility rules as List.
func (s *SwapService) Get(ctx context.Context, id, viewerID string, viewerRole models.UserRole) (*models.SwapRequest, error) {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewSwap(request, viewerID, viewerRole) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not allowed to view this swap request")
	}
	return request, nil
}

// Decide applies one approve/reject decision, persisting the transition and
// executing any reassignment commands in a single transaction.
func (s *SwapService) Decide(ctx context.Context, id, actorID string, actorRole models.UserRole, decision models.SwapDecision) (*models.SwapRequest, error) {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	requesterShift, err := s.loadShift(ctx, request.RequesterShiftID)
	if err != nil {
		return nil, err
	}
	var targetShift *models.ShiftAssignment
	if !request.OneSided() {
		targetShift, err = s.loadShift(ctx, *request.TargetShiftID)
		if err != nil {
			return nil, err
		}
	}

	transition, err := AdvanceSwap(request, requesterShift, targetShift, actorID, actorRole, decision, s.critical)
	if err != nil {
		return nil, err
	}

	if len(transition.Commands) > 0 {
		if err := s.commitTransition(ctx, request.ID, transition); err != nil {
			return nil, err
		}
	} else {
		if err := s.swaps.UpdateStatus(ctx, nil, request.ID, transition.From, transition.To); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "swap request was already decided")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update swap status")
		}
	}

	request.Status = transition.To
	request.UpdatedAt = time.Now().UTC()

	if s.notifier != nil && len(transition.Events) > 0 {
		s.notifier.Emit(ctx, transition.Events...)
	}
	s.logger.Info("swap request advanced",
		zap.String("swap_id", request.ID),
		zap.String("from", string(transition.From)),
		zap.String("to", string(transition.To)),
		zap.String("actor_id", actorID),
		zap.Int("reassignments", len(transition.Commands)))
	return request, nil
}

// Delete withdraws a swap request. Only the requester may delete, and only
// while the request is pending or already rejected.
func (s *SwapService) Delete(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return err
	}
	if actorRole != models.RoleAdmin && request.RequesterID != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requester may withdraw this request")
	}
	if request.Status != models.SwapPending && !request.Status.IsRejected() {
		return appErrors.Clone(appErrors.ErrConflict, "an in-flight or approved request cannot be withdrawn")
	}
	if err := s.swaps.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete swap request")
	}
	return nil
}

// commitTransition runs the status guard and all reassignments in one
// transaction so a half-applied swap can never be observed.
func (s *SwapService) commitTransition(ctx context.Context, requestID string, transition SwapTransition) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.swaps.UpdateStatus(ctx, tx, requestID, transition.From, transition.To); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrConflict, "swap request was already decided")
			return err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update swap status")
		return err
	}
	for _, command := range transition.Commands {
		if err = s.shifts.Reassign(ctx, tx, command.ShiftID, command.NewEmployeeID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign shift")
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit swap transaction")
		return err
	}
	return nil
}

func (s *SwapService) loadRequest(ctx context.Context, id string) (*models.SwapRequest, error) {
	request, err := s.swaps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request")
	}
	return request, nil
}

func (s *SwapService) loadShift(ctx context.Context, id string) (*models.ShiftAssignment, error) {
	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift assignment")
	}
	return shift, nil
}

func (s *SwapService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return user, nil
}

func supervisorVisibleStates() []models.SwapStatus {
	return []models.SwapStatus{
		models.SwapApprovedByTarget,
		models.SwapWaitingUnitHead,
		models.SwapRejectedBySupervisor,
		models.SwapApproved,
	}
}

func unitHeadVisibleStates() []models.SwapStatus {
	return []models.SwapStatus{
		models.SwapWaitingUnitHead,
		models.SwapRejectedByUnitHead,
		models.SwapApproved,
	}
}

func canViewSwap(request *models.SwapRequest, viewerID string, viewerRole models.UserRole) bool {
	if viewerRole == models.RoleAdmin {
		return true
	}
	if request.RequesterID == viewerID || request.TargetID == viewerID {
		return true
	}
	var visible []models.SwapStatus
	switch viewerRole {
	case models.RoleSupervisor:
		visible = supervisorVisibleStates()
	case models.RoleUnitHead:
		visible = unitHeadVisibleStates()
	default:
		return false
	}
	for _, status := range visible {
		if request.Status == status {
			return true
		}
	}
	return false
}

func mergeSwapRequests(base, extra []models.SwapRequest) []models.SwapRequest {
	seen := make(map[string]struct{}, len(base))
	for _, request := range base {
		seen[request.ID] = struct{}{}
	}
	for _, request := range extra {
		if _, ok := seen[request.ID]; ok {
			continue
		}
		seen[request.ID] = struct{}{}
		base = append(base, request)
	}
	return base
}
