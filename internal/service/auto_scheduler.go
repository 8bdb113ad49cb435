package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/prasetya-dev/shift-ops-api/internal/dto"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

// Conflict types reported by the scheduler.
const (
	ConflictNoEligibleCandidate = "NO_ELIGIBLE_CANDIDATE"
	ConflictStaffShortfall      = "STAFF_SHORTFALL"
)

type shiftWindow struct {
	Start           string
	End             string
	CrossesMidnight bool
}

// shiftWindows fixes the duty hours per shift type.
var shiftWindows = map[models.ShiftType]shiftWindow{
	models.ShiftMorning:   {Start: "07:00", End: "15:00"},
	models.ShiftAfternoon: {Start: "15:00", End: "23:00"},
	models.ShiftNight:     {Start: "23:00", End: "07:00", CrossesMidnight: true},
	models.ShiftOnCall:    {Start: "07:00", End: "19:00"},
	models.ShiftStandby:   {Start: "19:00", End: "07:00", CrossesMidnight: true},
}

// schedRequirement is a parsed, normalised staffing demand.
type schedRequirement struct {
	Index          int
	Date           time.Time
	Location       string
	ShiftType      models.ShiftType
	RequiredCount  int
	PreferredRoles []models.UserRole
	Priority       int
}

// schedAssignment binds one proposed shift to the requirement it fills.
type schedAssignment struct {
	Requirement int
	Shift       models.ShiftAssignment
}

// sortRequirements orders demands by priority descending, then date
// ascending, keeping input order as the final tie-break for determinism.
func sortRequirements(reqs []schedRequirement) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].Priority != reqs[j].Priority {
			return reqs[i].Priority > reqs[j].Priority
		}
		if !reqs[i].Date.Equal(reqs[j].Date) {
			return reqs[i].Date.Before(reqs[j].Date)
		}
		return reqs[i].Index < reqs[j].Index
	})
}

// rankCandidates filters the pool by role and orders it by ascending
// committed load, then by employee id so reruns produce identical output.
func rankCandidates(pool []models.User, roles []models.UserRole, loads map[string]int) []models.User {
	ranked := make([]models.User, 0, len(pool))
	for _, user := range pool {
		if !user.Active || !user.Role.IsClinical() {
			continue
		}
		if len(roles) > 0 && !roleAllowed(user.Role, roles) {
			continue
		}
		ranked = append(ranked, user)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if loads[ranked[i].ID] != loads[ranked[j].ID] {
			return loads[ranked[i].ID] < loads[ranked[j].ID]
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func roleAllowed(role models.UserRole, allowed []models.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// schedulerState tracks the working schedule during one optimization pass.
type schedulerState struct {
	pool      []models.User
	usersByID map[string]*models.User
	existing  []models.ShiftAssignment
	committed []schedAssignment
	loads     map[string]int
	limits    ValidationLimits
}

func newSchedulerState(pool []models.User, existing []models.ShiftAssignment, limits ValidationLimits) *schedulerState {
	byID := make(map[string]*models.User, len(pool))
	for i := range pool {
		byID[pool[i].ID] = &pool[i]
	}
	return &schedulerState{
		pool:      pool,
		usersByID: byID,
		existing:  existing,
		loads:     map[string]int{},
		limits:    limits,
	}
}

// shiftsFor returns existing plus pass-committed shifts, so candidates are
// validated against the schedule as it grows.
func (st *schedulerState) shiftsFor(employeeID string) []models.ShiftAssignment {
	var out []models.ShiftAssignment
	for i := range st.existing {
		if st.existing[i].EmployeeID == employeeID {
			out = append(out, st.existing[i])
		}
	}
	for i := range st.committed {
		if st.committed[i].Shift.EmployeeID == employeeID {
			out = append(out, st.committed[i].Shift)
		}
	}
	return out
}

func (st *schedulerState) occupancy(location string, date time.Time, shiftType models.ShiftType) int {
	count := 0
	for i := range st.existing {
		if models.EqualLocation(st.existing[i].Location, location) && st.existing[i].SameDay(date) && st.existing[i].ShiftType == shiftType {
			count++
		}
	}
	for i := range st.committed {
		shift := &st.committed[i].Shift
		if models.EqualLocation(shift.Location, location) && shift.SameDay(date) && shift.ShiftType == shiftType {
			count++
		}
	}
	return count
}

func (st *schedulerState) assignedTo(requirement int) map[string]bool {
	out := map[string]bool{}
	for i := range st.committed {
		if st.committed[i].Requirement == requirement {
			out[st.committed[i].Shift.EmployeeID] = true
		}
	}
	return out
}

// candidateShift builds the shift a requirement would create for an employee.
func candidateShift(req schedRequirement, employeeID string) models.ShiftAssignment {
	window := shiftWindows[req.ShiftType]
	return models.ShiftAssignment{
		EmployeeID:      employeeID,
		Date:            req.Date,
		StartTime:       window.Start,
		EndTime:         window.End,
		CrossesMidnight: window.CrossesMidnight,
		Location:        req.Location,
		ShiftType:       req.ShiftType,
	}
}

// fits reports whether assigning the requirement to the employee passes
// validation with no hard violations.
func (st *schedulerState) fits(req schedRequirement, employee *models.User) bool {
	shift := candidateShift(req, employee.ID)
	occupancy := st.occupancy(req.Location, req.Date, req.ShiftType)
	result := EvaluateShift(shift, employee, st.shiftsFor(employee.ID), occupancy, st.limits)
	return result.IsValid
}

func (st *schedulerState) commit(req schedRequirement, employeeID string) {
	st.committed = append(st.committed, schedAssignment{Requirement: req.Index, Shift: candidateShift(req, employeeID)})
	st.loads[employeeID]++
}

// assignGreedy fills each requirement in order with the least-loaded eligible
// candidates, recording a conflict for any shortfall.
func assignGreedy(st *schedulerState, reqs []schedRequirement) []dto.OptimizeConflict {
	var conflicts []dto.OptimizeConflict
	for _, req := range reqs {
		filled := 0
		for _, candidate := range rankCandidates(st.pool, req.PreferredRoles, st.loads) {
			if filled == req.RequiredCount {
				break
			}
			if st.assignedTo(req.Index)[candidate.ID] {
				continue
			}
			if !st.fits(req, &candidate) {
				continue
			}
			st.commit(req, candidate.ID)
			filled++
		}
		if filled < req.RequiredCount {
			conflicts = append(conflicts, shortfallConflict(req, filled))
		}
	}
	return conflicts
}

func shortfallConflict(req schedRequirement, filled int) dto.OptimizeConflict {
	conflictType := ConflictStaffShortfall
	if filled == 0 {
		conflictType = ConflictNoEligibleCandidate
	}
	return dto.OptimizeConflict{
		Type: conflictType,
		Message: fmt.Sprintf("%s %s shift on %s: %d of %d slots filled",
			req.Location, strings.ToLower(string(req.ShiftType)), req.Date.Format("2006-01-02"), filled, req.RequiredCount),
		Meta: map[string]any{
			"date":          req.Date.Format("2006-01-02"),
			"location":      req.Location,
			"shiftType":     req.ShiftType,
			"requiredCount": req.RequiredCount,
			"filled":        filled,
		},
	}
}

// weeklyCount counts the employee's shifts, existing and committed, within
// the ISO week containing the given date.
func (st *schedulerState) weeklyCount(employeeID string, date time.Time) int {
	year, week := date.ISOWeek()
	count := 0
	for _, shift := range st.shiftsFor(employeeID) {
		if y, w := shift.Date.ISOWeek(); y == year && w == week {
			count++
		}
	}
	return count
}

// findImprovingSwap tries to move one committed assignment away from a
// critically loaded employee onto an unused candidate who takes it without
// violation and without becoming critical in turn. It returns false when no
// such candidate exists.
func findImprovingSwap(st *schedulerState, reqsByIndex map[int]schedRequirement, position int, thresholds WorkloadThresholds) bool {
	assignment := st.committed[position]
	req, ok := reqsByIndex[assignment.Requirement]
	if !ok {
		return false
	}
	taken := st.assignedTo(req.Index)
	overloaded := assignment.Shift.EmployeeID

	for _, candidate := range rankCandidates(st.pool, req.PreferredRoles, st.loads) {
		if candidate.ID == overloaded || taken[candidate.ID] {
			continue
		}
		if !st.fits(req, &candidate) {
			continue
		}
		newWeek := st.weeklyCount(candidate.ID, req.Date) + 1
		if ClassifyWorkload(newWeek, thresholds) == models.WorkloadCritical ||
			ClassifyWorkload(newWeek, thresholds) == models.WorkloadOverworked {
			continue
		}
		st.committed[position].Shift = candidateShift(req, candidate.ID)
		st.loads[overloaded]--
		st.loads[candidate.ID]++
		return true
	}
	return false
}

// rebalance runs the single corrective pass over committed assignments and
// returns alerts for employees whose load stayed concerning.
func rebalance(st *schedulerState, reqs []schedRequirement, thresholds WorkloadThresholds) []dto.WorkloadAlert {
	reqsByIndex := make(map[int]schedRequirement, len(reqs))
	for _, req := range reqs {
		reqsByIndex[req.Index] = req
	}

	for position := range st.committed {
		employeeID := st.committed[position].Shift.EmployeeID
		week := st.weeklyCount(employeeID, st.committed[position].Shift.Date)
		status := ClassifyWorkload(week, thresholds)
		if status != models.WorkloadCritical && status != models.WorkloadOverworked {
			continue
		}
		findImprovingSwap(st, reqsByIndex, position, thresholds)
	}

	seen := map[string]bool{}
	var alerts []dto.WorkloadAlert
	for i := range st.committed {
		employeeID := st.committed[i].Shift.EmployeeID
		if seen[employeeID] {
			continue
		}
		seen[employeeID] = true
		week := st.weeklyCount(employeeID, st.committed[i].Shift.Date)
		status := ClassifyWorkload(week, thresholds)
		if status == models.WorkloadNormal {
			continue
		}
		alerts = append(alerts, dto.WorkloadAlert{
			EmployeeID: employeeID,
			Status:     status,
			ShiftCount: week,
			Message:    fmt.Sprintf("employee %s has %d shifts this week (%s)", employeeID, week, status),
		})
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].EmployeeID < alerts[j].EmployeeID })
	return alerts
}

func buildRecommendations(conflicts []dto.OptimizeConflict, alerts []dto.WorkloadAlert) []string {
	var out []string
	for _, conflict := range conflicts {
		location, _ := conflict.Meta["location"].(string)
		shiftType, _ := conflict.Meta["shiftType"].(models.ShiftType)
		out = append(out, fmt.Sprintf("Consider adding staff for %s %s shifts", location, strings.ToLower(string(shiftType))))
	}
	for _, alert := range alerts {
		out = append(out, fmt.Sprintf("Redistribute load for employee %s (%s, %d shifts this week)",
			alert.EmployeeID, alert.Status, alert.ShiftCount))
	}
	return dedupeStrings(out)
}

func dedupeStrings(values []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

// scheduleProposal is a generated plan held until the caller commits it.
type scheduleProposal struct {
	ProposalID  string
	Assignments []models.ShiftAssignment
	Conflicts   []dto.OptimizeConflict
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

type schedulerUserLister interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

type schedulerShiftStore interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error)
	BulkCreate(ctx context.Context, tx *sqlx.Tx, shifts []models.ShiftAssignment) error
}

// AutoSchedulerService fills staffing requirements with a greedy pass plus a
// single corrective rebalance, then holds the proposal until committed.
type AutoSchedulerService struct {
	users      schedulerUserLister
	shifts     schedulerShiftStore
	tx         txProvider
	notifier   notificationEmitter
	limits     ValidationLimits
	thresholds WorkloadThresholds
	validator  *validator.Validate
	logger     *zap.Logger
	store      *proposalStore
}

// AutoSchedulerConfig governs proposal retention.
type AutoSchedulerConfig struct {
	ProposalTTL time.Duration
}

// NewAutoSchedulerService wires scheduler dependencies.
func NewAutoSchedulerService(
	users schedulerUserLister,
	shifts schedulerShiftStore,
	tx txProvider,
	notifier notificationEmitter,
	limits ValidationLimits,
	thresholds WorkloadThresholds,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AutoSchedulerConfig,
) *AutoSchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &AutoSchedulerService{
		users:      users,
		shifts:     shifts,
		tx:         tx,
		notifier:   notifier,
		limits:     limits,
		thresholds: thresholds,
		validator:  validate,
		logger:     logger,
		store:      newProposalStore(cfg.ProposalTTL),
	}
}

// Optimize runs the assignment pipeline. Business infeasibility is reported
// in the result; only malformed input fails the call.
func (s *AutoSchedulerService) Optimize(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimize payload")
	}
	reqs, err := parseRequirements(req.Requirements)
	if err != nil {
		return nil, err
	}
	sortRequirements(reqs)

	pool, err := s.loadCandidatePool(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.loadExistingShifts(ctx, reqs)
	if err != nil {
		return nil, err
	}

	state := newSchedulerState(pool, existing, s.limits)
	conflicts := assignGreedy(state, reqs)
	alerts := rebalance(state, reqs, s.thresholds)

	totalSlots := 0
	for _, r := range reqs {
		totalSlots += r.RequiredCount
	}
	rate := 0.0
	if totalSlots > 0 {
		rate = round2(float64(len(state.committed)) / float64(totalSlots) * 100)
	}

	proposal := scheduleProposal{
		ProposalID:  uuid.NewString(),
		Assignments: committedShifts(state),
		Conflicts:   conflicts,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	resp := &dto.OptimizeResponse{
		ProposalID:      proposal.ProposalID,
		Assignments:     proposalViews(state),
		Conflicts:       orEmptyConflicts(conflicts),
		WorkloadAlerts:  orEmptyAlerts(alerts),
		FulfillmentRate: rate,
		Recommendations: buildRecommendations(conflicts, alerts),
	}
	s.logger.Info("schedule optimized",
		zap.Int("requirements", len(reqs)),
		zap.Int("assignments", len(state.committed)),
		zap.Float64("fulfillment_rate", rate))
	return resp, nil
}

// Commit persists a held proposal's assignments in one transaction.
// Shortfall conflicts do not block a commit; they describe unmet demand, not
// bad assignments.
func (s *AutoSchedulerService) Commit(ctx context.Context, req dto.CommitScheduleRequest) (resp *dto.CommitScheduleResponse, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commit payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if len(proposal.Assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal contains no assignments")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	shifts := make([]models.ShiftAssignment, len(proposal.Assignments))
	copy(shifts, proposal.Assignments)
	if err = s.shifts.BulkCreate(ctx, tx, shifts); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
		return nil, err
	}
	s.store.Delete(req.ProposalID)

	ids := make([]string, 0, len(shifts))
	for i := range shifts {
		ids = append(ids, shifts[i].ID)
	}
	if s.notifier != nil {
		s.notifier.Emit(ctx, scheduleCreatedEvents(shifts)...)
	}
	s.logger.Info("schedule committed",
		zap.String("proposal_id", req.ProposalID),
		zap.Int("created", len(ids)))
	return &dto.CommitScheduleResponse{ShiftIDs: ids, Created: len(ids)}, nil
}

func parseRequirements(raw []dto.ShiftRequirement) ([]schedRequirement, error) {
	reqs := make([]schedRequirement, 0, len(raw))
	for i, item := range raw {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(item.Date))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("requirement %d: invalid date %q", i, item.Date))
		}
		shiftType, err := models.ParseShiftType(item.ShiftType)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("requirement %d: %v", i, err))
		}
		if item.RequiredCount < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("requirement %d: requiredCount must be at least 1", i))
		}
		roles := make([]models.UserRole, 0, len(item.PreferredRoles))
		for _, role := range item.PreferredRoles {
			roles = append(roles, models.UserRole(strings.ToUpper(strings.TrimSpace(role))))
		}
		reqs = append(reqs, schedRequirement{
			Index:          i,
			Date:           date,
			Location:       models.NormalizeLocation(item.Location),
			ShiftType:      shiftType,
			RequiredCount:  item.RequiredCount,
			PreferredRoles: roles,
			Priority:       item.Priority.Rank(),
		})
	}
	return reqs, nil
}

func (s *AutoSchedulerService) loadCandidatePool(ctx context.Context) ([]models.User, error) {
	active := true
	pool, err := s.users.List(ctx, models.UserFilter{Active: &active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate pool")
	}
	return pool, nil
}

// loadExistingShifts fetches the committed schedule around the requirement
// dates, padded so weekly and consecutive-day rules see enough context.
func (s *AutoSchedulerService) loadExistingShifts(ctx context.Context, reqs []schedRequirement) ([]models.ShiftAssignment, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	min, max := reqs[0].Date, reqs[0].Date
	for _, req := range reqs[1:] {
		if req.Date.Before(min) {
			min = req.Date
		}
		if req.Date.After(max) {
			max = req.Date
		}
	}
	from := time.Date(min.Year(), min.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7)
	to := time.Date(max.Year(), max.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 7)
	existing, err := s.shifts.List(ctx, models.ShiftFilter{DateFrom: &from, DateTo: &to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing shifts")
	}
	return existing, nil
}

func committedShifts(st *schedulerState) []models.ShiftAssignment {
	out := make([]models.ShiftAssignment, 0, len(st.committed))
	for i := range st.committed {
		out = append(out, st.committed[i].Shift)
	}
	return out
}

func proposalViews(st *schedulerState) []dto.AssignmentProposal {
	out := make([]dto.AssignmentProposal, 0, len(st.committed))
	for i := range st.committed {
		shift := &st.committed[i].Shift
		view := dto.AssignmentProposal{
			EmployeeID:   shift.EmployeeID,
			Date:         shift.Date.Format("2006-01-02"),
			StartTime:    shift.StartTime,
			EndTime:      shift.EndTime,
			Location:     shift.Location,
			ShiftType:    shift.ShiftType,
			RequiredRole: shift.RequiredRole,
		}
		if user, ok := st.usersByID[shift.EmployeeID]; ok {
			view.EmployeeName = user.FullName
		}
		out = append(out, view)
	}
	return out
}

func scheduleCreatedEvents(shifts []models.ShiftAssignment) []models.NotificationEvent {
	seen := map[string]bool{}
	var events []models.NotificationEvent
	for i := range shifts {
		employeeID := shifts[i].EmployeeID
		if seen[employeeID] {
			continue
		}
		seen[employeeID] = true
		events = append(events, models.NotificationEvent{
			UserID:      employeeID,
			Kind:        models.NotifyScheduleAutoCreated,
			Title:       "New shifts scheduled",
			Body:        "The auto-scheduler assigned you new shifts; check your schedule",
			RelatedType: "shift_assignment",
			RelatedID:   shifts[i].ID,
		})
	}
	return events
}

func orEmptyConflicts(conflicts []dto.OptimizeConflict) []dto.OptimizeConflict {
	if conflicts == nil {
		return []dto.OptimizeConflict{}
	}
	return conflicts
}

func orEmptyAlerts(alerts []dto.WorkloadAlert) []dto.WorkloadAlert {
	if alerts == nil {
		return []dto.WorkloadAlert{}
	}
	return alerts
}
