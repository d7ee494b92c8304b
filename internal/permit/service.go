package permit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
	"github.com/permitworks/permit-management/internal/core/events"
)

// Repository is the permit store. Save applies a conditional update against
// expectedVersion and returns ErrVersionConflict when another writer won.
type Repository interface {
	Create(p *Permit) error
	NextSequence(year int) (int64, error)
	GetByPermitID(permitID string) (*Permit, error)
	Save(p *Permit, expectedVersion int64) error
	ListAll(f ListFilters) ([]*Permit, error)
	ListByShop(shopID int64, f ListFilters) ([]*Permit, error)
	ListTechnicalQueue(f ListFilters) ([]*Permit, error)
	ListSecurityQueue(f ListFilters) ([]*Permit, error)
	ListActive() ([]*Permit, error)
}

// DocumentChecker answers whether a permit has a document of a category on
// file. Backs the heavy-work insurance gate.
type DocumentChecker interface {
	HasDocument(permitID, category string) (bool, error)
}

// ShopDirectory resolves shop names for denormalization onto the permit.
type ShopDirectory interface {
	GetShopName(shopID int64) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

const insuranceDocumentCategory = "insurance"

var stagePermissions = map[Stage]string{
	StageTechnical:  auth.PermReviewTechnical,
	StageSecurity:   auth.PermReviewSecurity,
	StageManagement: auth.PermReviewManagement,
}

// Service implements the permit approval workflow.
type Service struct {
	repo      Repository
	documents DocumentChecker
	shops     ShopDirectory
	eventBus  EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, documents DocumentChecker, shops ShopDirectory, eventBus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		documents: documents,
		shops:     shops,
		eventBus:  eventBus,
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitPermit creates a pending permit for the tenant's own shop.
func (s *Service) SubmitPermit(ctx context.Context, actor *auth.Actor, dto SubmitPermitDTO) (*Permit, error) {
	if !actor.HasPermission(auth.PermSubmitPermit) {
		s.logger.Warn("submit permit denied", "user_id", actor.UserID, "role", actor.Role)
		return nil, errors.NewForbiddenError("only tenants may submit permits", errors.ErrCodeNotPermitted)
	}
	if actor.ShopID == nil {
		return nil, errors.NewForbiddenError("submitting user has no shop", errors.ErrCodeNotPermitted)
	}

	if err := dto.Validate(); err != nil {
		s.logger.Error("permit validation failed", "error", err, "user_id", actor.UserID)
		return nil, err
	}

	shopName, err := s.shops.GetShopName(*actor.ShopID)
	if err != nil {
		s.logger.Error("failed to resolve shop for permit", "shop_id", *actor.ShopID, "error", err)
		return nil, errors.NewInternalError("failed to resolve shop", err)
	}

	now := s.now()
	permitID, err := s.allocatePermitID(now)
	if err != nil {
		return nil, errors.NewInternalError("failed to allocate permit id", err)
	}

	p := &Permit{
		PermitID:          permitID,
		ShopID:            *actor.ShopID,
		ShopName:          shopName,
		WorkType:          dto.WorkType,
		WorkDescription:   dto.WorkDescription,
		Location:          dto.Location,
		StartDate:         dto.ParsedStartDate,
		EndDate:           dto.ParsedEndDate,
		StartTime:         dto.StartTime,
		EndTime:           dto.EndTime,
		ContractorName:    dto.ContractorName,
		WorkerCount:       dto.WorkerCount,
		EmergencyContact:  dto.EmergencyContact,
		EquipmentNeeded:   dto.EquipmentNeeded,
		InsuranceRequired: dto.WorkType == WorkTypeHeavy,
		Status:            StatusPending,
		SubmittedBy:       actor.Email,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(p); err != nil {
		s.logger.Error("failed to create permit", "error", err, "shop_id", p.ShopID)
		return nil, errors.NewInternalError("failed to create permit", err)
	}

	s.logger.Info("permit submitted",
		"permit_id", p.PermitID,
		"shop_id", p.ShopID,
		"work_type", p.WorkType,
		"submitted_by", p.SubmittedBy)

	s.publish(ctx, events.NewPermitSubmittedEvent(p.PermitID, p.ShopID, p.ShopName, p.WorkType, p.SubmittedBy))

	return p, nil
}

// ReviewPermit records one stage decision. Preconditions are re-validated
// against freshly loaded state and the write is guarded by the version the
// load observed, so of two concurrent same-stage reviews exactly one wins.
func (s *Service) ReviewPermit(ctx context.Context, actor *auth.Actor, permitID string, dto ReviewPermitDTO) (*Permit, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.getPermit(permitID)
	if err != nil {
		return nil, err
	}

	stage, err := s.resolveStage(actor, p)
	if err != nil {
		return nil, err
	}

	if p.IsTerminal() {
		return nil, errors.NewConflictError(
			fmt.Sprintf("permit %s is %s and accepts no further reviews", p.PermitID, p.Status),
			errors.ErrCodeTerminalPermit)
	}
	if p.Status != StatusPending {
		return nil, errors.NewConflictError(
			fmt.Sprintf("permit %s is not pending review", p.PermitID),
			errors.ErrCodeTerminalPermit)
	}
	if p.Slot(stage) != nil {
		return nil, errors.NewConflictError(
			fmt.Sprintf("%s stage has already been reviewed", stage),
			errors.ErrCodeWrongStage)
	}
	if !p.StagePrerequisitesMet(stage) {
		return nil, errors.NewConflictError(
			fmt.Sprintf("%s review requires prior stages to be approved", stage),
			errors.ErrCodeWrongStage)
	}

	now := s.now()
	if dto.Action == ReviewActionApprove && stage == StageTechnical && p.WorkType == WorkTypeHeavy {
		hasInsurance, err := s.documents.HasDocument(p.PermitID, insuranceDocumentCategory)
		if err != nil {
			s.logger.Error("insurance document lookup failed", "permit_id", p.PermitID, "error", err)
			return nil, errors.NewInternalError("failed to check insurance document", err)
		}
		if !hasInsurance {
			return nil, errors.NewConflictError(
				"heavy work permits require an insurance document before technical approval",
				errors.ErrCodeInsuranceMissing)
		}
	}

	approval := &Approval{
		ApprovedBy: actor.Email,
		ApprovedAt: now,
		Comments:   dto.Comments,
	}

	expectedVersion := p.Version
	if dto.Action == ReviewActionReject {
		approval.Status = ApprovalStatusRejected
		p.SetSlot(stage, approval)
		p.Status = StatusRejected
	} else {
		approval.Status = ApprovalStatusApproved
		p.SetSlot(stage, approval)
		if p.AllStagesApproved() {
			p.Status = StatusApproved
		}
	}
	p.UpdatedAt = now

	if err := s.repo.Save(p, expectedVersion); err != nil {
		if err == ErrVersionConflict {
			s.logger.Warn("permit review lost concurrent update",
				"permit_id", p.PermitID, "stage", stage, "reviewer", actor.Email)
			return nil, errors.NewConflictError(
				"permit was modified concurrently, reload and retry",
				errors.ErrCodeVersionConflict)
		}
		s.logger.Error("failed to save permit review", "permit_id", p.PermitID, "error", err)
		return nil, errors.NewInternalError("failed to save permit", err)
	}

	s.logger.Info("permit reviewed",
		"permit_id", p.PermitID,
		"stage", stage,
		"action", dto.Action,
		"reviewer", actor.Email,
		"status", p.Status)

	switch {
	case p.Status == StatusRejected:
		s.publish(ctx, events.NewPermitRejectedEvent(p.PermitID, p.ShopID, p.ShopName, string(stage), actor.Email, dto.Comments))
	case p.Status == StatusApproved:
		s.publish(ctx, events.NewPermitApprovedEvent(p.PermitID, p.ShopID, p.ShopName, p.WorkType, actor.Email))
	default:
		nextStage, _ := p.NextStage()
		s.publish(ctx, events.NewPermitStageApprovedEvent(p.PermitID, p.ShopID, string(stage), string(nextStage), actor.Email))
	}

	return p, nil
}

// ListVisiblePermits returns the permits the actor may see, newest first.
// Statuses are derived against the current date before filtering.
func (s *Service) ListVisiblePermits(actor *auth.Actor, filters ListFilters) ([]*Permit, error) {
	var (
		permits []*Permit
		err     error
	)

	// The stored status can lag the date-derived one, so the status filter
	// (and its paging) is applied after derivation, not in the query.
	repoFilters := filters
	if filters.Status != "" {
		repoFilters.Status = ""
		repoFilters.Limit = 0
		repoFilters.Offset = 0
	}

	switch actor.Role {
	case auth.RoleAdmin, auth.RoleOperations:
		permits, err = s.repo.ListAll(repoFilters)
	case auth.RoleTenant:
		if actor.ShopID == nil {
			return nil, errors.NewForbiddenError("tenant has no shop", errors.ErrCodeNotPermitted)
		}
		permits, err = s.repo.ListByShop(*actor.ShopID, repoFilters)
	case auth.RoleTechnical:
		permits, err = s.repo.ListTechnicalQueue(repoFilters)
	case auth.RoleSecurity:
		permits, err = s.repo.ListSecurityQueue(repoFilters)
	default:
		return nil, errors.NewForbiddenError("role may not list permits", errors.ErrCodeNotPermitted)
	}
	if err != nil {
		s.logger.Error("failed to list permits", "role", actor.Role, "error", err)
		return nil, errors.NewInternalError("failed to list permits", err)
	}

	now := s.now()
	for _, p := range permits {
		p.Status = p.EffectiveStatus(now)
	}

	if filters.Status != "" {
		filtered := make([]*Permit, 0, len(permits))
		for _, p := range permits {
			if p.Status == filters.Status {
				filtered = append(filtered, p)
			}
		}
		permits = filtered
		if filters.Offset > 0 {
			if filters.Offset >= len(permits) {
				permits = permits[:0]
			} else {
				permits = permits[filters.Offset:]
			}
		}
		if filters.Limit > 0 && len(permits) > filters.Limit {
			permits = permits[:filters.Limit]
		}
	}
	return permits, nil
}

func (s *Service) GetPermit(actor *auth.Actor, permitID string) (*Permit, error) {
	p, err := s.getPermit(permitID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, p) {
		s.logger.Warn("permit access denied", "permit_id", permitID, "user_id", actor.UserID, "role", actor.Role)
		return nil, errors.NewForbiddenError("not allowed to view this permit", errors.ErrCodeNotPermitted)
	}
	p.Status = p.EffectiveStatus(s.now())
	return p, nil
}

// CancelPermit withdraws a permit before work starts. Allowed to the
// submitting shop's tenant and to admin.
func (s *Service) CancelPermit(ctx context.Context, actor *auth.Actor, permitID string) (*Permit, error) {
	p, err := s.getPermit(permitID)
	if err != nil {
		return nil, err
	}

	if actor.Role != auth.RoleAdmin && !actor.IsTenantOf(p.ShopID) {
		return nil, errors.NewForbiddenError("not allowed to cancel this permit", errors.ErrCodeNotPermitted)
	}

	now := s.now()
	if !p.CanCancel(now) {
		return nil, errors.NewConflictError(
			fmt.Sprintf("permit %s cannot be cancelled in status %s", p.PermitID, p.Status),
			errors.ErrCodeTerminalPermit)
	}

	return s.transitionStatus(ctx, actor, p, StatusCancelled, now)
}

// StartWork moves an approved permit into in_progress. Allowed to the shop's
// tenant, security, and admin.
func (s *Service) StartWork(ctx context.Context, actor *auth.Actor, permitID string) (*Permit, error) {
	p, err := s.getPermit(permitID)
	if err != nil {
		return nil, err
	}

	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleSecurity && !actor.IsTenantOf(p.ShopID) {
		return nil, errors.NewForbiddenError("not allowed to start work on this permit", errors.ErrCodeNotPermitted)
	}
	if p.Status != StatusApproved {
		return nil, errors.NewConflictError(
			fmt.Sprintf("permit %s is not approved", p.PermitID),
			errors.ErrCodePermitNotApproved)
	}

	return s.transitionStatus(ctx, actor, p, StatusInProgress, s.now())
}

// CompleteWork closes an in_progress permit.
func (s *Service) CompleteWork(ctx context.Context, actor *auth.Actor, permitID string) (*Permit, error) {
	p, err := s.getPermit(permitID)
	if err != nil {
		return nil, err
	}

	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleSecurity && !actor.IsTenantOf(p.ShopID) {
		return nil, errors.NewForbiddenError("not allowed to complete this permit", errors.ErrCodeNotPermitted)
	}

	now := s.now()
	if p.EffectiveStatus(now) != StatusInProgress {
		return nil, errors.NewConflictError(
			fmt.Sprintf("permit %s has no work in progress", p.PermitID),
			errors.ErrCodeTerminalPermit)
	}

	return s.transitionStatus(ctx, actor, p, StatusCompleted, now)
}

// IssueQRPayload produces the gate-pass payload for a fully approved permit.
func (s *Service) IssueQRPayload(actor *auth.Actor, permitID, verifyBaseURL string) (*QRPayload, error) {
	p, err := s.getPermit(permitID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, p) {
		return nil, errors.NewForbiddenError("not allowed to view this permit", errors.ErrCodeNotPermitted)
	}

	now := s.now()
	effective := p.EffectiveStatus(now)
	if effective != StatusApproved && effective != StatusInProgress {
		return nil, errors.NewPreconditionError(
			fmt.Sprintf("permit %s is not approved, QR codes are issued for approved permits only", p.PermitID),
			errors.ErrCodePermitNotApproved)
	}

	return NewQRPayload(p, verifyBaseURL, now), nil
}

// SweepDateTransitions persists date-driven status changes for all active
// permits. Idempotent; version conflicts are skipped and retried next run.
func (s *Service) SweepDateTransitions(ctx context.Context) (int, error) {
	permits, err := s.repo.ListActive()
	if err != nil {
		return 0, fmt.Errorf("list active permits: %w", err)
	}

	now := s.now()
	changed := 0
	for _, p := range permits {
		oldStatus := p.Status
		expectedVersion := p.Version
		if !p.ApplyDateTransitions(now) {
			continue
		}
		if err := s.repo.Save(p, expectedVersion); err != nil {
			if err == ErrVersionConflict {
				s.logger.Warn("sweep skipped concurrently modified permit", "permit_id", p.PermitID)
				continue
			}
			s.logger.Error("sweep failed to save permit", "permit_id", p.PermitID, "error", err)
			continue
		}
		changed++
		s.logger.Info("sweep transitioned permit",
			"permit_id", p.PermitID, "from", oldStatus, "to", p.Status)
		s.publish(ctx, events.NewPermitStatusChangedEvent(p.PermitID, p.ShopID, oldStatus, p.Status, "system"))
	}

	return changed, nil
}

func (s *Service) getPermit(permitID string) (*Permit, error) {
	p, err := s.repo.GetByPermitID(permitID)
	if err != nil {
		if err == ErrPermitNotFound {
			return nil, errors.NewNotFoundError(
				fmt.Sprintf("permit %s not found", permitID),
				errors.ErrCodePermitNotFound)
		}
		s.logger.Error("failed to load permit", "permit_id", permitID, "error", err)
		return nil, errors.NewInternalError("failed to load permit", err)
	}
	return p, nil
}

// resolveStage maps the reviewer onto a stage. Fixed-stage roles must hold
// the matching permission; admin reviews whatever stage is next.
func (s *Service) resolveStage(actor *auth.Actor, p *Permit) (Stage, error) {
	if actor.Role == auth.RoleAdmin {
		stage, ok := p.NextStage()
		if !ok {
			return "", errors.NewConflictError("all review stages are complete", errors.ErrCodeWrongStage)
		}
		return stage, nil
	}

	stage, ok := StageForRole(actor.Role)
	if !ok || !actor.HasPermission(stagePermissions[stage]) {
		return "", errors.NewForbiddenError("role may not review permits", errors.ErrCodeNotPermitted)
	}
	return stage, nil
}

func (s *Service) transitionStatus(ctx context.Context, actor *auth.Actor, p *Permit, newStatus string, now time.Time) (*Permit, error) {
	oldStatus := p.Status
	expectedVersion := p.Version
	p.Status = newStatus
	p.UpdatedAt = now

	if err := s.repo.Save(p, expectedVersion); err != nil {
		if err == ErrVersionConflict {
			return nil, errors.NewConflictError(
				"permit was modified concurrently, reload and retry",
				errors.ErrCodeVersionConflict)
		}
		s.logger.Error("failed to save permit transition", "permit_id", p.PermitID, "error", err)
		return nil, errors.NewInternalError("failed to save permit", err)
	}

	s.logger.Info("permit status changed",
		"permit_id", p.PermitID, "from", oldStatus, "to", newStatus, "by", actor.Email)

	s.publish(ctx, events.NewPermitStatusChangedEvent(p.PermitID, p.ShopID, oldStatus, newStatus, actor.Email))
	return p, nil
}

func (s *Service) allocatePermitID(now time.Time) (string, error) {
	year := now.Year()
	seq, err := s.repo.NextSequence(year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PTW-%04d-%03d", year, seq), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish permit event", "event_type", event.EventType(), "error", err)
	}
}
