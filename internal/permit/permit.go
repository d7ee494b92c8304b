package permit

import (
	"encoding/json"
	"errors"
	"time"

	permitDatamodel "github.com/permitworks/permit-management/internal/core/datamodel/permit"
)

const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusExpired    = "expired"
)

const (
	WorkTypeLight      = "light_work"
	WorkTypeMedium     = "medium_work"
	WorkTypeHeavy      = "heavy_work"
	WorkTypeElectrical = "electrical"
	WorkTypePlumbing   = "plumbing"
	WorkTypeRenovation = "renovation"
)

// Stage identifies one of the three sequential review slots.
type Stage string

const (
	StageTechnical  Stage = "technical"
	StageSecurity   Stage = "security"
	StageManagement Stage = "management"
)

const (
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// Domain errors
var (
	ErrPermitNotFound     = errors.New("permit not found")
	ErrVersionConflict    = errors.New("permit was modified concurrently")
	ErrUnauthorizedAccess = errors.New("unauthorized access to permit")
)

// Approval is one filled review slot. A nil slot means the stage has not
// acted yet.
type Approval struct {
	Status     string    `json:"status"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
	Comments   string    `json:"comments,omitempty"`
}

type Approvals struct {
	Technical  *Approval `json:"technical,omitempty"`
	Security   *Approval `json:"security,omitempty"`
	Management *Approval `json:"management,omitempty"`
}

type Permit struct {
	ID                int64     `json:"id"`
	PermitID          string    `json:"permit_id"`
	ShopID            int64     `json:"shop_id"`
	ShopName          string    `json:"shop_name"`
	WorkType          string    `json:"work_type"`
	WorkDescription   string    `json:"work_description"`
	Location          string    `json:"location"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	StartTime         string    `json:"start_time,omitempty"`
	EndTime           string    `json:"end_time,omitempty"`
	ContractorName    string    `json:"contractor_name,omitempty"`
	WorkerCount       int       `json:"worker_count"`
	EmergencyContact  string    `json:"emergency_contact,omitempty"`
	EquipmentNeeded   []string  `json:"equipment_needed,omitempty"`
	InsuranceRequired bool      `json:"insurance_required"`
	Status            string    `json:"status"`
	SubmittedBy       string    `json:"submitted_by"`
	Approvals         Approvals `json:"approvals"`
	Version           int64     `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func ValidWorkTypes() []string {
	return []string{
		WorkTypeLight,
		WorkTypeMedium,
		WorkTypeHeavy,
		WorkTypeElectrical,
		WorkTypePlumbing,
		WorkTypeRenovation,
	}
}

// IsTerminal reports whether the permit accepts no further transitions.
func (p *Permit) IsTerminal() bool {
	switch p.Status {
	case StatusRejected, StatusCancelled, StatusExpired, StatusCompleted:
		return true
	}
	return false
}

func (p *Permit) Slot(stage Stage) *Approval {
	switch stage {
	case StageTechnical:
		return p.Approvals.Technical
	case StageSecurity:
		return p.Approvals.Security
	case StageManagement:
		return p.Approvals.Management
	}
	return nil
}

func (p *Permit) SetSlot(stage Stage, approval *Approval) {
	switch stage {
	case StageTechnical:
		p.Approvals.Technical = approval
	case StageSecurity:
		p.Approvals.Security = approval
	case StageManagement:
		p.Approvals.Management = approval
	}
}

func (p *Permit) slotApproved(stage Stage) bool {
	slot := p.Slot(stage)
	return slot != nil && slot.Status == ApprovalStatusApproved
}

// NextStage returns the first stage whose slot is not yet approved. The
// second return is false once all three stages have approved.
func (p *Permit) NextStage() (Stage, bool) {
	for _, stage := range []Stage{StageTechnical, StageSecurity, StageManagement} {
		if !p.slotApproved(stage) {
			return stage, true
		}
	}
	return "", false
}

// StagePrerequisitesMet enforces the strict review order: security acts only
// after technical approved, management only after both.
func (p *Permit) StagePrerequisitesMet(stage Stage) bool {
	switch stage {
	case StageTechnical:
		return true
	case StageSecurity:
		return p.slotApproved(StageTechnical)
	case StageManagement:
		return p.slotApproved(StageTechnical) && p.slotApproved(StageSecurity)
	}
	return false
}

func (p *Permit) AllStagesApproved() bool {
	return p.slotApproved(StageTechnical) &&
		p.slotApproved(StageSecurity) &&
		p.slotApproved(StageManagement)
}

// CanCancel allows cancellation only while no work has started.
func (p *Permit) CanCancel(now time.Time) bool {
	if p.Status != StatusPending && p.Status != StatusApproved {
		return false
	}
	return !p.workStarted(now)
}

func (p *Permit) workStarted(now time.Time) bool {
	return p.Status == StatusApproved && !truncateToDay(now).Before(truncateToDay(p.StartDate))
}

// EffectiveStatus derives the date-driven status without mutating the
// permit. Pure in (status, dates, now), so repeated application converges.
func (p *Permit) EffectiveStatus(now time.Time) string {
	today := truncateToDay(now)
	start := truncateToDay(p.StartDate)
	end := truncateToDay(p.EndDate)

	switch p.Status {
	case StatusPending:
		if today.After(end) {
			return StatusExpired
		}
	case StatusApproved:
		if today.After(end) {
			return StatusCompleted
		}
		if !today.Before(start) {
			return StatusInProgress
		}
	case StatusInProgress:
		if today.After(end) {
			return StatusCompleted
		}
	}
	return p.Status
}

// ApplyDateTransitions persists the effective status onto the permit and
// reports whether anything changed. Used by the sweep job.
func (p *Permit) ApplyDateTransitions(now time.Time) bool {
	effective := p.EffectiveStatus(now)
	if effective == p.Status {
		return false
	}
	p.Status = effective
	p.UpdatedAt = now
	return true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ToDataModel(p *Permit) *permitDatamodel.Permit {
	dm := &permitDatamodel.Permit{
		ID:                p.ID,
		PermitID:          p.PermitID,
		ShopID:            p.ShopID,
		ShopName:          p.ShopName,
		WorkType:          p.WorkType,
		WorkDescription:   p.WorkDescription,
		Location:          p.Location,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		StartTime:         p.StartTime,
		EndTime:           p.EndTime,
		ContractorName:    p.ContractorName,
		WorkerCount:       p.WorkerCount,
		EmergencyContact:  p.EmergencyContact,
		InsuranceRequired: p.InsuranceRequired,
		Status:            p.Status,
		SubmittedBy:       p.SubmittedBy,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}

	if len(p.EquipmentNeeded) > 0 {
		if encoded, err := json.Marshal(p.EquipmentNeeded); err == nil {
			dm.EquipmentNeeded = string(encoded)
		}
	}

	flattenSlot(p.Approvals.Technical,
		&dm.TechnicalStatus, &dm.TechnicalApprovedBy, &dm.TechnicalApprovedAt, &dm.TechnicalComments)
	flattenSlot(p.Approvals.Security,
		&dm.SecurityStatus, &dm.SecurityApprovedBy, &dm.SecurityApprovedAt, &dm.SecurityComments)
	flattenSlot(p.Approvals.Management,
		&dm.ManagementStatus, &dm.ManagementApprovedBy, &dm.ManagementApprovedAt, &dm.ManagementComments)

	return dm
}

func FromDataModel(dm *permitDatamodel.Permit) *Permit {
	p := &Permit{
		ID:                dm.ID,
		PermitID:          dm.PermitID,
		ShopID:            dm.ShopID,
		ShopName:          dm.ShopName,
		WorkType:          dm.WorkType,
		WorkDescription:   dm.WorkDescription,
		Location:          dm.Location,
		StartDate:         dm.StartDate,
		EndDate:           dm.EndDate,
		StartTime:         dm.StartTime,
		EndTime:           dm.EndTime,
		ContractorName:    dm.ContractorName,
		WorkerCount:       dm.WorkerCount,
		EmergencyContact:  dm.EmergencyContact,
		InsuranceRequired: dm.InsuranceRequired,
		Status:            dm.Status,
		SubmittedBy:       dm.SubmittedBy,
		Version:           dm.Version,
		CreatedAt:         dm.CreatedAt,
		UpdatedAt:         dm.UpdatedAt,
	}

	if dm.EquipmentNeeded != "" {
		var equipment []string
		if err := json.Unmarshal([]byte(dm.EquipmentNeeded), &equipment); err == nil {
			p.EquipmentNeeded = equipment
		}
	}

	p.Approvals.Technical = unflattenSlot(dm.TechnicalStatus, dm.TechnicalApprovedBy, dm.TechnicalApprovedAt, dm.TechnicalComments)
	p.Approvals.Security = unflattenSlot(dm.SecurityStatus, dm.SecurityApprovedBy, dm.SecurityApprovedAt, dm.SecurityComments)
	p.Approvals.Management = unflattenSlot(dm.ManagementStatus, dm.ManagementApprovedBy, dm.ManagementApprovedAt, dm.ManagementComments)

	return p
}

func FromDataModelSlice(models []*permitDatamodel.Permit) []*Permit {
	result := make([]*Permit, len(models))
	for i, dm := range models {
		result[i] = FromDataModel(dm)
	}
	return result
}

func flattenSlot(slot *Approval, status, approvedBy **string, approvedAt **time.Time, comments **string) {
	if slot == nil {
		return
	}
	s, by, at, c := slot.Status, slot.ApprovedBy, slot.ApprovedAt, slot.Comments
	*status = &s
	*approvedBy = &by
	*approvedAt = &at
	if c != "" {
		*comments = &c
	}
}

func unflattenSlot(status, approvedBy *string, approvedAt *time.Time, comments *string) *Approval {
	if status == nil {
		return nil
	}
	approval := &Approval{Status: *status}
	if approvedBy != nil {
		approval.ApprovedBy = *approvedBy
	}
	if approvedAt != nil {
		approval.ApprovedAt = *approvedAt
	}
	if comments != nil {
		approval.Comments = *comments
	}
	return approval
}
