package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePermitSubmitted     = "permit.submitted"
	EventTypePermitStageApproved = "permit.stage_approved"
	EventTypePermitApproved      = "permit.approved"
	EventTypePermitRejected      = "permit.rejected"
	EventTypePermitStatusChanged = "permit.status_changed"
)

type PermitSubmittedEvent struct {
	BaseEvent
	PermitID    string `json:"permit_id"`
	ShopID      int64  `json:"shop_id"`
	ShopName    string `json:"shop_name"`
	WorkType    string `json:"work_type"`
	SubmittedBy string `json:"submitted_by"`
}

func NewPermitSubmittedEvent(permitID string, shopID int64, shopName, workType, submittedBy string) *PermitSubmittedEvent {
	return &PermitSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"permit_id":    permitID,
				"shop_id":      shopID,
				"shop_name":    shopName,
				"work_type":    workType,
				"submitted_by": submittedBy,
			},
		},
		PermitID:    permitID,
		ShopID:      shopID,
		ShopName:    shopName,
		WorkType:    workType,
		SubmittedBy: submittedBy,
	}
}

type PermitStageApprovedEvent struct {
	BaseEvent
	PermitID   string `json:"permit_id"`
	ShopID     int64  `json:"shop_id"`
	Stage      string `json:"stage"`
	NextStage  string `json:"next_stage"`
	ApprovedBy string `json:"approved_by"`
}

func NewPermitStageApprovedEvent(permitID string, shopID int64, stage, nextStage, approvedBy string) *PermitStageApprovedEvent {
	return &PermitStageApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitStageApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"permit_id":   permitID,
				"shop_id":     shopID,
				"stage":       stage,
				"next_stage":  nextStage,
				"approved_by": approvedBy,
			},
		},
		PermitID:   permitID,
		ShopID:     shopID,
		Stage:      stage,
		NextStage:  nextStage,
		ApprovedBy: approvedBy,
	}
}

type PermitApprovedEvent struct {
	BaseEvent
	PermitID   string `json:"permit_id"`
	ShopID     int64  `json:"shop_id"`
	ShopName   string `json:"shop_name"`
	WorkType   string `json:"work_type"`
	ApprovedBy string `json:"approved_by"`
}

func NewPermitApprovedEvent(permitID string, shopID int64, shopName, workType, approvedBy string) *PermitApprovedEvent {
	return &PermitApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"permit_id":   permitID,
				"shop_id":     shopID,
				"shop_name":   shopName,
				"work_type":   workType,
				"approved_by": approvedBy,
			},
		},
		PermitID:   permitID,
		ShopID:     shopID,
		ShopName:   shopName,
		WorkType:   workType,
		ApprovedBy: approvedBy,
	}
}

type PermitRejectedEvent struct {
	BaseEvent
	PermitID   string `json:"permit_id"`
	ShopID     int64  `json:"shop_id"`
	ShopName   string `json:"shop_name"`
	Stage      string `json:"stage"`
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

func NewPermitRejectedEvent(permitID string, shopID int64, shopName, stage, rejectedBy, reason string) *PermitRejectedEvent {
	return &PermitRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"permit_id":   permitID,
				"shop_id":     shopID,
				"shop_name":   shopName,
				"stage":       stage,
				"rejected_by": rejectedBy,
				"reason":      reason,
			},
		},
		PermitID:   permitID,
		ShopID:     shopID,
		ShopName:   shopName,
		Stage:      stage,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
}

type PermitStatusChangedEvent struct {
	BaseEvent
	PermitID  string `json:"permit_id"`
	ShopID    int64  `json:"shop_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedBy string `json:"changed_by"`
}

func NewPermitStatusChangedEvent(permitID string, shopID int64, oldStatus, newStatus, changedBy string) *PermitStatusChangedEvent {
	return &PermitStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"permit_id":  permitID,
				"shop_id":    shopID,
				"old_status": oldStatus,
				"new_status": newStatus,
				"changed_by": changedBy,
			},
		},
		PermitID:  permitID,
		ShopID:    shopID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
	}
}
