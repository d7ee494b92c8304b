package memo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/permitworks/permit-management/internal/core/events"
)

// EventHandler turns permit workflow events into memos. Memo failures are
// reported to the bus but never reach the workflow transition itself.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandlePermitSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PermitSubmittedEvent)
	if !ok {
		h.logger.Error("invalid event type for permit submitted handler", "event_type", event.EventType())
		return fmt.Errorf("expected PermitSubmittedEvent, got %T", event)
	}

	return h.service.DispatchSystemMemo(
		fmt.Sprintf("New permit %s awaiting technical review", e.PermitID),
		fmt.Sprintf("%s submitted a %s permit for shop %s.", e.SubmittedBy, e.WorkType, e.ShopName),
		CategoryPermit,
		PriorityMedium,
		[]string{"technical", ShopRecipient(e.ShopID)},
		e.PermitID,
	)
}

func (h *EventHandler) HandleStageApproved(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PermitStageApprovedEvent)
	if !ok {
		h.logger.Error("invalid event type for stage approved handler", "event_type", event.EventType())
		return fmt.Errorf("expected PermitStageApprovedEvent, got %T", event)
	}

	recipients := []string{ShopRecipient(e.ShopID)}
	if e.NextStage != "" {
		// the management stage is reviewed by operations
		dept := e.NextStage
		if dept == "management" {
			dept = "operations"
		}
		recipients = append(recipients, dept)
	}

	return h.service.DispatchSystemMemo(
		fmt.Sprintf("Permit %s cleared %s review", e.PermitID, e.Stage),
		fmt.Sprintf("Permit %s was approved at the %s stage and moves to %s review.", e.PermitID, e.Stage, e.NextStage),
		CategoryPermit,
		PriorityMedium,
		recipients,
		e.PermitID,
	)
}

func (h *EventHandler) HandlePermitApproved(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PermitApprovedEvent)
	if !ok {
		h.logger.Error("invalid event type for permit approved handler", "event_type", event.EventType())
		return fmt.Errorf("expected PermitApprovedEvent, got %T", event)
	}

	return h.service.DispatchSystemMemo(
		fmt.Sprintf("Permit %s fully approved", e.PermitID),
		fmt.Sprintf("Permit %s for %s (%s) has cleared all reviews. A QR gate pass can now be issued.", e.PermitID, e.ShopName, e.WorkType),
		CategoryPermit,
		PriorityHigh,
		[]string{ShopRecipient(e.ShopID), "security"},
		e.PermitID,
	)
}

func (h *EventHandler) HandlePermitRejected(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PermitRejectedEvent)
	if !ok {
		h.logger.Error("invalid event type for permit rejected handler", "event_type", event.EventType())
		return fmt.Errorf("expected PermitRejectedEvent, got %T", event)
	}

	return h.service.DispatchSystemMemo(
		fmt.Sprintf("Permit %s rejected", e.PermitID),
		fmt.Sprintf("Permit %s for %s was rejected at the %s stage: %s", e.PermitID, e.ShopName, e.Stage, e.Reason),
		CategoryPermit,
		PriorityHigh,
		[]string{ShopRecipient(e.ShopID)},
		e.PermitID,
	)
}

func (h *EventHandler) HandleStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PermitStatusChangedEvent)
	if !ok {
		h.logger.Error("invalid event type for status changed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PermitStatusChangedEvent, got %T", event)
	}

	return h.service.DispatchSystemMemo(
		fmt.Sprintf("Permit %s is now %s", e.PermitID, e.NewStatus),
		fmt.Sprintf("Permit %s moved from %s to %s.", e.PermitID, e.OldStatus, e.NewStatus),
		CategoryPermit,
		PriorityMedium,
		[]string{ShopRecipient(e.ShopID), "security"},
		e.PermitID,
	)
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePermitSubmitted, h.HandlePermitSubmitted)
	eventBus.Subscribe(events.EventTypePermitStageApproved, h.HandleStageApproved)
	eventBus.Subscribe(events.EventTypePermitApproved, h.HandlePermitApproved)
	eventBus.Subscribe(events.EventTypePermitRejected, h.HandlePermitRejected)
	eventBus.Subscribe(events.EventTypePermitStatusChanged, h.HandleStatusChanged)

	h.logger.Info("memo event handlers registered",
		"handlers", []string{
			events.EventTypePermitSubmitted,
			events.EventTypePermitStageApproved,
			events.EventTypePermitApproved,
			events.EventTypePermitRejected,
			events.EventTypePermitStatusChanged,
		})
}
