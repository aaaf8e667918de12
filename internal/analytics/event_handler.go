package analytics

import (
	"context"
	"log/slog"

	"github.com/regulariza/process-management/internal/core/events"
)

// EventHandler bridges domain events onto the analytics stream.
type EventHandler struct {
	client *Client
	logger *slog.Logger
}

func NewEventHandler(client *Client, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		client: client,
		logger: logger,
	}
}

func (h *EventHandler) HandleDocumentUploaded(ctx context.Context, event events.Event) error {
	uploaded, ok := event.(*events.DocumentUploadedEvent)
	if !ok {
		return nil
	}
	h.client.Track(EventDocumentUpload, map[string]interface{}{
		"document_id": uploaded.DocumentID,
		"process_id":  uploaded.ProcessID,
	})
	return nil
}

func (h *EventHandler) HandleStageCompleted(ctx context.Context, event events.Event) error {
	stage, ok := event.(*events.StageCompletedEvent)
	if !ok {
		return nil
	}
	h.client.Track(EventProcessStageComplete, map[string]interface{}{
		"process_id": stage.ProcessID,
		"step_id":    stage.StepID,
		"progress":   stage.Progress,
	})
	return nil
}

func (h *EventHandler) HandleProcessCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.ProcessCompletedEvent)
	if !ok {
		return nil
	}
	h.client.Track(EventProcessComplete, map[string]interface{}{
		"process_id":     completed.ProcessID,
		"process_number": completed.ProcessNumber,
	})
	return nil
}

func (h *EventHandler) HandleAdminAction(ctx context.Context, event events.Event) error {
	action, ok := event.(*events.AdminActionEvent)
	if !ok {
		return nil
	}
	h.client.Track(EventAdminAction, map[string]interface{}{
		"admin_id":    action.AdminID,
		"action":      action.Action,
		"target_type": action.TargetType,
	})

	// opening a case is also the start of the client-facing funnel
	if action.Action == "CREATE_PROCESS" {
		h.client.Track(EventProcessStart, map[string]interface{}{
			"admin_id":  action.AdminID,
			"target_id": action.TargetID,
		})
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeDocumentUploaded, h.HandleDocumentUploaded)
	eventBus.Subscribe(events.EventTypeStageCompleted, h.HandleStageCompleted)
	eventBus.Subscribe(events.EventTypeProcessCompleted, h.HandleProcessCompleted)
	eventBus.Subscribe(events.EventTypeAdminAction, h.HandleAdminAction)

	h.logger.Info("analytics event handlers registered",
		"handlers", []string{
			events.EventTypeDocumentUploaded,
			events.EventTypeStageCompleted,
			events.EventTypeProcessCompleted,
			events.EventTypeAdminAction,
		})
}
