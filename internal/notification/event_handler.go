package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/regulariza/process-management/internal/core/events"
)

// EventHandler turns domain events into notifications for the affected
// client. It subscribes on the in-process bus, so dispatch failures are
// logged by the bus and never reach the publishing service.
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

// processLink is the portal deep link for a case; the documents variant
// lands on the document checklist tab.
func processLink(processID int64) string {
	return fmt.Sprintf("/processos/%d", processID)
}

func processDocumentsLink(processID int64) string {
	return fmt.Sprintf("/processos/%d/documentos", processID)
}

func (h *EventHandler) HandleDocumentReviewed(ctx context.Context, event events.Event) error {
	reviewed, ok := event.(*events.DocumentReviewedEvent)
	if !ok {
		h.logger.Error("invalid event type for document reviewed handler", "event_type", event.EventType())
		return fmt.Errorf("expected DocumentReviewedEvent, got %T", event)
	}

	n := &Notification{
		RecipientID: reviewed.OwnerID,
		ProcessID:   &reviewed.ProcessID,
		Link:        processDocumentsLink(reviewed.ProcessID),
	}

	if reviewed.Decision == "approved" {
		n.Type = TypeDocumentApproved
		n.Title = "Documento aprovado"
		n.Message = fmt.Sprintf("Seu documento %q foi aprovado.", reviewed.DocumentName)
	} else {
		n.Type = TypeDocumentRejected
		n.Title = "Documento recusado"
		n.Message = fmt.Sprintf("Seu documento %q foi recusado: %s", reviewed.DocumentName, reviewed.Feedback)
	}

	return h.service.Dispatch(ctx, n, "", nil)
}

func (h *EventHandler) HandleStageCompleted(ctx context.Context, event events.Event) error {
	stage, ok := event.(*events.StageCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for stage completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected StageCompletedEvent, got %T", event)
	}

	n := &Notification{
		RecipientID: stage.ClientID,
		Type:        TypeStageCompleted,
		Title:       "Etapa concluída",
		Message:     fmt.Sprintf("A etapa %q do processo %s foi concluída (%d%%).", stage.StepTitle, stage.ProcessNumber, stage.Progress),
		ProcessID:   &stage.ProcessID,
		Link:        processLink(stage.ProcessID),
	}

	return h.service.Dispatch(ctx, n, "", nil)
}

func (h *EventHandler) HandleProcessCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.ProcessCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for process completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected ProcessCompletedEvent, got %T", event)
	}

	n := &Notification{
		RecipientID: completed.ClientID,
		Type:        TypeProcessCompleted,
		Title:       "Processo concluído",
		Message:     fmt.Sprintf("Parabéns! Seu processo %s foi concluído.", completed.ProcessNumber),
		ProcessID:   &completed.ProcessID,
		Link:        processLink(completed.ProcessID),
	}

	return h.service.Dispatch(ctx, n, "process_completed", map[string]string{
		"processo": completed.ProcessNumber,
	})
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeDocumentApproved, h.HandleDocumentReviewed)
	eventBus.Subscribe(events.EventTypeDocumentRejected, h.HandleDocumentReviewed)
	eventBus.Subscribe(events.EventTypeStageCompleted, h.HandleStageCompleted)
	eventBus.Subscribe(events.EventTypeProcessCompleted, h.HandleProcessCompleted)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypeDocumentApproved,
			events.EventTypeDocumentRejected,
			events.EventTypeStageCompleted,
			events.EventTypeProcessCompleted,
		})
}
