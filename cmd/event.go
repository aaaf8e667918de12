package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/regulariza/process-management/internal/core/events"
	"github.com/regulariza/process-management/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test events, monitor event bus, inspect handlers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventData      string
	eventProcessID int64
)

// sampleEvent builds a representative event for the known domain types so
// handlers can be exercised with realistic payloads. Unknown types fall
// back to a bare BaseEvent.
func sampleEvent(eventType string) events.Event {
	switch eventType {
	case events.EventTypeStageCompleted:
		return events.NewStageCompletedEvent(eventProcessID, "ER-2501-00001", 1, 1, "Análise documental", 50)
	case events.EventTypeProcessCompleted:
		return events.NewProcessCompletedEvent(eventProcessID, "ER-2501-00001", 1, "Regularização de imóvel")
	case events.EventTypeDocumentUploaded:
		return events.NewDocumentUploadedEvent(1, "RG ou CNH", eventProcessID, 1)
	case events.EventTypeDocumentApproved:
		return events.NewDocumentReviewedEvent(1, "RG ou CNH", eventProcessID, 1, "approved", "")
	case events.EventTypeDocumentRejected:
		return events.NewDocumentReviewedEvent(1, "RG ou CNH", eventProcessID, 1, "rejected", "documento ilegível")
	default:
		return events.BaseEvent{
			ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message": eventData,
				"source":  "cli-command",
			},
		}
	}
}

func publishTestEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	evt := sampleEvent(eventType)

	logger.Info("publishing test event", "event_type", eventType, "event_id", evt.EventID())

	if err := eventBus.PublishSync(context.Background(), evt); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	logger.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().Int64Var(&eventProcessID, "process-id", 1, "Process ID used in sample payloads")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
