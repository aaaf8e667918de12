package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/regulariza/process-management/internal/core/events"
	"github.com/regulariza/process-management/internal/notification/sms"
	"github.com/regulariza/process-management/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background services like SMS delivery and event processing.`,
}

// SMS worker command
var smsWorkerCmd = &cobra.Command{
	Use:   "sms",
	Short: "Start SMS delivery worker pool",
	Long:  `Start the SMS worker pool that delivers queued text messages`,
	Run: func(cmd *cobra.Command, args []string) {
		startSMSWorker()
	},
}

// Event Bus worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus `,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	maxWorkers int
	queueSize  int
	apiURL     string
)

func startSMSWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	smsConfig := sms.Config{
		Enabled:    config.SMS.Enabled,
		APIURL:     getStringFlag(apiURL, config.SMS.APIURL),
		AccountSID: config.SMS.AccountSID,
		AuthToken:  config.SMS.AuthToken,
		FromNumber: config.SMS.FromNumber,
		Timeout:    config.SMS.Timeout,
		MaxWorkers: maxWorkers,
		QueueSize:  queueSize,
	}

	logger.Info("starting sms worker",
		"max_workers", smsConfig.MaxWorkers,
		"queue_size", smsConfig.QueueSize,
		"api_url", smsConfig.APIURL)

	client := sms.NewClient(smsConfig, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("sms worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down sms worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("sms worker pool shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe("test.event", func(ctx context.Context, event events.Event) error {
		logger.Info("received test event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	logger.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("event bus is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down event bus", "signal", sig)
	logger.Info("event bus shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	smsWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	smsWorkerCmd.Flags().IntVar(&queueSize, "queue-size", 0, "Job queue buffer size (overrides config)")
	smsWorkerCmd.Flags().StringVar(&apiURL, "api-url", "", "SMS gateway API URL (overrides config)")

	workerCmd.AddCommand(smsWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
