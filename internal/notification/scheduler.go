package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/regulariza/process-management/internal/process"
)

// DeadlineReader lists open cases whose deadline falls before a cutoff.
type DeadlineReader interface {
	ListApproachingDeadline(before time.Time) ([]*process.Process, error)
}

// ReminderScheduler runs a daily cron job that notifies clients whose
// process deadline is coming up within the configured warning window.
type ReminderScheduler struct {
	cron        *cron.Cron
	service     *Service
	deadlines   DeadlineReader
	schedule    string
	warningDays int
	logger      *slog.Logger
}

func NewReminderScheduler(service *Service, deadlines DeadlineReader, schedule string, warningDays int, logger *slog.Logger) *ReminderScheduler {
	if schedule == "" {
		schedule = "0 8 * * *"
	}
	if warningDays <= 0 {
		warningDays = 3
	}
	return &ReminderScheduler{
		cron:        cron.New(),
		service:     service,
		deadlines:   deadlines,
		schedule:    schedule,
		warningDays: warningDays,
		logger:      logger,
	}
}

func (s *ReminderScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule deadline reminders: %w", err)
	}
	s.cron.Start()
	s.logger.Info("deadline reminder scheduler started",
		"schedule", s.schedule,
		"warning_days", s.warningDays)
	return nil
}

func (s *ReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("deadline reminder scheduler stopped")
}

func (s *ReminderScheduler) run() {
	now := time.Now()
	cutoff := now.AddDate(0, 0, s.warningDays)

	procs, err := s.deadlines.ListApproachingDeadline(cutoff)
	if err != nil {
		s.logger.Error("deadline reminder query failed", "error", err)
		return
	}

	s.logger.Info("deadline reminder sweep", "candidates", len(procs))

	for _, proc := range procs {
		if proc.Deadline == nil {
			continue
		}
		daysLeft := int(proc.Deadline.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}

		n := &Notification{
			RecipientID: proc.ClientID,
			Type:        TypeDeadlineReminder,
			Title:       "Prazo se aproximando",
			Message:     fmt.Sprintf("O prazo do seu processo %s vence em %d dias.", proc.ProcessNumber, daysLeft),
			ProcessID:   &proc.ID,
			Link:        processLink(proc.ID),
		}

		err := s.service.Dispatch(context.Background(), n, "deadline_reminder", map[string]string{
			"processo": proc.ProcessNumber,
			"dias":     fmt.Sprintf("%d", daysLeft),
		})
		if err != nil {
			s.logger.Error("deadline reminder dispatch failed",
				"error", err,
				"process_id", proc.ID,
				"client_id", proc.ClientID)
		}
	}
}
