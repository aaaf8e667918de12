package notification

import (
	"context"
	"log/slog"
	"time"
)

// SMSSender is the outbound text-message leg. Delivery happens in the
// sender's own worker pool; Send only queues.
type SMSSender interface {
	Send(to, template string, params map[string]string) error
}

// RecipientReader resolves the phone and opt-in flag of a recipient.
type RecipientReader interface {
	GetContactInfo(userID int64) (name string, phone string, smsOptIn bool, err error)
}

type Service struct {
	repo       Repository
	sms        SMSSender
	recipients RecipientReader
	logger     *slog.Logger
}

func NewService(repo Repository, sms SMSSender, recipients RecipientReader, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		sms:        sms,
		recipients: recipients,
		logger:     logger,
	}
}

// Dispatch stores the in-app notification and, when the recipient opted
// in and a template is given, queues an SMS. The SMS leg is best-effort:
// a failure is logged but never blocks the in-app row.
func (s *Service) Dispatch(ctx context.Context, n *Notification, smsTemplate string, smsParams map[string]string) error {
	if n.RecipientID <= 0 {
		return ErrInvalidRecipient
	}
	if n.Type == "" {
		n.Type = TypeSystem
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to create notification",
			"error", err,
			"recipient_id", n.RecipientID,
			"type", n.Type)
		return err
	}

	s.logger.Info("notification dispatched",
		"notification_id", n.ID,
		"recipient_id", n.RecipientID,
		"type", n.Type)

	if smsTemplate != "" && s.sms != nil {
		s.sendSMS(n.RecipientID, smsTemplate, smsParams)
	}

	return nil
}

func (s *Service) sendSMS(recipientID int64, template string, params map[string]string) {
	name, phone, optIn, err := s.recipients.GetContactInfo(recipientID)
	if err != nil {
		s.logger.Error("failed to resolve sms recipient", "error", err, "recipient_id", recipientID)
		return
	}
	if !optIn || phone == "" {
		s.logger.Debug("recipient not reachable by sms",
			"recipient_id", recipientID,
			"opted_in", optIn)
		return
	}

	if params == nil {
		params = map[string]string{}
	}
	if _, ok := params["nome"]; !ok {
		params["nome"] = name
	}

	if err := s.sms.Send(phone, template, params); err != nil {
		s.logger.Error("sms queue failed",
			"error", err,
			"recipient_id", recipientID,
			"template", template)
	}
}

// List returns the recipient's own notifications, newest first.
func (s *Service) List(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.ListByRecipient(recipientID, unreadOnly, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err, "recipient_id", recipientID)
		return nil, err
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	count, err := s.repo.UnreadCount(recipientID)
	if err != nil {
		s.logger.Error("failed to count unread notifications", "error", err, "recipient_id", recipientID)
		return 0, err
	}
	return count, nil
}

// MarkRead flips is_read on one notification. The recipient scoping lives
// in the repository query so a user can never mark someone else's row.
func (s *Service) MarkRead(ctx context.Context, id, recipientID int64) error {
	if err := s.repo.MarkRead(id, recipientID); err != nil {
		if err != ErrNotificationNotFound {
			s.logger.Error("failed to mark notification read",
				"error", err,
				"notification_id", id,
				"recipient_id", recipientID)
		}
		return err
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID int64) error {
	if err := s.repo.MarkAllRead(recipientID); err != nil {
		s.logger.Error("failed to mark all notifications read", "error", err, "recipient_id", recipientID)
		return err
	}
	return nil
}
