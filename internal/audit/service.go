package audit

import (
	"context"
	"log/slog"

	"github.com/regulariza/process-management/internal"
	"github.com/regulariza/process-management/internal/core/events"
)

// EventPublisher mirrors every recorded entry onto the event bus so the
// analytics stream sees admin activity.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo     Repository
	eventBus EventPublisher
	logger   *slog.Logger
}

func NewService(repo Repository, eventBus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Record appends an entry to the trail. The user agent is taken from the
// request context when the auth middleware stored one.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		s.logger.Error("invalid audit entry", "error", err, "action", entry.Action)
		return err
	}

	userAgent := internal.UserAgentFromContext(ctx)
	if err := s.repo.Create(entry, userAgent); err != nil {
		s.logger.Error("failed to record audit entry",
			"error", err,
			"action", entry.Action,
			"target_type", entry.TargetType,
			"admin_id", entry.AdminID)
		return err
	}

	if s.eventBus != nil {
		event := events.NewAdminActionEvent(entry.AdminID, entry.Action, entry.TargetType, entry.TargetID)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			// the trail entry is already committed; the stream is best-effort
			s.logger.Error("failed to publish admin action event", "error", err, "action", entry.Action)
		}
	}

	s.logger.Info("audit entry recorded",
		"action", entry.Action,
		"target_type", entry.TargetType,
		"target_id", entry.TargetID,
		"admin_id", entry.AdminID)
	return nil
}

// List returns matching entries newest-first. Read failures surface as
// ErrQueryFailed rather than an empty slice.
func (s *Service) List(ctx context.Context, filters Filters) ([]*Log, error) {
	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	logs, err := s.repo.List(filters)
	if err != nil {
		s.logger.Error("failed to query audit logs", "error", err)
		return nil, ErrQueryFailed
	}
	return logs, nil
}
