package document

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/regulariza/process-management/internal/audit"
	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/core/events"
	"github.com/regulariza/process-management/internal/process"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ProcessReader resolves the owning case, mainly to find the client that
// receives review notifications.
type ProcessReader interface {
	GetByID(id int64) (*process.Process, error)
}

type Service struct {
	repo      Repository
	processes ProcessReader
	auditor   AuditRecorder
	eventBus  EventPublisher
	logger    *slog.Logger
}

func NewService(repo Repository, processes ProcessReader, auditor AuditRecorder, eventBus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		processes: processes,
		auditor:   auditor,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// AddRequirement creates a new pending slot in the chosen pool.
func (s *Service) AddRequirement(ctx context.Context, actor *auth.User, processID int64, dto AddRequirementDTO) (*Document, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.processes.GetByID(processID); err != nil {
		return nil, process.ErrProcessNotFound
	}

	now := time.Now()
	doc := &Document{
		ProcessID:   processID,
		Name:        dto.Name,
		Description: dto.Description,
		Pool:        dto.Pool,
		Required:    dto.Required,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(doc); err != nil {
		s.logger.Error("failed to add document requirement", "error", err, "process_id", processID)
		return nil, err
	}

	s.recordAudit(ctx, actor, "ADD_DOCUMENT_REQUIREMENT", doc, map[string]interface{}{
		"name":     doc.Name,
		"pool":     doc.Pool,
		"required": doc.Required,
	})

	s.logger.Info("document requirement added",
		"document_id", doc.ID,
		"process_id", processID,
		"pool", doc.Pool)

	return doc, nil
}

// Upload attaches a file to a pending or rejected slot and moves it to
// uploaded. Feedback from a prior rejection cycle is cleared so the slot
// starts the new cycle clean. Upload audits but does not notify.
func (s *Service) Upload(ctx context.Context, actor *auth.User, documentID int64, dto UploadDTO) (*Document, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetByID(documentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}

	// Internal-pool slots stay invisible to clients, so a client actor
	// gets not-found there, same as for someone else's case.
	if !actor.IsAdminRole() {
		if doc.Pool == PoolInterno {
			return nil, ErrDocumentNotFound
		}
		proc, err := s.processes.GetByID(doc.ProcessID)
		if err != nil || proc.ClientID != actor.ID {
			return nil, ErrDocumentNotFound
		}
	}

	if !doc.CanUpload() {
		s.logger.Warn("upload rejected by document state",
			"document_id", documentID,
			"status", doc.Status)
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	doc.Status = StatusUploaded
	doc.FileURL = &dto.FileURL
	doc.FileName = &dto.FileName
	doc.UploadDate = &now
	doc.Feedback = nil
	doc.UpdatedAt = now

	if err := s.repo.Update(doc); err != nil {
		s.logger.Error("failed to store upload", "error", err, "document_id", documentID)
		return nil, err
	}

	s.recordAudit(ctx, actor, "UPLOAD_DOCUMENT", doc, map[string]interface{}{
		"file_name": dto.FileName,
	})

	s.publish(ctx, events.NewDocumentUploadedEvent(doc.ID, doc.Name, doc.ProcessID, actor.ID))

	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"process_id", doc.ProcessID,
		"file_name", dto.FileName)

	return doc, nil
}

// Review decides an uploaded document. Feedback travels verbatim with a
// rejection and is forbidden with an approval; the owner is notified
// through the event bus with a decision-specific template.
func (s *Service) Review(ctx context.Context, actor *auth.User, documentID int64, dto ReviewDTO) (*Document, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetByID(documentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}

	if !doc.CanReview() {
		s.logger.Warn("review rejected by document state",
			"document_id", documentID,
			"status", doc.Status)
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	if dto.Decision == DecisionApproved {
		doc.Status = StatusApproved
		doc.Feedback = nil
	} else {
		doc.Status = StatusRejected
		doc.Feedback = &dto.Feedback
	}
	doc.UpdatedAt = now

	if err := s.repo.Update(doc); err != nil {
		s.logger.Error("failed to store review", "error", err, "document_id", documentID)
		return nil, err
	}

	s.recordAudit(ctx, actor, "REVIEW_DOCUMENT", doc, map[string]interface{}{
		"decision": dto.Decision,
		"feedback": dto.Feedback,
	})

	ownerID := int64(0)
	if proc, err := s.processes.GetByID(doc.ProcessID); err == nil {
		ownerID = proc.ClientID
	} else {
		// notification is best-effort; the review itself already committed
		s.logger.Error("failed to resolve process owner for notification", "error", err, "process_id", doc.ProcessID)
	}
	if ownerID > 0 {
		s.publish(ctx, events.NewDocumentReviewedEvent(doc.ID, doc.Name, doc.ProcessID, ownerID, dto.Decision, dto.Feedback))
	}

	s.logger.Info("document reviewed",
		"document_id", doc.ID,
		"decision", dto.Decision,
		"admin_id", actor.ID)

	return doc, nil
}

// Remove discards the file reference and resets the slot to pending.
// The prior file is not restorable without a new upload.
func (s *Service) Remove(ctx context.Context, actor *auth.User, documentID int64) (*Document, error) {
	doc, err := s.repo.GetByID(documentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}

	removedFile := ""
	if doc.FileName != nil {
		removedFile = *doc.FileName
	}

	doc.Status = StatusPending
	doc.FileURL = nil
	doc.FileName = nil
	doc.UploadDate = nil
	doc.Feedback = nil
	doc.UpdatedAt = time.Now()

	if err := s.repo.Update(doc); err != nil {
		s.logger.Error("failed to remove document file", "error", err, "document_id", documentID)
		return nil, err
	}

	s.recordAudit(ctx, actor, "REMOVE_DOCUMENT_FILE", doc, map[string]interface{}{
		"removed_file": removedFile,
	})

	return doc, nil
}

// ListByProcess returns the documents of one pool, or both when pool is
// empty. Clients only see their own case and never the internal pool.
func (s *Service) ListByProcess(ctx context.Context, actor *auth.User, processID int64, pool string) ([]*Document, error) {
	if pool != "" && pool != PoolCliente && pool != PoolInterno {
		return nil, ErrInvalidPool
	}

	if !actor.IsAdminRole() {
		proc, err := s.processes.GetByID(processID)
		if err != nil || proc.ClientID != actor.ID {
			return nil, process.ErrProcessNotFound
		}
		pool = PoolCliente
	}

	docs, err := s.repo.ListByProcess(processID, pool)
	if err != nil {
		s.logger.Error("failed to list documents", "error", err, "process_id", processID)
		return nil, err
	}
	return docs, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *auth.User, action string, doc *Document, details map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["type"] = "document"
	details["document_id"] = doc.ID
	entry := audit.Entry{
		AdminID:    actor.ID,
		Action:     action,
		TargetType: audit.TargetTypeProcess,
		TargetID:   strconv.FormatInt(doc.ProcessID, 10),
		TargetName: doc.Name,
		Details:    details,
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", "error", err, "action", action, "document_id", doc.ID)
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("event publish failed", "error", err, "event_type", event.EventType())
	}
}
