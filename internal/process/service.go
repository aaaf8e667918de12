package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/regulariza/process-management/internal/audit"
	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/core/events"
)

// AuditRecorder is the slice of the audit service the process service
// needs. Failures are logged and swallowed: the primary mutation is never
// rolled back for a missing trail entry.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo     Repository
	auditor  AuditRecorder
	eventBus EventPublisher
	logger   *slog.Logger
}

func NewService(repo Repository, auditor AuditRecorder, eventBus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditor:  auditor,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateProcess allocates a process number and opens the case with its
// initial timeline. Number allocation happens through the store's atomic
// counter; when that fails the whole creation fails, there is no fallback
// numbering scheme.
func (s *Service) CreateProcess(ctx context.Context, actor *auth.User, dto CreateProcessDTO) (*Process, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("process validation failed", "error", err, "admin_id", actor.ID)
		return nil, err
	}

	number, err := s.repo.NextProcessNumber(time.Now())
	if err != nil {
		s.logger.Error("process number allocation failed", "error", err)
		return nil, ErrNumberUnavailable
	}

	now := time.Now()
	proc := &Process{
		ProcessNumber: number,
		Title:         dto.Title,
		ProcessType:   dto.ProcessType,
		ClientID:      dto.ClientID,
		Status:        StatusPendente,
		Progress:      0,
		Deadline:      dto.Deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	stepDTOs := dto.Steps
	if len(stepDTOs) == 0 {
		stepDTOs = TemplateSteps(dto.ProcessType)
	}

	steps := make([]*Step, len(stepDTOs))
	for i, stepDTO := range stepDTOs {
		steps[i] = &Step{
			Title:       stepDTO.Title,
			Description: stepDTO.Description,
			Position:    i + 1,
			Status:      StepStatusPendente,
			Deadline:    stepDTO.Deadline,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	if err := s.repo.Create(proc, steps); err != nil {
		s.logger.Error("failed to create process", "error", err, "process_number", number)
		return nil, err
	}
	proc.Steps = steps

	s.recordAudit(ctx, actor, "CREATE_PROCESS", proc, map[string]interface{}{
		"process_number": proc.ProcessNumber,
		"process_type":   proc.ProcessType,
		"client_id":      proc.ClientID,
	})

	s.logger.Info("process created",
		"process_id", proc.ID,
		"process_number", proc.ProcessNumber,
		"client_id", proc.ClientID,
		"admin_id", actor.ID)

	return proc, nil
}

// GetProcess returns the process with its timeline. Clients only see their
// own cases; any admin role can read everything.
func (s *Service) GetProcess(ctx context.Context, actor *auth.User, id int64) (*Process, error) {
	proc, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get process", "error", err, "process_id", id)
		return nil, ErrProcessNotFound
	}

	if !actor.IsAdminRole() && proc.ClientID != actor.ID {
		s.logger.Warn("unauthorized access to process", "process_id", id, "user_id", actor.ID)
		return nil, ErrProcessNotFound
	}

	steps, err := s.repo.GetSteps(id)
	if err != nil {
		s.logger.Error("failed to load process steps", "error", err, "process_id", id)
		return nil, err
	}
	proc.Steps = steps

	return proc, nil
}

// ListProcesses returns cases visible to the actor: clients are pinned to
// their own records, admins may filter by status.
func (s *Service) ListProcesses(ctx context.Context, actor *auth.User, status string, limit, offset int) ([]*Process, error) {
	if status != "" && !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	clientID := int64(0)
	if !actor.IsAdminRole() {
		clientID = actor.ID
	}

	procs, err := s.repo.List(status, clientID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list processes", "error", err, "status", status)
		return nil, err
	}
	return procs, nil
}

// UpdateStatus moves the case through its soft lifecycle. Processes are
// never hard-deleted in the normal flow.
func (s *Service) UpdateStatus(ctx context.Context, actor *auth.User, id int64, dto UpdateStatusDTO) (*Process, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	proc, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("process not found for status update", "error", err, "process_id", id)
		return nil, ErrProcessNotFound
	}

	progress := proc.Progress
	if dto.Progress != nil {
		progress = *dto.Progress
	}
	if dto.Status == StatusConcluido {
		progress = 100
	}

	if err := s.repo.UpdateStatus(id, dto.Status, progress); err != nil {
		s.logger.Error("failed to update process status", "error", err, "process_id", id)
		return nil, err
	}

	s.recordAudit(ctx, actor, "UPDATE_PROCESS", proc, map[string]interface{}{
		"from_status": proc.Status,
		"to_status":   dto.Status,
		"progress":    progress,
	})

	if dto.Status == StatusConcluido && proc.Status != StatusConcluido {
		s.publish(ctx, events.NewProcessCompletedEvent(proc.ID, proc.ProcessNumber, proc.ClientID, proc.Title))
	}

	proc.Status = dto.Status
	proc.Progress = progress
	return proc, nil
}

// AddStep appends a new stage to the end of the timeline.
func (s *Service) AddStep(ctx context.Context, actor *auth.User, processID int64, dto AddStepDTO) (*Step, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	proc, err := s.repo.GetByID(processID)
	if err != nil {
		return nil, ErrProcessNotFound
	}

	steps, err := s.repo.GetSteps(processID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	step := &Step{
		ProcessID:   processID,
		Title:       dto.Title,
		Description: dto.Description,
		Position:    len(steps) + 1,
		Status:      StepStatusPendente,
		Deadline:    dto.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.AddStep(step); err != nil {
		s.logger.Error("failed to add process step", "error", err, "process_id", processID)
		return nil, err
	}

	s.recordAudit(ctx, actor, "ADD_PROCESS_STEP", proc, map[string]interface{}{
		"step_title": step.Title,
		"position":   step.Position,
	})

	return step, nil
}

// CompleteStep marks a stage as done, recomputes progress and moves the
// case forward. Completing the last open stage concludes the process.
func (s *Service) CompleteStep(ctx context.Context, actor *auth.User, processID, stepID int64) (*Process, error) {
	proc, err := s.repo.GetByID(processID)
	if err != nil {
		return nil, ErrProcessNotFound
	}

	steps, err := s.repo.GetSteps(processID)
	if err != nil {
		return nil, err
	}

	var target *Step
	for _, st := range steps {
		if st.ID == stepID {
			target = st
			break
		}
	}
	if target == nil {
		return nil, ErrStepNotFound
	}
	if target.Status == StepStatusConcluido {
		return nil, ErrStepAlreadyDone
	}

	completedAt := time.Now()
	if err := s.repo.CompleteStep(stepID, completedAt); err != nil {
		s.logger.Error("failed to complete step", "error", err, "step_id", stepID)
		return nil, err
	}

	target.Status = StepStatusConcluido
	target.CompletedAt = &completedAt

	progress := ComputeProgress(steps)
	status := StatusEmAndamento
	if progress >= 100 {
		status = StatusConcluido
	}

	if err := s.repo.UpdateStatus(processID, status, progress); err != nil {
		s.logger.Error("failed to roll up step completion", "error", err, "process_id", processID)
		return nil, err
	}

	s.recordAudit(ctx, actor, "COMPLETE_PROCESS_STEP", proc, map[string]interface{}{
		"step_id":    stepID,
		"step_title": target.Title,
		"progress":   progress,
	})

	s.publish(ctx, events.NewStageCompletedEvent(proc.ID, proc.ProcessNumber, proc.ClientID, stepID, target.Title, progress))
	if status == StatusConcluido {
		s.publish(ctx, events.NewProcessCompletedEvent(proc.ID, proc.ProcessNumber, proc.ClientID, proc.Title))
	}

	proc.Status = status
	proc.Progress = progress
	proc.Steps = steps
	return proc, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *auth.User, action string, proc *Process, details map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	entry := audit.NewProcessEntry(actor.ID, action, proc.ID, proc.ProcessNumber, details)
	if err := s.auditor.Record(ctx, entry); err != nil {
		// best-effort: the mutation already committed
		s.logger.Error("audit record failed", "error", err, "action", action, "process_id", proc.ID)
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
