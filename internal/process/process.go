package process

import (
	"errors"
	"time"

	processDatamodel "github.com/regulariza/process-management/internal/core/datamodel/process"
)

type Process struct {
	ID            int64      `json:"id"`
	ProcessNumber string     `json:"process_number"`
	Title         string     `json:"title"`
	ProcessType   string     `json:"process_type"`
	ClientID      int64      `json:"client_id"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Steps         []*Step    `json:"steps,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Step struct {
	ID          int64      `json:"id"`
	ProcessID   int64      `json:"process_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Position    int        `json:"position"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	StatusPendente    = "pendente"
	StatusEmAndamento = "em_andamento"
	StatusConcluido   = "concluido"
	StatusRejeitado   = "rejeitado"
)

const (
	StepStatusPendente    = "pendente"
	StepStatusEmAndamento = "em_andamento"
	StepStatusConcluido   = "concluido"
)

// NormalizeStepStatus maps the English aliases accepted on input onto the
// canonical Portuguese values stored in the database.
func NormalizeStepStatus(s string) (string, bool) {
	switch s {
	case StepStatusPendente, "pending":
		return StepStatusPendente, true
	case StepStatusEmAndamento, "in_progress":
		return StepStatusEmAndamento, true
	case StepStatusConcluido, "completed":
		return StepStatusConcluido, true
	}
	return "", false
}

func IsValidStatus(s string) bool {
	switch s {
	case StatusPendente, StatusEmAndamento, StatusConcluido, StatusRejeitado:
		return true
	}
	return false
}

// ComputeProgress derives the process progress from its completed steps,
// clamped to 0-100.
func ComputeProgress(steps []*Step) int {
	if len(steps) == 0 {
		return 0
	}
	completed := 0
	for _, s := range steps {
		if s.Status == StepStatusConcluido {
			completed++
		}
	}
	progress := completed * 100 / len(steps)
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

type Repository interface {
	Create(proc *Process, steps []*Step) error
	GetByID(id int64) (*Process, error)
	GetSteps(processID int64) ([]*Step, error)
	List(status string, clientID int64, limit, offset int) ([]*Process, error)
	UpdateStatus(id int64, status string, progress int) error
	AddStep(step *Step) error
	CompleteStep(stepID int64, completedAt time.Time) error
	NextProcessNumber(now time.Time) (string, error)
	ListApproachingDeadline(before time.Time) ([]*Process, error)
}

var (
	ErrProcessNotFound   = errors.New("process not found")
	ErrStepNotFound      = errors.New("process step not found")
	ErrInvalidStatus     = errors.New("invalid process status for this operation")
	ErrStepAlreadyDone   = errors.New("process step already completed")
	ErrNumberUnavailable = errors.New("process number allocation unavailable")
)

func ToDataModel(p *Process) *processDatamodel.Process {
	return &processDatamodel.Process{
		ID:            p.ID,
		ProcessNumber: p.ProcessNumber,
		Title:         p.Title,
		ProcessType:   p.ProcessType,
		ClientID:      p.ClientID,
		Status:        p.Status,
		Progress:      p.Progress,
		Deadline:      p.Deadline,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func FromDataModel(p *processDatamodel.Process) *Process {
	return &Process{
		ID:            p.ID,
		ProcessNumber: p.ProcessNumber,
		Title:         p.Title,
		ProcessType:   p.ProcessType,
		ClientID:      p.ClientID,
		Status:        p.Status,
		Progress:      p.Progress,
		Deadline:      p.Deadline,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func StepToDataModel(s *Step) *processDatamodel.ProcessStep {
	return &processDatamodel.ProcessStep{
		ID:          s.ID,
		ProcessID:   s.ProcessID,
		Title:       s.Title,
		Description: s.Description,
		Position:    s.Position,
		Status:      s.Status,
		Deadline:    s.Deadline,
		CompletedAt: s.CompletedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func StepFromDataModel(s *processDatamodel.ProcessStep) *Step {
	return &Step{
		ID:          s.ID,
		ProcessID:   s.ProcessID,
		Title:       s.Title,
		Description: s.Description,
		Position:    s.Position,
		Status:      s.Status,
		Deadline:    s.Deadline,
		CompletedAt: s.CompletedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
