package process

import (
	"errors"
	"time"
)

// CreateProcessDTO is the admin-facing payload for opening a new case.
// Steps are optional; when present they become the initial timeline.
type CreateProcessDTO struct {
	Title       string          `json:"title"`
	ProcessType string          `json:"process_type"`
	ClientID    int64           `json:"client_id"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	Steps       []CreateStepDTO `json:"steps,omitempty"`
}

type CreateStepDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

func (dto CreateProcessDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if dto.ProcessType == "" {
		return errors.New("process_type is required")
	}
	if dto.ClientID <= 0 {
		return errors.New("client_id is required")
	}
	for _, s := range dto.Steps {
		if s.Title == "" {
			return errors.New("step title is required")
		}
	}
	return nil
}

type UpdateStatusDTO struct {
	Status   string `json:"status"`
	Progress *int   `json:"progress,omitempty"`
}

func (dto UpdateStatusDTO) Validate() error {
	if dto.Status == "" {
		return errors.New("status is required")
	}
	if !IsValidStatus(dto.Status) {
		return errors.New("status must be one of pendente, em_andamento, concluido, rejeitado")
	}
	if dto.Progress != nil && (*dto.Progress < 0 || *dto.Progress > 100) {
		return errors.New("progress must be between 0 and 100")
	}
	return nil
}

type AddStepDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

func (dto AddStepDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	return nil
}
