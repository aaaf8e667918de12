package document

import "errors"

// AddRequirementDTO appends a new document slot to one of the two pools.
type AddRequirementDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Pool        string `json:"pool"`
}

func (dto AddRequirementDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Pool != PoolCliente && dto.Pool != PoolInterno {
		return ErrInvalidPool
	}
	return nil
}

type UploadDTO struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
}

func (dto UploadDTO) Validate() error {
	if dto.FileURL == "" {
		return ErrMissingFile
	}
	if dto.FileName == "" {
		return errors.New("file_name is required")
	}
	return nil
}

type ReviewDTO struct {
	Decision string `json:"decision"`
	Feedback string `json:"feedback,omitempty"`
}

func (dto ReviewDTO) Validate() error {
	if dto.Decision != DecisionApproved && dto.Decision != DecisionRejected {
		return errors.New("decision must be either 'approved' or 'rejected'")
	}
	if dto.Decision == DecisionRejected && dto.Feedback == "" {
		return ErrMissingFeedback
	}
	if dto.Decision == DecisionApproved && dto.Feedback != "" {
		return ErrFeedbackNotAllowed
	}
	return nil
}
