package document

import (
	"errors"
	"time"

	documentDatamodel "github.com/regulariza/process-management/internal/core/datamodel/document"
)

// Document lifecycle: pending -> uploaded -> approved | rejected. A
// rejected document goes back to uploaded on re-upload; approved is
// terminal for that submission cycle. Remove resets the slot to pending
// and discards the file reference.
type Document struct {
	ID          int64      `json:"id"`
	ProcessID   int64      `json:"process_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Pool        string     `json:"pool"`
	Required    bool       `json:"required"`
	Status      string     `json:"status"`
	FileURL     *string    `json:"file_url,omitempty"`
	FileName    *string    `json:"file_name,omitempty"`
	UploadDate  *time.Time `json:"upload_date,omitempty"`
	Feedback    *string    `json:"feedback,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	StatusPending  = "pending"
	StatusUploaded = "uploaded"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	PoolCliente = "cliente"
	PoolInterno = "interno"
)

const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

func (d *Document) CanUpload() bool {
	return d.Status == StatusPending || d.Status == StatusRejected
}

func (d *Document) CanReview() bool {
	return d.Status == StatusUploaded
}

type Repository interface {
	Create(doc *Document) error
	GetByID(id int64) (*Document, error)
	ListByProcess(processID int64, pool string) ([]*Document, error)
	Update(doc *Document) error
}

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidTransition  = errors.New("invalid document status for this operation")
	ErrMissingFile        = errors.New("file reference is required")
	ErrMissingFeedback    = errors.New("feedback is required when rejecting")
	ErrFeedbackNotAllowed = errors.New("feedback is only accepted with a rejection")
	ErrInvalidPool        = errors.New("pool must be cliente or interno")
)

func ToDataModel(d *Document) *documentDatamodel.Document {
	return &documentDatamodel.Document{
		ID:          d.ID,
		ProcessID:   d.ProcessID,
		Name:        d.Name,
		Description: d.Description,
		Pool:        d.Pool,
		Required:    d.Required,
		Status:      d.Status,
		FileURL:     d.FileURL,
		FileName:    d.FileName,
		UploadDate:  d.UploadDate,
		Feedback:    d.Feedback,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func FromDataModel(d *documentDatamodel.Document) *Document {
	return &Document{
		ID:          d.ID,
		ProcessID:   d.ProcessID,
		Name:        d.Name,
		Description: d.Description,
		Pool:        d.Pool,
		Required:    d.Required,
		Status:      d.Status,
		FileURL:     d.FileURL,
		FileName:    d.FileName,
		UploadDate:  d.UploadDate,
		Feedback:    d.Feedback,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
