package notification

import (
	"errors"
	"time"

	notificationDatamodel "github.com/regulariza/process-management/internal/core/datamodel/notification"
)

// Notification is an in-app message addressed to a single recipient.
// Rows are created by the dispatcher and only ever flip is_read afterwards.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	ProcessID   *int64    `json:"process_id,omitempty"`
	Link        string    `json:"link,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	TypeSystem           = "system"
	TypeDocumentApproved = "document_approved"
	TypeDocumentRejected = "document_rejected"
	TypeStageCompleted   = "stage_completed"
	TypeProcessCompleted = "process_completed"
	TypeDeadlineReminder = "deadline_reminder"
)

type Repository interface {
	Create(n *Notification) error
	ListByRecipient(recipientID int64, unreadOnly bool, limit, offset int) ([]*Notification, error)
	UnreadCount(recipientID int64) (int64, error)
	MarkRead(id, recipientID int64) error
	MarkAllRead(recipientID int64) error
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidRecipient     = errors.New("recipient is required")
)

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.Type,
		ProcessID:   n.ProcessID,
		Link:        n.Link,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.Type,
		ProcessID:   n.ProcessID,
		Link:        n.Link,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}
