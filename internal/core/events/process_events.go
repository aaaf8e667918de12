package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeDocumentUploaded = "document.uploaded"
	EventTypeDocumentApproved = "document.approved"
	EventTypeDocumentRejected = "document.rejected"
	EventTypeStageCompleted   = "process.stage_completed"
	EventTypeProcessCompleted = "process.completed"
	EventTypeAdminAction      = "admin.action"
)

type DocumentReviewedEvent struct {
	BaseEvent
	DocumentID   int64  `json:"document_id"`
	DocumentName string `json:"document_name"`
	ProcessID    int64  `json:"process_id"`
	OwnerID      int64  `json:"owner_id"`
	Decision     string `json:"decision"`
	Feedback     string `json:"feedback,omitempty"`
}

func NewDocumentReviewedEvent(documentID int64, documentName string, processID, ownerID int64, decision, feedback string) *DocumentReviewedEvent {
	eventType := EventTypeDocumentApproved
	if decision == "rejected" {
		eventType = EventTypeDocumentRejected
	}
	return &DocumentReviewedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"document_id":   documentID,
				"document_name": documentName,
				"process_id":    processID,
				"owner_id":      ownerID,
				"decision":      decision,
				"feedback":      feedback,
			},
		},
		DocumentID:   documentID,
		DocumentName: documentName,
		ProcessID:    processID,
		OwnerID:      ownerID,
		Decision:     decision,
		Feedback:     feedback,
	}
}

type DocumentUploadedEvent struct {
	BaseEvent
	DocumentID   int64  `json:"document_id"`
	DocumentName string `json:"document_name"`
	ProcessID    int64  `json:"process_id"`
	UploaderID   int64  `json:"uploader_id"`
}

func NewDocumentUploadedEvent(documentID int64, documentName string, processID, uploaderID int64) *DocumentUploadedEvent {
	return &DocumentUploadedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDocumentUploaded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"document_id":   documentID,
				"document_name": documentName,
				"process_id":    processID,
				"uploader_id":   uploaderID,
			},
		},
		DocumentID:   documentID,
		DocumentName: documentName,
		ProcessID:    processID,
		UploaderID:   uploaderID,
	}
}

type StageCompletedEvent struct {
	BaseEvent
	ProcessID     int64  `json:"process_id"`
	ProcessNumber string `json:"process_number"`
	ClientID      int64  `json:"client_id"`
	StepID        int64  `json:"step_id"`
	StepTitle     string `json:"step_title"`
	Progress      int    `json:"progress"`
}

func NewStageCompletedEvent(processID int64, processNumber string, clientID, stepID int64, stepTitle string, progress int) *StageCompletedEvent {
	return &StageCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeStageCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"process_id":     processID,
				"process_number": processNumber,
				"client_id":      clientID,
				"step_id":        stepID,
				"step_title":     stepTitle,
				"progress":       progress,
			},
		},
		ProcessID:     processID,
		ProcessNumber: processNumber,
		ClientID:      clientID,
		StepID:        stepID,
		StepTitle:     stepTitle,
		Progress:      progress,
	}
}

type ProcessCompletedEvent struct {
	BaseEvent
	ProcessID     int64  `json:"process_id"`
	ProcessNumber string `json:"process_number"`
	ClientID      int64  `json:"client_id"`
	Title         string `json:"title"`
}

func NewProcessCompletedEvent(processID int64, processNumber string, clientID int64, title string) *ProcessCompletedEvent {
	return &ProcessCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeProcessCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"process_id":     processID,
				"process_number": processNumber,
				"client_id":      clientID,
				"title":          title,
			},
		},
		ProcessID:     processID,
		ProcessNumber: processNumber,
		ClientID:      clientID,
		Title:         title,
	}
}

type AdminActionEvent struct {
	BaseEvent
	AdminID    int64  `json:"admin_id"`
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id,omitempty"`
}

func NewAdminActionEvent(adminID int64, action, targetType, targetID string) *AdminActionEvent {
	return &AdminActionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAdminAction,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"admin_id":    adminID,
				"action":      action,
				"target_type": targetType,
				"target_id":   targetID,
			},
		},
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
}
