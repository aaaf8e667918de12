package audit

import (
	"errors"
	"strconv"
	"time"
)

const (
	TargetTypeUser    = "user"
	TargetTypeProcess = "process"
	TargetTypeClient  = "client"
	TargetTypeSystem  = "system"
)

// Entry is the write-side shape. Once recorded, entries are immutable:
// the repository exposes no update or delete and any correction is a new
// entry.
type Entry struct {
	AdminID    int64
	Action     string
	TargetType string
	TargetID   string
	TargetName string
	Details    map[string]interface{}
}

// Log is the read-side shape with the actor name joined in.
type Log struct {
	ID         int64                  `json:"id"`
	AdminID    int64                  `json:"admin_id"`
	AdminName  string                 `json:"admin_name"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id,omitempty"`
	TargetName string                 `json:"target_name,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Filters narrows the read path. Action matches as a substring.
type Filters struct {
	Action     string
	TargetType string
	AdminID    int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type Repository interface {
	Create(entry Entry, userAgent string) error
	List(filters Filters) ([]*Log, error)
}

var (
	ErrInvalidEntry = errors.New("audit entry missing action or target type")
	// ErrQueryFailed distinguishes a failed read from an empty result so
	// callers never mistake an outage for "no matching logs".
	ErrQueryFailed = errors.New("audit log query failed")
)

func (e Entry) Validate() error {
	if e.Action == "" || e.TargetType == "" {
		return ErrInvalidEntry
	}
	switch e.TargetType {
	case TargetTypeUser, TargetTypeProcess, TargetTypeClient, TargetTypeSystem:
		return nil
	}
	return ErrInvalidEntry
}

func NewProcessEntry(adminID int64, action string, processID int64, processNumber string, details map[string]interface{}) Entry {
	return Entry{
		AdminID:    adminID,
		Action:     action,
		TargetType: TargetTypeProcess,
		TargetID:   strconv.FormatInt(processID, 10),
		TargetName: processNumber,
		Details:    details,
	}
}

func NewUserEntry(adminID int64, action string, userID int64, userName string, details map[string]interface{}) Entry {
	return Entry{
		AdminID:    adminID,
		Action:     action,
		TargetType: TargetTypeUser,
		TargetID:   strconv.FormatInt(userID, 10),
		TargetName: userName,
		Details:    details,
	}
}

func NewSystemEntry(adminID int64, action string, details map[string]interface{}) Entry {
	return Entry{
		AdminID:    adminID,
		Action:     action,
		TargetType: TargetTypeSystem,
		Details:    details,
	}
}
