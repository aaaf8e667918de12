package notification

import "time"

type Notification struct {
	ID          int64     `gorm:"primaryKey"`
	RecipientID int64     `gorm:"column:recipient_id;not null;index"`
	Title       string    `gorm:"column:title;not null"`
	Message     string    `gorm:"column:message;not null"`
	Type        string    `gorm:"column:type;default:system"`
	ProcessID   *int64    `gorm:"column:process_id"`
	Link        string    `gorm:"column:link"`
	IsRead      bool      `gorm:"column:is_read;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
