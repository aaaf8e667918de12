package audit

import "time"

// AuditLog rows are append-only: no update or delete path exists anywhere
// in the codebase. Details holds a JSON document serialized by the service.
type AuditLog struct {
	ID         int64     `gorm:"primaryKey"`
	AdminID    int64     `gorm:"column:admin_id;not null;index"`
	Action     string    `gorm:"column:action;not null"`
	TargetType string    `gorm:"column:target_type;not null"`
	TargetID   *string   `gorm:"column:target_id"`
	TargetName *string   `gorm:"column:target_name"`
	Details    *string   `gorm:"column:details"`
	UserAgent  string    `gorm:"column:user_agent"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
