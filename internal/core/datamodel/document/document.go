package document

import "time"

type Document struct {
	ID          int64      `gorm:"primaryKey"`
	ProcessID   int64      `gorm:"column:process_id;not null;index"`
	Name        string     `gorm:"column:name;not null"`
	Description string     `gorm:"column:description"`
	Pool        string     `gorm:"column:pool;default:cliente"`
	Required    bool       `gorm:"column:required;default:false"`
	Status      string     `gorm:"column:status;default:pending"`
	FileURL     *string    `gorm:"column:file_url"`
	FileName    *string    `gorm:"column:file_name"`
	UploadDate  *time.Time `gorm:"column:upload_date"`
	Feedback    *string    `gorm:"column:feedback"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Document) TableName() string {
	return "process_documents"
}
