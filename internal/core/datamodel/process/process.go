package process

import "time"

type Process struct {
	ID            int64      `gorm:"primaryKey"`
	ProcessNumber string     `gorm:"column:process_number;uniqueIndex;not null"`
	Title         string     `gorm:"column:title;not null"`
	ProcessType   string     `gorm:"column:process_type;not null"`
	ClientID      int64      `gorm:"column:client_id;not null"`
	Status        string     `gorm:"column:status;default:pendente"`
	Progress      int        `gorm:"column:progress;default:0"`
	Deadline      *time.Time `gorm:"column:deadline;type:date"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Process) TableName() string {
	return "processes"
}

type ProcessStep struct {
	ID          int64      `gorm:"primaryKey"`
	ProcessID   int64      `gorm:"column:process_id;not null;index"`
	Title       string     `gorm:"column:title;not null"`
	Description string     `gorm:"column:description"`
	Position    int        `gorm:"column:position;not null"`
	Status      string     `gorm:"column:status;default:pendente"`
	Deadline    *time.Time `gorm:"column:deadline;type:date"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProcessStep) TableName() string {
	return "process_steps"
}

// ProcessCounter backs the per-month process number allocation. The counter
// column is only ever touched through an atomic upsert.
type ProcessCounter struct {
	Bucket    string    `gorm:"column:bucket;primaryKey"`
	Counter   int64     `gorm:"column:counter;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProcessCounter) TableName() string {
	return "process_counters"
}
