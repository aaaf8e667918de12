package reporting

import (
	"errors"
	"time"
)

// ProcessMetrics summarizes the current state of the case portfolio.
type ProcessMetrics struct {
	Total                 int64            `json:"total"`
	ByStatus              map[string]int64 `json:"by_status"`
	AverageCompletionDays float64          `json:"average_completion_days"`
	CreatedThisWeek       int64            `json:"created_this_week"`
	CreatedThisMonth      int64            `json:"created_this_month"`
}

// ExportRow is one line of the CSV/XLSX export, joined with client data.
type ExportRow struct {
	ProcessNumber string
	Title         string
	ProcessType   string
	ClientName    string
	Status        string
	Progress      int
	Deadline      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	CountTotal() (int64, error)
	CountByStatus() (map[string]int64, error)
	AverageCompletionDays() (float64, error)
	CountCreatedSince(since time.Time) (int64, error)
	ExportRows() ([]*ExportRow, error)
}

var ErrExportFailed = errors.New("export query failed")
