package postgres

import (
	"time"

	processDatamodel "github.com/regulariza/process-management/internal/core/datamodel/process"
	"github.com/regulariza/process-management/internal/reporting"
	"gorm.io/gorm"
)

// ReportingRepository answers the aggregate queries behind metrics and
// exports. It reads the same tables as the process repository but never
// writes.
type ReportingRepository struct {
	db *gorm.DB
}

func NewReportingRepository(db *gorm.DB) reporting.Repository {
	return &ReportingRepository{db: db}
}

func (r *ReportingRepository) CountTotal() (int64, error) {
	var count int64
	err := r.db.Model(&processDatamodel.Process{}).Count(&count).Error
	return count, err
}

func (r *ReportingRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&processDatamodel.Process{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row.Count
	}
	return byStatus, nil
}

// AverageCompletionDays averages created→updated for concluded cases.
// Returns 0 when nothing has concluded yet.
func (r *ReportingRepository) AverageCompletionDays() (float64, error) {
	var avg *float64
	err := r.db.Model(&processDatamodel.Process{}).
		Select("AVG(EXTRACT(EPOCH FROM (updated_at - created_at)) / 86400.0)").
		Where("status = ?", "concluido").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *ReportingRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&processDatamodel.Process{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *ReportingRepository) ExportRows() ([]*reporting.ExportRow, error) {
	var rows []*reporting.ExportRow
	err := r.db.Model(&processDatamodel.Process{}).
		Select(`processes.process_number,
			processes.title,
			processes.process_type,
			users.name AS client_name,
			processes.status,
			processes.progress,
			processes.deadline,
			processes.created_at,
			processes.updated_at`).
		Joins("LEFT JOIN users ON users.id = processes.client_id").
		Order("processes.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
