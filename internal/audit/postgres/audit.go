package postgres

import (
	"encoding/json"
	"time"

	"github.com/regulariza/process-management/internal/audit"
	auditDatamodel "github.com/regulariza/process-management/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

// AuditRepository implements audit.Repository using GORM. There is
// deliberately no Update or Delete: the table is append-only.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(entry audit.Entry, userAgent string) error {
	row := &auditDatamodel.AuditLog{
		AdminID:    entry.AdminID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
	}
	if entry.TargetID != "" {
		row.TargetID = &entry.TargetID
	}
	if entry.TargetName != "" {
		row.TargetName = &entry.TargetName
	}
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		details := string(raw)
		row.Details = &details
	}
	return r.db.Create(row).Error
}

type logRow struct {
	auditDatamodel.AuditLog
	AdminName string
}

func (r *AuditRepository) List(filters audit.Filters) ([]*audit.Log, error) {
	query := r.db.Model(&auditDatamodel.AuditLog{}).
		Select("audit_logs.*, users.name AS admin_name").
		Joins("LEFT JOIN users ON users.id = audit_logs.admin_id")

	if filters.Action != "" {
		query = query.Where("audit_logs.action LIKE ?", "%"+filters.Action+"%")
	}
	if filters.TargetType != "" {
		query = query.Where("audit_logs.target_type = ?", filters.TargetType)
	}
	if filters.AdminID > 0 {
		query = query.Where("audit_logs.admin_id = ?", filters.AdminID)
	}
	if filters.From != nil {
		query = query.Where("audit_logs.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("audit_logs.created_at <= ?", *filters.To)
	}

	var rows []logRow
	err := query.
		Order("audit_logs.created_at DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	logs := make([]*audit.Log, len(rows))
	for i, row := range rows {
		logs[i] = toLog(row)
	}
	return logs, nil
}

func toLog(row logRow) *audit.Log {
	log := &audit.Log{
		ID:         row.ID,
		AdminID:    row.AdminID,
		AdminName:  row.AdminName,
		Action:     row.Action,
		TargetType: row.TargetType,
		UserAgent:  row.UserAgent,
		CreatedAt:  row.CreatedAt,
	}
	if row.TargetID != nil {
		log.TargetID = *row.TargetID
	}
	if row.TargetName != nil {
		log.TargetName = *row.TargetName
	}
	if row.Details != nil && *row.Details != "" {
		var details map[string]interface{}
		if err := json.Unmarshal([]byte(*row.Details), &details); err == nil {
			log.Details = details
		}
	}
	return log
}
