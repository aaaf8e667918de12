package postgres

import (
	documentDatamodel "github.com/regulariza/process-management/internal/core/datamodel/document"
	"github.com/regulariza/process-management/internal/document"
	"gorm.io/gorm"
)

// DocumentRepository implements the document.Repository interface using GORM
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) document.Repository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *document.Document) error {
	row := document.ToDataModel(doc)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	doc.ID = row.ID
	return nil
}

func (r *DocumentRepository) GetByID(id int64) (*document.Document, error) {
	var row documentDatamodel.Document
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, document.ErrDocumentNotFound
		}
		return nil, err
	}
	return document.FromDataModel(&row), nil
}

func (r *DocumentRepository) ListByProcess(processID int64, pool string) ([]*document.Document, error) {
	query := r.db.Where("process_id = ?", processID)
	if pool != "" {
		query = query.Where("pool = ?", pool)
	}

	var rows []*documentDatamodel.Document
	err := query.Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	docs := make([]*document.Document, len(rows))
	for i, row := range rows {
		docs[i] = document.FromDataModel(row)
	}
	return docs, nil
}

func (r *DocumentRepository) Update(doc *document.Document) error {
	row := document.ToDataModel(doc)
	result := r.db.Model(&documentDatamodel.Document{}).
		Where("id = ?", doc.ID).
		Updates(map[string]interface{}{
			"status":      row.Status,
			"file_url":    row.FileURL,
			"file_name":   row.FileName,
			"upload_date": row.UploadDate,
			"feedback":    row.Feedback,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}
