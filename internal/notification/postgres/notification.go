package postgres

import (
	notificationDatamodel "github.com/regulariza/process-management/internal/core/datamodel/notification"
	"github.com/regulariza/process-management/internal/notification"
	"gorm.io/gorm"
)

// NotificationRepository implements the notification.Repository interface using GORM
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *notification.Notification) error {
	row := notification.ToDataModel(n)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	n.ID = row.ID
	return nil
}

func (r *NotificationRepository) ListByRecipient(recipientID int64, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	query := r.db.Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []*notificationDatamodel.Notification
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*notification.Notification, len(rows))
	for i, row := range rows {
		items[i] = notification.FromDataModel(row)
	}
	return items, nil
}

func (r *NotificationRepository) UnreadCount(recipientID int64) (int64, error) {
	var count int64
	err := r.db.Model(&notificationDatamodel.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead scopes the update to the recipient so a user can never touch
// another user's notification, even with a guessed ID.
func (r *NotificationRepository) MarkRead(id, recipientID int64) error {
	result := r.db.Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(recipientID int64) error {
	return r.db.Model(&notificationDatamodel.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}
