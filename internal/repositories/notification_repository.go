package repositories

import (
	"errors"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/pkg/apperrors"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations.
// Mutations are scoped by recipient: a caller acting on another user's
// notification changes nothing and gets NotFound.
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByRecipientID(recipientID string) ([]models.Notification, error)
	GetUnreadCount(recipientID string) (int64, error)
	MarkAsRead(notificationID uint, recipientID string) (*models.Notification, error)
	DeleteNotification(notificationID uint, recipientID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new NotificationRepository
// backed by PostgreSQL
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(recipientID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(notificationID uint, recipientID string) (*models.Notification, error) {
	var notification models.Notification
	// Ownership is part of the lookup; nothing is written before it holds.
	err := r.db.Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("notification")
		}
		return nil, apperrors.Internal(err)
	}

	notification.IsRead = true
	if err := r.db.Save(&notification).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &notification, nil
}

func (r *postgresNotificationRepository) DeleteNotification(notificationID uint, recipientID string) error {
	res := r.db.Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}
