package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// NotificationRepository stores operator and user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userUID string, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uint, userUID string) (models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs the notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return classifyStoreError(err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_uid = ?", userUID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint, userUID string) (models.Notification, error) {
	tx := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_uid = ?", id, userUID).
		Update("read", true)
	if tx.Error != nil {
		return models.Notification{}, classifyStoreError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return models.Notification{}, gorm.ErrRecordNotFound
	}

	var notification models.Notification
	if err := r.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return models.Notification{}, classifyStoreError(err)
	}
	return notification, nil
}
