package notification

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zedfund/backend/internal/models"
	"gorm.io/gorm"
)

// Service creates and lists per-user notifications
type Service struct {
	db *gorm.DB
}

// NewService creates a new notification service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Notify creates a notification for a user
func (s *Service) Notify(userID uuid.UUID, notifType, message string) error {
	return s.NotifyTx(s.db, userID, notifType, message)
}

// NotifyTx creates a notification inside an existing transaction
func (s *Service) NotifyTx(tx *gorm.DB, userID uuid.UUID, notifType, message string) error {
	n := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Message: message,
	}
	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// List returns a user's notifications, newest first
func (s *Service) List(userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("error finding notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flips the read flag on a single notification
func (s *Service) MarkRead(userID, notificationID uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("error updating notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flips the read flag on every unread notification for a user
func (s *Service) MarkAllRead(userID uuid.UUID) error {
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error; err != nil {
		return fmt.Errorf("error updating notifications: %w", err)
	}
	return nil
}
