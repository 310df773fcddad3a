package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypeWelcome       = "welcome"
	NotificationTypeDeposit       = "deposit"
	NotificationTypeWithdrawal    = "withdrawal"
	NotificationTypeInvestment    = "investment"
	NotificationTypeReferralBonus = "referral_bonus"
	NotificationTypeVenture       = "venture"
)

// Notification is a per-user message created on lifecycle events.
// Only the read flag is ever mutated after creation.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Type      string         `gorm:"type:varchar(50);not null" json:"type"`
	Read      bool           `gorm:"default:false" json:"read"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
