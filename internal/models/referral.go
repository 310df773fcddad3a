package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralBonus records a single bonus credited to a referrer for one
// qualifying deposit. The (referrer, deposit request) pair is unique so a
// re-processed approval can never pay twice.
type ReferralBonus struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID       uuid.UUID      `gorm:"type:uuid;index;uniqueIndex:idx_referral_bonus_dedupe" json:"referrer_id"`
	Referrer         User           `gorm:"foreignKey:ReferrerID" json:"-"`
	ReferredUserID   uuid.UUID      `gorm:"type:uuid;index" json:"referred_user_id"`
	ReferredUser     User           `gorm:"foreignKey:ReferredUserID" json:"-"`
	DepositRequestID uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_referral_bonus_dedupe" json:"deposit_request_id"`
	DepositAmount    float64        `gorm:"type:decimal(20,2);not null" json:"deposit_amount"`
	BonusAmount      float64        `gorm:"type:decimal(20,2);not null" json:"bonus_amount"`
	Status           string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CompletedAt      *time.Time     `json:"completed_at"`
	CreatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *ReferralBonus) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
