package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a platform member
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name             string         `gorm:"type:varchar(100);not null" json:"name"`
	Email            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PhoneNumber      *string        `gorm:"type:varchar(20)" json:"phone_number"`
	PasswordHash     string         `gorm:"type:varchar(255);not null" json:"-"`
	ReferralCode     string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferredBy       *string        `gorm:"type:varchar(20);index" json:"referred_by"` // another user's referral code
	EmailVerified    bool           `gorm:"default:false" json:"email_verified"`
	AccountLocked    bool           `gorm:"default:false" json:"account_locked"`
	IsAdmin          bool           `gorm:"default:false" json:"is_admin"`
	CanDeposit       bool           `gorm:"default:true" json:"can_deposit"`
	CanWithdraw      bool           `gorm:"default:true" json:"can_withdraw"`
	CanTrade         bool           `gorm:"default:true" json:"can_trade"`
	TwoFactorSecret  string         `gorm:"type:varchar(64)" json:"-"`
	TwoFactorEnabled bool           `gorm:"default:false" json:"two_factor_enabled"`
	LastLoginAt      *time.Time     `json:"last_login_at"`
	CreatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when none was set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// EmailVerificationToken is a one-time token mailed to a user after signup
type EmailVerificationToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	Token     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (t *EmailVerificationToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
