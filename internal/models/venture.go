package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Venture statuses
const (
	VentureStatusOpen   = "open"
	VentureStatusClosed = "closed"
)

// Contribution statuses
const (
	ContributionStatusPending   = "pending"
	ContributionStatusConfirmed = "confirmed"
	ContributionStatusRejected  = "rejected"
)

// Venture is a community project members can contribute to
type Venture struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Venture) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VentureContribution is a member's pledge to a venture. Funds only move on
// admin confirmation, which debits the deposit bucket.
type VentureContribution struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	VentureID   uuid.UUID      `gorm:"type:uuid;index" json:"venture_id"`
	Venture     Venture        `gorm:"foreignKey:VentureID" json:"-"`
	UserID      uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Amount      float64        `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status      string         `gorm:"type:varchar(20);not null;index" json:"status"`
	ProcessedAt *time.Time     `json:"processed_at"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *VentureContribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
