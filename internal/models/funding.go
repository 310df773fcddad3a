package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request statuses shared by deposit and withdrawal requests
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// DepositRequest is a member's claim of an off-platform payment awaiting
// admin confirmation. The balance is only credited on approval.
type DepositRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Amount      float64        `gorm:"type:decimal(20,2);not null" json:"amount"`
	Method      string         `gorm:"type:varchar(50);not null" json:"method"` // airtel_money, mtn_momo
	SenderPhone string         `gorm:"type:varchar(20)" json:"sender_phone"`
	ProofURL    string         `gorm:"type:text" json:"proof_url"`
	Status      string         `gorm:"type:varchar(20);not null;index" json:"status"`
	Reference   string         `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	ProcessedAt *time.Time     `json:"processed_at"`
	ProcessedBy *uuid.UUID     `gorm:"type:uuid" json:"processed_by"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *DepositRequest) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// WithdrawalRequest holds earnings from the moment of submission. Rejection
// refunds the held amount; approval is a pure finalization.
type WithdrawalRequest struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"-"`
	Amount        float64        `gorm:"type:decimal(20,2);not null" json:"amount"`
	Method        string         `gorm:"type:varchar(50);not null" json:"method"`
	ReceiverPhone string         `gorm:"type:varchar(20);not null" json:"receiver_phone"`
	Status        string         `gorm:"type:varchar(20);not null;index" json:"status"`
	Reference     string         `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	ProcessedAt   *time.Time     `json:"processed_at"`
	ProcessedBy   *uuid.UUID     `gorm:"type:uuid" json:"processed_by"`
	FailureReason string         `gorm:"type:text" json:"failure_reason"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (w *WithdrawalRequest) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
