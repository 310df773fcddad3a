package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bucket names a wallet sub-balance
type Bucket string

const (
	BucketDeposit  Bucket = "deposit"
	BucketEarnings Bucket = "earnings"
	BucketReferral Bucket = "referral"
)

// Transaction types recorded against a wallet
const (
	TxTypeDeposit             = "deposit"
	TxTypeWithdrawal          = "withdrawal"
	TxTypeInvestment          = "investment"
	TxTypePayout              = "payout"
	TxTypeProfit              = "profit"
	TxTypeReferralBonus       = "referral_bonus"
	TxTypeVentureContribution = "venture_contribution"
	TxTypeRefund              = "refund"
)

// Transaction statuses
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusRejected  = "rejected"
)

// Wallet holds the three per-user sub-balances
type Wallet struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Deposit   float64        `gorm:"type:decimal(20,2);default:0" json:"deposit"`
	Earnings  float64        `gorm:"type:decimal(20,2);default:0" json:"earnings"`
	Referral  float64        `gorm:"type:decimal(20,2);default:0" json:"referral"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Balance returns the value of a single bucket
func (w *Wallet) Balance(bucket Bucket) float64 {
	switch bucket {
	case BucketDeposit:
		return w.Deposit
	case BucketEarnings:
		return w.Earnings
	case BucketReferral:
		return w.Referral
	}
	return 0
}

// SetBalance sets the value of a single bucket
func (w *Wallet) SetBalance(bucket Bucket, value float64) {
	switch bucket {
	case BucketDeposit:
		w.Deposit = value
	case BucketEarnings:
		w.Earnings = value
	case BucketReferral:
		w.Referral = value
	}
}

// Transaction is an append-only ledger entry. Rows are written once;
// only the status of a pending request entry is ever updated.
type Transaction struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"-"`
	Bucket        Bucket         `gorm:"type:varchar(20);not null" json:"bucket"`
	Type          string         `gorm:"type:varchar(50);not null" json:"type"`
	Amount        float64        `gorm:"type:decimal(20,2);not null" json:"amount"` // negative for debits
	Status        string         `gorm:"type:varchar(20);not null" json:"status"`
	Reference     string         `gorm:"type:varchar(100);index" json:"reference"`
	Description   string         `gorm:"type:text" json:"description"`
	MetaData      JSON           `gorm:"type:jsonb" json:"metadata"`
	BalanceBefore float64        `gorm:"type:decimal(20,2)" json:"balance_before"`
	BalanceAfter  float64        `gorm:"type:decimal(20,2)" json:"balance_after"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
