package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Investment statuses
const (
	InvestmentStatusActive    = "active"
	InvestmentStatusCompleted = "completed"
	InvestmentStatusWithdrawn = "withdrawn"
)

// Plan is an investment product offered to members
type Plan struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	Slug         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Percent      float64        `gorm:"type:decimal(10,2);not null" json:"percent"` // total profit as % of principal
	DurationDays int            `gorm:"not null" json:"duration_days"`
	MinAmount    float64        `gorm:"type:decimal(20,2);not null" json:"min_amount"`
	MaxAmount    float64        `gorm:"type:decimal(20,2);default:0" json:"max_amount"` // 0 means no cap
	Active       bool           `gorm:"default:true" json:"active"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Investment is a member's stake in a plan.
//
// Profit accrues daily between StartTime and MaturityTime. LastProfitCalc is
// the accrual checkpoint: crediting always advances it by the number of whole
// days paid out, so re-running the accrual never double-credits.
type Investment struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User           User           `gorm:"foreignKey:UserID" json:"-"`
	PlanID         uuid.UUID      `gorm:"type:uuid;index" json:"plan_id"`
	Plan           Plan           `gorm:"foreignKey:PlanID" json:"-"`
	PlanName       string         `gorm:"type:varchar(100)" json:"plan_name"`
	Amount         float64        `gorm:"type:decimal(20,2);not null" json:"amount"`
	Profit         float64        `gorm:"type:decimal(20,2);not null" json:"profit"`       // total profit at maturity
	DailyProfit    float64        `gorm:"type:decimal(20,8);not null" json:"daily_profit"` // profit / duration days
	TotalPayout    float64        `gorm:"type:decimal(20,2);not null" json:"total_payout"` // amount + profit
	AccruedProfit  float64        `gorm:"type:decimal(20,2);default:0" json:"accrued_profit"`
	StartTime      time.Time      `gorm:"not null" json:"start_time"`
	MaturityTime   time.Time      `gorm:"not null;index" json:"maturity_time"`
	LastProfitCalc time.Time      `gorm:"not null" json:"last_profit_calc"`
	Status         string         `gorm:"type:varchar(20);not null;index" json:"status"`
	CompletedAt    *time.Time     `json:"completed_at"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
