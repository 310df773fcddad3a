package investment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/notification"
	"github.com/zedfund/backend/internal/utils"
	"gorm.io/gorm"
)

// Early-exit payout tiers by elapsed fraction of the investment term.
// Below the lower bound the member forfeits 20% of the principal; between the
// bounds the principal is returned untouched; above the upper bound the
// member also keeps half the total profit.
const (
	earlyExitLowerBound  = 0.30
	earlyExitUpperBound  = 0.70
	earlyExitPenaltyRate = 0.80
	earlyExitProfitShare = 0.50
)

const day = 24 * time.Hour

// Service drives the investment lifecycle: create, daily accrual, maturity
// and early withdrawal.
type Service struct {
	db        *gorm.DB
	ledgerSvc *ledger.Service
	notifySvc *notification.Service
}

// NewService creates a new investment service
func NewService(db *gorm.DB, ledgerSvc *ledger.Service, notifySvc *notification.Service) *Service {
	return &Service{db: db, ledgerSvc: ledgerSvc, notifySvc: notifySvc}
}

// Invest stakes amount from the deposit bucket into a plan
func (s *Service) Invest(userID, planID uuid.UUID, amount float64) (*models.Investment, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if !user.CanTrade {
		return nil, ledger.ErrTradeDisabled
	}

	var plan models.Plan
	if err := s.db.Where("id = ? AND active = ?", planID, true).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding plan: %w", err)
	}

	if amount < plan.MinAmount {
		return nil, ledger.ErrInvalidAmount
	}
	if plan.MaxAmount > 0 && amount > plan.MaxAmount {
		return nil, ledger.ErrInvalidAmount
	}

	now := time.Now()
	profit := amount * plan.Percent / 100
	inv := models.Investment{
		UserID:         userID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		Amount:         amount,
		Profit:         profit,
		DailyProfit:    profit / float64(plan.DurationDays),
		TotalPayout:    amount + profit,
		StartTime:      now,
		MaturityTime:   now.Add(time.Duration(plan.DurationDays) * day),
		LastProfitCalc: now,
		Status:         models.InvestmentStatusActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		reference := utils.GenerateReference("INV")
		if _, err := s.ledgerSvc.DebitTx(tx, userID, models.BucketDeposit, amount, models.TxTypeInvestment, reference, fmt.Sprintf("Investment in %s", plan.Name), map[string]interface{}{
			"plan": plan.Slug,
		}); err != nil {
			return err
		}
		if err := tx.Create(&inv).Error; err != nil {
			return fmt.Errorf("error creating investment: %w", err)
		}
		return s.notifySvc.NotifyTx(tx, userID, models.NotificationTypeInvestment,
			fmt.Sprintf("Your investment of %.2f in %s is now active.", amount, plan.Name))
	})
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// Accrue credits daily profit accumulated since the last checkpoint.
//
// The checkpoint only ever advances by the number of whole days actually
// credited, so invoking this any number of times pays each day exactly once.
func (s *Service) Accrue(investmentID uuid.UUID) (float64, error) {
	var credited float64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.Investment
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&inv, "id = ?", investmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return fmt.Errorf("error finding investment: %w", err)
		}
		if inv.Status != models.InvestmentStatusActive {
			return ledger.ErrAlreadyProcessed
		}

		var err error
		credited, err = s.accrueLocked(tx, &inv, time.Now())
		return err
	})
	return credited, err
}

// accrueLocked performs the checkpointed accrual on a row already locked by tx
func (s *Service) accrueLocked(tx *gorm.DB, inv *models.Investment, now time.Time) (float64, error) {
	// Never accrue past maturity; the remainder is settled at maturity.
	cutoff := now
	if cutoff.After(inv.MaturityTime) {
		cutoff = inv.MaturityTime
	}

	days := int(cutoff.Sub(inv.LastProfitCalc) / day)
	if days < 1 {
		return 0, nil
	}

	amount := float64(days) * inv.DailyProfit
	if remaining := inv.Profit - inv.AccruedProfit; amount > remaining {
		amount = remaining
	}
	if amount <= 0 {
		return 0, nil
	}

	reference := utils.GenerateReference("PRF")
	if _, err := s.ledgerSvc.CreditTx(tx, inv.UserID, models.BucketEarnings, amount, models.TxTypeProfit, reference, fmt.Sprintf("Daily profit on %s", inv.PlanName), map[string]interface{}{
		"investment_id": inv.ID.String(),
		"days":          days,
	}); err != nil {
		return 0, err
	}

	inv.AccruedProfit += amount
	inv.LastProfitCalc = inv.LastProfitCalc.Add(time.Duration(days) * day)
	if err := tx.Model(inv).Updates(map[string]interface{}{
		"accrued_profit":   inv.AccruedProfit,
		"last_profit_calc": inv.LastProfitCalc,
	}).Error; err != nil {
		return 0, fmt.Errorf("error updating accrual checkpoint: %w", err)
	}

	return amount, nil
}

// Mature settles a matured investment: the principal plus any profit not yet
// accrued is credited to earnings exactly once and the investment completes.
func (s *Service) Mature(investmentID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.Investment
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&inv, "id = ?", investmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return fmt.Errorf("error finding investment: %w", err)
		}

		// Status is the double-credit guard: once completed, a repeat
		// invocation changes nothing.
		if inv.Status != models.InvestmentStatusActive {
			return ledger.ErrAlreadyProcessed
		}

		now := time.Now()
		if now.Before(inv.MaturityTime) {
			return ledger.ErrInvalidInput
		}

		// Settle any outstanding accrual first so the payout is always
		// principal + remaining profit regardless of accrual cadence.
		if _, err := s.accrueLocked(tx, &inv, now); err != nil {
			return err
		}

		payout := inv.Amount + (inv.Profit - inv.AccruedProfit)
		reference := utils.GenerateReference("PAY")
		if _, err := s.ledgerSvc.CreditTx(tx, inv.UserID, models.BucketEarnings, payout, models.TxTypePayout, reference, fmt.Sprintf("Matured investment in %s", inv.PlanName), map[string]interface{}{
			"investment_id": inv.ID.String(),
		}); err != nil {
			return err
		}

		if err := tx.Model(&inv).Updates(map[string]interface{}{
			"status":         models.InvestmentStatusCompleted,
			"accrued_profit": inv.Profit,
			"completed_at":   now,
		}).Error; err != nil {
			return fmt.Errorf("error completing investment: %w", err)
		}

		return s.notifySvc.NotifyTx(tx, inv.UserID, models.NotificationTypeInvestment,
			fmt.Sprintf("Your investment in %s has matured. %.2f credited to earnings.", inv.PlanName, payout))
	})
}

// WithdrawEarly exits an active investment before maturity under the tiered
// penalty schedule. The payout goes back to the deposit bucket.
func (s *Service) WithdrawEarly(userID, investmentID uuid.UUID) (float64, error) {
	var payout float64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.Investment
		if err := tx.Set("gorm:query_option", "FOR UPDATE").Where("id = ? AND user_id = ?", investmentID, userID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return fmt.Errorf("error finding investment: %w", err)
		}
		if inv.Status != models.InvestmentStatusActive {
			return ledger.ErrAlreadyProcessed
		}

		now := time.Now()
		payout = EarlyExitPayout(inv.StartTime, inv.MaturityTime, inv.Amount, inv.Profit, now)

		reference := utils.GenerateReference("EXT")
		if _, err := s.ledgerSvc.CreditTx(tx, userID, models.BucketDeposit, payout, models.TxTypePayout, reference, fmt.Sprintf("Early exit from %s", inv.PlanName), map[string]interface{}{
			"investment_id": inv.ID.String(),
		}); err != nil {
			return err
		}

		if err := tx.Model(&inv).Updates(map[string]interface{}{
			"status":       models.InvestmentStatusWithdrawn,
			"completed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("error updating investment: %w", err)
		}

		return s.notifySvc.NotifyTx(tx, userID, models.NotificationTypeInvestment,
			fmt.Sprintf("You exited %s early. %.2f returned to your deposit wallet.", inv.PlanName, payout))
	})
	if err != nil {
		return 0, err
	}
	return payout, nil
}

// EarlyExitPayout computes the early-exit amount as a deterministic function
// of the elapsed fraction of the term.
func EarlyExitPayout(start, maturity time.Time, principal, profit float64, now time.Time) float64 {
	term := maturity.Sub(start)
	if term <= 0 {
		return principal
	}
	elapsed := float64(now.Sub(start)) / float64(term)

	switch {
	case elapsed < earlyExitLowerBound:
		return principal * earlyExitPenaltyRate
	case elapsed <= earlyExitUpperBound:
		return principal
	default:
		return principal + profit*earlyExitProfitShare
	}
}

// RunAccrual processes every active investment: credits pending daily profit
// and settles any that have reached maturity. It is safe to run repeatedly.
func (s *Service) RunAccrual() (accrued, matured int, err error) {
	var due []models.Investment
	if err := s.db.Where("status = ?", models.InvestmentStatusActive).Find(&due).Error; err != nil {
		return 0, 0, fmt.Errorf("error listing active investments: %w", err)
	}

	now := time.Now()
	for i := range due {
		inv := due[i]
		if !now.Before(inv.MaturityTime) {
			if mErr := s.Mature(inv.ID); mErr != nil {
				// A concurrent run may have settled it already.
				if errors.Is(mErr, ledger.ErrAlreadyProcessed) {
					continue
				}
				return accrued, matured, mErr
			}
			matured++
			continue
		}

		credited, aErr := s.Accrue(inv.ID)
		if aErr != nil {
			if errors.Is(aErr, ledger.ErrAlreadyProcessed) {
				continue
			}
			return accrued, matured, aErr
		}
		if credited > 0 {
			accrued++
		}
	}

	return accrued, matured, nil
}

// List returns a user's investments, newest first
func (s *Service) List(userID uuid.UUID) ([]models.Investment, error) {
	var investments []models.Investment
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("error finding investments: %w", err)
	}
	return investments, nil
}

// Get returns a single investment owned by the user
func (s *Service) Get(userID, investmentID uuid.UUID) (*models.Investment, error) {
	var inv models.Investment
	if err := s.db.Where("id = ? AND user_id = ?", investmentID, userID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding investment: %w", err)
	}
	return &inv, nil
}

// Plans lists the active investment plans
func (s *Service) Plans() ([]models.Plan, error) {
	var plans []models.Plan
	if err := s.db.Where("active = ?", true).Order("min_amount ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("error finding plans: %w", err)
	}
	return plans, nil
}

// CreatePlan adds a new plan to the catalog
func (s *Service) CreatePlan(name string, percent float64, durationDays int, minAmount, maxAmount float64) (*models.Plan, error) {
	if name == "" || percent <= 0 || durationDays < 1 || minAmount <= 0 {
		return nil, ledger.ErrInvalidInput
	}
	if maxAmount > 0 && maxAmount < minAmount {
		return nil, ledger.ErrInvalidInput
	}

	plan := models.Plan{
		Name:         name,
		Slug:         slug.Make(name),
		Percent:      percent,
		DurationDays: durationDays,
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
		Active:       true,
	}
	if err := s.db.Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("error creating plan: %w", err)
	}
	return &plan, nil
}

// SetPlanActive opens or closes a plan for new investments. Existing
// investments in a closed plan keep accruing.
func (s *Service) SetPlanActive(planID uuid.UUID, active bool) error {
	result := s.db.Model(&models.Plan{}).Where("id = ?", planID).Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("error updating plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
