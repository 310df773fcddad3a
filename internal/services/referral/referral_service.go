package referral

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/notification"
	"github.com/zedfund/backend/internal/utils"
	"gorm.io/gorm"
)

// Service pays referrers a percentage of every approved deposit made by the
// members they brought in.
type Service struct {
	db           *gorm.DB
	ledgerSvc    *ledger.Service
	notifySvc    *notification.Service
	bonusPercent float64
}

// NewService creates a new referral service. bonusPercent is the share of
// each approved deposit paid to the referrer, e.g. 5 for 5%.
func NewService(db *gorm.DB, ledgerSvc *ledger.Service, notifySvc *notification.Service, bonusPercent float64) *Service {
	return &Service{db: db, ledgerSvc: ledgerSvc, notifySvc: notifySvc, bonusPercent: bonusPercent}
}

// ValidateCode resolves a referral code to its owner. An empty code is fine
// (no referrer); an unknown code is rejected at signup time.
func (s *Service) ValidateCode(code string) (*models.User, error) {
	if code == "" {
		return nil, nil
	}
	var referrer models.User
	if err := s.db.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrInvalidReferral
		}
		return nil, fmt.Errorf("error finding referrer: %w", err)
	}
	return &referrer, nil
}

// AwardBonus pays the referral bonus for one approved deposit request.
//
// It is a no-op when the depositor has no referrer or the stored code no
// longer resolves, and the (referrer, deposit request) unique index makes a
// repeat invocation for the same deposit fail before any money moves.
func (s *Service) AwardBonus(depositRequestID uuid.UUID) error {
	var req models.DepositRequest
	if err := s.db.First(&req, "id = ?", depositRequestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrNotFound
		}
		return fmt.Errorf("error finding deposit request: %w", err)
	}
	if req.Status != models.RequestStatusApproved {
		return ledger.ErrInvalidInput
	}

	var depositor models.User
	if err := s.db.First(&depositor, "id = ?", req.UserID).Error; err != nil {
		return fmt.Errorf("error finding depositor: %w", err)
	}
	if depositor.ReferredBy == nil || *depositor.ReferredBy == "" {
		return nil
	}

	var referrer models.User
	if err := s.db.Where("referral_code = ?", *depositor.ReferredBy).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Stale code, nothing to pay.
			return nil
		}
		return fmt.Errorf("error finding referrer: %w", err)
	}
	if referrer.ID == depositor.ID {
		return ledger.ErrInvalidReferral
	}

	// Dedupe check outside the transaction keeps the common replay case
	// cheap; the unique index is the real guard.
	var existing int64
	if err := s.db.Model(&models.ReferralBonus{}).
		Where("referrer_id = ? AND deposit_request_id = ?", referrer.ID, req.ID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("error checking existing bonus: %w", err)
	}
	if existing > 0 {
		return ledger.ErrAlreadyProcessed
	}

	bonus := req.Amount * s.bonusPercent / 100

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		record := models.ReferralBonus{
			ReferrerID:       referrer.ID,
			ReferredUserID:   depositor.ID,
			DepositRequestID: req.ID,
			DepositAmount:    req.Amount,
			BonusAmount:      bonus,
			Status:           models.TxStatusCompleted,
			CompletedAt:      &now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("error creating referral bonus: %w", err)
		}

		reference := utils.GenerateReference("REF")
		if _, err := s.ledgerSvc.CreditTx(tx, referrer.ID, models.BucketReferral, bonus, models.TxTypeReferralBonus, reference, fmt.Sprintf("Referral bonus from %s", depositor.Name), map[string]interface{}{
			"deposit_request_id": req.ID.String(),
			"referred_user_id":   depositor.ID.String(),
		}); err != nil {
			return err
		}

		return s.notifySvc.NotifyTx(tx, referrer.ID, models.NotificationTypeReferralBonus,
			fmt.Sprintf("You earned a %.2f referral bonus from %s's deposit.", bonus, depositor.Name))
	})
}

// Team lists the users referred by the given user
func (s *Service) Team(userID uuid.UUID) ([]models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	var team []models.User
	if err := s.db.Where("referred_by = ?", user.ReferralCode).Order("created_at DESC").Find(&team).Error; err != nil {
		return nil, fmt.Errorf("error finding referred users: %w", err)
	}
	return team, nil
}

// Stats summarizes a user's referral performance
type Stats struct {
	TeamSize   int64   `json:"team_size"`
	TotalBonus float64 `json:"total_bonus"`
}

// GetStats returns team size and lifetime bonus for a user
func (s *Service) GetStats(userID uuid.UUID) (*Stats, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	var stats Stats
	if err := s.db.Model(&models.User{}).Where("referred_by = ?", user.ReferralCode).Count(&stats.TeamSize).Error; err != nil {
		return nil, fmt.Errorf("error counting referred users: %w", err)
	}

	if err := s.db.Model(&models.ReferralBonus{}).
		Where("referrer_id = ? AND status = ?", userID, models.TxStatusCompleted).
		Select("COALESCE(SUM(bonus_amount), 0)").
		Scan(&stats.TotalBonus).Error; err != nil {
		return nil, fmt.Errorf("error summing bonuses: %w", err)
	}

	return &stats, nil
}
