package venture

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

// Service manages community ventures and member contributions. A
// contribution pledges funds; the deposit bucket is only debited when an
// admin confirms it.
type Service struct {
	db        *gorm.DB
	ledgerSvc *ledger.Service
	notifySvc *notification.Service
}

// NewService creates a new venture service
func NewService(db *gorm.DB, ledgerSvc *ledger.Service, notifySvc *notification.Service) *Service {
	return &Service{db: db, ledgerSvc: ledgerSvc, notifySvc: notifySvc}
}

// Create opens a new venture
func (s *Service) Create(name, description string) (*models.Venture, error) {
	if name == "" {
		return nil, ledger.ErrInvalidInput
	}

	v := models.Venture{
		Name:        name,
		Slug:        slug.Make(name),
		Description: description,
		Status:      models.VentureStatusOpen,
	}
	if err := s.db.Create(&v).Error; err != nil {
		return nil, fmt.Errorf("error creating venture: %w", err)
	}
	return &v, nil
}

// List returns open ventures
func (s *Service) List() ([]models.Venture, error) {
	var ventures []models.Venture
	if err := s.db.Where("status = ?", models.VentureStatusOpen).Order("created_at DESC").Find(&ventures).Error; err != nil {
		return nil, fmt.Errorf("error finding ventures: %w", err)
	}
	return ventures, nil
}

// Contribute records a pending pledge to an open venture
func (s *Service) Contribute(userID, ventureID uuid.UUID, amount float64) (*models.VentureContribution, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	var v models.Venture
	if err := s.db.First(&v, "id = ?", ventureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding venture: %w", err)
	}
	if v.Status != models.VentureStatusOpen {
		return nil, ledger.ErrInvalidInput
	}

	// The pledge must be coverable now even though the debit happens at
	// confirmation time.
	deposit, _, _, err := s.ledgerSvc.Balances(userID)
	if err != nil {
		return nil, err
	}
	if deposit < amount {
		return nil, ledger.ErrInsufficientFunds
	}

	c := models.VentureContribution{
		VentureID: ventureID,
		UserID:    userID,
		Amount:    amount,
		Status:    models.ContributionStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("error creating contribution: %w", err)
		}
		return s.notifySvc.NotifyTx(tx, userID, models.NotificationTypeVenture,
			fmt.Sprintf("Your contribution of %.2f to %s is pending confirmation.", amount, v.Name))
	})
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// Confirm debits the contributor's deposit bucket and marks the pledge
// confirmed. A pledge that already left pending state returns
// ErrAlreadyProcessed.
func (s *Service) Confirm(contributionID, adminID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, err := lockContribution(tx, contributionID)
		if err != nil {
			return err
		}
		if c.Status != models.ContributionStatusPending {
			return ledger.ErrAlreadyProcessed
		}

		var v models.Venture
		if err := tx.First(&v, "id = ?", c.VentureID).Error; err != nil {
			return fmt.Errorf("error finding venture: %w", err)
		}

		reference := utils.GenerateReference("VEN")
		if _, err := s.ledgerSvc.DebitTx(tx, c.UserID, models.BucketDeposit, c.Amount, models.TxTypeVentureContribution, reference, fmt.Sprintf("Contribution to %s", v.Name), map[string]interface{}{
			"contribution_id": c.ID.String(),
			"venture_id":      c.VentureID.String(),
		}); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(c).Updates(map[string]interface{}{
			"status":       models.ContributionStatusConfirmed,
			"processed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("error updating contribution: %w", err)
		}

		return s.notifySvc.NotifyTx(tx, c.UserID, models.NotificationTypeVenture,
			fmt.Sprintf("Your contribution of %.2f to %s has been confirmed.", c.Amount, v.Name))
	})
}

// Reject marks a pending pledge rejected. No funds moved at pledge time so
// there is nothing to reverse.
func (s *Service) Reject(contributionID, adminID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, err := lockContribution(tx, contributionID)
		if err != nil {
			return err
		}
		if c.Status != models.ContributionStatusPending {
			return ledger.ErrAlreadyProcessed
		}

		now := time.Now()
		if err := tx.Model(c).Updates(map[string]interface{}{
			"status":       models.ContributionStatusRejected,
			"processed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("error updating contribution: %w", err)
		}

		return s.notifySvc.NotifyTx(tx, c.UserID, models.NotificationTypeVenture,
			fmt.Sprintf("Your contribution of %.2f was rejected.", c.Amount))
	})
}

// UserContributions lists a member's pledges, newest first
func (s *Service) UserContributions(userID uuid.UUID) ([]models.VentureContribution, error) {
	var contributions []models.VentureContribution
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&contributions).Error; err != nil {
		return nil, fmt.Errorf("error finding contributions: %w", err)
	}
	return contributions, nil
}

// PendingContributions lists pledges awaiting admin review
func (s *Service) PendingContributions() ([]models.VentureContribution, error) {
	var contributions []models.VentureContribution
	if err := s.db.Where("status = ?", models.ContributionStatusPending).Order("created_at ASC").Find(&contributions).Error; err != nil {
		return nil, fmt.Errorf("error finding contributions: %w", err)
	}
	return contributions, nil
}

func lockContribution(tx *gorm.DB, id uuid.UUID) (*models.VentureContribution, error) {
	var c models.VentureContribution
	if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding contribution: %w", err)
	}
	return &c, nil
}
