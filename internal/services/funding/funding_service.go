package funding

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/queue"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/notification"
	"github.com/zedfund/backend/internal/utils"
	"gorm.io/gorm"
)

// Config holds the funding policy knobs
type Config struct {
	MinDeposit    float64
	MinWithdrawal float64
}

// Service manages the deposit and withdrawal request queue. A deposit only
// credits the wallet when an admin approves it; a withdrawal debits earnings
// the moment it is submitted so the held funds cannot be spent twice.
type Service struct {
	db        *gorm.DB
	ledgerSvc *ledger.Service
	notifySvc *notification.Service
	jobQueue  queue.Enqueuer
	config    Config
}

// NewService creates a new funding service
func NewService(db *gorm.DB, ledgerSvc *ledger.Service, notifySvc *notification.Service, jobQueue queue.Enqueuer, config Config) *Service {
	return &Service{db: db, ledgerSvc: ledgerSvc, notifySvc: notifySvc, jobQueue: jobQueue, config: config}
}

// SubmitDeposit records a member's claim of an off-platform payment. No
// balance changes until an admin approves the request.
func (s *Service) SubmitDeposit(userID uuid.UUID, amount float64, method, senderPhone, proofURL string) (*models.DepositRequest, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if !user.CanDeposit {
		return nil, ledger.ErrDepositDisabled
	}
	if amount < s.config.MinDeposit {
		return nil, ledger.ErrInvalidAmount
	}
	if method == "" {
		return nil, ledger.ErrInvalidInput
	}

	req := models.DepositRequest{
		UserID:      userID,
		Amount:      amount,
		Method:      method,
		SenderPhone: senderPhone,
		ProofURL:    proofURL,
		Status:      models.RequestStatusPending,
		Reference:   utils.GenerateReference("DEP"),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return fmt.Errorf("error creating deposit request: %w", err)
		}
		return s.notifySvc.NotifyTx(tx, userID, models.NotificationTypeDeposit,
			fmt.Sprintf("Your deposit of %.2f via %s is pending confirmation.", amount, method))
	})
	if err != nil {
		return nil, err
	}

	return &req, nil
}

// SubmitWithdrawal creates a withdrawal request and immediately holds the
// amount by debiting the earnings bucket. When two-factor is enabled on the
// account the supplied code must verify.
func (s *Service) SubmitWithdrawal(userID uuid.UUID, amount float64, method, receiverPhone, totpCode string) (*models.WithdrawalRequest, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if !user.CanWithdraw {
		return nil, ledger.ErrWithdrawDisabled
	}
	if amount < s.config.MinWithdrawal {
		return nil, ledger.ErrInvalidAmount
	}
	if method == "" || receiverPhone == "" {
		return nil, ledger.ErrInvalidInput
	}
	if user.TwoFactorEnabled && !utils.ValidateTOTPCode(user.TwoFactorSecret, totpCode, utils.DefaultMFAConfig()) {
		return nil, ledger.ErrInvalidInput
	}

	req := models.WithdrawalRequest{
		UserID:        userID,
		Amount:        amount,
		Method:        method,
		ReceiverPhone: receiverPhone,
		Status:        models.RequestStatusPending,
		Reference:     utils.GenerateReference("WDR"),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return fmt.Errorf("error creating withdrawal request: %w", err)
		}
		if _, err := s.ledgerSvc.DebitTx(tx, userID, models.BucketEarnings, amount, models.TxTypeWithdrawal, req.Reference, fmt.Sprintf("Withdrawal via %s", method), map[string]interface{}{
			"withdrawal_request_id": req.ID.String(),
		}); err != nil {
			return err
		}
		return s.notifySvc.NotifyTx(tx, userID, models.NotificationTypeWithdrawal,
			fmt.Sprintf("Your withdrawal of %.2f via %s has been submitted.", amount, method))
	})
	if err != nil {
		return nil, err
	}

	return &req, nil
}

// ApproveDeposit credits the member's deposit bucket and queues the referral
// bonus. A request that already left pending state returns ErrAlreadyProcessed.
func (s *Service) ApproveDeposit(requestID, adminID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		req, err := lockDepositRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestStatusPending {
			return ledger.ErrAlreadyProcessed
		}

		now := time.Now()
		if err := tx.Model(req).Updates(map[string]interface{}{
			"status":       models.RequestStatusApproved,
			"processed_at": now,
			"processed_by": adminID,
		}).Error; err != nil {
			return fmt.Errorf("error updating deposit request: %w", err)
		}

		if _, err := s.ledgerSvc.CreditTx(tx, req.UserID, models.BucketDeposit, req.Amount, models.TxTypeDeposit, req.Reference, fmt.Sprintf("Deposit via %s", req.Method), map[string]interface{}{
			"deposit_request_id": req.ID.String(),
		}); err != nil {
			return err
		}

		return s.notifySvc.NotifyTx(tx, req.UserID, models.NotificationTypeDeposit,
			fmt.Sprintf("Your deposit of %.2f has been confirmed.", req.Amount))
	})
	if err != nil {
		return err
	}

	if s.jobQueue != nil {
		if _, err := s.jobQueue.EnqueueJob(queue.JobTypeAwardReferralBonus, queue.AwardReferralBonusPayload{
			DepositRequestID: requestID,
		}); err != nil {
			return fmt.Errorf("error enqueueing referral bonus job: %w", err)
		}
	}

	return nil
}

// RejectDeposit marks a pending deposit request rejected. Nothing was
// credited at submission so there is nothing to reverse.
func (s *Service) RejectDeposit(requestID, adminID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		req, err := lockDepositRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestStatusPending {
			return ledger.ErrAlreadyProcessed
		}

		now := time.Now()
		if err := tx.Model(req).Updates(map[string]interface{}{
			"status":       models.RequestStatusRejected,
			"processed_at": now,
			"processed_by": adminID,
		}).Error; err != nil {
			return fmt.Errorf("error updating deposit request: %w", err)
		}

		return s.notifySvc.NotifyTx(tx, req.UserID, models.NotificationTypeDeposit,
			fmt.Sprintf("Your deposit of %.2f could not be confirmed.", req.Amount))
	})
}

// ApproveWithdrawal finalizes a pending withdrawal. The funds were held at
// submission, so approval only flips the request state.
func (s *Service) ApproveWithdrawal(requestID, adminID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		req, err := lockWithdrawalRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestStatusPending {
			return ledger.ErrAlreadyProcessed
		}

		now := time.Now()
		if err := tx.Model(req).Updates(map[string]interface{}{
			"status":       models.RequestStatusApproved,
			"processed_at": now,
			"processed_by": adminID,
		}).Error; err != nil {
			return fmt.Errorf("error updating withdrawal request: %w", err)
		}

		return s.notifySvc.NotifyTx(tx, req.UserID, models.NotificationTypeWithdrawal,
			fmt.Sprintf("Your withdrawal of %.2f has been paid out.", req.Amount))
	})
}

// RejectWithdrawal refunds the held amount to the earnings bucket
func (s *Service) RejectWithdrawal(requestID, adminID uuid.UUID, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		req, err := lockWithdrawalRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestStatusPending {
			return ledger.ErrAlreadyProcessed
		}

		now := time.Now()
		if err := tx.Model(req).Updates(map[string]interface{}{
			"status":         models.RequestStatusRejected,
			"processed_at":   now,
			"processed_by":   adminID,
			"failure_reason": reason,
		}).Error; err != nil {
			return fmt.Errorf("error updating withdrawal request: %w", err)
		}

		if _, err := s.ledgerSvc.CreditTx(tx, req.UserID, models.BucketEarnings, req.Amount, models.TxTypeRefund, utils.GenerateReference("RFD"), "Withdrawal rejected, funds returned", map[string]interface{}{
			"withdrawal_request_id": req.ID.String(),
		}); err != nil {
			return err
		}

		return s.notifySvc.NotifyTx(tx, req.UserID, models.NotificationTypeWithdrawal,
			fmt.Sprintf("Your withdrawal of %.2f was rejected and the funds returned to your earnings.", req.Amount))
	})
}

// PendingDeposits lists deposit requests awaiting admin review
func (s *Service) PendingDeposits() ([]models.DepositRequest, error) {
	var requests []models.DepositRequest
	if err := s.db.Where("status = ?", models.RequestStatusPending).Order("created_at ASC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("error finding deposit requests: %w", err)
	}
	return requests, nil
}

// PendingWithdrawals lists withdrawal requests awaiting admin review
func (s *Service) PendingWithdrawals() ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	if err := s.db.Where("status = ?", models.RequestStatusPending).Order("created_at ASC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("error finding withdrawal requests: %w", err)
	}
	return requests, nil
}

// UserDeposits lists a user's deposit requests, newest first
func (s *Service) UserDeposits(userID uuid.UUID) ([]models.DepositRequest, error) {
	var requests []models.DepositRequest
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("error finding deposit requests: %w", err)
	}
	return requests, nil
}

// UserWithdrawals lists a user's withdrawal requests, newest first
func (s *Service) UserWithdrawals(userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("error finding withdrawal requests: %w", err)
	}
	return requests, nil
}

func lockDepositRequest(tx *gorm.DB, requestID uuid.UUID) (*models.DepositRequest, error) {
	var req models.DepositRequest
	if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&req, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding deposit request: %w", err)
	}
	return &req, nil
}

func lockWithdrawalRequest(tx *gorm.DB, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&req, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding withdrawal request: %w", err)
	}
	return &req, nil
}
