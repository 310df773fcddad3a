package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zedfund/backend/internal/models"
	"gorm.io/gorm"
)

// Service maintains the per-user wallet buckets. Every balance movement runs
// inside a database transaction against the locked wallet row and appends an
// immutable transaction record, so concurrent writers cannot lose updates.
type Service struct {
	db *gorm.DB
}

// NewService creates a new ledger service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DB exposes the underlying handle for services composing their own transactions
func (s *Service) DB() *gorm.DB {
	return s.db
}

// GetOrCreateWallet gets a user's wallet or creates a zero-valued one
func (s *Service) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet

	err := s.db.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	wallet = models.Wallet{UserID: userID}
	if err := s.db.Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}

	return &wallet, nil
}

// Balances returns the three bucket values, zeros when uninitialized
func (s *Service) Balances(userID uuid.UUID) (deposit, earnings, referral float64, err error) {
	var wallet models.Wallet
	dbErr := s.db.Where("user_id = ?", userID).First(&wallet).Error
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			return 0, 0, 0, nil
		}
		return 0, 0, 0, fmt.Errorf("error finding wallet: %w", dbErr)
	}
	return wallet.Deposit, wallet.Earnings, wallet.Referral, nil
}

// Credit adds funds to a wallet bucket
func (s *Service) Credit(userID uuid.UUID, bucket models.Bucket, amount float64, txType, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	var record *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = s.CreditTx(tx, userID, bucket, amount, txType, reference, description, metadata)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreditTx adds funds to a wallet bucket inside an existing transaction
func (s *Service) CreditTx(tx *gorm.DB, userID uuid.UUID, bucket models.Bucket, amount float64, txType, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := lockWallet(tx, userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := wallet.Balance(bucket)
	wallet.SetBalance(bucket, balanceBefore+amount)
	if err := tx.Save(wallet).Error; err != nil {
		return nil, fmt.Errorf("error updating wallet balance: %w", err)
	}

	record := models.Transaction{
		UserID:        userID,
		Bucket:        bucket,
		Type:          txType,
		Amount:        amount,
		Status:        models.TxStatusCompleted,
		Reference:     reference,
		Description:   description,
		MetaData:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.Balance(bucket),
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &record, nil
}

// Debit removes funds from a wallet bucket. A debit exceeding the bucket
// balance fails with ErrInsufficientFunds and leaves the wallet untouched.
func (s *Service) Debit(userID uuid.UUID, bucket models.Bucket, amount float64, txType, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	var record *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = s.DebitTx(tx, userID, bucket, amount, txType, reference, description, metadata)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DebitTx removes funds from a wallet bucket inside an existing transaction
func (s *Service) DebitTx(tx *gorm.DB, userID uuid.UUID, bucket models.Bucket, amount float64, txType, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := lockWallet(tx, userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := wallet.Balance(bucket)
	if balanceBefore < amount {
		return nil, ErrInsufficientFunds
	}

	wallet.SetBalance(bucket, balanceBefore-amount)
	if err := tx.Save(wallet).Error; err != nil {
		return nil, fmt.Errorf("error updating wallet balance: %w", err)
	}

	record := models.Transaction{
		UserID:        userID,
		Bucket:        bucket,
		Type:          txType,
		Amount:        -amount, // negative for debits
		Status:        models.TxStatusCompleted,
		Reference:     reference,
		Description:   description,
		MetaData:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.Balance(bucket),
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &record, nil
}

// TransactionHistory gets paginated transaction history for a user
func (s *Service) TransactionHistory(userID uuid.UUID, page, pageSize int) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding transactions: %w", err)
	}

	return transactions, total, nil
}

// lockWallet fetches the wallet row with an update lock, creating it on first use
func lockWallet(tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Set("gorm:query_option", "FOR UPDATE").Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	wallet = models.Wallet{UserID: userID}
	if err := tx.Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}
	return &wallet, nil
}
