package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/queue"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/notification"
	"github.com/zedfund/backend/internal/services/referral"
	"github.com/zedfund/backend/internal/utils"
	"gorm.io/gorm"
)

// ErrEmailTaken is returned when signing up with an email already in use
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials is returned on a failed login
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountLocked is returned when a locked account attempts to log in
var ErrAccountLocked = errors.New("account is locked")

const verificationTokenTTL = 48 * time.Hour

// Service handles signup, login and email verification
type Service struct {
	db          *gorm.DB
	referralSvc *referral.Service
	notifySvc   *notification.Service
	jobQueue    queue.Enqueuer
}

// NewService creates a new auth service
func NewService(db *gorm.DB, referralSvc *referral.Service, notifySvc *notification.Service, jobQueue queue.Enqueuer) *Service {
	return &Service{db: db, referralSvc: referralSvc, notifySvc: notifySvc, jobQueue: jobQueue}
}

// SignUp registers a new member. An optional referral code links the new
// account to its referrer; an unknown code rejects the signup.
func (s *Service) SignUp(name, email, password, phone, referralCode string) (*models.User, error) {
	if name == "" || email == "" {
		return nil, ledger.ErrInvalidInput
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, ledger.ErrInvalidInput
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	var referredBy *string
	if referralCode != "" {
		referrer, err := s.referralSvc.ValidateCode(referralCode)
		if err != nil {
			return nil, err
		}
		if referrer != nil {
			referredBy = &referrer.ReferralCode
		}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	ownCode, err := s.uniqueReferralCode()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		ReferralCode: ownCode,
		ReferredBy:   referredBy,
	}
	if phone != "" {
		user.PhoneNumber = &phone
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		if err := tx.Create(&models.Wallet{UserID: user.ID}).Error; err != nil {
			return fmt.Errorf("error creating wallet: %w", err)
		}
		if err := tx.Create(&models.EmailVerificationToken{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: time.Now().Add(verificationTokenTTL),
		}).Error; err != nil {
			return fmt.Errorf("error creating verification token: %w", err)
		}
		return s.notifySvc.NotifyTx(tx, user.ID, models.NotificationTypeWelcome,
			fmt.Sprintf("Welcome to Trust ZedFund, %s! Your referral code is %s.", user.Name, user.ReferralCode))
	})
	if err != nil {
		return nil, err
	}

	if s.jobQueue != nil {
		if _, err := s.jobQueue.EnqueueJob(queue.JobTypeSendVerificationEmail, queue.SendVerificationEmailPayload{
			UserID: user.ID,
			Email:  user.Email,
			Token:  token,
		}); err != nil {
			return nil, fmt.Errorf("error enqueueing verification email: %w", err)
		}
	}

	return &user, nil
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(email, password string) (*models.User, *utils.TokenPair, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("error finding user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if user.AccountLocked {
		return nil, nil, ErrAccountLocked
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, nil, fmt.Errorf("error updating last login: %w", err)
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating tokens: %w", err)
	}

	return &user, &tokens, nil
}

// VerifyEmail consumes a verification token and marks the account verified
func (s *Service) VerifyEmail(token string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var record models.EmailVerificationToken
		if err := tx.Where("token = ?", token).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return fmt.Errorf("error finding verification token: %w", err)
		}

		if record.UsedAt != nil {
			return ledger.ErrAlreadyProcessed
		}
		if time.Now().After(record.ExpiresAt) {
			return ledger.ErrInvalidInput
		}

		now := time.Now()
		if err := tx.Model(&record).Update("used_at", now).Error; err != nil {
			return fmt.Errorf("error consuming verification token: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", record.UserID).Update("email_verified", true).Error; err != nil {
			return fmt.Errorf("error marking email verified: %w", err)
		}
		return nil
	})
}

// RefreshToken issues a new token pair from a valid refresh token
func (s *Service) RefreshToken(refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if user.AccountLocked {
		return nil, ErrAccountLocked
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}
	return &tokens, nil
}

// Setup2FA generates a TOTP secret for a user. The secret only activates
// once a valid code confirms the authenticator was enrolled.
func (s *Service) Setup2FA(userID uuid.UUID) (*utils.MFAKey, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	key, err := utils.GenerateTOTPKey(utils.DefaultMFAConfig(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("error generating TOTP key: %w", err)
	}

	if err := s.db.Model(&user).Update("two_factor_secret", key.Secret).Error; err != nil {
		return nil, fmt.Errorf("error saving TOTP secret: %w", err)
	}

	return key, nil
}

// Confirm2FA activates two-factor auth after the user proves possession of
// the enrolled authenticator.
func (s *Service) Confirm2FA(userID uuid.UUID, code string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrNotFound
		}
		return fmt.Errorf("error finding user: %w", err)
	}
	if user.TwoFactorSecret == "" {
		return ledger.ErrInvalidInput
	}
	if !utils.ValidateTOTPCode(user.TwoFactorSecret, code, utils.DefaultMFAConfig()) {
		return ledger.ErrInvalidInput
	}

	return s.db.Model(&user).Update("two_factor_enabled", true).Error
}

// uniqueReferralCode generates a referral code, retrying on collision
func (s *Service) uniqueReferralCode() (string, error) {
	for i := 0; i < 10; i++ {
		code := utils.GenerateReferralCode()
		var count int64
		if err := s.db.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("error checking referral code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate unique referral code")
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
