package referral

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/notification"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTest(t *testing.T) (*gorm.DB, *Service, *ledger.Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Transaction{},
		&models.DepositRequest{},
		&models.ReferralBonus{},
		&models.Notification{},
	))

	ledgerSvc := ledger.NewService(db)
	notifySvc := notification.NewService(db)
	svc := NewService(db, ledgerSvc, notifySvc, 5)
	return db, svc, ledgerSvc
}

func createUser(t *testing.T, db *gorm.DB, code string, referredBy *string) *models.User {
	user := models.User{
		Name:         "Member " + code,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		ReferralCode: code,
		ReferredBy:   referredBy,
		CanDeposit:   true,
		CanWithdraw:  true,
		CanTrade:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createApprovedDeposit(t *testing.T, db *gorm.DB, userID uuid.UUID, amount float64) *models.DepositRequest {
	req := models.DepositRequest{
		UserID:    userID,
		Amount:    amount,
		Method:    "mtn_momo",
		Status:    models.RequestStatusApproved,
		Reference: uuid.NewString(),
	}
	require.NoError(t, db.Create(&req).Error)
	return &req
}

func TestAwardBonus(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	referrer := createUser(t, db, "TZF111111", nil)
	depositor := createUser(t, db, "TZF222222", &referrer.ReferralCode)
	req := createApprovedDeposit(t, db, depositor.ID, 200)

	require.NoError(t, svc.AwardBonus(req.ID))

	// 5% of 200.
	_, _, referral, err := ledgerSvc.Balances(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, referral)

	var bonus models.ReferralBonus
	require.NoError(t, db.First(&bonus, "referrer_id = ?", referrer.ID).Error)
	assert.Equal(t, req.ID, bonus.DepositRequestID)
	assert.Equal(t, 200.0, bonus.DepositAmount)
	assert.Equal(t, 10.0, bonus.BonusAmount)
}

func TestAwardBonusDeduplicates(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	referrer := createUser(t, db, "TZF111111", nil)
	depositor := createUser(t, db, "TZF222222", &referrer.ReferralCode)
	req := createApprovedDeposit(t, db, depositor.ID, 200)

	require.NoError(t, svc.AwardBonus(req.ID))

	err := svc.AwardBonus(req.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	_, _, referral, err := ledgerSvc.Balances(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, referral)
}

func TestAwardBonusNoReferrer(t *testing.T) {
	db, svc, _ := setupTest(t)
	depositor := createUser(t, db, "TZF333333", nil)
	req := createApprovedDeposit(t, db, depositor.ID, 200)

	require.NoError(t, svc.AwardBonus(req.ID))

	var count int64
	require.NoError(t, db.Model(&models.ReferralBonus{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAwardBonusStaleCode(t *testing.T) {
	db, svc, _ := setupTest(t)
	gone := "TZF999999"
	depositor := createUser(t, db, "TZF444444", &gone)
	req := createApprovedDeposit(t, db, depositor.ID, 200)

	require.NoError(t, svc.AwardBonus(req.ID))

	var count int64
	require.NoError(t, db.Model(&models.ReferralBonus{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAwardBonusSelfReferral(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	code := "TZF555555"
	user := createUser(t, db, code, &code)
	req := createApprovedDeposit(t, db, user.ID, 200)

	err := svc.AwardBonus(req.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidReferral)

	_, _, referral, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Zero(t, referral)
}

func TestAwardBonusUnapprovedDeposit(t *testing.T) {
	db, svc, _ := setupTest(t)
	referrer := createUser(t, db, "TZF111111", nil)
	depositor := createUser(t, db, "TZF222222", &referrer.ReferralCode)

	req := models.DepositRequest{
		UserID:    depositor.ID,
		Amount:    200,
		Method:    "mtn_momo",
		Status:    models.RequestStatusPending,
		Reference: uuid.NewString(),
	}
	require.NoError(t, db.Create(&req).Error)

	err := svc.AwardBonus(req.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestValidateCode(t *testing.T) {
	db, svc, _ := setupTest(t)
	referrer := createUser(t, db, "TZF111111", nil)

	found, err := svc.ValidateCode("TZF111111")
	require.NoError(t, err)
	assert.Equal(t, referrer.ID, found.ID)

	_, err = svc.ValidateCode("TZF000000")
	assert.ErrorIs(t, err, ledger.ErrInvalidReferral)

	none, err := svc.ValidateCode("")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStats(t *testing.T) {
	db, svc, _ := setupTest(t)
	referrer := createUser(t, db, "TZF111111", nil)
	a := createUser(t, db, "TZF222222", &referrer.ReferralCode)
	b := createUser(t, db, "TZF333333", &referrer.ReferralCode)

	require.NoError(t, svc.AwardBonus(createApprovedDeposit(t, db, a.ID, 200).ID))
	require.NoError(t, svc.AwardBonus(createApprovedDeposit(t, db, b.ID, 400).ID))

	stats, err := svc.GetStats(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TeamSize)
	assert.Equal(t, 30.0, stats.TotalBonus) // 10 + 20

	team, err := svc.Team(referrer.ID)
	require.NoError(t, err)
	assert.Len(t, team, 2)
}
