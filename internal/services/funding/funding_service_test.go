package funding

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/queue"
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
		&models.WithdrawalRequest{},
		&models.Notification{},
		&queue.Job{},
	))

	ledgerSvc := ledger.NewService(db)
	notifySvc := notification.NewService(db)
	// The queue is never started in tests; enqueued jobs stay as pending rows.
	jobQueue := queue.NewQueue(db)
	svc := NewService(db, ledgerSvc, notifySvc, jobQueue, Config{MinDeposit: 10, MinWithdrawal: 10})
	return db, svc, ledgerSvc
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	user := models.User{
		Name:         "Chanda Mwila",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		ReferralCode: "TZF" + uuid.NewString()[:6],
		CanDeposit:   true,
		CanWithdraw:  true,
		CanTrade:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestSubmitDepositDoesNotCredit(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)

	req, err := svc.SubmitDeposit(user.ID, 200, "mtn_momo", "0977000001", "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.NotEmpty(t, req.Reference)

	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Zero(t, deposit)
}

func TestSubmitDepositBelowMinimum(t *testing.T) {
	db, svc, _ := setupTest(t)
	user := createUser(t, db)

	_, err := svc.SubmitDeposit(user.ID, 5, "mtn_momo", "", "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestSubmitDepositDisabledAccount(t *testing.T) {
	db, svc, _ := setupTest(t)
	user := createUser(t, db)
	require.NoError(t, db.Model(user).Update("can_deposit", false).Error)

	_, err := svc.SubmitDeposit(user.ID, 200, "mtn_momo", "", "")
	assert.ErrorIs(t, err, ledger.ErrDepositDisabled)
}

func TestApproveDeposit(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	req, err := svc.SubmitDeposit(user.ID, 200, "mtn_momo", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.ApproveDeposit(req.ID, admin.ID))

	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, deposit)

	var updated models.DepositRequest
	require.NoError(t, db.First(&updated, "id = ?", req.ID).Error)
	assert.Equal(t, models.RequestStatusApproved, updated.Status)
	assert.NotNil(t, updated.ProcessedAt)
	require.NotNil(t, updated.ProcessedBy)
	assert.Equal(t, admin.ID, *updated.ProcessedBy)

	// Approval queues the referral bonus for background processing.
	var job queue.Job
	require.NoError(t, db.First(&job, "type = ?", queue.JobTypeAwardReferralBonus).Error)
	assert.Equal(t, queue.JobStatusPending, job.Status)
}

func TestApproveDepositTwice(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	req, err := svc.SubmitDeposit(user.ID, 200, "mtn_momo", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.ApproveDeposit(req.ID, admin.ID))

	err = svc.ApproveDeposit(req.ID, admin.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	// Balance unchanged by the replay.
	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, deposit)
}

func TestRejectDeposit(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	req, err := svc.SubmitDeposit(user.ID, 200, "mtn_momo", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RejectDeposit(req.ID, admin.ID))

	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Zero(t, deposit)

	// Approving after rejection is a replay.
	err = svc.ApproveDeposit(req.ID, admin.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
}

func TestSubmitWithdrawalHoldsFunds(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketEarnings, 100, models.TxTypeProfit, "PRF_F1", "", nil)
	require.NoError(t, err)

	req, err := svc.SubmitWithdrawal(user.ID, 60, "airtel_money", "0977000002", "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)

	// Held at submission.
	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, earnings)
}

func TestSubmitWithdrawalInsufficientEarnings(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketEarnings, 50, models.TxTypeProfit, "PRF_F2", "", nil)
	require.NoError(t, err)

	_, err = svc.SubmitWithdrawal(user.ID, 60, "airtel_money", "0977000002", "")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Nothing held and no request row left behind.
	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, earnings)

	var count int64
	require.NoError(t, db.Model(&models.WithdrawalRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitWithdrawalBelowMinimum(t *testing.T) {
	db, svc, _ := setupTest(t)
	user := createUser(t, db)

	_, err := svc.SubmitWithdrawal(user.ID, 9, "airtel_money", "0977000002", "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestSubmitWithdrawalDisabledAccount(t *testing.T) {
	db, svc, _ := setupTest(t)
	user := createUser(t, db)
	require.NoError(t, db.Model(user).Update("can_withdraw", false).Error)

	_, err := svc.SubmitWithdrawal(user.ID, 60, "airtel_money", "0977000002", "")
	assert.ErrorIs(t, err, ledger.ErrWithdrawDisabled)
}

func TestSubmitWithdrawalRequires2FACode(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{
		"two_factor_enabled": true,
		"two_factor_secret":  "JBSWY3DPEHPK3PXP",
	}).Error)

	_, err := ledgerSvc.Credit(user.ID, models.BucketEarnings, 100, models.TxTypeProfit, "PRF_F3", "", nil)
	require.NoError(t, err)

	_, err = svc.SubmitWithdrawal(user.ID, 60, "airtel_money", "0977000002", "000000")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestApproveWithdrawal(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketEarnings, 100, models.TxTypeProfit, "PRF_F4", "", nil)
	require.NoError(t, err)

	req, err := svc.SubmitWithdrawal(user.ID, 60, "airtel_money", "0977000002", "")
	require.NoError(t, err)

	require.NoError(t, svc.ApproveWithdrawal(req.ID, admin.ID))

	// Approval finalizes; the hold already moved the funds.
	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, earnings)

	err = svc.ApproveWithdrawal(req.ID, admin.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
}

func TestRejectWithdrawalRefunds(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketEarnings, 100, models.TxTypeProfit, "PRF_F5", "", nil)
	require.NoError(t, err)

	req, err := svc.SubmitWithdrawal(user.ID, 60, "airtel_money", "0977000002", "")
	require.NoError(t, err)

	require.NoError(t, svc.RejectWithdrawal(req.ID, admin.ID, "number not registered"))

	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, earnings)

	var updated models.WithdrawalRequest
	require.NoError(t, db.First(&updated, "id = ?", req.ID).Error)
	assert.Equal(t, models.RequestStatusRejected, updated.Status)
	assert.Equal(t, "number not registered", updated.FailureReason)

	// A second rejection must not refund again.
	err = svc.RejectWithdrawal(req.ID, admin.ID, "again")
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	_, earnings, _, err = ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, earnings)
}

func TestPendingQueues(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketEarnings, 100, models.TxTypeProfit, "PRF_F6", "", nil)
	require.NoError(t, err)

	dep, err := svc.SubmitDeposit(user.ID, 200, "mtn_momo", "", "")
	require.NoError(t, err)
	_, err = svc.SubmitWithdrawal(user.ID, 50, "airtel_money", "0977000002", "")
	require.NoError(t, err)

	deposits, err := svc.PendingDeposits()
	require.NoError(t, err)
	assert.Len(t, deposits, 1)

	withdrawals, err := svc.PendingWithdrawals()
	require.NoError(t, err)
	assert.Len(t, withdrawals, 1)

	// Processed requests leave the pending queue.
	require.NoError(t, svc.ApproveDeposit(dep.ID, admin.ID))
	deposits, err = svc.PendingDeposits()
	require.NoError(t, err)
	assert.Empty(t, deposits)
}
