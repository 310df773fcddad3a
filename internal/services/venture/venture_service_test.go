package venture

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
		&models.Venture{},
		&models.VentureContribution{},
		&models.Notification{},
	))

	ledgerSvc := ledger.NewService(db)
	notifySvc := notification.NewService(db)
	svc := NewService(db, ledgerSvc, notifySvc)
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

func TestCreateAndList(t *testing.T) {
	_, svc, _ := setupTest(t)

	v, err := svc.Create("Agro Processing", "Maize milling in Central Province.")
	require.NoError(t, err)
	assert.Equal(t, "agro-processing", v.Slug)
	assert.Equal(t, models.VentureStatusOpen, v.Status)

	ventures, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, ventures, 1)
}

func TestContributePendsWithoutDebit(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 500, models.TxTypeDeposit, "DEP_V1", "", nil)
	require.NoError(t, err)

	v, err := svc.Create("Transport Fleet", "")
	require.NoError(t, err)

	c, err := svc.Contribute(user.ID, v.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusPending, c.Status)

	// No funds move until an admin confirms.
	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, deposit)
}

func TestContributeInsufficientDeposit(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 100, models.TxTypeDeposit, "DEP_V2", "", nil)
	require.NoError(t, err)

	v, err := svc.Create("Transport Fleet", "")
	require.NoError(t, err)

	_, err = svc.Contribute(user.ID, v.ID, 300)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestConfirmDebitsOnce(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 500, models.TxTypeDeposit, "DEP_V3", "", nil)
	require.NoError(t, err)

	v, err := svc.Create("Transport Fleet", "")
	require.NoError(t, err)
	c, err := svc.Contribute(user.ID, v.ID, 300)
	require.NoError(t, err)

	require.NoError(t, svc.Confirm(c.ID, admin.ID))

	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, deposit)

	// A replayed confirmation must not debit again.
	err = svc.Confirm(c.ID, admin.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	deposit, _, _, err = ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, deposit)
}

func TestRejectLeavesBalance(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)
	admin := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 500, models.TxTypeDeposit, "DEP_V4", "", nil)
	require.NoError(t, err)

	v, err := svc.Create("Transport Fleet", "")
	require.NoError(t, err)
	c, err := svc.Contribute(user.ID, v.ID, 300)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(c.ID, admin.ID))

	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, deposit)

	var updated models.VentureContribution
	require.NoError(t, db.First(&updated, "id = ?", c.ID).Error)
	assert.Equal(t, models.ContributionStatusRejected, updated.Status)
}

func TestContributeClosedVenture(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 500, models.TxTypeDeposit, "DEP_V5", "", nil)
	require.NoError(t, err)

	v, err := svc.Create("Transport Fleet", "")
	require.NoError(t, err)
	require.NoError(t, db.Model(v).Update("status", models.VentureStatusClosed).Error)

	_, err = svc.Contribute(user.ID, v.ID, 100)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}
