package investment

import (
	"testing"
	"time"

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
		&models.Plan{},
		&models.Investment{},
		&models.Notification{},
	))

	ledgerSvc := ledger.NewService(db)
	notifySvc := notification.NewService(db)
	svc := NewService(db, ledgerSvc, notifySvc)
	return db, svc, ledgerSvc
}

func createUser(t *testing.T, db *gorm.DB, canTrade bool) *models.User {
	user := models.User{
		Name:         "Chanda Mwila",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		ReferralCode: "TZF" + uuid.NewString()[:6],
		CanDeposit:   true,
		CanWithdraw:  true,
		CanTrade:     canTrade,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createPlan(t *testing.T, db *gorm.DB) *models.Plan {
	plan := models.Plan{
		Name:         "Starter",
		Slug:         "starter-" + uuid.NewString()[:8],
		Percent:      20,
		DurationDays: 10,
		MinAmount:    500,
		MaxAmount:    5000,
		Active:       true,
	}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

// seedInvestment inserts an investment with timestamps shifted into the past
// so accrual and maturity can be exercised against the real clock.
func seedInvestment(t *testing.T, db *gorm.DB, userID uuid.UUID, amount, profit float64, start, lastCalc, maturity time.Time) *models.Investment {
	durationDays := int(maturity.Sub(start).Hours() / 24)
	inv := models.Investment{
		UserID:         userID,
		PlanID:         uuid.New(),
		PlanName:       "Starter",
		Amount:         amount,
		Profit:         profit,
		DailyProfit:    profit / float64(durationDays),
		TotalPayout:    amount + profit,
		StartTime:      start,
		MaturityTime:   maturity,
		LastProfitCalc: lastCalc,
		Status:         models.InvestmentStatusActive,
	}
	require.NoError(t, db.Create(&inv).Error)
	return &inv
}

func TestInvest(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)
	plan := createPlan(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 2000, models.TxTypeDeposit, "DEP_T1", "", nil)
	require.NoError(t, err)

	inv, err := svc.Invest(user.ID, plan.ID, 1000)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, inv.Amount)
	assert.Equal(t, 200.0, inv.Profit) // 20% of 1000
	assert.Equal(t, 20.0, inv.DailyProfit)
	assert.Equal(t, 1200.0, inv.TotalPayout)
	assert.Equal(t, models.InvestmentStatusActive, inv.Status)

	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, deposit)
}

func TestInvestPlanBounds(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)
	plan := createPlan(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 10000, models.TxTypeDeposit, "DEP_T2", "", nil)
	require.NoError(t, err)

	_, err = svc.Invest(user.ID, plan.ID, 499)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.Invest(user.ID, plan.ID, 5001)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestInvestInsufficientDeposit(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)
	plan := createPlan(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 400, models.TxTypeDeposit, "DEP_T3", "", nil)
	require.NoError(t, err)

	_, err = svc.Invest(user.ID, plan.ID, 600)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestInvestTradingDisabled(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, false)
	plan := createPlan(t, db)

	_, err := ledgerSvc.Credit(user.ID, models.BucketDeposit, 2000, models.TxTypeDeposit, "DEP_T4", "", nil)
	require.NoError(t, err)

	_, err = svc.Invest(user.ID, plan.ID, 1000)
	assert.ErrorIs(t, err, ledger.ErrTradeDisabled)
}

func TestAccrueCreditsWholeDays(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)

	now := time.Now()
	inv := seedInvestment(t, db, user.ID, 1000, 200,
		now.Add(-3*24*time.Hour-time.Hour), // started just over 3 days ago
		now.Add(-3*24*time.Hour-time.Hour),
		now.Add(7*24*time.Hour))

	credited, err := svc.Accrue(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, credited) // 3 whole days at 20/day

	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, earnings)
}

func TestAccrueIsIdempotent(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)

	now := time.Now()
	inv := seedInvestment(t, db, user.ID, 1000, 200,
		now.Add(-2*24*time.Hour-time.Hour),
		now.Add(-2*24*time.Hour-time.Hour),
		now.Add(8*24*time.Hour))

	first, err := svc.Accrue(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, first)

	// Re-running immediately pays nothing: the checkpoint advanced.
	second, err := svc.Accrue(inv.ID)
	require.NoError(t, err)
	assert.Zero(t, second)

	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, earnings)
}

func TestAccrueNeverExceedsTotalProfit(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)

	// Matured long ago with nothing accrued: accrual caps at total profit.
	now := time.Now()
	inv := seedInvestment(t, db, user.ID, 1000, 200,
		now.Add(-30*24*time.Hour),
		now.Add(-30*24*time.Hour),
		now.Add(-20*24*time.Hour))

	credited, err := svc.Accrue(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, credited)

	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, earnings)
}

func TestMatureCreditsExactlyOnce(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)

	now := time.Now()
	inv := seedInvestment(t, db, user.ID, 1000, 100,
		now.Add(-11*24*time.Hour),
		now.Add(-11*24*time.Hour),
		now.Add(-24*time.Hour))

	require.NoError(t, svc.Mature(inv.ID))

	// Principal plus full profit lands in earnings regardless of how the
	// accrual was split between the sweep and settlement.
	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, earnings)

	var updated models.Investment
	require.NoError(t, db.First(&updated, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvestmentStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	// A repeat settlement is rejected and credits nothing.
	err = svc.Mature(inv.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	_, earnings, _, err = ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, earnings)
}

func TestMatureBeforeMaturityTime(t *testing.T) {
	db, svc, _ := setupTest(t)
	user := createUser(t, db, true)

	now := time.Now()
	inv := seedInvestment(t, db, user.ID, 1000, 100,
		now.Add(-24*time.Hour),
		now.Add(-24*time.Hour),
		now.Add(9*24*time.Hour))

	err := svc.Mature(inv.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestEarlyExitPayoutTiers(t *testing.T) {
	start := time.Now().Add(-100 * time.Hour)
	maturity := start.Add(1000 * time.Hour)

	// 20% elapsed: 80% of principal.
	at := start.Add(200 * time.Hour)
	assert.Equal(t, 800.0, EarlyExitPayout(start, maturity, 1000, 100, at))

	// 50% elapsed: principal back untouched.
	at = start.Add(500 * time.Hour)
	assert.Equal(t, 1000.0, EarlyExitPayout(start, maturity, 1000, 100, at))

	// 80% elapsed: principal plus half the profit.
	at = start.Add(800 * time.Hour)
	assert.Equal(t, 1050.0, EarlyExitPayout(start, maturity, 1000, 100, at))

	// Boundaries belong to the middle tier.
	at = start.Add(300 * time.Hour)
	assert.Equal(t, 1000.0, EarlyExitPayout(start, maturity, 1000, 100, at))
	at = start.Add(700 * time.Hour)
	assert.Equal(t, 1000.0, EarlyExitPayout(start, maturity, 1000, 100, at))
}

func TestWithdrawEarly(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)

	// Halfway through the term: full principal comes back to deposit.
	now := time.Now()
	inv := seedInvestment(t, db, user.ID, 1000, 200,
		now.Add(-5*24*time.Hour),
		now.Add(-5*24*time.Hour),
		now.Add(5*24*time.Hour))

	payout, err := svc.WithdrawEarly(user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, payout)

	deposit, _, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, deposit)

	var updated models.Investment
	require.NoError(t, db.First(&updated, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvestmentStatusWithdrawn, updated.Status)

	// Exiting twice is rejected.
	_, err = svc.WithdrawEarly(user.ID, inv.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
}

func TestWithdrawEarlyWrongOwner(t *testing.T) {
	db, svc, _ := setupTest(t)
	owner := createUser(t, db, true)
	other := createUser(t, db, true)

	now := time.Now()
	inv := seedInvestment(t, db, owner.ID, 1000, 200,
		now.Add(-5*24*time.Hour),
		now.Add(-5*24*time.Hour),
		now.Add(5*24*time.Hour))

	_, err := svc.WithdrawEarly(other.ID, inv.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRunAccrualSweep(t *testing.T) {
	db, svc, ledgerSvc := setupTest(t)
	user := createUser(t, db, true)

	now := time.Now()
	// One mid-term investment due two days of profit, one past maturity.
	seedInvestment(t, db, user.ID, 1000, 200,
		now.Add(-2*24*time.Hour-time.Hour),
		now.Add(-2*24*time.Hour-time.Hour),
		now.Add(8*24*time.Hour))
	seedInvestment(t, db, user.ID, 500, 50,
		now.Add(-12*24*time.Hour),
		now.Add(-12*24*time.Hour),
		now.Add(-2*24*time.Hour))

	accrued, matured, err := svc.RunAccrual()
	require.NoError(t, err)
	assert.Equal(t, 1, accrued)
	assert.Equal(t, 1, matured)

	// 40 daily profit + 550 maturity settlement.
	_, earnings, _, err := ledgerSvc.Balances(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 590.0, earnings)

	// The sweep is safe to repeat.
	accrued, matured, err = svc.RunAccrual()
	require.NoError(t, err)
	assert.Zero(t, accrued)
	assert.Zero(t, matured)
}

func TestCreatePlan(t *testing.T) {
	_, svc, _ := setupTest(t)

	plan, err := svc.CreatePlan("Agro Boost", 40, 25, 1000, 10000)
	require.NoError(t, err)
	assert.Equal(t, "agro-boost", plan.Slug)
	assert.True(t, plan.Active)

	plans, err := svc.Plans()
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestCreatePlanRejectsBadInput(t *testing.T) {
	_, svc, _ := setupTest(t)

	_, err := svc.CreatePlan("", 40, 25, 1000, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = svc.CreatePlan("Agro Boost", 40, 25, 1000, 500)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestSetPlanActive(t *testing.T) {
	db, svc, _ := setupTest(t)
	plan := createPlan(t, db)

	require.NoError(t, svc.SetPlanActive(plan.ID, false))

	plans, err := svc.Plans()
	require.NoError(t, err)
	assert.Empty(t, plans)

	assert.ErrorIs(t, svc.SetPlanActive(uuid.New(), true), ledger.ErrNotFound)
}
