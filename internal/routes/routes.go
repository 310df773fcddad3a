package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zedfund/backend/internal/handlers"
	"github.com/zedfund/backend/internal/middleware"
)

// Handlers bundles the handler set the router wires up
type Handlers struct {
	Auth         *handlers.AuthHandler
	Wallet       *handlers.WalletHandler
	Investment   *handlers.InvestmentHandler
	Funding      *handlers.FundingHandler
	Referral     *handlers.ReferralHandler
	Notification *handlers.NotificationHandler
	Venture      *handlers.VentureHandler
	Admin        *handlers.AdminHandler
}

// RegisterRoutes wires all API routes onto the router
func RegisterRoutes(router *gin.Engine, h Handlers, rateLimiter *middleware.RateLimiter) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public auth routes with the stricter auth rate limit
	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.LimitAuth())
	{
		authGroup.POST("/signup", h.Auth.SignUp)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)
		authGroup.GET("/verify-email", h.Auth.VerifyEmail)
	}

	// Authenticated member routes
	api := router.Group("/api")
	api.Use(rateLimiter.LimitByIP(), middleware.AuthMiddleware())
	{
		api.POST("/auth/2fa/setup", h.Auth.Setup2FA)
		api.POST("/auth/2fa/confirm", h.Auth.Confirm2FA)

		api.GET("/wallet/balances", h.Wallet.GetBalances)
		api.GET("/wallet/transactions", h.Wallet.GetTransactions)

		api.GET("/plans", h.Investment.GetPlans)
		api.POST("/investments", h.Investment.Invest)
		api.GET("/investments", h.Investment.GetInvestments)
		api.GET("/investments/:id", h.Investment.GetInvestment)
		api.POST("/investments/:id/withdraw", h.Investment.WithdrawEarly)

		api.POST("/deposits", h.Funding.SubmitDeposit)
		api.GET("/deposits", h.Funding.GetDeposits)
		api.POST("/withdrawals", h.Funding.SubmitWithdrawal)
		api.GET("/withdrawals", h.Funding.GetWithdrawals)

		api.GET("/referrals/team", h.Referral.GetTeam)
		api.GET("/referrals/stats", h.Referral.GetStats)

		api.GET("/notifications", h.Notification.GetNotifications)
		api.PATCH("/notifications/:id/read", h.Notification.MarkRead)
		api.PATCH("/notifications/read-all", h.Notification.MarkAllRead)

		api.GET("/ventures", h.Venture.GetVentures)
		api.POST("/ventures/:id/contribute", h.Venture.Contribute)
		api.GET("/contributions", h.Venture.GetContributions)
	}

	// Admin review surface
	admin := router.Group("/api/admin")
	admin.Use(rateLimiter.LimitByIP(), middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/deposits/pending", h.Admin.GetPendingDeposits)
		admin.POST("/deposits/:id/approve", h.Admin.ApproveDeposit)
		admin.POST("/deposits/:id/reject", h.Admin.RejectDeposit)

		admin.GET("/withdrawals/pending", h.Admin.GetPendingWithdrawals)
		admin.POST("/withdrawals/:id/approve", h.Admin.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.Admin.RejectWithdrawal)

		admin.GET("/contributions/pending", h.Admin.GetPendingContributions)
		admin.POST("/contributions/:id/confirm", h.Admin.ConfirmContribution)
		admin.POST("/contributions/:id/reject", h.Admin.RejectContribution)

		admin.POST("/ventures", h.Admin.CreateVenture)
		admin.POST("/plans", h.Admin.CreatePlan)
		admin.PATCH("/plans/:id/status", h.Admin.UpdatePlanStatus)
		admin.POST("/accrual/run", h.Admin.RunAccrual)
		admin.PATCH("/users/:id/restrictions", h.Admin.UpdateRestrictions)
	}
}
