package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/services/funding"
	"github.com/zedfund/backend/internal/services/investment"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/venture"
	"gorm.io/gorm"
)

// AdminHandler handles the admin review surface: the pending request queue,
// venture confirmations, plan management and account restrictions.
type AdminHandler struct {
	db                *gorm.DB
	fundingService    *funding.Service
	ventureService    *venture.Service
	investmentService *investment.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, fundingService *funding.Service, ventureService *venture.Service, investmentService *investment.Service) *AdminHandler {
	return &AdminHandler{db: db, fundingService: fundingService, ventureService: ventureService, investmentService: investmentService}
}

// GetPendingDeposits lists deposit requests awaiting review
func (h *AdminHandler) GetPendingDeposits(c *gin.Context) {
	requests, err := h.fundingService.PendingDeposits()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposit_requests": requests})
}

// ApproveDeposit approves a pending deposit request
func (h *AdminHandler) ApproveDeposit(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.fundingService.ApproveDeposit(requestID, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit approved"})
}

// RejectDeposit rejects a pending deposit request
func (h *AdminHandler) RejectDeposit(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.fundingService.RejectDeposit(requestID, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit rejected"})
}

// GetPendingWithdrawals lists withdrawal requests awaiting review
func (h *AdminHandler) GetPendingWithdrawals(c *gin.Context) {
	requests, err := h.fundingService.PendingWithdrawals()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal_requests": requests})
}

// ApproveWithdrawal finalizes a pending withdrawal request
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.fundingService.ApproveWithdrawal(requestID, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal approved"})
}

// RejectWithdrawal rejects a pending withdrawal and refunds the hold
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.fundingService.RejectWithdrawal(requestID, adminID, input.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal rejected"})
}

// GetPendingContributions lists venture pledges awaiting review
func (h *AdminHandler) GetPendingContributions(c *gin.Context) {
	contributions, err := h.ventureService.PendingContributions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contributions": contributions})
}

// ConfirmContribution confirms a pledge and debits the contributor
func (h *AdminHandler) ConfirmContribution(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	contributionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ventureService.Confirm(contributionID, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contribution confirmed"})
}

// RejectContribution rejects a pending pledge
func (h *AdminHandler) RejectContribution(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	contributionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ventureService.Reject(contributionID, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contribution rejected"})
}

// CreateVenture opens a new venture
func (h *AdminHandler) CreateVenture(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.ventureService.Create(input.Name, input.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"venture": v})
}

// CreatePlan adds a new investment plan
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var input struct {
		Name         string  `json:"name" binding:"required"`
		Percent      float64 `json:"percent" binding:"required"`
		DurationDays int     `json:"duration_days" binding:"required"`
		MinAmount    float64 `json:"min_amount" binding:"required"`
		MaxAmount    float64 `json:"max_amount"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.investmentService.CreatePlan(input.Name, input.Percent, input.DurationDays, input.MinAmount, input.MaxAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// UpdatePlanStatus opens or closes a plan for new investments
func (h *AdminHandler) UpdatePlanStatus(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.investmentService.SetPlanActive(planID, *input.Active); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "plan updated"})
}

// RunAccrual triggers the profit accrual sweep on demand
func (h *AdminHandler) RunAccrual(c *gin.Context) {
	accrued, matured, err := h.investmentService.RunAccrual()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accrued": accrued, "matured": matured})
}

// UpdateRestrictions toggles a user's deposit, withdrawal and trading flags
func (h *AdminHandler) UpdateRestrictions(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		CanDeposit    *bool `json:"can_deposit"`
		CanWithdraw   *bool `json:"can_withdraw"`
		CanTrade      *bool `json:"can_trade"`
		AccountLocked *bool `json:"account_locked"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.CanDeposit != nil {
		updates["can_deposit"] = *input.CanDeposit
	}
	if input.CanWithdraw != nil {
		updates["can_withdraw"] = *input.CanWithdraw
	}
	if input.CanTrade != nil {
		updates["can_trade"] = *input.CanTrade
	}
	if input.AccountLocked != nil {
		updates["account_locked"] = *input.AccountLocked
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no restriction flags supplied"})
		return
	}

	result := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, ledger.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "restrictions updated"})
}
