package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zedfund/backend/internal/services/investment"
)

// InvestmentHandler handles investment lifecycle requests
type InvestmentHandler struct {
	investmentService *investment.Service
}

// NewInvestmentHandler creates a new investment handler
func NewInvestmentHandler(investmentService *investment.Service) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

// GetPlans lists the active investment plans
func (h *InvestmentHandler) GetPlans(c *gin.Context) {
	plans, err := h.investmentService.Plans()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// Invest stakes deposit funds into a plan
func (h *InvestmentHandler) Invest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		PlanID uuid.UUID `json:"plan_id" binding:"required"`
		Amount float64   `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.investmentService.Invest(userID, input.PlanID, input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"investment": inv})
}

// GetInvestments lists the current user's investments
func (h *InvestmentHandler) GetInvestments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	investments, err := h.investmentService.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"investments": investments})
}

// GetInvestment returns a single investment
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	investmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.investmentService.Get(userID, investmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

// WithdrawEarly exits an active investment before maturity
func (h *InvestmentHandler) WithdrawEarly(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	investmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := h.investmentService.WithdrawEarly(userID, investmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "investment withdrawn",
		"payout":  payout,
	})
}
