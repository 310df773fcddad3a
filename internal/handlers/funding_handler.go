package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zedfund/backend/internal/services/funding"
)

// FundingHandler handles deposit and withdrawal requests
type FundingHandler struct {
	fundingService *funding.Service
}

// NewFundingHandler creates a new funding handler
func NewFundingHandler(fundingService *funding.Service) *FundingHandler {
	return &FundingHandler{fundingService: fundingService}
}

// SubmitDeposit records a member's claim of an off-platform payment
func (h *FundingHandler) SubmitDeposit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Amount      float64 `json:"amount" binding:"required"`
		Method      string  `json:"method" binding:"required"`
		SenderPhone string  `json:"sender_phone"`
		ProofURL    string  `json:"proof_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.fundingService.SubmitDeposit(userID, input.Amount, input.Method, input.SenderPhone, input.ProofURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"deposit_request": req})
}

// SubmitWithdrawal creates a withdrawal request and holds the funds
func (h *FundingHandler) SubmitWithdrawal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Amount        float64 `json:"amount" binding:"required"`
		Method        string  `json:"method" binding:"required"`
		ReceiverPhone string  `json:"receiver_phone" binding:"required"`
		TOTPCode      string  `json:"totp_code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.fundingService.SubmitWithdrawal(userID, input.Amount, input.Method, input.ReceiverPhone, input.TOTPCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"withdrawal_request": req})
}

// GetDeposits lists the current user's deposit requests
func (h *FundingHandler) GetDeposits(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests, err := h.fundingService.UserDeposits(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deposit_requests": requests})
}

// GetWithdrawals lists the current user's withdrawal requests
func (h *FundingHandler) GetWithdrawals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests, err := h.fundingService.UserWithdrawals(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal_requests": requests})
}
