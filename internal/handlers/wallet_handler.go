package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zedfund/backend/internal/services/ledger"
)

// WalletHandler handles balance and transaction history requests
type WalletHandler struct {
	ledgerService *ledger.Service
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(ledgerService *ledger.Service) *WalletHandler {
	return &WalletHandler{ledgerService: ledgerService}
}

// GetBalances returns the three wallet buckets for the current user
func (h *WalletHandler) GetBalances(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deposit, earnings, referral, err := h.ledgerService.Balances(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deposit":  deposit,
		"earnings": earnings,
		"referral": referral,
	})
}

// GetTransactions returns the current user's paginated transaction history
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	transactions, total, err := h.ledgerService.TransactionHistory(userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}
