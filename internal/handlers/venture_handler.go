package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zedfund/backend/internal/services/venture"
)

// VentureHandler handles venture listing and contribution requests
type VentureHandler struct {
	ventureService *venture.Service
}

// NewVentureHandler creates a new venture handler
func NewVentureHandler(ventureService *venture.Service) *VentureHandler {
	return &VentureHandler{ventureService: ventureService}
}

// GetVentures lists open ventures
func (h *VentureHandler) GetVentures(c *gin.Context) {
	ventures, err := h.ventureService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ventures": ventures})
}

// Contribute pledges funds to a venture
func (h *VentureHandler) Contribute(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ventureID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contribution, err := h.ventureService.Contribute(userID, ventureID, input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contribution": contribution})
}

// GetContributions lists the current user's pledges
func (h *VentureHandler) GetContributions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contributions, err := h.ventureService.UserContributions(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contributions": contributions})
}
