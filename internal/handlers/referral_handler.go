package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zedfund/backend/internal/services/referral"
)

// ReferralHandler handles referral team and stats requests
type ReferralHandler struct {
	referralService *referral.Service
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralService *referral.Service) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// GetTeam lists the users referred by the current user
func (h *ReferralHandler) GetTeam(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	team, err := h.referralService.Team(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"team": team})
}

// GetStats returns the current user's referral summary
func (h *ReferralHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.referralService.GetStats(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
