package handler

import (
	"net/http"

	"indico/internal/domain"
	"indico/internal/middleware"
	"indico/internal/repository"
	"indico/internal/service"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	users     *repository.UserRepository
	referrals *service.ReferralService
}

func NewMeHandler(users *repository.UserRepository, referrals *service.ReferralService) *MeHandler {
	return &MeHandler{users: users, referrals: referrals}
}

// GET /me/profile
func (h *MeHandler) Profile(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type fcmTokenRequest struct {
	Token string `json:"token"`
}

// UpdateFCMToken stores the device token used for background pushes. An
// empty token unregisters the device.
// POST /me/fcm-token
func (h *MeHandler) UpdateFCMToken(c *gin.Context) {
	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.users.UpdateFCMToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /me/discount
func (h *MeHandler) Discount(c *gin.Context) {
	pct := h.referrals.Discount(c.Request.Context(), middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{
		"discount_percent":        pct,
		"max_discount_percent":    domain.MaxDiscountPercent,
		"discount_per_conversion": domain.DiscountPerConversion,
	})
}

// GET /me/referrals
func (h *MeHandler) Referrals(c *gin.Context) {
	list, err := h.referrals.ListForReferrer(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": list, "total": len(list)})
}
