package handler

import (
	"net/http"

	"indico/internal/domain"
	"indico/internal/middleware"
	"indico/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	svc *service.ReferralService
}

func NewReferralHandler(svc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

// Create records a referral by the caller.
// POST /referrals
func (h *ReferralHandler) Create(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req service.CreateReferralInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ref, err := h.svc.Create(c.Request.Context(), &id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"referral": ref})
}

// Get returns one referral to its referrer or to an admin.
// GET /referrals/:id
func (h *ReferralHandler) Get(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ref, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if ref.ReferrerID != id.UserID && !id.IsAdmin() {
		respondError(c, domain.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral": ref, "status_label": ref.StatusLabel()})
}
