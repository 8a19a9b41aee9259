package handler

import (
	"net/http"

	"indico/internal/middleware"
	"indico/internal/service"

	"github.com/gin-gonic/gin"
)

// PolicyHandler serves a user's condominiums, their policies and the expiry views.
type PolicyHandler struct {
	policies *service.PolicyService
	scanner  *service.ExpirationScanner
}

func NewPolicyHandler(policies *service.PolicyService, scanner *service.ExpirationScanner) *PolicyHandler {
	return &PolicyHandler{policies: policies, scanner: scanner}
}

// GET /me/condominiums
func (h *PolicyHandler) ListCondominiums(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.policies.ListCondominiums(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"condominiums": list})
}

// POST /me/condominiums
func (h *PolicyHandler) CreateCondominium(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req service.CondominiumInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	condo, err := h.policies.CreateCondominium(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"condominium": condo})
}

// PUT /me/condominiums/:id
func (h *PolicyHandler) UpdateCondominium(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req service.CondominiumInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	condo, err := h.policies.UpdateCondominium(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"condominium": condo})
}

// DELETE /me/condominiums/:id
func (h *PolicyHandler) DeleteCondominium(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.policies.DeleteCondominium(c.Request.Context(), id, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /me/condominiums/:id/policies
func (h *PolicyHandler) ListPolicies(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.policies.ListPolicies(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policies": list})
}

// POST /me/condominiums/:id/policies
func (h *PolicyHandler) CreatePolicy(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req service.PolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.policies.CreatePolicy(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"policy": p})
}

// PUT /me/policies/:id
func (h *PolicyHandler) UpdatePolicy(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req service.PolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.policies.UpdatePolicy(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policy": p})
}

// DELETE /me/policies/:id
func (h *PolicyHandler) DeletePolicy(c *gin.Context) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.policies.DeletePolicy(c.Request.Context(), id, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Expiring previews the caller's policies inside the warning window.
// GET /me/policies/expiring
func (h *PolicyHandler) Expiring(c *gin.Context) {
	list, err := h.scanner.Expiring(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policies": list, "total": len(list)})
}

// Scan notifies the caller about its expiring policies now.
// POST /me/scans/expiration
func (h *PolicyHandler) Scan(c *gin.Context) {
	report, err := h.scanner.ScanUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
