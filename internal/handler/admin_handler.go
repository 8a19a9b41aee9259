package handler

import (
	"context"
	"errors"
	"net/http"

	"indico/internal/domain"
	"indico/internal/repository"
	"indico/internal/scheduler"
	"indico/internal/service"

	"github.com/gin-gonic/gin"
)

// JobRunner triggers and lists scheduled jobs.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	Jobs() []scheduler.JobInfo
}

type AdminHandler struct {
	referrals *service.ReferralService
	store     *repository.ReferralRepository
	users     *repository.UserRepository
	outbox    *repository.OutboxRepository
	feed      *service.ReferralFeed
	jobs      JobRunner
}

func NewAdminHandler(
	referrals *service.ReferralService,
	store *repository.ReferralRepository,
	users *repository.UserRepository,
	outbox *repository.OutboxRepository,
	feed *service.ReferralFeed,
	jobs JobRunner,
) *AdminHandler {
	return &AdminHandler{referrals: referrals, store: store, users: users, outbox: outbox, feed: feed, jobs: jobs}
}

// Dashboard summarizes referral counts per status and background work.
// GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := h.store.CountByStatus(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	byStatus := make(map[domain.ReferralStatus]int64, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		byStatus[s] = 0
	}
	var total int64
	for _, sc := range counts {
		byStatus[sc.Status] = sc.Count
		total += sc.Count
	}
	users, err := h.users.Count(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	pending, err := h.outbox.CountPending(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	out := gin.H{
		"referrals":        gin.H{"total": total, "by_status": byStatus},
		"users":            users,
		"outbox_pending":   pending,
		"feed_subscribers": h.feed.Subscribers(),
	}
	if h.jobs != nil {
		out["jobs"] = h.jobs.Jobs()
	}
	c.JSON(http.StatusOK, out)
}

// GET /admin/referrals?status=
func (h *AdminHandler) ListReferrals(c *gin.Context) {
	f := repository.ReferralFilter{
		Status:     domain.ReferralStatus(c.Query("status")),
		ReferrerID: c.Query("referrer_id"),
	}
	list, err := h.referrals.ListAll(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": list, "total": len(list)})
}

// SetStatus moves a referral to a new status. With send_link on a move to
// contacted, the response also carries a WhatsApp link for the prospect.
// PATCH /admin/referrals/:id/status
func (h *AdminHandler) SetStatus(c *gin.Context) {
	var req service.SetStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ref, err := h.referrals.SetStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	out := gin.H{"referral": ref}
	if req.SendLink && ref.Status == domain.StatusContacted {
		out["whatsapp_link"] = h.referrals.ShareLink(ref)
	}
	c.JSON(http.StatusOK, out)
}

// POST /admin/referrals/:id/discount-applied
func (h *AdminHandler) MarkDiscountApplied(c *gin.Context) {
	if err := h.referrals.MarkDiscountApplied(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DELETE /admin/referrals/:id
func (h *AdminHandler) DeleteReferral(c *gin.Context) {
	if err := h.referrals.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /admin/users/:id/discount
func (h *AdminHandler) UserDiscount(c *gin.Context) {
	userID := c.Param("id")
	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":          userID,
		"discount_percent": h.referrals.Discount(c.Request.Context(), userID),
	})
}

// RunExpirationScan triggers the global scan, superseding a run in progress.
// POST /admin/scans/expiration
func (h *AdminHandler) RunExpirationScan(c *gin.Context) {
	if h.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}
	err := h.jobs.RunNow(c.Request.Context(), domain.JobExpirationScan)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "completed", "job": domain.JobExpirationScan})
	case errors.Is(err, scheduler.ErrUnknownJob):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		respondError(c, err)
	}
}
