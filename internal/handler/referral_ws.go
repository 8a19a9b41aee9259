package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"indico/config"
	"indico/internal/domain"
	"indico/internal/models"
	"indico/internal/service"
	"indico/internal/ws"

	"github.com/gin-gonic/gin"
)

type referralSnapshot struct {
	Type  string            `json:"type"`
	Items []models.Referral `json:"items"`
}

// UpgradeReferralWS streams referral snapshots. Query: token, scope=mine|all,
// optional status. scope=all is restricted to admins.
// GET /ws/referrals
func UpgradeReferralWS(cfg *config.JWTConfig, feed *service.ReferralFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ws.Authenticate(cfg, c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		q := service.ReferralQuery{ReferrerID: id.UserID, Status: domain.ReferralStatus(c.Query("status"))}
		switch c.DefaultQuery("scope", "mine") {
		case "mine":
		case "all":
			if !id.IsAdmin() {
				c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
				return
			}
			q.All = true
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be mine or all"})
			return
		}
		if q.Status != "" && !q.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}

		conn, err := ws.Upgrade(c)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		go func() {
			ws.ReadPump(conn)
			cancel()
		}()

		send := make(chan []byte, 1)
		go func() {
			defer close(send)
			for snap := range feed.Subscribe(ctx, q) {
				b, err := json.Marshal(referralSnapshot{Type: "referrals", Items: snap})
				if err != nil {
					continue
				}
				select {
				case send <- b:
				case <-ctx.Done():
					return
				}
			}
		}()
		ws.WritePump(send, conn)
	}
}
