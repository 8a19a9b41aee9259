package router

import (
	"context"
	"log/slog"

	"indico/config"
	"indico/internal/handler"
	"indico/internal/metrics"
	"indico/internal/middleware"
	"indico/internal/repository"
	"indico/internal/service"
	"indico/internal/ws"

	"github.com/gin-gonic/gin"
)

// Deps is everything the HTTP surface serves from. main builds it.
type Deps struct {
	Ping          func(context.Context) error
	Hub           *ws.Hub
	Users         *repository.UserRepository
	Referrals     *repository.ReferralRepository
	Outbox        *repository.OutboxRepository
	Notifications *repository.NotificationRepository
	Auth          *service.AuthService
	ReferralSvc   *service.ReferralService
	Feed          *service.ReferralFeed
	Policies      *service.PolicyService
	Scanner       *service.ExpirationScanner
	Jobs          handler.JobRunner
	Limiter       *middleware.InMemoryRateLimiter
}

func Setup(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(slog.Default().With("component", "http")))
	r.Use(metrics.Middleware())
	if d.Limiter != nil {
		r.Use(middleware.RateLimit(&cfg.JWT, d.Limiter))
	}

	authHandler := handler.NewAuthHandler(d.Auth)
	meHandler := handler.NewMeHandler(d.Users, d.ReferralSvc)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	referralHandler := handler.NewReferralHandler(d.ReferralSvc)
	policyHandler := handler.NewPolicyHandler(d.Policies, d.Scanner)
	adminHandler := handler.NewAdminHandler(d.ReferralSvc, d.Referrals, d.Users, d.Outbox, d.Feed, d.Jobs)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/health", handler.Health(d.Ping))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.Profile)
			me.POST("/fcm-token", meHandler.UpdateFCMToken)
			me.GET("/discount", meHandler.Discount)
			me.GET("/referrals", meHandler.Referrals)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)

			me.GET("/condominiums", policyHandler.ListCondominiums)
			me.POST("/condominiums", policyHandler.CreateCondominium)
			me.PUT("/condominiums/:id", policyHandler.UpdateCondominium)
			me.DELETE("/condominiums/:id", policyHandler.DeleteCondominium)
			me.GET("/condominiums/:id/policies", policyHandler.ListPolicies)
			me.POST("/condominiums/:id/policies", policyHandler.CreatePolicy)
			me.GET("/policies/expiring", policyHandler.Expiring)
			me.PUT("/policies/:id", policyHandler.UpdatePolicy)
			me.DELETE("/policies/:id", policyHandler.DeletePolicy)
			me.POST("/scans/expiration", policyHandler.Scan)
		}

		api.POST("/referrals", authMw, referralHandler.Create)
		api.GET("/referrals/:id", authMw, referralHandler.Get)

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/referrals", adminHandler.ListReferrals)
			admin.PATCH("/referrals/:id/status", adminHandler.SetStatus)
			admin.POST("/referrals/:id/discount-applied", adminHandler.MarkDiscountApplied)
			admin.DELETE("/referrals/:id", adminHandler.DeleteReferral)
			admin.GET("/users/:id/discount", adminHandler.UserDiscount)
			admin.POST("/scans/expiration", adminHandler.RunExpirationScan)
		}
	}

	r.GET("/ws/referrals", handler.UpgradeReferralWS(&cfg.JWT, d.Feed))
	r.GET("/ws/notifications", ws.UpgradeNotificationWS(&cfg.JWT, d.Hub))

	return r
}
