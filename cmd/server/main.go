package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"indico/config"
	"indico/internal/database"
	"indico/internal/domain"
	"indico/internal/logger"
	"indico/internal/middleware"
	"indico/internal/repository"
	"indico/internal/router"
	"indico/internal/scheduler"
	"indico/internal/service"
	"indico/internal/ws"
	"indico/pkg/mailer"

	"gorm.io/gorm"
)

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log.Level)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		fatal(log, "database", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		fatal(log, "migrate", err)
	}
	if err := database.SeedAdmin(db, &cfg.Admin); err != nil {
		fatal(log, "seed admin", err)
	}
	ping := func(ctx context.Context) error { return database.Ping(ctx, db) }

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	policyRepo := repository.NewPolicyRepository(db)

	hub := ws.NewHub()

	// Delivery channels. Interfaces get an untyped nil when a channel is off.
	var push service.Pusher
	if fcm := service.NewFCMService(ctx, cfg.Firebase.ServiceAccountPath); fcm != nil {
		push = fcm
		log.Info("push notifications enabled")
	} else {
		log.Info("push notifications disabled", "hint", "set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	var prospects service.ProspectMessenger
	if m := mailer.New(&cfg.SMTP); m != nil {
		prospects = m
		log.Info("prospect email enabled", "smtp_host", cfg.SMTP.Host)
	}
	notifier := service.NewNotificationService(notificationRepo, userRepo, hub, push)

	ledger := alertLedger(log, cfg, db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	discount := service.NewDiscountCalculator(referralRepo)
	feed := service.NewReferralFeed(referralRepo)
	referralSvc := service.NewReferralService(db, referralRepo, outboxRepo, discount, feed, &cfg.Referral)
	relay := service.NewOutboxRelay(outboxRepo, userRepo, notifier, prospects, discount, &cfg.Referral)
	scanner := service.NewExpirationScanner(policyRepo, ledger, notifier, &cfg.Scanner)
	policySvc := service.NewPolicyService(policyRepo)

	sched := scheduler.New(scheduler.Connectivity(cfg.Scheduler.ConnectivityAddr, cfg.Scheduler.ConnectivityTimeout, ping))
	err = sched.Register(domain.JobExpirationScan, cfg.Scheduler.ExpirationScanSpec, func(ctx context.Context) error {
		_, err := scanner.ScanAll(ctx)
		return err
	})
	if err != nil {
		fatal(log, "register expiration scan", err)
	}
	err = sched.Register(domain.JobOutboxRelay, cfg.Scheduler.OutboxRelaySpec, func(ctx context.Context) error {
		_, err := relay.RelayPending(ctx)
		return err
	}, scheduler.WithoutProbe())
	if err != nil {
		fatal(log, "register outbox relay", err)
	}
	sched.Start()

	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.Run(ctx)

	engine := router.Setup(cfg, router.Deps{
		Ping:          ping,
		Hub:           hub,
		Users:         userRepo,
		Referrals:     referralRepo,
		Outbox:        outboxRepo,
		Notifications: notificationRepo,
		Auth:          authSvc,
		ReferralSvc:   referralSvc,
		Feed:          feed,
		Policies:      policySvc,
		Scanner:       scanner,
		Jobs:          sched,
		Limiter:       limiter,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "listen", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("scheduler shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("server stopped")
}

// alertLedger keeps the expiry cool-down in valkey when VALKEY_ADDR is set,
// and in the database otherwise.
func alertLedger(log *slog.Logger, cfg *config.Config, db *gorm.DB) service.AlertLedger {
	if cfg.Valkey.Addr == "" {
		return repository.NewAlertRepository(db)
	}
	client, err := repository.NewValkeyClient(&cfg.Valkey)
	if err != nil {
		log.Warn("valkey unavailable, keeping alert ledger in the database", "addr", cfg.Valkey.Addr, "error", err)
		return repository.NewAlertRepository(db)
	}
	log.Info("alert ledger in valkey", "addr", cfg.Valkey.Addr)
	return repository.NewAlertCache(client)
}
