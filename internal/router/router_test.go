package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"indico/config"
	"indico/internal/database"
	"indico/internal/domain"
	"indico/internal/repository"
	"indico/internal/scheduler"
	"indico/internal/service"
	"indico/internal/testutil"
	"indico/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobs struct {
	ran []string
}

func (f *fakeJobs) RunNow(_ context.Context, name string) error {
	f.ran = append(f.ran, name)
	return nil
}

func (f *fakeJobs) Jobs() []scheduler.JobInfo {
	return []scheduler.JobInfo{{Name: domain.JobExpirationScan, Spec: "@daily"}}
}

type testServer struct {
	engine *gin.Engine
	relay  *service.OutboxRelay
	jobs   *fakeJobs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT: config.JWTConfig{
			AccessSecret:  "access",
			RefreshSecret: "refresh",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "indico-test",
		},
		Scanner: config.ScannerConfig{ThresholdDays: 30, Cooldown: 72 * time.Hour},
		Referral: config.ReferralConfig{
			InterestFormURL:    "https://example.com/quote",
			DefaultCountryCode: "55",
			OutboxMaxAttempts:  3,
			OutboxBatchSize:    50,
		},
		Admin: config.AdminConfig{Name: "Admin", Email: "admin@example.com", Password: "admin-pass"},
	}
	db := testutil.OpenDB(t)
	require.NoError(t, database.SeedAdmin(db, &cfg.Admin))

	users := repository.NewUserRepository(db)
	referrals := repository.NewReferralRepository(db)
	outbox := repository.NewOutboxRepository(db)
	notifications := repository.NewNotificationRepository(db)
	policies := repository.NewPolicyRepository(db)
	hub := ws.NewHub()
	notifier := service.NewNotificationService(notifications, users, hub, nil)
	discount := service.NewDiscountCalculator(referrals)
	feed := service.NewReferralFeed(referrals)
	jobs := &fakeJobs{}

	engine := Setup(cfg, Deps{
		Ping:          func(ctx context.Context) error { return database.Ping(ctx, db) },
		Hub:           hub,
		Users:         users,
		Referrals:     referrals,
		Outbox:        outbox,
		Notifications: notifications,
		Auth:          service.NewAuthService(cfg, users),
		ReferralSvc:   service.NewReferralService(db, referrals, outbox, discount, feed, &cfg.Referral),
		Feed:          feed,
		Policies:      service.NewPolicyService(policies),
		Scanner:       service.NewExpirationScanner(policies, repository.NewAlertRepository(db), notifier, &cfg.Scanner),
		Jobs:          jobs,
	})
	return &testServer{
		engine: engine,
		relay:  service.NewOutboxRelay(outbox, users, notifier, nil, discount, &cfg.Referral),
		jobs:   jobs,
	}
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	code, body := s.call(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": email, "password": "password-123",
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["access_token"].(string)
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	code, body := s.call(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, body)
	return body["access_token"].(string)
}

func TestReferralFlow(t *testing.T) {
	s := newTestServer(t)
	ana := s.register(t, "Ana", "ana@example.com")
	bruno := s.register(t, "Bruno", "bruno@example.com")
	admin := s.login(t, "admin@example.com", "admin-pass")

	code, body := s.call(t, http.MethodPost, "/api/v1/referrals", ana, gin.H{
		"name": "Carlos", "phone": "(41) 99999-0000", "vehicle_type": "car",
	})
	require.Equal(t, http.StatusCreated, code, body)
	refID := body["referral"].(map[string]any)["id"].(string)

	code, body = s.call(t, http.MethodGet, "/api/v1/me/referrals", ana, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, _ = s.call(t, http.MethodGet, "/api/v1/referrals/"+refID, bruno, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.call(t, http.MethodGet, "/api/v1/referrals/"+refID, admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.call(t, http.MethodGet, "/api/v1/referrals/missing", ana, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.call(t, http.MethodPatch, "/api/v1/admin/referrals/"+refID+"/status", ana, gin.H{"status": "contacted"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.call(t, http.MethodPatch, "/api/v1/admin/referrals/"+refID+"/status", admin, gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.call(t, http.MethodPatch, "/api/v1/admin/referrals/"+refID+"/status", admin, gin.H{
		"status": "contacted", "notes": "ligou", "send_link": true,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body["whatsapp_link"], "phone=5541999990000")

	_, err := s.relay.RelayPending(context.Background())
	require.NoError(t, err)
	code, body = s.call(t, http.MethodGet, "/api/v1/me/notifications", ana, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["unread"])

	code, _ = s.call(t, http.MethodPatch, "/api/v1/admin/referrals/"+refID+"/status", admin, gin.H{"status": "converted"})
	require.Equal(t, http.StatusOK, code)
	code, body = s.call(t, http.MethodGet, "/api/v1/me/discount", ana, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["discount_percent"])

	code, body = s.call(t, http.MethodGet, "/api/v1/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, code)
	byStatus := body["referrals"].(map[string]any)["by_status"].(map[string]any)
	assert.EqualValues(t, 1, byStatus["converted"])
	assert.EqualValues(t, 0, byStatus["pending"])

	code, _ = s.call(t, http.MethodPost, "/api/v1/admin/referrals/"+refID+"/discount-applied", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.call(t, http.MethodDelete, "/api/v1/admin/referrals/"+refID, admin, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.call(t, http.MethodDelete, "/api/v1/admin/referrals/"+refID, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPolicyRoutes(t *testing.T) {
	s := newTestServer(t)
	ana := s.register(t, "Ana", "ana@example.com")
	bruno := s.register(t, "Bruno", "bruno@example.com")

	code, body := s.call(t, http.MethodPost, "/api/v1/me/condominiums", ana, gin.H{"name": "Residencial Sol"})
	require.Equal(t, http.StatusCreated, code, body)
	condoID := body["condominium"].(map[string]any)["id"].(string)

	now := time.Now()
	code, body = s.call(t, http.MethodPost, "/api/v1/me/condominiums/"+condoID+"/policies", ana, gin.H{
		"policy_number": "APL-9",
		"premium":       "1200,00",
		"start_date":    now.AddDate(-1, 0, 0).UnixMilli(),
		"end_date":      now.Add(10 * 24 * time.Hour).UnixMilli(),
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, _ = s.call(t, http.MethodGet, "/api/v1/me/condominiums/"+condoID+"/policies", bruno, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.call(t, http.MethodGet, "/api/v1/me/policies/expiring", ana, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, body = s.call(t, http.MethodPost, "/api/v1/me/scans/expiration", ana, nil)
	require.Equal(t, http.StatusOK, code)
	report := body["report"].(map[string]any)
	assert.EqualValues(t, 1, report["notified"])

	code, body = s.call(t, http.MethodPost, "/api/v1/me/scans/expiration", ana, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["report"].(map[string]any)["suppressed"])
}

func TestAdminScanAndHealth(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@example.com", "admin-pass")

	code, _ := s.call(t, http.MethodPost, "/api/v1/admin/scans/expiration", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{domain.JobExpirationScan}, s.jobs.ran)

	code, body := s.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = s.call(t, http.MethodGet, "/api/v1/me/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
