package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"indico/config"
	"indico/internal/domain"
	"indico/internal/metrics"
	"indico/internal/models"
)

// PolicyProvider resolves condominiums and their policies.
type PolicyProvider interface {
	CondominiumsOf(ctx context.Context, userID string) ([]models.Condominium, error)
	AllCondominiums(ctx context.Context) ([]models.Condominium, error)
	PoliciesOf(ctx context.Context, condominiumID string) ([]models.Policy, error)
}

// AlertLedger suppresses repeated expiry alerts for the same policy window.
type AlertLedger interface {
	Claim(ctx context.Context, policyID string, endDate int64, cooldown time.Duration) (bool, error)
}

type ExpiringPolicy struct {
	Policy          models.Policy `json:"policy"`
	CondominiumID   string        `json:"condominium_id"`
	CondominiumName string        `json:"condominium_name"`
	OwnerID         string        `json:"-"`
	RemainingDays   int           `json:"remaining_days"`
}

type ScanReport struct {
	Condominiums       int `json:"condominiums"`
	FailedCondominiums int `json:"failed_condominiums"`
	Expiring           int `json:"expiring"`
	Notified           int `json:"notified"`
	Suppressed         int `json:"suppressed"`
}

const endDateLayout = "02/01/2006"

// ExpirationScanner warns condominium owners about active policies that
// expire within the threshold.
type ExpirationScanner struct {
	provider PolicyProvider
	ledger   AlertLedger
	notifier Notifier
	cfg      *config.ScannerConfig
	now      func() time.Time
	log      *slog.Logger
}

func NewExpirationScanner(provider PolicyProvider, ledger AlertLedger, notifier Notifier, cfg *config.ScannerConfig) *ExpirationScanner {
	return &ExpirationScanner{
		provider: provider,
		ledger:   ledger,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		log:      slog.Default().With("component", "expiration_scanner"),
	}
}

func (s *ExpirationScanner) threshold() int {
	if s.cfg.ThresholdDays > 0 {
		return s.cfg.ThresholdDays
	}
	return domain.DefaultExpiryWarningDays
}

// ScanUser notifies userID about its own expiring policies.
func (s *ExpirationScanner) ScanUser(ctx context.Context, userID string) (ScanReport, error) {
	condos, err := s.provider.CondominiumsOf(ctx, userID)
	if err != nil {
		return ScanReport{}, fmt.Errorf("enumerate condominiums of %s: %w", userID, err)
	}
	return s.scan(ctx, condos)
}

// ScanAll runs the scan over every condominium; this is the scheduled job.
func (s *ExpirationScanner) ScanAll(ctx context.Context) (ScanReport, error) {
	condos, err := s.provider.AllCondominiums(ctx)
	if err != nil {
		return ScanReport{}, fmt.Errorf("enumerate condominiums: %w", err)
	}
	return s.scan(ctx, condos)
}

// Expiring lists userID's expiring policies without notifying.
func (s *ExpirationScanner) Expiring(ctx context.Context, userID string) ([]ExpiringPolicy, error) {
	condos, err := s.provider.CondominiumsOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("enumerate condominiums of %s: %w", userID, err)
	}
	out := []ExpiringPolicy{}
	now := s.now()
	for _, c := range condos {
		found, err := s.expiringIn(ctx, c, now)
		if err != nil {
			s.log.Warn("policy fetch failed, skipping condominium", "condominium_id", c.ID, "error", err)
			continue
		}
		out = append(out, found...)
	}
	return out, nil
}

func (s *ExpirationScanner) expiringIn(ctx context.Context, c models.Condominium, now time.Time) ([]ExpiringPolicy, error) {
	policies, err := s.provider.PoliciesOf(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	var out []ExpiringPolicy
	for _, p := range policies {
		if !p.EffectivelyActive(now) {
			continue
		}
		days := p.RemainingDays(now)
		if days >= s.threshold() {
			continue
		}
		out = append(out, ExpiringPolicy{
			Policy:          p,
			CondominiumID:   c.ID,
			CondominiumName: c.Name,
			OwnerID:         c.UserID,
			RemainingDays:   days,
		})
	}
	return out, nil
}

func (s *ExpirationScanner) scan(ctx context.Context, condos []models.Condominium) (ScanReport, error) {
	report := ScanReport{Condominiums: len(condos)}
	now := s.now()
	for _, c := range condos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		found, err := s.expiringIn(ctx, c, now)
		if err != nil {
			report.FailedCondominiums++
			metrics.ExpiryAlerts.WithLabelValues("fetch_failed").Inc()
			s.log.Warn("policy fetch failed, skipping condominium", "condominium_id", c.ID, "error", err)
			continue
		}
		for _, ep := range found {
			report.Expiring++
			if !s.claim(ctx, ep) {
				report.Suppressed++
				metrics.ExpiryAlerts.WithLabelValues("suppressed").Inc()
				continue
			}
			s.notify(ctx, ep)
			report.Notified++
			metrics.ExpiryAlerts.WithLabelValues("notified").Inc()
		}
	}
	s.log.Info("expiration scan finished",
		"condominiums", report.Condominiums,
		"failed", report.FailedCondominiums,
		"expiring", report.Expiring,
		"notified", report.Notified,
		"suppressed", report.Suppressed)
	return report, nil
}

// claim fails open: a ledger error still lets the alert through.
func (s *ExpirationScanner) claim(ctx context.Context, ep ExpiringPolicy) bool {
	if s.ledger == nil {
		return true
	}
	ok, err := s.ledger.Claim(ctx, ep.Policy.ID, ep.Policy.EndDate, s.cfg.Cooldown)
	if err != nil {
		s.log.Warn("alert ledger unavailable, sending anyway", "policy_id", ep.Policy.ID, "error", err)
		return true
	}
	return ok
}

func (s *ExpirationScanner) notify(ctx context.Context, ep ExpiringPolicy) {
	endText := ep.Policy.EndTime().UTC().Format(endDateLayout)
	body := fmt.Sprintf("O seguro %s do condomínio %s vence em %d dias (%s).",
		ep.Policy.PolicyNumber, ep.CondominiumName, ep.RemainingDays, endText)
	s.notifier.NotifyUser(ctx, ep.OwnerID, "Seguro prestes a vencer", body, map[string]string{
		"type":           domain.NotifPolicyExpiring,
		"id":             ep.Policy.ID,
		"action":         "insurance_detail",
		"policy_number":  ep.Policy.PolicyNumber,
		"condominium":    ep.CondominiumName,
		"remaining_days": strconv.Itoa(ep.RemainingDays),
		"end_date":       endText,
	})
}
