package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"indico/config"
	"indico/internal/domain"
	"indico/internal/metrics"
	"indico/internal/models"
	"indico/pkg/invite"
)

type outboxStore interface {
	Pending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id, reason string, deadLetter bool) error
}

type adminLister interface {
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// OutboxRelay delivers recorded referral events through the notifier and the
// prospect mailer.
type OutboxRelay struct {
	store     outboxStore
	admins    adminLister
	notifier  Notifier
	prospects ProspectMessenger
	discount  *DiscountCalculator
	cfg       *config.ReferralConfig
	log       *slog.Logger
}

func NewOutboxRelay(store outboxStore, admins adminLister, notifier Notifier, prospects ProspectMessenger, discount *DiscountCalculator, cfg *config.ReferralConfig) *OutboxRelay {
	return &OutboxRelay{
		store:     store,
		admins:    admins,
		notifier:  notifier,
		prospects: prospects,
		discount:  discount,
		cfg:       cfg,
		log:       slog.Default().With("component", "outbox_relay"),
	}
}

// RelayPending dispatches one batch of undelivered events in recording order
// and returns how many were delivered.
func (r *OutboxRelay) RelayPending(ctx context.Context) (int, error) {
	batch := r.cfg.OutboxBatchSize
	if batch <= 0 {
		batch = 100
	}
	events, err := r.store.Pending(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("load outbox: %w", err)
	}
	delivered := 0
	for i := range events {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		e := &events[i]
		if err := r.dispatch(ctx, e); err != nil {
			r.failed(ctx, e, err)
			continue
		}
		if err := r.store.MarkDispatched(ctx, e.ID); err != nil {
			return delivered, fmt.Errorf("mark outbox event %s: %w", e.ID, err)
		}
		metrics.OutboxEvents.WithLabelValues(e.Type, "delivered").Inc()
		delivered++
	}
	return delivered, nil
}

func (r *OutboxRelay) failed(ctx context.Context, e *models.OutboxEvent, cause error) {
	maxAttempts := r.cfg.OutboxMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	dead := e.Attempts+1 >= maxAttempts
	result := "retry"
	if dead {
		result = "dead_letter"
	}
	metrics.OutboxEvents.WithLabelValues(e.Type, result).Inc()
	r.log.Warn("outbox event failed", "event_id", e.ID, "type", e.Type, "attempt", e.Attempts+1, "dead_letter", dead, "error", cause)
	if err := r.store.RecordFailure(ctx, e.ID, cause.Error(), dead); err != nil {
		r.log.Error("record outbox failure", "event_id", e.ID, "error", err)
	}
}

func (r *OutboxRelay) dispatch(ctx context.Context, e *models.OutboxEvent) error {
	var ev referralEvent
	if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	switch e.Type {
	case domain.EventReferralCreated:
		return r.referralCreated(ctx, ev)
	case domain.EventReferralStatusChanged:
		r.statusChanged(ctx, ev)
		return nil
	case domain.EventReferralLinkRequested:
		r.linkRequested(ev)
		return nil
	default:
		return fmt.Errorf("unknown outbox event type %q", e.Type)
	}
}

func (r *OutboxRelay) referralCreated(ctx context.Context, ev referralEvent) error {
	admins, err := r.admins.ListAdmins(ctx)
	if err != nil {
		return err
	}
	referrer := ev.ReferrerName
	if referrer == "" {
		referrer = "Um cliente"
	}
	body := fmt.Sprintf("%s indicou %s.", referrer, ev.ProspectName)
	for _, a := range admins {
		r.notifier.NotifyUser(ctx, a.ID, "Nova indicação", body, map[string]string{
			"type":   domain.NotifReferralNew,
			"id":     ev.ReferralID,
			"action": "admin_indications",
		})
	}
	return nil
}

func (r *OutboxRelay) statusChanged(ctx context.Context, ev referralEvent) {
	data := map[string]string{
		"id":     ev.ReferralID,
		"action": "my_indications",
		"status": string(ev.Status),
	}
	switch ev.Status {
	case domain.StatusContacted:
		data["type"] = domain.NotifReferralLink
		r.notifier.NotifyUser(ctx, ev.ReferrerID, "Parabéns pela sua indicação!",
			fmt.Sprintf("Sua indicação para %s foi contatada.", ev.ProspectName), data)
	case domain.StatusConverted:
		pct := r.discount.DiscountFor(ctx, ev.ReferrerID)
		data["type"] = domain.NotifReferralStatus
		data["discount"] = fmt.Sprintf("%d", pct)
		r.notifier.NotifyUser(ctx, ev.ReferrerID, "Indicação convertida!",
			fmt.Sprintf("Sua indicação para %s foi convertida. Seu desconto na renovação agora é de %d%%.", ev.ProspectName, pct), data)
	}
}

func (r *OutboxRelay) linkRequested(ev referralEvent) {
	if ev.ProspectEmail == "" || r.prospects == nil {
		return
	}
	msg := invite.Message(ev.ProspectName, r.cfg.InterestFormURL)
	if err := r.prospects.Send(ev.ProspectEmail, invite.EmailSubject, msg); err != nil {
		metrics.DispatchFailures.WithLabelValues("email").Inc()
		r.log.Warn("interest link email failed", "referral_id", ev.ReferralID,
			"error", fmt.Errorf("%w: %v", domain.ErrDispatchFailure, err))
		return
	}
	metrics.NotificationsSent.WithLabelValues("email").Inc()
}
