package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"indico/config"
	"indico/internal/auth"
	"indico/internal/domain"
	"indico/internal/metrics"
	"indico/internal/models"
	"indico/internal/repository"
	"indico/pkg/invite"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateReferralInput struct {
	Name         string `json:"name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,max=64"`
	Email        string `json:"email" validate:"omitempty,email,max=255"`
	VehicleType  string `json:"vehicle_type" validate:"max=100"`
	VehicleModel string `json:"vehicle_model" validate:"max=100"`
	VehicleYear  string `json:"vehicle_year" validate:"max=10"`
	Notes        string `json:"notes"`
}

type SetStatusInput struct {
	Status   domain.ReferralStatus `json:"status"`
	Notes    string                `json:"notes"`
	SendLink bool                  `json:"send_link"`
}

// ReferralService owns every referral mutation. Side effects are recorded in
// the outbox inside the mutating transaction and delivered by OutboxRelay.
type ReferralService struct {
	db        *gorm.DB
	referrals *repository.ReferralRepository
	outbox    *repository.OutboxRepository
	discount  *DiscountCalculator
	feed      *ReferralFeed
	cfg       *config.ReferralConfig
	now       func() time.Time
	log       *slog.Logger
}

func NewReferralService(
	db *gorm.DB,
	referrals *repository.ReferralRepository,
	outbox *repository.OutboxRepository,
	discount *DiscountCalculator,
	feed *ReferralFeed,
	cfg *config.ReferralConfig,
) *ReferralService {
	return &ReferralService{
		db:        db,
		referrals: referrals,
		outbox:    outbox,
		discount:  discount,
		feed:      feed,
		cfg:       cfg,
		now:       time.Now,
		log:       slog.Default().With("component", "referrals"),
	}
}

// txErr keeps domain errors and reports anything else from the transaction
// machinery as storage unavailability.
func txErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStorageUnavailable):
		return err
	default:
		return domain.Unavailable(err)
	}
}

func (s *ReferralService) Create(ctx context.Context, who *auth.Identity, in CreateReferralInput) (*models.Referral, error) {
	if who == nil || who.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := s.now().UnixMilli()
	ref := &models.Referral{
		ID:              id.String(),
		ReferrerID:      who.UserID,
		ReferrerName:    who.DisplayName,
		Name:            in.Name,
		Phone:           in.Phone,
		Email:           in.Email,
		VehicleType:     in.VehicleType,
		VehicleModel:    in.VehicleModel,
		VehicleYear:     in.VehicleYear,
		Notes:           in.Notes,
		Status:          domain.StatusPending,
		DiscountApplied: false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.referrals.WithTx(tx).Create(ctx, ref); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, domain.EventReferralCreated, ref)
	})
	if err != nil {
		return nil, fmt.Errorf("create referral: %w", txErr(err))
	}
	s.feed.Publish(ref.ReferrerID)
	s.log.Info("referral created", "referral_id", ref.ID, "referrer_id", ref.ReferrerID)
	return ref, nil
}

func (s *ReferralService) enqueue(ctx context.Context, tx *gorm.DB, eventType string, ref *models.Referral) error {
	e, err := newOutboxEvent(eventType, eventFor(ref))
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Enqueue(ctx, e)
}

func (s *ReferralService) Get(ctx context.Context, id string) (*models.Referral, error) {
	return s.referrals.GetByID(ctx, id)
}

func (s *ReferralService) ListForReferrer(ctx context.Context, referrerID string) ([]models.Referral, error) {
	return s.referrals.ListByReferrer(ctx, referrerID)
}

func (s *ReferralService) ListAll(ctx context.Context, f repository.ReferralFilter) ([]models.Referral, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Invalid("status", "unknown status "+string(f.Status))
	}
	return s.referrals.ListAll(ctx, f)
}

// nextUpdatedAt is now, bumped past prev so updatedAt strictly increases.
func nextUpdatedAt(now, prev int64) int64 {
	if now > prev {
		return now
	}
	return prev + 1
}

// SetStatus moves the referral to in.Status, replaces its notes and refreshes
// updatedAt. Referrer and prospect notifications are enqueued in the same
// transaction.
func (s *ReferralService) SetStatus(ctx context.Context, id string, in SetStatusInput) (*models.Referral, error) {
	if !in.Status.Valid() {
		return nil, domain.Invalid("status", "unknown status "+string(in.Status))
	}
	var updated *models.Referral
	var from domain.ReferralStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs := s.referrals.WithTx(tx)
		ref, err := refs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		from = ref.Status
		if !domain.CanTransition(from, in.Status) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, in.Status)
		}
		ref.Status = in.Status
		ref.Notes = in.Notes
		ref.UpdatedAt = nextUpdatedAt(s.now().UnixMilli(), ref.UpdatedAt)
		err = refs.Update(ctx, id, map[string]any{
			"status":     ref.Status,
			"notes":      ref.Notes,
			"updated_at": ref.UpdatedAt,
		})
		if err != nil {
			return err
		}
		if in.Status.NotifiesReferrer() {
			if err := s.enqueue(ctx, tx, domain.EventReferralStatusChanged, ref); err != nil {
				return err
			}
		}
		if in.Status == domain.StatusContacted && in.SendLink {
			if err := s.enqueue(ctx, tx, domain.EventReferralLinkRequested, ref); err != nil {
				return err
			}
		}
		updated = ref
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set referral status: %w", txErr(err))
	}
	metrics.ReferralTransitions.WithLabelValues(string(from), string(in.Status)).Inc()
	s.feed.Publish(updated.ReferrerID)
	s.log.Info("referral status changed", "referral_id", id, "from", from, "to", in.Status, "send_link", in.SendLink)
	return updated, nil
}

// MarkDiscountApplied flags the referral as counted toward its referrer's
// discount. Calling it again is a no-op.
func (s *ReferralService) MarkDiscountApplied(ctx context.Context, id string) error {
	ref, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ref.DiscountApplied {
		return nil
	}
	if ref.Status != domain.StatusConverted {
		s.log.Warn("discount applied to a referral that is not converted", "referral_id", id, "status", ref.Status)
	}
	if err := s.referrals.Update(ctx, id, map[string]any{"discount_applied": true}); err != nil {
		return err
	}
	s.feed.Publish(ref.ReferrerID)
	return nil
}

func (s *ReferralService) Delete(ctx context.Context, id string) error {
	ref, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.referrals.Delete(ctx, id); err != nil {
		return err
	}
	s.feed.Publish(ref.ReferrerID)
	s.log.Info("referral deleted", "referral_id", id)
	return nil
}

// Discount is the referrer's current renewal discount percentage.
func (s *ReferralService) Discount(ctx context.Context, referrerID string) int {
	return s.discount.DiscountFor(ctx, referrerID)
}

// ShareLink is the WhatsApp link carrying the interest message for ref's prospect.
func (s *ReferralService) ShareLink(ref *models.Referral) string {
	return invite.WhatsAppLink(ref.Phone, s.cfg.DefaultCountryCode, invite.Message(ref.Name, s.cfg.InterestFormURL))
}
