package service

import (
	"context"
	"log/slog"

	"indico/internal/domain"
)

// DiscountPercent is the renewal discount earned by converted referrals:
// two points each, capped at MaxDiscountPercent.
func DiscountPercent(converted int64) int {
	if converted <= 0 {
		return 0
	}
	if converted >= domain.MaxDiscountPercent/domain.DiscountPerConversion {
		return domain.MaxDiscountPercent
	}
	return int(converted) * domain.DiscountPerConversion
}

// ConvertedCounter is the read the calculator needs from the referral store.
type ConvertedCounter interface {
	CountConverted(ctx context.Context, referrerID string) (int64, error)
}

type DiscountCalculator struct {
	store ConvertedCounter
	log   *slog.Logger
}

func NewDiscountCalculator(store ConvertedCounter) *DiscountCalculator {
	return &DiscountCalculator{store: store, log: slog.Default().With("component", "discount")}
}

// DiscountFor recomputes the referrer's discount on every call. It never
// fails; a store error yields 0.
func (c *DiscountCalculator) DiscountFor(ctx context.Context, referrerID string) int {
	n, err := c.store.CountConverted(ctx, referrerID)
	if err != nil {
		c.log.Warn("count converted referrals failed", "referrer_id", referrerID, "error", err)
		return 0
	}
	return DiscountPercent(n)
}
