package repository

import (
	"context"
	"errors"
	"time"

	"indico/internal/models"

	"gorm.io/gorm"
)

// cooldownSlack absorbs start-time jitter of the daily scan.
const cooldownSlack = time.Hour

func effectiveCooldown(cooldown time.Duration) time.Duration {
	if cooldown > 2*cooldownSlack {
		return cooldown - cooldownSlack
	}
	return cooldown
}

// AlertRepository is the database-backed expiry alert ledger.
type AlertRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db, now: time.Now}
}

// Claim reports whether an alert for (policyID, endDate) may be sent now and,
// if so, records it. A zero cooldown always claims.
func (r *AlertRepository) Claim(ctx context.Context, policyID string, endDate int64, cooldown time.Duration) (bool, error) {
	now := r.now()
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.PolicyAlert
		err := tx.Where("policy_id = ? AND end_date = ?", policyID, endDate).First(&a).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			claimed = true
			return tx.Create(&models.PolicyAlert{PolicyID: policyID, EndDate: endDate, LastNotifiedAt: now}).Error
		case err != nil:
			return err
		}
		if cooldown > 0 && now.Sub(a.LastNotifiedAt) < effectiveCooldown(cooldown) {
			return nil
		}
		claimed = true
		return tx.Model(&a).Update("last_notified_at", now).Error
	})
	if err != nil {
		return false, storeErr(err)
	}
	return claimed, nil
}
