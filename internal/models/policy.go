package models

import (
	"time"

	"indico/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Policy is an insurance contract attached to a condominium. StartDate and
// EndDate bound its validity window, in milliseconds since epoch.
type Policy struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	CondominiumID  string          `gorm:"size:36;not null;index" json:"condominium_id"`
	PolicyNumber   string          `gorm:"size:100;not null" json:"policy_number"`
	Carrier        string          `gorm:"size:255" json:"carrier"`
	CoverageType   string          `gorm:"size:100" json:"coverage_type"`
	CoverageAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"coverage_amount"`
	Premium        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"premium"`
	StartDate      int64           `gorm:"not null" json:"start_date"`
	EndDate        int64           `gorm:"not null;index" json:"end_date"`
	Status         string          `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt      int64           `gorm:"autoCreateTime:milli" json:"created_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Policy) TableName() string { return "policies" }

// EffectivelyActive is true only when the policy is flagged active and now
// falls inside [StartDate, EndDate].
func (p *Policy) EffectivelyActive(now time.Time) bool {
	ms := now.UnixMilli()
	return p.Status == domain.PolicyStatusActive && ms >= p.StartDate && ms <= p.EndDate
}

// RemainingDays is the number of whole days left before EndDate, never negative.
func (p *Policy) RemainingDays(now time.Time) int {
	ms := now.UnixMilli()
	if ms > p.EndDate {
		return 0
	}
	return int((p.EndDate - ms) / domain.MillisPerDay)
}

func (p *Policy) EndTime() time.Time { return time.UnixMilli(p.EndDate) }
