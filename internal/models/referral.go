package models

import (
	"indico/internal/domain"

	"gorm.io/gorm"
)

// Referral is one user's recommendation of a prospect to the insurer.
// CreatedAt/UpdatedAt are milliseconds since epoch and are maintained by the
// lifecycle service, not by gorm.
type Referral struct {
	ID              string                `gorm:"primaryKey;size:36" json:"id"`
	ReferrerID      string                `gorm:"size:36;not null;index" json:"referrer_id"`
	ReferrerName    string                `gorm:"size:255" json:"referrer_name"`
	Name            string                `gorm:"size:255;not null" json:"name"`
	Phone           string                `gorm:"size:64;not null" json:"phone"`
	Email           string                `gorm:"size:255" json:"email"`
	VehicleType     string                `gorm:"size:100" json:"vehicle_type"`
	VehicleModel    string                `gorm:"size:100" json:"vehicle_model"`
	VehicleYear     string                `gorm:"size:10" json:"vehicle_year"`
	Status          domain.ReferralStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	DiscountApplied bool                  `gorm:"not null;default:false" json:"discount_applied"`
	Notes           string                `gorm:"type:text" json:"notes"`
	CreatedAt       int64                 `gorm:"autoCreateTime:false;not null;index" json:"created_at"`
	UpdatedAt       int64                 `gorm:"autoUpdateTime:false;not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt        `gorm:"index" json:"-"`
}

func (Referral) TableName() string { return "referrals" }

func (r *Referral) StatusLabel() string { return r.Status.Label() }
