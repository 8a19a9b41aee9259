package models

import "time"

// PolicyAlert records when an expiry warning was last sent for a policy's
// current validity window.
type PolicyAlert struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PolicyID       string    `gorm:"size:36;not null;uniqueIndex:idx_policy_alert_window" json:"policy_id"`
	EndDate        int64     `gorm:"not null;uniqueIndex:idx_policy_alert_window" json:"end_date"`
	LastNotifiedAt time.Time `gorm:"not null" json:"last_notified_at"`
}

func (PolicyAlert) TableName() string { return "policy_alerts" }
