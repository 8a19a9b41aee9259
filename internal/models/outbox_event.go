package models

import "time"

// OutboxEvent is a side effect recorded in the same transaction as the
// mutation that caused it and delivered later by the relay.
type OutboxEvent struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Type         string     `gorm:"size:64;not null;index" json:"type"`
	AggregateID  string     `gorm:"size:36;not null;index" json:"aggregate_id"`
	Payload      string     `gorm:"type:text;not null" json:"payload"`
	Attempts     int        `gorm:"not null;default:0" json:"attempts"`
	LastError    string     `gorm:"type:text" json:"last_error"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	DispatchedAt *time.Time `gorm:"index" json:"dispatched_at"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }
