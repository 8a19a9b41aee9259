package repository

import (
	"context"
	"time"

	"indico/internal/models"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) WithTx(tx *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: tx}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, e *models.OutboxEvent) error {
	return storeErr(r.db.WithContext(ctx).Create(e).Error)
}

// Pending returns undispatched events in the order they were recorded.
func (r *OutboxRepository) Pending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	list := []models.OutboxEvent{}
	err := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

func (r *OutboxRepository) MarkDispatched(ctx context.Context, id string) error {
	now := time.Now()
	return storeErr(r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("dispatched_at", &now).Error)
}

// RecordFailure bumps the attempt counter. A dead-lettered event is also
// stamped dispatched so the relay stops picking it up.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id, reason string, deadLetter bool) error {
	fields := map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	}
	if deadLetter {
		now := time.Now()
		fields["dispatched_at"] = &now
	}
	return storeErr(r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(fields).Error)
}

func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("dispatched_at IS NULL").Count(&n).Error; err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}
