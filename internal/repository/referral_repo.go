package repository

import (
	"context"

	"indico/internal/domain"
	"indico/internal/models"

	"gorm.io/gorm"
)

// ReferralFilter narrows ListAll. A zero value matches every referral.
type ReferralFilter struct {
	Status     domain.ReferralStatus
	ReferrerID string
}

type StatusCount struct {
	Status domain.ReferralStatus `json:"status"`
	Count  int64                 `json:"count"`
}

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ReferralRepository) WithTx(tx *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: tx}
}

const newestFirst = "created_at DESC, id DESC"

func (r *ReferralRepository) Create(ctx context.Context, ref *models.Referral) (string, error) {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		return "", storeErr(err)
	}
	return ref.ID, nil
}

func (r *ReferralRepository) GetByID(ctx context.Context, id string) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ref).Error; err != nil {
		return nil, storeErr(err)
	}
	return &ref, nil
}

// ListByReferrer returns the referrer's referrals, newest first.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]models.Referral, error) {
	return r.ListAll(ctx, ReferralFilter{ReferrerID: referrerID})
}

// ListAll returns referrals matching f, newest first.
func (r *ReferralRepository) ListAll(ctx context.Context, f ReferralFilter) ([]models.Referral, error) {
	q := r.db.WithContext(ctx).Model(&models.Referral{})
	if f.ReferrerID != "" {
		q = q.Where("referrer_id = ?", f.ReferrerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	list := []models.Referral{}
	if err := q.Order(newestFirst).Find(&list).Error; err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

// Update applies fields to the referral. Unknown ids yield domain.ErrNotFound.
func (r *ReferralRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return storeErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ref models.Referral
		if err := tx.Select("id").Where("id = ?", id).First(&ref).Error; err != nil {
			return err
		}
		return tx.Model(&models.Referral{}).Where("id = ?", id).Updates(fields).Error
	}))
}

func (r *ReferralRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Referral{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReferralRepository) CountConverted(ctx context.Context, referrerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ? AND status = ?", referrerID, domain.StatusConverted).
		Count(&n).Error
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// CountByStatus returns one row per status present in the store.
func (r *ReferralRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}
