package repository

import (
	"context"

	"indico/internal/domain"
	"indico/internal/models"

	"gorm.io/gorm"
)

// PolicyRepository stores condominiums and the policies attached to them.
type PolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) CreateCondominium(ctx context.Context, c *models.Condominium) error {
	return storeErr(r.db.WithContext(ctx).Create(c).Error)
}

func (r *PolicyRepository) GetCondominium(ctx context.Context, id string) (*models.Condominium, error) {
	var c models.Condominium
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

// CondominiumsOf returns the condominiums owned by userID, by name.
func (r *PolicyRepository) CondominiumsOf(ctx context.Context, userID string) ([]models.Condominium, error) {
	list := []models.Condominium{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

// AllCondominiums is the enumeration used by the global expiry scan.
func (r *PolicyRepository) AllCondominiums(ctx context.Context) ([]models.Condominium, error) {
	list := []models.Condominium{}
	if err := r.db.WithContext(ctx).Order("user_id ASC, name ASC").Find(&list).Error; err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

func (r *PolicyRepository) UpdateCondominium(ctx context.Context, id string, fields map[string]any) error {
	return storeErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Condominium
		if err := tx.Select("id").Where("id = ?", id).First(&c).Error; err != nil {
			return err
		}
		return tx.Model(&models.Condominium{}).Where("id = ?", id).Updates(fields).Error
	}))
}

// DeleteCondominium removes the condominium together with its policies.
func (r *PolicyRepository) DeleteCondominium(ctx context.Context, id string) error {
	return storeErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Condominium{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("condominium_id = ?", id).Delete(&models.Policy{}).Error
	}))
}

func (r *PolicyRepository) CreatePolicy(ctx context.Context, p *models.Policy) error {
	return storeErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PolicyRepository) GetPolicy(ctx context.Context, id string) (*models.Policy, error) {
	var p models.Policy
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, storeErr(err)
	}
	return &p, nil
}

// PoliciesOf returns the policies of one condominium, soonest expiry first.
func (r *PolicyRepository) PoliciesOf(ctx context.Context, condominiumID string) ([]models.Policy, error) {
	list := []models.Policy{}
	err := r.db.WithContext(ctx).Where("condominium_id = ?", condominiumID).Order("end_date ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

func (r *PolicyRepository) UpdatePolicy(ctx context.Context, id string, fields map[string]any) error {
	return storeErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Policy
		if err := tx.Select("id").Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		return tx.Model(&models.Policy{}).Where("id = ?", id).Updates(fields).Error
	}))
}

func (r *PolicyRepository) DeletePolicy(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Policy{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
