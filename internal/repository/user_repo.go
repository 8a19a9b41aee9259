package repository

import (
	"context"

	"indico/internal/domain"
	"indico/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return storeErr(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

// EmailTaken reports whether any account, including deleted ones, uses email.
func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, storeErr(err)
	}
	return n > 0, nil
}

func (r *UserRepository) UpdateFCMToken(ctx context.Context, id, token string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("fcm_token", token)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return storeErr(gorm.ErrRecordNotFound)
	}
	return nil
}

// FCMToken returns the device token for id, empty when none is registered.
func (r *UserRepository) FCMToken(ctx context.Context, id string) (string, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.FCMToken, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

func (r *UserRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	list := []models.User{}
	if err := r.db.WithContext(ctx).Where("role = ?", domain.RoleAdmin).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}
