package repository

import (
	"errors"

	"indico/internal/domain"

	"gorm.io/gorm"
)

// storeErr maps gorm errors onto the domain taxonomy.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	default:
		return domain.Unavailable(err)
	}
}
