package models

import "gorm.io/gorm"

// Condominium groups the policies a user manages.
type Condominium struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	UserID       string         `gorm:"size:36;not null;index" json:"user_id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Address      string         `gorm:"size:255" json:"address"`
	Number       string         `gorm:"size:20" json:"number"`
	Complement   string         `gorm:"size:100" json:"complement"`
	Neighborhood string         `gorm:"size:100" json:"neighborhood"`
	City         string         `gorm:"size:100" json:"city"`
	State        string         `gorm:"size:50" json:"state"`
	ZipCode      string         `gorm:"size:20" json:"zip_code"`
	CreatedAt    int64          `gorm:"autoCreateTime:milli" json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Policies []Policy `gorm:"foreignKey:CondominiumID" json:"policies,omitempty"`
}

func (Condominium) TableName() string { return "condominiums" }
