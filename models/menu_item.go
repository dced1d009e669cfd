package models

import (
	"time"

	"gorm.io/gorm"
)

type MenuItem struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	TenantID    uint         `gorm:"index;not null" json:"tenant_id"`
	CategoryID  uint         `gorm:"index;not null" json:"category_id"`
	Category    MenuCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Price       int64        `gorm:"not null" json:"price"`
	Description string       `gorm:"type:text" json:"description"`
	IsAvailable bool         `gorm:"not null;default:true" json:"is_available"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
