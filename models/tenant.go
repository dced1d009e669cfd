package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant statuses
const (
	TenantStatusActive   = "ACTIVE"
	TenantStatusPending  = "PENDING"
	TenantStatusRejected = "REJECTED"
)

// DefaultMaxSlugChanges applies when max_slug_changes is not configured.
const DefaultMaxSlugChanges = 3

type Tenant struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	ParentID  *uint   `gorm:"index" json:"parent_id,omitempty"`
	Parent    *Tenant `gorm:"foreignKey:ParentID" json:"-"`
	Status    string  `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Package   string  `gorm:"type:varchar(50)" json:"package"`
	AdminID   uint    `gorm:"index" json:"admin_id"`
	Admin     Admin   `gorm:"foreignKey:AdminID" json:"-"`

	Description string `gorm:"type:text" json:"description"`
	Address     string `gorm:"type:varchar(255)" json:"address"`
	Phone       string `gorm:"type:varchar(50)" json:"phone"`
	Email       string `gorm:"type:varchar(255)" json:"email"`
	LogoURL     string `gorm:"type:varchar(255)" json:"logo_url"`
	BannerURL   string `gorm:"type:varchar(255)" json:"banner_url"`

	// Quota configuration. Zero means unlimited.
	MaxMenuItems   int `json:"max_menu_items"`
	MaxCategories  int `json:"max_categories"`
	MaxStaff       int `json:"max_staff"`
	MaxAdmins      int `json:"max_admins"`
	MaxBranches    int `json:"max_branches"`
	MaxSlugChanges int `gorm:"default:3" json:"max_slug_changes"`

	SlugChangeCount int `gorm:"not null;default:0" json:"slug_change_count"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// SlugChangesLeft reports how many slug changes remain. The second return is
// false when the tenant has no configured limit.
func (t *Tenant) SlugChangesLeft() (int, bool) {
	limit := t.MaxSlugChanges
	if limit <= 0 {
		return 0, false
	}
	left := limit - t.SlugChangeCount
	if left < 0 {
		left = 0
	}
	return left, true
}
