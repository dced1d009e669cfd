package services

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
)

// Quota resource kinds
const (
	QuotaMenuItems  = "menu_items"
	QuotaCategories = "categories"
	QuotaStaff      = "staff"
	QuotaAdmins     = "admins"
	QuotaBranches   = "branches"
)

// QuotaEnforcer gates resource creation against per-tenant limits. The count
// check and the insert run under one transaction serialized by a
// per-tenant-per-kind lock, so two concurrent creations cannot both sneak
// under the limit.
type QuotaEnforcer struct {
	db    *gorm.DB
	store *TenantStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewQuotaEnforcer(db *gorm.DB, store *TenantStore) *QuotaEnforcer {
	return &QuotaEnforcer{
		db:    db,
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (q *QuotaEnforcer) lockFor(tenantID uint, kind string) *sync.Mutex {
	key := fmt.Sprintf("%d/%s", tenantID, kind)
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	q.locks[key] = l
	return l
}

func limitFor(tenant *models.Tenant, kind string) int {
	switch kind {
	case QuotaMenuItems:
		return tenant.MaxMenuItems
	case QuotaCategories:
		return tenant.MaxCategories
	case QuotaStaff:
		return tenant.MaxStaff
	case QuotaAdmins:
		return tenant.MaxAdmins
	case QuotaBranches:
		return tenant.MaxBranches
	}
	return 0
}

// liveCount counts non-deleted rows of the given kind under the tenant.
// Soft-deleted rows are excluded by the gorm.DeletedAt scope.
func liveCount(tx *gorm.DB, tenantID uint, kind string) (int64, error) {
	var count int64
	var err error
	switch kind {
	case QuotaMenuItems:
		err = tx.Model(&models.MenuItem{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	case QuotaCategories:
		err = tx.Model(&models.MenuCategory{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	case QuotaStaff:
		err = tx.Model(&models.Admin{}).Where("tenant_id = ? AND role = ?", tenantID, "staff").Count(&count).Error
	case QuotaBranches:
		err = tx.Model(&models.Tenant{}).Where("parent_id = ?", tenantID).Count(&count).Error
	default:
		return 0, fmt.Errorf("unknown quota kind %q", kind)
	}
	return count, err
}

// Check rejects the creation when the tenant's configured limit for kind is
// already reached. A zero limit means unlimited.
func (q *QuotaEnforcer) Check(tx *gorm.DB, tenant *models.Tenant, kind string) error {
	limit := limitFor(tenant, kind)
	if limit <= 0 {
		return nil
	}
	count, err := liveCount(tx, tenant.ID, kind)
	if err != nil {
		return fmt.Errorf("failed to count %s: %w", kind, err)
	}
	if count >= int64(limit) {
		return &QuotaExceededError{Kind: kind, Limit: limit}
	}
	return nil
}

// CheckSubAdmin applies the sub-admin quota for branch creation: existing
// branches whose admin differs from the parent's admin are counted as a proxy
// for distinct admin accounts, compared against the parent's admin limit.
func (q *QuotaEnforcer) CheckSubAdmin(tx *gorm.DB, parent *models.Tenant) error {
	limit := parent.MaxAdmins
	if limit <= 0 {
		return nil
	}
	var count int64
	err := tx.Model(&models.Tenant{}).
		Where("parent_id = ? AND admin_id <> ?", parent.ID, parent.AdminID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count sub-admins: %w", err)
	}
	if count >= int64(limit) {
		return &QuotaExceededError{Kind: QuotaAdmins, Limit: limit}
	}
	return nil
}

func (q *QuotaEnforcer) loadTenant(tx *gorm.DB, tenantID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := tx.First(&tenant, tenantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// CreateMenuItem inserts a menu item after the quota check passes.
func (q *QuotaEnforcer) CreateMenuItem(tenantID uint, item *models.MenuItem) error {
	if item.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if item.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	lock := q.lockFor(tenantID, QuotaMenuItems)
	lock.Lock()
	defer lock.Unlock()

	return q.db.Transaction(func(tx *gorm.DB) error {
		tenant, err := q.loadTenant(tx, tenantID)
		if err != nil {
			return err
		}
		var category models.MenuCategory
		if err := tx.Where("id = ? AND tenant_id = ?", item.CategoryID, tenantID).First(&category).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrCategoryNotFound
			}
			return err
		}
		if err := q.Check(tx, tenant, QuotaMenuItems); err != nil {
			return err
		}
		item.TenantID = tenantID
		return tx.Create(item).Error
	})
}

// CreateCategory inserts a category after the quota check passes.
func (q *QuotaEnforcer) CreateCategory(tenantID uint, category *models.MenuCategory) error {
	if category.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}

	lock := q.lockFor(tenantID, QuotaCategories)
	lock.Lock()
	defer lock.Unlock()

	return q.db.Transaction(func(tx *gorm.DB) error {
		tenant, err := q.loadTenant(tx, tenantID)
		if err != nil {
			return err
		}
		if err := q.Check(tx, tenant, QuotaCategories); err != nil {
			return err
		}
		category.TenantID = tenantID
		return tx.Create(category).Error
	})
}

// CreateStaff creates a staff account under the tenant after the quota check
// passes.
func (q *QuotaEnforcer) CreateStaff(tenantID uint, name, email, password string) (*models.Admin, error) {
	if email == "" {
		return nil, &ValidationError{Field: "email", Reason: "required"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Reason: "required"}
	}

	lock := q.lockFor(tenantID, QuotaStaff)
	lock.Lock()
	defer lock.Unlock()

	var staff models.Admin
	err := q.db.Transaction(func(tx *gorm.DB) error {
		tenant, err := q.loadTenant(tx, tenantID)
		if err != nil {
			return err
		}
		if err := q.Check(tx, tenant, QuotaStaff); err != nil {
			return err
		}

		var existing models.Admin
		if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
			return ErrEmailTaken
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		staff = models.Admin{
			Name:     name,
			Email:    email,
			Password: string(hashed),
			Role:     "staff",
			TenantID: &tenantID,
		}
		return tx.Create(&staff).Error
	})
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

// TenantUpdateRequest is the whitelist of fields a tenant update may touch.
// Unknown fields in the HTTP payload never reach this struct.
type TenantUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	LogoURL     *string `json:"logo_url"`
	BannerURL   *string `json:"banner_url"`
	Slug        *string `json:"slug"`
	Status      *string `json:"status"`
	Package     *string `json:"package"`

	MaxMenuItems   *int `json:"max_menu_items"`
	MaxCategories  *int `json:"max_categories"`
	MaxStaff       *int `json:"max_staff"`
	MaxAdmins      *int `json:"max_admins"`
	MaxBranches    *int `json:"max_branches"`
	MaxSlugChanges *int `json:"max_slug_changes"`
}

// UpdateTenant applies a whitelisted tenant update. A slug change is gated by
// the persisted slug-change counter and increments it in the same write;
// re-submitting the current slug is a no-op for the counter. Cache aliases
// for both the old and new slug are invalidated before returning.
func (q *QuotaEnforcer) UpdateTenant(tenantID uint, req TenantUpdateRequest) (*models.Tenant, error) {
	var updated models.Tenant
	var oldSlug string

	err := q.db.Transaction(func(tx *gorm.DB) error {
		tenant, err := q.loadTenant(tx, tenantID)
		if err != nil {
			return err
		}
		oldSlug = tenant.Slug

		if req.Slug != nil && *req.Slug != tenant.Slug {
			if *req.Slug == "" {
				return &ValidationError{Field: "slug", Reason: "required"}
			}
			limit := tenant.MaxSlugChanges
			if limit <= 0 {
				limit = models.DefaultMaxSlugChanges
			}
			if tenant.SlugChangeCount >= limit {
				return &SlugChangeLimitError{Used: tenant.SlugChangeCount, Max: limit}
			}
			var other models.Tenant
			if err := tx.Where("slug = ? AND id <> ?", *req.Slug, tenant.ID).First(&other).Error; err == nil {
				return ErrSlugTaken
			} else if err != gorm.ErrRecordNotFound {
				return err
			}
			tenant.Slug = *req.Slug
			tenant.SlugChangeCount++
		}

		if req.Status != nil {
			switch *req.Status {
			case models.TenantStatusActive, models.TenantStatusPending, models.TenantStatusRejected:
				tenant.Status = *req.Status
			default:
				return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *req.Status)}
			}
		}

		if req.Name != nil {
			tenant.Name = *req.Name
		}
		if req.Description != nil {
			tenant.Description = *req.Description
		}
		if req.Address != nil {
			tenant.Address = *req.Address
		}
		if req.Phone != nil {
			tenant.Phone = *req.Phone
		}
		if req.Email != nil {
			tenant.Email = *req.Email
		}
		if req.LogoURL != nil {
			tenant.LogoURL = *req.LogoURL
		}
		if req.BannerURL != nil {
			tenant.BannerURL = *req.BannerURL
		}
		if req.Package != nil {
			tenant.Package = *req.Package
		}
		if req.MaxMenuItems != nil {
			tenant.MaxMenuItems = *req.MaxMenuItems
		}
		if req.MaxCategories != nil {
			tenant.MaxCategories = *req.MaxCategories
		}
		if req.MaxStaff != nil {
			tenant.MaxStaff = *req.MaxStaff
		}
		if req.MaxAdmins != nil {
			tenant.MaxAdmins = *req.MaxAdmins
		}
		if req.MaxBranches != nil {
			tenant.MaxBranches = *req.MaxBranches
		}
		if req.MaxSlugChanges != nil {
			tenant.MaxSlugChanges = *req.MaxSlugChanges
		}

		if err := tx.Save(tenant).Error; err != nil {
			return fmt.Errorf("failed to update tenant: %w", err)
		}
		updated = *tenant
		return nil
	})
	if err != nil {
		return nil, err
	}

	q.store.InvalidateTenant(updated.ID, oldSlug, updated.Slug)
	return &updated, nil
}
