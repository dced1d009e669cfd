package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
)

// BranchAdmin carries credentials for a brand-new branch administrator. When
// absent, the branch inherits the parent's admin.
type BranchAdmin struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type BranchRequest struct {
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	NewAdmin     *BranchAdmin `json:"new_admin,omitempty"`
	CloneCatalog bool         `json:"clone_catalog"`
}

// BranchProvisioner creates child tenants. Admin resolution, the tenant row
// and the optional catalog clone all commit or roll back together; a partial
// branch is never observable.
type BranchProvisioner struct {
	db    *gorm.DB
	quota *QuotaEnforcer
	store *TenantStore
}

func NewBranchProvisioner(db *gorm.DB, quota *QuotaEnforcer, store *TenantStore) *BranchProvisioner {
	return &BranchProvisioner{db: db, quota: quota, store: store}
}

func (p *BranchProvisioner) CreateBranch(parentID uint, req BranchRequest) (*models.Tenant, error) {
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if req.Slug == "" {
		return nil, &ValidationError{Field: "slug", Reason: "required"}
	}

	lock := p.quota.lockFor(parentID, QuotaBranches)
	lock.Lock()
	defer lock.Unlock()

	var branch models.Tenant
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var parent models.Tenant
		if err := tx.First(&parent, parentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrTenantNotFound
			}
			return err
		}

		if err := p.quota.Check(tx, &parent, QuotaBranches); err != nil {
			return err
		}

		adminID := parent.AdminID
		if req.NewAdmin != nil {
			if err := p.quota.CheckSubAdmin(tx, &parent); err != nil {
				return err
			}
			admin, err := createBranchAdmin(tx, req.NewAdmin)
			if err != nil {
				return err
			}
			adminID = admin.ID
		}

		var other models.Tenant
		if err := tx.Where("slug = ?", req.Slug).First(&other).Error; err == nil {
			return ErrSlugTaken
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		branch = models.Tenant{
			Name:           req.Name,
			Slug:           req.Slug,
			ParentID:       &parent.ID,
			Status:         models.TenantStatusActive,
			Package:        parent.Package,
			AdminID:        adminID,
			Address:        req.Address,
			Phone:          req.Phone,
			MaxSlugChanges: models.DefaultMaxSlugChanges,
		}
		if err := tx.Create(&branch).Error; err != nil {
			return fmt.Errorf("failed to create branch: %w", err)
		}

		if req.CloneCatalog {
			if err := cloneCatalog(tx, parent.ID, branch.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The parent's branch count changed; drop any cached copy of the parent.
	p.store.InvalidateTenant(parentID)

	return &branch, nil
}

func createBranchAdmin(tx *gorm.DB, req *BranchAdmin) (*models.Admin, error) {
	if req.Email == "" {
		return nil, &ValidationError{Field: "admin email", Reason: "required"}
	}
	if req.Password == "" {
		return nil, &ValidationError{Field: "admin password", Reason: "required"}
	}

	var existing models.Admin
	if err := tx.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := models.Admin{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     "admin",
	}
	if err := tx.Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create branch admin: %w", err)
	}
	return &admin, nil
}

// cloneCatalog copies the parent's active payment methods, categories and
// menu items to the branch. Menu items attach to the freshly created category
// ids, never to the parent's.
func cloneCatalog(tx *gorm.DB, parentID, branchID uint) error {
	var methods []models.PaymentMethod
	if err := tx.Where("tenant_id = ? AND is_active = ?", parentID, true).Find(&methods).Error; err != nil {
		return fmt.Errorf("failed to load payment methods: %w", err)
	}
	for _, m := range methods {
		clone := models.PaymentMethod{
			TenantID: branchID,
			Name:     m.Name,
			Type:     m.Type,
			IsActive: m.IsActive,
		}
		if err := tx.Create(&clone).Error; err != nil {
			return fmt.Errorf("failed to clone payment method %q: %w", m.Name, err)
		}
	}

	var categories []models.MenuCategory
	if err := tx.Where("tenant_id = ?", parentID).Find(&categories).Error; err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	for _, cat := range categories {
		newCat := models.MenuCategory{
			TenantID: branchID,
			Name:     cat.Name,
		}
		if err := tx.Create(&newCat).Error; err != nil {
			return fmt.Errorf("failed to clone category %q: %w", cat.Name, err)
		}

		var items []models.MenuItem
		if err := tx.Where("category_id = ? AND tenant_id = ?", cat.ID, parentID).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load menu items: %w", err)
		}
		for _, item := range items {
			clone := models.MenuItem{
				TenantID:    branchID,
				CategoryID:  newCat.ID,
				Name:        item.Name,
				Price:       item.Price,
				Description: item.Description,
				IsAvailable: item.IsAvailable,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return fmt.Errorf("failed to clone menu item %q: %w", item.Name, err)
			}
		}
	}
	return nil
}
