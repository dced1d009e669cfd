package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/restopilot/platform/controllers"
	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/services"
	"github.com/restopilot/platform/utils"
)

func setupTenantRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	cache := services.NewTenantCache(services.DefaultTenantCacheTTL)
	t.Cleanup(cache.Close)
	store := services.NewTenantStore(db, cache)
	quota := services.NewQuotaEnforcer(db, store)
	provisioner := services.NewBranchProvisioner(db, quota, store)

	tenantCtrl := controllers.NewTenantController(store, quota)
	branchCtrl := controllers.NewBranchController(provisioner)
	router.GET("/tenant-by-slug/:slug", tenantCtrl.GetTenantBySlug)
	router.GET("/tenants/:tenant_id", tenantCtrl.GetTenant)
	router.PATCH("/tenants/:tenant_id", tenantCtrl.UpdateTenant)
	router.POST("/tenants/:tenant_id/staff", tenantCtrl.CreateStaff)
	router.POST("/tenants/:tenant_id/branches", branchCtrl.CreateBranch)
	return router
}

func TestGetTenantByIDAndSlug(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupTenantRouter(t, db)

	tenant := &models.Tenant{Name: "Warung", Slug: "warung", Status: models.TenantStatusActive}
	assert.NoError(t, db.Create(tenant).Error)

	w := doJSON(t, router, "GET", fmt.Sprintf("/tenants/%d", tenant.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Tenant detail", resp["message"])
	assert.Equal(t, "warung", resp["data"].(map[string]interface{})["slug"])

	w = doJSON(t, router, "GET", "/tenant-by-slug/warung", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(tenant.ID), resp["data"].(map[string]interface{})["id"])

	w = doJSON(t, router, "GET", "/tenant-by-slug/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateTenantSlugLimitOverHTTP(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupTenantRouter(t, db)

	tenant := &models.Tenant{
		Name:            "Warung",
		Slug:            "warung",
		Status:          models.TenantStatusActive,
		MaxSlugChanges:  1,
		SlugChangeCount: 0,
	}
	assert.NoError(t, db.Create(tenant).Error)

	w := doJSON(t, router, "PATCH", fmt.Sprintf("/tenants/%d", tenant.ID),
		map[string]string{"slug": "warung-baru"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "PATCH", fmt.Sprintf("/tenants/%d", tenant.ID),
		map[string]string{"slug": "warung-lagi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "slug change limit")

	// The renamed slug keeps resolving after the rejection.
	w = doJSON(t, router, "GET", "/tenant-by-slug/warung-baru", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateStaffOverHTTP(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupTenantRouter(t, db)

	tenant := &models.Tenant{Name: "Warung", Slug: "warung", Status: models.TenantStatusActive, MaxStaff: 1}
	assert.NoError(t, db.Create(tenant).Error)

	payload := map[string]string{
		"name":     "Siti",
		"email":    "siti@example.com",
		"password": "secret123",
	}
	w := doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/staff", tenant.ID), payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	payload["email"] = "andi@example.com"
	w = doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/staff", tenant.ID), payload)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateBranchOverHTTP(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupTenantRouter(t, db)

	admin := &models.Admin{Name: "Owner", Email: "owner@example.com", Password: "x", Role: "admin"}
	assert.NoError(t, db.Create(admin).Error)
	tenant := &models.Tenant{Name: "Warung", Slug: "warung", Status: models.TenantStatusActive, AdminID: admin.ID}
	assert.NoError(t, db.Create(tenant).Error)

	payload := map[string]interface{}{
		"name": "Cabang Timur",
		"slug": "cabang-timur",
	}
	w := doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/branches", tenant.ID), payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(tenant.ID), data["parent_id"])

	// Slug collision surfaces as a conflict.
	w = doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/branches", tenant.ID), payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}
