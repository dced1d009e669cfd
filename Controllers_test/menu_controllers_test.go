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

func setupMenuRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	cache := services.NewTenantCache(services.DefaultTenantCacheTTL)
	t.Cleanup(cache.Close)
	store := services.NewTenantStore(db, cache)
	quota := services.NewQuotaEnforcer(db, store)

	menuCtrl := controllers.NewMenuController(db, quota)
	catCtrl := controllers.NewMenuCategoryController(db, quota)
	router.GET("/tenants/:tenant_id/menu-items", menuCtrl.GetAllMenuItems)
	router.POST("/tenants/:tenant_id/menu-items", menuCtrl.CreateMenuItem)
	router.POST("/tenants/:tenant_id/categories", catCtrl.CreateCategory)
	router.DELETE("/menu-items/:item_id", menuCtrl.DeleteMenuItem)
	return router
}

func TestCreateMenuItemWithinQuota(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupMenuRouter(t, db)

	tenant := &models.Tenant{Name: "Warung", Slug: "warung", Status: models.TenantStatusActive, MaxMenuItems: 2}
	assert.NoError(t, db.Create(tenant).Error)
	cat := &models.MenuCategory{TenantID: tenant.ID, Name: "Mains"}
	assert.NoError(t, db.Create(cat).Error)

	payload := map[string]interface{}{
		"category_id": cat.ID,
		"name":        "Nasi Goreng",
		"price":       25000,
	}
	w := doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/menu-items", tenant.ID), payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Menu item created", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(tenant.ID), data["tenant_id"])
}

func TestCreateMenuItemQuotaRejected(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupMenuRouter(t, db)

	tenant := &models.Tenant{Name: "Warung", Slug: "warung", Status: models.TenantStatusActive, MaxMenuItems: 1}
	assert.NoError(t, db.Create(tenant).Error)
	cat := &models.MenuCategory{TenantID: tenant.ID, Name: "Mains"}
	assert.NoError(t, db.Create(cat).Error)

	payload := map[string]interface{}{
		"category_id": cat.ID,
		"name":        "Nasi Goreng",
		"price":       25000,
	}
	w := doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/menu-items", tenant.ID), payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	payload["name"] = "Sate Ayam"
	w = doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/menu-items", tenant.ID), payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["status"])
	assert.Contains(t, resp["message"], "limit reached")
}

func TestCreateMenuItemForeignCategoryRejected(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupMenuRouter(t, db)

	tenant := &models.Tenant{Name: "Warung", Slug: "warung", Status: models.TenantStatusActive}
	other := &models.Tenant{Name: "Lain", Slug: "lain", Status: models.TenantStatusActive}
	assert.NoError(t, db.Create(tenant).Error)
	assert.NoError(t, db.Create(other).Error)
	foreign := &models.MenuCategory{TenantID: other.ID, Name: "Mains"}
	assert.NoError(t, db.Create(foreign).Error)

	payload := map[string]interface{}{
		"category_id": foreign.ID,
		"name":        "Nasi Goreng",
		"price":       25000,
	}
	w := doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/menu-items", tenant.ID), payload)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryQuotaFreedBySoftDelete(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t)
	router := setupMenuRouter(t, db)

	tenant := &models.Tenant{Name: "Warung", Slug: "warung", Status: models.TenantStatusActive, MaxCategories: 1}
	assert.NoError(t, db.Create(tenant).Error)

	w := doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/categories", tenant.ID),
		map[string]string{"name": "Mains"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/categories", tenant.ID),
		map[string]string{"name": "Drinks"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var cat models.MenuCategory
	assert.NoError(t, db.Where("tenant_id = ?", tenant.ID).First(&cat).Error)
	assert.NoError(t, db.Delete(&cat).Error)

	w = doJSON(t, router, "POST", fmt.Sprintf("/tenants/%d/categories", tenant.ID),
		map[string]string{"name": "Drinks"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
