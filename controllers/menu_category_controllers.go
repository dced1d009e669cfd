package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/services"
	"github.com/restopilot/platform/utils"
)

type MenuCategoryController struct {
	DB    *gorm.DB
	Quota *services.QuotaEnforcer
}

func NewMenuCategoryController(db *gorm.DB, quota *services.QuotaEnforcer) *MenuCategoryController {
	return &MenuCategoryController{DB: db, Quota: quota}
}

// GetAllCategories
func (cc *MenuCategoryController) GetAllCategories(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var categories []models.MenuCategory
	if err := cc.DB.Where("tenant_id = ?", tenantID).Find(&categories).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

// CreateCategory -> gated by the tenant's category quota
func (cc *MenuCategoryController) CreateCategory(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category := models.MenuCategory{Name: req.Name}
	if err := cc.Quota.CreateCategory(uint(tenantID), &category); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

// DeleteCategory soft-deletes a category.
func (cc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("category_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := cc.DB.Delete(&models.MenuCategory{}, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", gin.H{"category_id": id})
}
