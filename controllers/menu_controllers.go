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

type MenuController struct {
	DB    *gorm.DB
	Quota *services.QuotaEnforcer
}

func NewMenuController(db *gorm.DB, quota *services.QuotaEnforcer) *MenuController {
	return &MenuController{DB: db, Quota: quota}
}

// GetAllMenuItems -> a tenant's live menu items
func (mc *MenuController) GetAllMenuItems(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var items []models.MenuItem
	query := mc.DB.Preload("Category").Where("tenant_id = ?", tenantID)
	if categoryID := c.Query("category"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if err := query.Find(&items).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// CreateMenuItem -> gated by the tenant's menu item quota
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		CategoryID  uint   `json:"category_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Price       int64  `json:"price"`
		Description string `json:"description"`
		IsAvailable *bool  `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item := models.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := mc.Quota.CreateMenuItem(uint(tenantID), &item); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// GetMenuItemByID
func (mc *MenuController) GetMenuItemByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.Preload("Category").First(&item, id).Error; err != nil {
		respondServiceError(c, services.ErrMenuItemNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item detail", item)
}

// UpdateMenuItem
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		respondServiceError(c, services.ErrMenuItemNotFound)
		return
	}

	var req struct {
		CategoryID  *uint   `json:"category_id"`
		Name        *string `json:"name"`
		Price       *int64  `json:"price"`
		Description *string `json:"description"`
		IsAvailable *bool   `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenuItem soft-deletes; order lines referencing it stay displayable
// through their snapshots.
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := mc.DB.Delete(&models.MenuItem{}, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"item_id": id})
}
