package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/restopilot/platform/services"
	"github.com/restopilot/platform/utils"
)

type TenantController struct {
	Store *services.TenantStore
	Quota *services.QuotaEnforcer
}

func NewTenantController(store *services.TenantStore, quota *services.QuotaEnforcer) *TenantController {
	return &TenantController{Store: store, Quota: quota}
}

// GetTenant reads through the tenant cache.
func (tc *TenantController) GetTenant(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tenant, err := tc.Store.GetByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tenant detail", tenant)
}

// GetTenantBySlug reads through the tenant cache by the slug alias.
func (tc *TenantController) GetTenantBySlug(c *gin.Context) {
	slug := c.Param("slug")

	tenant, err := tc.Store.GetBySlug(slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tenant detail", tenant)
}

// UpdateTenant accepts only the whitelisted fields; anything else in the
// payload is ignored. Slug changes go through the slug-change counter.
func (tc *TenantController) UpdateTenant(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req services.TenantUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tenant, err := tc.Quota.UpdateTenant(uint(id), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Tenant updated", tenant)
}

// CreateStaff adds a staff account under the tenant, gated by the staff
// quota.
func (tc *TenantController) CreateStaff(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	staff, err := tc.Quota.CreateStaff(uint(id), req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Staff created", gin.H{
		"staff_id": staff.ID,
		"email":    staff.Email,
	})
}
