package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/utils"
)

type PaymentMethodController struct {
	DB *gorm.DB
}

func NewPaymentMethodController(db *gorm.DB) *PaymentMethodController {
	return &PaymentMethodController{DB: db}
}

// GetAllPaymentMethods
func (pc *PaymentMethodController) GetAllPaymentMethods(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var methods []models.PaymentMethod
	if err := pc.DB.Where("tenant_id = ?", tenantID).Find(&methods).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of payment methods", methods)
}

// CreatePaymentMethod
func (pc *PaymentMethodController) CreatePaymentMethod(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Type     string `json:"type"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	method := models.PaymentMethod{
		TenantID: uint(tenantID),
		Name:     req.Name,
		Type:     req.Type,
		IsActive: true,
	}
	if method.Type == "" {
		method.Type = "cash"
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}

	if err := pc.DB.Create(&method).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Payment method created", method)
}

// DeletePaymentMethod soft-deletes a payment method.
func (pc *PaymentMethodController) DeletePaymentMethod(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("method_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := pc.DB.Delete(&models.PaymentMethod{}, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment method deleted", gin.H{"method_id": id})
}
