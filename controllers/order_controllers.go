package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/services"
	"github.com/restopilot/platform/utils"
)

type OrderController struct {
	DB        *gorm.DB
	Lifecycle *services.OrderLifecycle
}

func NewOrderController(db *gorm.DB, lifecycle *services.OrderLifecycle) *OrderController {
	return &OrderController{DB: db, Lifecycle: lifecycle}
}

// GetAllOrders -> list a tenant's orders with items
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var orders []models.Order
	query := oc.DB.Preload("Items").Where("tenant_id = ?", tenantID).Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&orders).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// CreateOrder -> checkout. Item names and prices are snapshotted from the
// menu; the total is computed once and never recomputed from live prices.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type ItemReq struct {
		MenuItemID uint   `json:"menu_item_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"required,gt=0"`
		Notes      string `json:"notes"`
	}
	type ReqBody struct {
		Items         []ItemReq `json:"items" binding:"required,min=1"`
		PaymentMethod string    `json:"payment_method"`
		CustomerName  string    `json:"customer_name"`
		CustomerPhone string    `json:"customer_phone"`
	}

	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var tenant models.Tenant
	if err := oc.DB.First(&tenant, tenantID).Error; err != nil {
		respondServiceError(c, services.ErrTenantNotFound)
		return
	}

	paymentMethod := body.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.DefaultPaymentMethod
	}

	var order models.Order
	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		order = models.Order{
			OrderNumber:   models.GenerateOrderNumber(tenant.ID, now),
			TenantID:      tenant.ID,
			Status:        models.OrderStatusPending,
			PaymentMethod: paymentMethod,
			CustomerName:  body.CustomerName,
			CustomerPhone: body.CustomerPhone,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		var total int64
		for _, item := range body.Items {
			var menuItem models.MenuItem
			if err := tx.Where("id = ? AND tenant_id = ?", item.MenuItemID, tenant.ID).
				First(&menuItem).Error; err != nil {
				return services.ErrMenuItemNotFound
			}
			line := models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: menuItem.ID,
				Name:       menuItem.Name,
				Quantity:   item.Quantity,
				Price:      menuItem.Price,
				Notes:      item.Notes,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			total += menuItem.Price * int64(item.Quantity)
		}

		return tx.Model(&order).Update("total_amount", total).Error
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := oc.DB.Preload("Items").First(&order, order.ID).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> detail of one order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := oc.DB.Preload("Items").First(&order, id).Error; err != nil {
		respondServiceError(c, services.ErrOrderNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderStatus applies one lifecycle transition. Status is the only
// mutable field on this path, plus the optional manual contact fields.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Status        string  `json:"status" binding:"required"`
		CustomerName  *string `json:"customer_name"`
		CustomerPhone *string `json:"customer_phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var contact *services.ContactUpdate
	if req.CustomerName != nil || req.CustomerPhone != nil {
		contact = &services.ContactUpdate{
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
		}
	}

	order, err := oc.Lifecycle.UpdateStatus(uint(id), req.Status, contact)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}
