package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/services"
	"github.com/restopilot/platform/utils"
)

type AnalyticsController struct {
	DB         *gorm.DB
	Aggregator *services.AnalyticsAggregator
}

func NewAnalyticsController(db *gorm.DB, aggregator *services.AnalyticsAggregator) *AnalyticsController {
	return &AnalyticsController{DB: db, Aggregator: aggregator}
}

// GetAnalytics runs the aggregator for a tenant over an explicit date range
// or a range derived from year/month/granularity.
func (ac *AnalyticsController) GetAnalytics(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil || tenantID <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("tenant id is required"))
		return
	}

	params := services.AnalyticsParams{
		TenantID:    uint(tenantID),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		Granularity: c.Query("granularity"),
		Status:      c.Query("status"),
	}
	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid year"))
			return
		}
		params.Year = year
	}
	if monthStr := c.Query("month"); monthStr != "" {
		month, err := strconv.Atoi(monthStr)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid month"))
			return
		}
		params.Month = month
	}

	result, err := ac.Aggregator.Aggregate(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Analytics report", result)
}

// GetDashboardStats -> per-status order counts for the tenant's dashboard
func (ac *AnalyticsController) GetDashboardStats(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var stats struct {
		TotalOrders int64 `json:"total_orders"`
		OrderStats  struct {
			Pending   int64 `json:"pending"`
			Confirmed int64 `json:"confirmed"`
			Preparing int64 `json:"preparing"`
			Ready     int64 `json:"ready"`
			Completed int64 `json:"completed"`
			Cancelled int64 `json:"cancelled"`
		} `json:"order_stats"`
	}

	base := ac.DB.Model(&models.Order{}).Where("tenant_id = ?", tenantID)
	base.Count(&stats.TotalOrders)

	countStatus := func(status string, dst *int64) {
		ac.DB.Model(&models.Order{}).
			Where("tenant_id = ? AND status = ?", tenantID, status).
			Count(dst)
	}
	countStatus(models.OrderStatusPending, &stats.OrderStats.Pending)
	countStatus(models.OrderStatusConfirmed, &stats.OrderStats.Confirmed)
	countStatus(models.OrderStatusPreparing, &stats.OrderStats.Preparing)
	countStatus(models.OrderStatusReady, &stats.OrderStats.Ready)
	countStatus(models.OrderStatusCompleted, &stats.OrderStats.Completed)
	countStatus(models.OrderStatusCancelled, &stats.OrderStats.Cancelled)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}
