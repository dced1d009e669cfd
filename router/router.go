package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restopilot/platform/controllers"
	"github.com/restopilot/platform/middlewares"
	"github.com/restopilot/platform/services"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	cache := services.NewTenantCache(services.DefaultTenantCacheTTL)
	store := services.NewTenantStore(db, cache)
	quota := services.NewQuotaEnforcer(db, store)
	provisioner := services.NewBranchProvisioner(db, quota, store)
	lifecycle := services.NewOrderLifecycle(db, services.LogNotifier{})
	aggregator := services.NewAnalyticsAggregator(db)

	authCtrl := controllers.NewAuthController(db)
	tenantCtrl := controllers.NewTenantController(store, quota)
	branchCtrl := controllers.NewBranchController(provisioner)
	orderCtrl := controllers.NewOrderController(db, lifecycle)
	menuCtrl := controllers.NewMenuController(db, quota)
	categoryCtrl := controllers.NewMenuCategoryController(db, quota)
	paymentMethodCtrl := controllers.NewPaymentMethodController(db)
	analyticsCtrl := controllers.NewAnalyticsController(db, aggregator)

	// Auth endpoints get the strict limiter.
	strict := middlewares.NewStrictRateLimiter()
	r.POST("/register", strict, authCtrl.Register)
	r.POST("/login", strict, authCtrl.Login)

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	api.POST("/logout", authCtrl.Logout)

	api.GET("/tenant-by-slug/:slug", tenantCtrl.GetTenantBySlug)

	tenants := api.Group("/tenants/:tenant_id")
	{
		tenants.GET("", tenantCtrl.GetTenant)
		tenants.PATCH("", tenantCtrl.UpdateTenant)
		tenants.POST("/staff", tenantCtrl.CreateStaff)
		tenants.POST("/branches", branchCtrl.CreateBranch)

		tenants.GET("/orders", orderCtrl.GetAllOrders)
		tenants.POST("/orders", orderCtrl.CreateOrder)

		tenants.GET("/menu-items", menuCtrl.GetAllMenuItems)
		tenants.POST("/menu-items", menuCtrl.CreateMenuItem)

		tenants.GET("/categories", categoryCtrl.GetAllCategories)
		tenants.POST("/categories", categoryCtrl.CreateCategory)

		tenants.GET("/payment-methods", paymentMethodCtrl.GetAllPaymentMethods)
		tenants.POST("/payment-methods", paymentMethodCtrl.CreatePaymentMethod)

		tenants.GET("/analytics", analyticsCtrl.GetAnalytics)
		tenants.GET("/dashboard", analyticsCtrl.GetDashboardStats)
	}

	api.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	api.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)

	api.GET("/menu-items/:item_id", menuCtrl.GetMenuItemByID)
	api.PATCH("/menu-items/:item_id", menuCtrl.UpdateMenuItem)
	api.DELETE("/menu-items/:item_id", menuCtrl.DeleteMenuItem)

	api.DELETE("/categories/:category_id", categoryCtrl.DeleteCategory)
	api.DELETE("/payment-methods/:method_id", paymentMethodCtrl.DeletePaymentMethod)

	return r
}
