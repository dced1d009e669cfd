package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/router"
	"github.com/restopilot/platform/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndIntegration walks the main tenant flow:
// 1. Register a tenant with its admin
// 2. Login -> token
// 3. Build a small catalog (category + menu item)
// 4. Checkout an order and push it through the whole lifecycle
// 5. Read the analytics report back
// 6. Logout revokes the token
func TestEndToEndIntegration(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db)

	tenantID := registerTest(t, r)
	token := loginTest(t, r)

	categoryID := createCategoryTest(t, r, token, tenantID)
	itemID := createMenuItemTest(t, r, token, tenantID, categoryID)
	orderID := createOrderTest(t, r, token, tenantID, itemID)

	for _, next := range []string{"CONFIRMED", "PREPARING", "READY", "COMPLETED"} {
		updateStatusTest(t, r, token, orderID, next)
	}

	checkAnalyticsTest(t, r, token, tenantID)
	logoutTest(t, r, token)
}

func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Admin{},
		&models.Tenant{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.PaymentMethod{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func doRequest(t *testing.T, r *gin.Engine, method, url, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, wantCode int, dst interface{}) {
	t.Helper()
	if w.Code != wantCode {
		t.Fatalf("expected %d, got %d, body=%s", wantCode, w.Code, w.Body.String())
	}
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if dst != nil {
		if err := json.Unmarshal(resp.Data, dst); err != nil {
			t.Fatalf("decode data: %v, body=%s", err, w.Body.String())
		}
	}
}

func registerTest(t *testing.T, r *gin.Engine) uint {
	w := doRequest(t, r, http.MethodPost, "/register", "", map[string]string{
		"tenant_name": "Warung Integrasi",
		"slug":        "warung-integrasi",
		"admin_name":  "Test Admin",
		"email":       "admin@example.com",
		"password":    "secret123",
	})
	var data struct {
		TenantID uint   `json:"tenant_id"`
		Status   string `json:"status"`
	}
	decode(t, w, http.StatusCreated, &data)
	if data.Status != models.TenantStatusPending {
		t.Fatalf("registerTest: expected PENDING, got %s", data.Status)
	}
	return data.TenantID
}

func loginTest(t *testing.T, r *gin.Engine) string {
	w := doRequest(t, r, http.MethodPost, "/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "secret123",
	})
	var data struct {
		Token string `json:"token"`
	}
	decode(t, w, http.StatusOK, &data)
	if data.Token == "" {
		t.Fatalf("loginTest: token empty")
	}
	return data.Token
}

func createCategoryTest(t *testing.T, r *gin.Engine, token string, tenantID uint) uint {
	url := fmt.Sprintf("/api/tenants/%d/categories", tenantID)
	w := doRequest(t, r, http.MethodPost, url, token, map[string]string{"name": "Mains"})
	var data struct {
		ID uint `json:"id"`
	}
	decode(t, w, http.StatusCreated, &data)
	return data.ID
}

func createMenuItemTest(t *testing.T, r *gin.Engine, token string, tenantID, categoryID uint) uint {
	url := fmt.Sprintf("/api/tenants/%d/menu-items", tenantID)
	w := doRequest(t, r, http.MethodPost, url, token, map[string]interface{}{
		"category_id": categoryID,
		"name":        "Nasi Goreng",
		"price":       15000,
	})
	var data struct {
		ID uint `json:"id"`
	}
	decode(t, w, http.StatusCreated, &data)
	return data.ID
}

func createOrderTest(t *testing.T, r *gin.Engine, token string, tenantID, itemID uint) uint {
	url := fmt.Sprintf("/api/tenants/%d/orders", tenantID)
	w := doRequest(t, r, http.MethodPost, url, token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"menu_item_id": itemID, "quantity": 2, "notes": "Pedas"},
		},
		"customer_name": "Budi",
	})
	var data struct {
		ID          uint   `json:"id"`
		Status      string `json:"status"`
		TotalAmount int64  `json:"total_amount"`
	}
	decode(t, w, http.StatusCreated, &data)
	if data.Status != models.OrderStatusPending {
		t.Fatalf("createOrderTest: expected PENDING, got %s", data.Status)
	}
	if data.TotalAmount != 30000 {
		t.Fatalf("createOrderTest: expected total 30000, got %d", data.TotalAmount)
	}
	return data.ID
}

func updateStatusTest(t *testing.T, r *gin.Engine, token string, orderID uint, status string) {
	url := fmt.Sprintf("/api/orders/%d/status", orderID)
	w := doRequest(t, r, http.MethodPatch, url, token, map[string]string{"status": status})
	var data struct {
		Status string `json:"status"`
	}
	decode(t, w, http.StatusOK, &data)
	if data.Status != status {
		t.Fatalf("updateStatusTest: expected %s, got %s", status, data.Status)
	}
}

func checkAnalyticsTest(t *testing.T, r *gin.Engine, token string, tenantID uint) {
	url := fmt.Sprintf("/api/tenants/%d/analytics", tenantID)
	w := doRequest(t, r, http.MethodGet, url, token, nil)
	var data struct {
		Stats struct {
			TotalOrders  int64 `json:"total_orders"`
			TotalRevenue int64 `json:"total_revenue"`
		} `json:"stats"`
		TopMenuItems []struct {
			Name  string `json:"name"`
			Count int64  `json:"count"`
		} `json:"top_menu_items"`
	}
	decode(t, w, http.StatusOK, &data)
	if data.Stats.TotalOrders != 1 {
		t.Fatalf("checkAnalyticsTest: expected 1 order, got %d", data.Stats.TotalOrders)
	}
	if data.Stats.TotalRevenue != 30000 {
		t.Fatalf("checkAnalyticsTest: expected revenue 30000, got %d", data.Stats.TotalRevenue)
	}
	if len(data.TopMenuItems) != 1 || data.TopMenuItems[0].Name != "Nasi Goreng" {
		t.Fatalf("checkAnalyticsTest: unexpected top items %+v", data.TopMenuItems)
	}
}

func logoutTest(t *testing.T, r *gin.Engine, token string) {
	w := doRequest(t, r, http.MethodPost, "/api/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logoutTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	// A revoked token must stop working immediately.
	w = doRequest(t, r, http.MethodGet, "/api/tenant-by-slug/warung-integrasi", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("logoutTest: revoked token still accepted, code=%d", w.Code)
	}
}
