package models

import (
	"fmt"
	"time"
)

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// DefaultPaymentMethod is recorded when checkout does not name one.
const DefaultPaymentMethod = "CASH"

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderNumber   string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`
	TenantID      uint        `gorm:"index;not null" json:"tenant_id"`
	Tenant        Tenant      `gorm:"foreignKey:TenantID" json:"-"`
	Status        string      `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	TotalAmount   int64       `gorm:"not null;default:0" json:"total_amount"`
	PaymentMethod string      `gorm:"type:varchar(50);not null;default:'CASH'" json:"payment_method"`
	CustomerName  string      `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone string      `gorm:"type:varchar(50)" json:"customer_phone"`
	Version       uint        `gorm:"not null;default:0" json:"version"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
}

// GenerateOrderNumber builds the display id shown on tickets and dashboards.
func GenerateOrderNumber(tenantID uint, at time.Time) string {
	return fmt.Sprintf("ORD-%d-%d", at.UnixNano(), tenantID)
}
