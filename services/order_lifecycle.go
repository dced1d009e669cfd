package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/utils"
)

// orderTransitions is the full lifecycle table. COMPLETED and CANCELLED are
// terminal; requests out of a terminal state are rejected, never silently
// accepted.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusCompleted},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

// CanTransition reports whether the lifecycle table permits from -> to.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidOrderStatus reports whether s names a known lifecycle state.
func IsValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

var revenueStatuses = map[string]bool{
	models.OrderStatusConfirmed: true,
	models.OrderStatusPreparing: true,
	models.OrderStatusReady:     true,
	models.OrderStatusCompleted: true,
}

// IsRevenueStatus reports whether orders in status s count toward order and
// revenue statistics. CANCELLED orders go to a separate bucket; PENDING
// orders count toward neither.
func IsRevenueStatus(s string) bool {
	return revenueStatuses[s]
}

// ContactUpdate carries the optional operator-entered contact fields recorded
// alongside a status change for notification purposes.
type ContactUpdate struct {
	CustomerName  *string
	CustomerPhone *string
}

type OrderLifecycle struct {
	db       *gorm.DB
	notifier Notifier
}

func NewOrderLifecycle(db *gorm.DB, notifier Notifier) *OrderLifecycle {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &OrderLifecycle{db: db, notifier: notifier}
}

// UpdateStatus applies one lifecycle transition. The write is a
// compare-and-swap on the previously observed status and version, so a
// transition raced by another operator is rejected instead of overwriting.
func (s *OrderLifecycle) UpdateStatus(orderID uint, newStatus string, contact *ContactUpdate) (*models.Order, error) {
	if !IsValidOrderStatus(newStatus) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", newStatus)}
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !CanTransition(order.Status, newStatus) {
		return nil, &InvalidTransitionError{From: order.Status, To: newStatus}
	}

	updates := map[string]interface{}{
		"status":  newStatus,
		"version": order.Version + 1,
	}
	if contact != nil {
		if contact.CustomerName != nil {
			updates["customer_name"] = *contact.CustomerName
		}
		if contact.CustomerPhone != nil {
			updates["customer_phone"] = *contact.CustomerPhone
		}
	}

	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND version = ?", order.ID, order.Status, order.Version).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Status moved underneath us between read and write.
		return nil, &InvalidTransitionError{From: order.Status, To: newStatus}
	}

	var updated models.Order
	if err := s.db.Preload("Items").First(&updated, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.notifyTransition(&updated)

	return &updated, nil
}

func (s *OrderLifecycle) notifyTransition(order *models.Order) {
	if order.CustomerPhone == "" {
		return
	}
	msg := fmt.Sprintf("Order %s is now %s (total %s)",
		order.OrderNumber, order.Status, utils.FormatAmount(order.TotalAmount))
	if err := s.notifier.Notify(order.CustomerPhone, msg, "sms"); err != nil && utils.ErrorLogger != nil {
		utils.ErrorLogger.Printf("notify failed for order %s: %v", order.OrderNumber, err)
	}
}
