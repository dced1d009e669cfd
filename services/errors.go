package services

import (
	"errors"
	"fmt"
)

var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrEmailTaken       = errors.New("email is already registered")
	ErrSlugTaken        = errors.New("slug is already in use")
)

// ValidationError rejects a request before any mutation is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QuotaExceededError names the resource kind and the configured limit.
type QuotaExceededError struct {
	Kind  string
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s limit reached (max %d)", e.Kind, e.Limit)
}

// InvalidTransitionError reports a rejected order status move. The order is
// left unchanged.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// SlugChangeLimitError reports a slug change rejected by the per-tenant
// counter, naming current and maximum counts.
type SlugChangeLimitError struct {
	Used int
	Max  int
}

func (e *SlugChangeLimitError) Error() string {
	return fmt.Sprintf("slug change limit reached (%d of %d used)", e.Used, e.Max)
}
