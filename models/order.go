package models

import (
	"strings"
	"time"
)

// OrderStatus defines the set of allowed statuses for an Order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllOrderStatuses lists statuses in workflow order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

type Order struct {
	ID            string      `json:"id"`
	ProductID     string      `json:"product_id"`
	ProductName   string      `json:"product_name,omitempty"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone *string     `json:"customer_phone,omitempty"`
	Quantity      int         `json:"quantity"`
	TotalPrice    float64     `json:"total_price"`
	Notes         *string     `json:"notes,omitempty"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsValidOrderStatus checks if the provided string is a valid OrderStatus.
// It returns the typed status and true if valid, otherwise an empty status and false.
func IsValidOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllOrderStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}
