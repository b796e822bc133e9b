// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the order status. Transitions are decided by the
// store API; the gateway only displays them and requests cancellation.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Order represents a placed order
type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"orderNumber"`
	UserID            string          `json:"userId"`
	Status            OrderStatus     `json:"status"`
	Items             []OrderItem     `json:"items"`
	StatusHistory     []StatusChange  `json:"statusHistory,omitempty"`
	PaymentMethodID   string          `json:"paymentMethodId"`
	ShippingAddressID string          `json:"shippingAddressId"`
	SubtotalAmount    decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"tax"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// OrderItem represents items in an order
type OrderItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`    // Price per unit
	Subtotal  decimal.Decimal `json:"subtotal"` // Quantity * Price
}

// StatusChange is one entry of the append-only status history
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// PlaceOrderRequest is the body of POST /orders
type PlaceOrderRequest struct {
	ShippingAddressID string `json:"shippingAddressId"`
	PaymentMethodID   string `json:"paymentMethodId"`
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending
}

// AwaitingPayment reports whether the order can still be paid
func (o *Order) AwaitingPayment() bool {
	return o.Status == OrderStatusPending
}

// LatestStatusChange returns the newest status history entry
func (o *Order) LatestStatusChange() (StatusChange, bool) {
	if len(o.StatusHistory) == 0 {
		return StatusChange{}, false
	}
	return o.StatusHistory[len(o.StatusHistory)-1], true
}
