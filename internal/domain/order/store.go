// internal/domain/order/store.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrShippingAddressRequired = errors.New("shipping address is required")
	ErrPaymentMethodRequired   = errors.New("payment method is required")
	ErrOrderNumberRequired     = errors.New("order number is required")
	ErrOrderIDRequired         = errors.New("order id is required")
	ErrNotCancellable          = errors.New("order can no longer be cancelled")
)

// API is the part of the store API orders need
type API interface {
	PlaceOrder(ctx context.Context, token string, req PlaceOrderRequest) (*Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*Order, error)
	CancelOrder(ctx context.Context, token, orderNumber string) error
}

// Store owns the order the checkout is working on
type Store struct {
	api     API
	log     *logrus.Entry
	mu      sync.RWMutex
	current *Order
}

// NewStore creates an order store
func NewStore(api API, log *logrus.Entry) *Store {
	return &Store{
		api: api,
		log: log,
	}
}

// Place converts the server-side cart into an order
func (s *Store) Place(ctx context.Context, token, shippingAddressID, paymentMethodID string) (*Order, error) {
	if shippingAddressID == "" {
		return nil, ErrShippingAddressRequired
	}
	if paymentMethodID == "" {
		return nil, ErrPaymentMethodRequired
	}

	o, err := s.api.PlaceOrder(ctx, token, PlaceOrderRequest{
		ShippingAddressID: shippingAddressID,
		PaymentMethodID:   paymentMethodID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	if o.ID == "" {
		return nil, fmt.Errorf("failed to place order: response carried no order id")
	}

	s.set(o)
	s.log.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
	}).Info("order placed")
	return o, nil
}

// Load fetches an existing order and makes it current
func (s *Store) Load(ctx context.Context, token, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, ErrOrderIDRequired
	}

	o, err := s.api.GetOrder(ctx, token, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	s.set(o)
	return o, nil
}

// Cancel asks the store API to cancel a pending order
func (s *Store) Cancel(ctx context.Context, token, orderNumber string) error {
	if orderNumber == "" {
		return ErrOrderNumberRequired
	}

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil && current.OrderNumber == orderNumber && !current.CanBeCancelled() {
		return ErrNotCancellable
	}

	if err := s.api.CancelOrder(ctx, token, orderNumber); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	s.mu.Lock()
	if s.current != nil && s.current.OrderNumber == orderNumber {
		s.current.Status = OrderStatusCancelled
	}
	s.mu.Unlock()

	s.log.WithField("order_number", orderNumber).Info("order cancelled")
	return nil
}

// Current returns the current order, nil when none
func (s *Store) Current() *Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	o := *s.current
	return &o
}

// Clear forgets the current order
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

func (s *Store) set(o *Order) {
	s.mu.Lock()
	s.current = o
	s.mu.Unlock()
}
