// internal/domain/cart/store.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// API is the part of the store API the cart needs
type API interface {
	GetCart(ctx context.Context, token string) (*Cart, error)
	AddCartItem(ctx context.Context, token, productID string, quantity int) (*Cart, error)
	UpdateCartItem(ctx context.Context, token, itemID string, quantity int) (*Cart, error)
	RemoveCartItem(ctx context.Context, token, itemID string) (*Cart, error)
}

// MutationState tracks a cart mutation from local guess to server answer
type MutationState int

const (
	MutationPending   MutationState = iota // not applied yet
	MutationApplied                        // applied optimistically, waiting for the server
	MutationConfirmed                      // server state replaced the guess
	MutationReverted                       // guess discarded
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationApplied:
		return "applied"
	case MutationConfirmed:
		return "confirmed"
	case MutationReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// MutationResult is the outcome of one cart mutation
type MutationResult struct {
	State      MutationState
	Optimistic *Cart // local guess shown while the request was in flight
	Cart       *Cart // state after the mutation settled
	Err        error
}

// Store owns the cart state of one user. Mutations go through its methods
// only. Concurrent mutations are not ordered: the last server response wins.
type Store struct {
	api  API
	log  *logrus.Entry
	mu   sync.RWMutex
	cart *Cart
}

// NewStore creates a cart store
func NewStore(api API, log *logrus.Entry) *Store {
	return &Store{
		api: api,
		log: log,
	}
}

// Refresh replaces local state with the server cart
func (s *Store) Refresh(ctx context.Context, token string) (*Cart, error) {
	c, err := s.api.GetCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	c.Recalculate()

	s.mu.Lock()
	s.cart = c
	s.mu.Unlock()

	return c.Clone(), nil
}

// Current returns a copy of the local cart, an empty cart before the first load
func (s *Store) Current() *Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart == nil {
		return &Cart{Items: []CartItem{}}
	}
	return s.cart.Clone()
}

// Add adds quantity of a product, merging with an existing line
func (s *Store) Add(ctx context.Context, token string, product ProductSnapshot, quantity int) MutationResult {
	if quantity <= 0 {
		return MutationResult{State: MutationReverted, Cart: s.Current(), Err: ErrInvalidQuantity}
	}

	return s.mutate(ctx, token, func(c *Cart) error {
		if i := c.findProduct(product.ID); i >= 0 {
			c.Items[i].Quantity += quantity
			c.Items[i].Product = product
			return nil
		}
		c.Items = append(c.Items, CartItem{
			ProductID: product.ID,
			Quantity:  quantity,
			Product:   product,
		})
		return nil
	}, func() (*Cart, error) {
		return s.api.AddCartItem(ctx, token, product.ID, quantity)
	})
}

// Update sets the quantity of an existing line
func (s *Store) Update(ctx context.Context, token, itemID string, quantity int) MutationResult {
	if quantity <= 0 {
		return MutationResult{State: MutationReverted, Cart: s.Current(), Err: ErrInvalidQuantity}
	}

	return s.mutate(ctx, token, func(c *Cart) error {
		i := c.findItem(itemID)
		if i < 0 {
			return ErrItemNotFound
		}
		c.Items[i].Quantity = quantity
		return nil
	}, func() (*Cart, error) {
		return s.api.UpdateCartItem(ctx, token, itemID, quantity)
	})
}

// Remove deletes a line from the cart
func (s *Store) Remove(ctx context.Context, token, itemID string) MutationResult {
	return s.mutate(ctx, token, func(c *Cart) error {
		i := c.findItem(itemID)
		if i < 0 {
			return ErrItemNotFound
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	}, func() (*Cart, error) {
		return s.api.RemoveCartItem(ctx, token, itemID)
	})
}

// mutate applies the change locally, then reconciles with the server answer.
// On failure the guess is discarded by refetching; if that fails too the
// pre-mutation snapshot is restored.
func (s *Store) mutate(ctx context.Context, token string, apply func(c *Cart) error, call func() (*Cart, error)) MutationResult {
	s.mu.Lock()
	if s.cart == nil {
		s.cart = &Cart{Items: []CartItem{}}
	}
	snapshot := s.cart.Clone()
	guess := s.cart.Clone()
	if err := apply(guess); err != nil {
		s.mu.Unlock()
		return MutationResult{State: MutationReverted, Cart: snapshot, Err: err}
	}
	guess.Recalculate()
	s.cart = guess
	s.mu.Unlock()

	result := MutationResult{State: MutationApplied, Optimistic: guess.Clone()}

	confirmed, err := call()
	if err == nil {
		confirmed.Recalculate()
		s.mu.Lock()
		s.cart = confirmed
		s.mu.Unlock()

		result.State = MutationConfirmed
		result.Cart = confirmed.Clone()
		return result
	}

	s.log.WithError(err).Warn("cart mutation failed, discarding optimistic change")
	result.State = MutationReverted
	result.Err = err

	fresh, refetchErr := s.Refresh(ctx, token)
	if refetchErr != nil {
		s.log.WithError(refetchErr).Warn("cart refetch failed, restoring snapshot")
		s.mu.Lock()
		s.cart = snapshot
		s.mu.Unlock()
		result.Cart = snapshot.Clone()
		return result
	}

	result.Cart = fresh
	return result
}
