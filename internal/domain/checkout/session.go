// internal/domain/checkout/session.go
package checkout

import (
	"context"
	"time"
)

// Step is a checkout step
type Step string

const (
	StepReviewCart   Step = "REVIEW_CART"
	StepShipping     Step = "SHIPPING"
	StepPayment      Step = "PAYMENT"
	StepConfirmation Step = "CONFIRMATION"
)

// Number returns the 1-based position of the step, 0 for unknown steps
func (s Step) Number() int {
	switch s {
	case StepReviewCart:
		return 1
	case StepShipping:
		return 2
	case StepPayment:
		return 3
	case StepConfirmation:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether s is a known step
func (s Step) IsValid() bool {
	return s.Number() > 0
}

// SessionVersion is bumped whenever Session changes shape
const SessionVersion = 1

// Session is the resumable part of a checkout
type Session struct {
	Version           int       `json:"version"`
	UserID            uint      `json:"user_id"`
	Step              Step      `json:"step"`
	ShippingAddressID string    `json:"shipping_address_id,omitempty"`
	PaymentMethodID   string    `json:"payment_method_id,omitempty"`
	OrderID           string    `json:"order_id,omitempty"`
	DirectPayment     bool      `json:"direct_payment"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewSession returns a fresh session at the first step
func NewSession(userID uint) Session {
	return Session{
		Version: SessionVersion,
		UserID:  userID,
		Step:    StepReviewCart,
	}
}

// Resumable reports whether a stored session can be picked up again.
// Completed checkouts are never resumed.
func (s Session) Resumable(userID uint) bool {
	if s.Version != SessionVersion || s.UserID != userID {
		return false
	}
	switch s.Step {
	case StepReviewCart, StepShipping:
		return !s.DirectPayment
	case StepPayment:
		return s.OrderID != ""
	default:
		return false
	}
}

// SessionStore persists sessions between requests and restarts
type SessionStore interface {
	// Load returns ErrSessionNotFound when nothing is stored and
	// ErrIncompatibleSession when the stored version differs.
	Load(ctx context.Context, userID uint) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Clear(ctx context.Context, userID uint) error
}
