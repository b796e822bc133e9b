// internal/domain/payment/method.go
package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MethodType is the kind of payment instrument
type MethodType string

const (
	MethodWallet MethodType = "WALLET"
	MethodMpesa  MethodType = "MPESA"
)

// Method is a payment instrument from the user's profile. For MPESA the
// details carry the phone number.
type Method struct {
	ID      string     `json:"id"`
	Type    MethodType `json:"type"`
	Details string     `json:"details,omitempty"`
}

// PhoneNumber returns the M-Pesa phone number on file
func (m *Method) PhoneNumber() string {
	return strings.TrimSpace(m.Details)
}

// Check evaluates the method's preconditions against the wallet balance and
// the order total. It does not touch the network.
func (m *Method) Check(balance, total decimal.Decimal) error {
	switch m.Type {
	case MethodWallet:
		if balance.LessThan(total) {
			return ErrInsufficientBalance
		}
	case MethodMpesa:
		if m.PhoneNumber() == "" {
			return ErrMissingPhone
		}
	default:
		return ErrUnsupportedMethod
	}
	return nil
}
