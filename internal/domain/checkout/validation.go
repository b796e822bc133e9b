// internal/domain/checkout/validation.go
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
)

// Validation codes
const (
	CodeAddressRequired       = "address_required"
	CodePaymentMethodRequired = "payment_method_required"
	CodeInsufficientBalance   = "insufficient_balance"
	CodePhoneRequired         = "phone_required"
	CodeUnsupportedMethod     = "unsupported_payment_method"
)

// ValidationError blocks a transition on one field
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every violation found at once
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether a violation with code is present
func (v ValidationErrors) Has(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// GateInput is what the shipping to payment gate looks at
type GateInput struct {
	ShippingAddressID string
	Method            *payment.Method
	Balance           decimal.Decimal
	Total             decimal.Decimal
}

// ValidateGate checks the shipping to payment preconditions. It returns nil
// when the transition may proceed.
func ValidateGate(in GateInput) ValidationErrors {
	var errs ValidationErrors

	if in.ShippingAddressID == "" {
		errs = append(errs, ValidationError{
			Field:   "shipping_address_id",
			Code:    CodeAddressRequired,
			Message: "please select a shipping address",
		})
	}

	errs = append(errs, ValidateMethod(in.Method, in.Balance, in.Total)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateMethod checks the payment method preconditions alone
func ValidateMethod(m *payment.Method, balance, total decimal.Decimal) ValidationErrors {
	if m == nil {
		return methodViolations(payment.ErrUnknownPaymentMethod, balance, total)
	}
	return methodViolations(m.Check(balance, total), balance, total)
}

// methodViolations turns a payment method precondition error into
// violations
func methodViolations(err error, balance, total decimal.Decimal) ValidationErrors {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, payment.ErrUnknownPaymentMethod):
		return ValidationErrors{{
			Field:   "payment_method_id",
			Code:    CodePaymentMethodRequired,
			Message: "please select a payment method",
		}}
	case errors.Is(err, payment.ErrInsufficientBalance):
		return ValidationErrors{{
			Field: "payment_method_id",
			Code:  CodeInsufficientBalance,
			Message: fmt.Sprintf("insufficient wallet balance: %s available, %s required",
				balance.StringFixed(2), total.StringFixed(2)),
		}}
	case errors.Is(err, payment.ErrMissingPhone):
		return ValidationErrors{{
			Field:   "payment_method_id",
			Code:    CodePhoneRequired,
			Message: "add a phone number to pay with M-Pesa",
		}}
	default:
		return ValidationErrors{{
			Field:   "payment_method_id",
			Code:    CodeUnsupportedMethod,
			Message: err.Error(),
		}}
	}
}
