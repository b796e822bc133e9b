// internal/domain/checkout/errors.go
package checkout

import "errors"

var (
	ErrInvalidTransition   = errors.New("checkout step transition not allowed")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrDirectPaymentMode   = errors.New("not available when paying for an existing order")
	ErrNoOrder             = errors.New("no order to pay for")
	ErrOrderNotPayable     = errors.New("order is no longer awaiting payment")
	ErrPlacementInProgress = errors.New("order placement is in progress")
	ErrFlowClosed          = errors.New("checkout has been closed")
	ErrManagerClosed       = errors.New("checkout service is shutting down")
	ErrSessionNotFound     = errors.New("checkout session not found")
	ErrIncompatibleSession = errors.New("checkout session has an incompatible version")
)
