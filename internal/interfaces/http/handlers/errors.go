// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/infrastructure/storefront"
)

var conflictErrors = []error{
	checkout.ErrInvalidTransition,
	checkout.ErrEmptyCart,
	checkout.ErrDirectPaymentMode,
	checkout.ErrNoOrder,
	checkout.ErrOrderNotPayable,
	checkout.ErrPlacementInProgress,
	payment.ErrPaymentInProgress,
	payment.ErrAlreadyPaid,
	payment.ErrNothingToRetry,
	payment.ErrCancelNotConfirmed,
	order.ErrNotCancellable,
}

var unprocessableErrors = []error{
	payment.ErrInsufficientBalance,
	payment.ErrMissingPhone,
	payment.ErrUnsupportedMethod,
	payment.ErrUnknownPaymentMethod,
	cart.ErrInvalidQuantity,
	order.ErrShippingAddressRequired,
	order.ErrPaymentMethodRequired,
	order.ErrOrderNumberRequired,
	order.ErrOrderIDRequired,
}

var unavailableErrors = []error{
	checkout.ErrFlowClosed,
	checkout.ErrManagerClosed,
	payment.ErrInitiatorClosed,
	storefront.ErrUnavailable,
}

// statusFor maps an error to the HTTP status it is answered with
func statusFor(err error) int {
	var verrs checkout.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusUnprocessableEntity
	}

	if matchesAny(err, conflictErrors) {
		return http.StatusConflict
	}
	if matchesAny(err, unprocessableErrors) {
		return http.StatusUnprocessableEntity
	}
	if matchesAny(err, unavailableErrors) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, cart.ErrItemNotFound) {
		return http.StatusNotFound
	}

	var apiErr *storefront.APIError
	if errors.As(err, &apiErr) {
		// the store API's own verdicts on a request are passed through
		if apiErr.IsClientError() && apiErr.StatusCode != http.StatusUnauthorized {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, payment.ErrMissingTransactionID) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorMessage is the notification text shown for err
func errorMessage(err error, status int) string {
	var apiErr *storefront.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}
	if status == http.StatusGatewayTimeout {
		return "The store took too long to answer"
	}
	return err.Error()
}

// respondError writes err as JSON. extra fields are merged into the body.
func respondError(c *gin.Context, err error, extra gin.H) {
	status := statusFor(err)
	body := gin.H{"error": errorMessage(err, status)}

	var verrs checkout.ValidationErrors
	if errors.As(err, &verrs) {
		body["error"] = "Validation failed"
		body["details"] = verrs
	}
	for k, v := range extra {
		body[k] = v
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
