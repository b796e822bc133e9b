// internal/domain/payment/errors.go
package payment

import "errors"

var (
	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
	ErrMissingPhone         = errors.New("no M-Pesa phone number on file")
	ErrUnsupportedMethod    = errors.New("unsupported payment method")
	ErrUnknownPaymentMethod = errors.New("payment method not found")
	ErrPaymentInProgress    = errors.New("a payment is already in progress")
	ErrAlreadyPaid          = errors.New("payment already completed")
	ErrNothingToRetry       = errors.New("no failed payment to retry")
	ErrCancelNotConfirmed   = errors.New("cancellation must be confirmed")
	ErrInitiatorClosed      = errors.New("payment tracking has been shut down")
	ErrMissingTransactionID = errors.New("payment request returned no transaction id")
)
