// internal/domain/payment/status.go
package payment

import "time"

// Status is what the processing modal shows
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	// StatusUnknown means polling gave up before the transaction settled
	StatusUnknown Status = "UNKNOWN"
)

// MessageStatusUnknown is shown when the poller exhausts its budget
const MessageStatusUnknown = "status unknown, check your orders later"

// State is a snapshot of the payment attempt for one checkout
type State struct {
	Status                    Status     `json:"status"`
	Method                    MethodType `json:"method,omitempty"`
	OrderID                   string     `json:"order_id,omitempty"`
	TransactionID             string     `json:"transaction_id,omitempty"`
	Attempts                  int        `json:"attempts"`
	Message                   string     `json:"message,omitempty"`
	PaymentInProgress         bool       `json:"payment_in_progress"`
	CheckingTransactionStatus bool       `json:"checking_transaction_status"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// CanRetry reports whether the retry affordance applies
func (s State) CanRetry() bool {
	return s.Status == StatusFailed || s.Status == StatusUnknown
}
