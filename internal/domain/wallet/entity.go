// internal/domain/wallet/entity.go
package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of wallet movement
type TransactionType string

const (
	TransactionTypeTopUp      TransactionType = "WALLET_TOPUP"
	TransactionTypePayment    TransactionType = "WALLET_PAYMENT"
	TransactionTypeWithdrawal TransactionType = "WALLET_WITHDRAWAL"
	TransactionTypeRefund     TransactionType = "REFUND"
)

// TransactionStatus represents the settlement state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal reports whether the status will not change any more.
// PENDING is the only state polling continues from.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Transaction represents a wallet or mobile-money transaction
type Transaction struct {
	ID        string            `json:"id"`
	Type      TransactionType   `json:"type"`
	Amount    decimal.Decimal   `json:"amount"`
	Status    TransactionStatus `json:"status"`
	Reference string            `json:"reference"`
	ReceiptID string            `json:"mpesaReceiptId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Wallet represents the user's stored-balance account
type Wallet struct {
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// CanCover reports whether the balance covers amount
func (w *Wallet) CanCover(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Clone returns a deep copy of the wallet
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	clone := &Wallet{Balance: w.Balance}
	if w.Transactions != nil {
		clone.Transactions = make([]Transaction, len(w.Transactions))
		copy(clone.Transactions, w.Transactions)
	}
	return clone
}
