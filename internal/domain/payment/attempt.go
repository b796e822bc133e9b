// internal/domain/payment/attempt.go
package payment

import (
	"context"
	"time"
)

// Attempt is one row of the payment journal: an initiation or an outcome
type Attempt struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	OrderID       string     `gorm:"not null;size:64;index" json:"order_id"`
	Method        MethodType `gorm:"not null;size:20" json:"method"`
	TransactionID string     `gorm:"size:100;index" json:"transaction_id"`
	Status        Status     `gorm:"not null;size:20" json:"status"`
	Attempts      int        `gorm:"default:0" json:"attempts"`
	Message       string     `gorm:"type:text" json:"message"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TableName overrides the table name
func (Attempt) TableName() string {
	return "payment_attempts"
}

// Journal records payment attempts for support and reconciliation
type Journal interface {
	Record(ctx context.Context, attempt *Attempt) error
}

// NopJournal discards records
type NopJournal struct{}

// Record implements Journal
func (NopJournal) Record(context.Context, *Attempt) error { return nil }
