package postgres

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"gorm.io/gorm"
)

// AttemptJournal stores payment attempts in the payment_attempts table
type AttemptJournal struct {
	db *gorm.DB
}

// NewAttemptJournal creates a journal on db
func NewAttemptJournal(db *gorm.DB) *AttemptJournal {
	return &AttemptJournal{db: db}
}

// Record implements payment.Journal
func (j *AttemptJournal) Record(ctx context.Context, attempt *payment.Attempt) error {
	if err := j.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to record payment attempt: %w", err)
	}
	return nil
}

// ForOrder returns the attempts of an order, newest first
func (j *AttemptJournal) ForOrder(ctx context.Context, orderID string) ([]payment.Attempt, error) {
	var attempts []payment.Attempt
	err := j.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}
	return attempts, nil
}

// Latest returns the most recent attempt of an order
func (j *AttemptJournal) Latest(ctx context.Context, orderID string) (*payment.Attempt, error) {
	var attempt payment.Attempt
	err := j.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
