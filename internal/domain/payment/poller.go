// internal/domain/payment/poller.go
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

// TransactionSource looks up the state of a mobile-money transaction
type TransactionSource interface {
	GetTransaction(ctx context.Context, token, transactionID string) (*wallet.Transaction, error)
}

// PollerConfig bounds the polling schedule
type PollerConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPollerConfig is 10 attempts with min(1s*2^n, 30s) between them
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// PollResult is the outcome of one polling run
type PollResult struct {
	Status      wallet.TransactionStatus
	Transaction *wallet.Transaction
	Attempts    int
	Exhausted   bool
}

// Poller queries a transaction until it settles or the attempt budget runs out
type Poller struct {
	source TransactionSource
	clock  clock.Clock
	config PollerConfig
	log    *logrus.Entry
}

// NewPoller creates a poller
func NewPoller(source TransactionSource, clk clock.Clock, cfg PollerConfig, log *logrus.Entry) *Poller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultPollerConfig().MaxAttempts
	}
	return &Poller{
		source: source,
		clock:  clk,
		config: cfg,
		log:    log,
	}
}

// Delay returns the wait before the retry following attempt n: min(base*2^n, max)
func (p *Poller) Delay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= 31 {
		return p.config.MaxDelay
	}
	d := p.config.BaseDelay * time.Duration(int64(1)<<uint(n))
	if d > p.config.MaxDelay || d <= 0 {
		return p.config.MaxDelay
	}
	return d
}

// Poll checks the transaction immediately and then on the backoff schedule.
// Request errors count against the budget like non-terminal answers.
// onAttempt, when set, is called before every query with its 1-based number.
func (p *Poller) Poll(ctx context.Context, token, transactionID string, onAttempt func(attempt int)) (PollResult, error) {
	var result PollResult
	log := p.log.WithField("transaction_id", transactionID)

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx, p.Delay(attempt-1)); err != nil {
				return result, err
			}
		}

		result.Attempts = attempt
		if onAttempt != nil {
			onAttempt(attempt)
		}

		tx, err := p.source.GetTransaction(ctx, token, transactionID)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			log.WithError(err).WithField("attempt", attempt).Warn("transaction status check failed")
			continue
		}

		if tx.Status.IsTerminal() {
			result.Status = tx.Status
			result.Transaction = tx
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"status":  tx.Status,
			}).Info("transaction settled")
			return result, nil
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"status":  tx.Status,
		}).Debug("transaction still pending")
	}

	result.Status = wallet.TransactionStatusPending
	result.Exhausted = true
	log.WithField("attempts", result.Attempts).Warn("transaction polling budget exhausted")
	return result, nil
}

func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("transaction polling cancelled: %w", ctx.Err())
	case <-timer.Chan():
		return nil
	}
}
