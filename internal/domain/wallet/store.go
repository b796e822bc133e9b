// internal/domain/wallet/store.go
package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// API is the part of the store API the wallet needs
type API interface {
	GetWallet(ctx context.Context, token string) (*Wallet, error)
}

// Store owns the wallet state of one user. The balance only changes through
// Refresh; nothing decrements it locally.
type Store struct {
	api    API
	limit  int
	log    *logrus.Entry
	mu     sync.RWMutex
	wallet *Wallet
}

// NewStore creates a wallet store keeping at most limit recent transactions
func NewStore(api API, limit int, log *logrus.Entry) *Store {
	if limit <= 0 {
		limit = 10
	}
	return &Store{
		api:   api,
		limit: limit,
		log:   log,
	}
}

// Refresh fetches the authoritative wallet
func (s *Store) Refresh(ctx context.Context, token string) (*Wallet, error) {
	w, err := s.api.GetWallet(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet: %w", err)
	}

	if len(w.Transactions) > s.limit {
		w.Transactions = w.Transactions[:s.limit]
	}

	s.mu.Lock()
	s.wallet = w
	s.mu.Unlock()

	s.log.WithField("balance", w.Balance.String()).Debug("wallet refreshed")
	return w.Clone(), nil
}

// Current returns a copy of the last known wallet, nil before the first refresh
func (s *Store) Current() *Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet.Clone()
}

// Balance returns the last known balance, zero when unknown
func (s *Store) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wallet == nil {
		return decimal.Zero
	}
	return s.wallet.Balance
}
