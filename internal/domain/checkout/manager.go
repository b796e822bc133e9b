// internal/domain/checkout/manager.go
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/domain/user"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

// StoreAPI is the remote store API as a whole
type StoreAPI interface {
	cart.API
	wallet.API
	order.API
	user.API
	payment.Gateway
}

// ManagerConfig configures the flows a manager creates
type ManagerConfig struct {
	Settings           Settings
	RecentTransactions int
	// IdleTTL evicts flows unused for this long. Zero keeps flows until
	// they are released.
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Manager keeps one checkout flow per signed-in user
type Manager struct {
	api      StoreAPI
	sessions SessionStore
	journal  payment.Journal
	clock    clock.Clock
	config   ManagerConfig
	log      *logrus.Logger

	mu     sync.Mutex
	flows  map[uint]*Flow
	closed bool

	stop      chan struct{}
	sweepDone chan struct{}
}

// NewManager creates a manager
// NewManager creates a manager. With an IdleTTL set it sweeps idle flows
// until Close.
func NewManager(api StoreAPI, sessions SessionStore, journal payment.Journal, clk clock.Clock, cfg ManagerConfig, log *logrus.Logger) *Manager {
	m := &Manager{
		api:       api,
		sessions:  sessions,
		journal:   journal,
		clock:     clk,
		config:    cfg,
		log:       log,
		flows:     make(map[uint]*Flow),
		stop:      make(chan struct{}),
		sweepDone: make(chan struct{}),
	}

	if cfg.IdleTTL > 0 {
		interval := cfg.SweepInterval
		if interval <= 0 {
			interval = cfg.IdleTTL
		}
		go m.sweepLoop(interval)
	} else {
		close(m.sweepDone)
	}
	return m
}

// Flow returns the user's flow, creating it on first use
func (m *Manager) Flow(userID uint) (*Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	now := m.clock.Now()
	if f, ok := m.flows[userID]; ok {
		f.markUsed(now)
		return f, nil
	}

	entry := m.log.WithField("component", "checkout")
	f := NewFlow(userID, Dependencies{
		Cart:     cart.NewStore(m.api, entry),
		Wallet:   wallet.NewStore(m.api, m.config.RecentTransactions, entry),
		Orders:   order.NewStore(m.api, entry),
		Profile:  user.NewStore(m.api, entry),
		Gateway:  m.api,
		Sessions: m.sessions,
		Journal:  m.journal,
		Clock:    m.clock,
		Log:      entry,
	}, m.config.Settings)
	m.flows[userID] = f
	return f, nil
}

// Release tears the user's flow down, cancelling polling and timers. The
// stored session survives, so the next Flow call resumes it.
func (m *Manager) Release(userID uint) {
	m.mu.Lock()
	f, ok := m.flows[userID]
	delete(m.flows, userID)
	m.mu.Unlock()

	if ok {
		f.Close()
	}
}

// Active returns the number of live flows
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

// Close stops the sweep and releases every flow
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	flows := m.flows
	m.flows = make(map[uint]*Flow)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-m.sweepDone
		for _, f := range flows {
			f.Close()
		}
		close(done)
	}()

	select {
	case <-done:
		m.log.WithField("flows", len(flows)).Info("checkout flows closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) sweepLoop(interval time.Duration) {
	defer close(m.sweepDone)
	for {
		select {
		case <-m.stop:
			return
		case <-m.clock.After(interval):
			m.evictIdle()
		}
	}
}

// evictIdle releases flows idle past the TTL. Their stored sessions stay,
// so a returning user resumes from Redis.
func (m *Manager) evictIdle() {
	now := m.clock.Now()

	m.mu.Lock()
	var idle []*Flow
	for userID, f := range m.flows {
		if f.Idle(now, m.config.IdleTTL) {
			idle = append(idle, f)
			delete(m.flows, userID)
		}
	}
	m.mu.Unlock()

	for _, f := range idle {
		f.Close()
	}
	if len(idle) > 0 {
		m.log.WithField("flows", len(idle)).Debug("idle checkout flows released")
	}
}
