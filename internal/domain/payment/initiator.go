// internal/domain/payment/initiator.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

// ErrOrderRequired is returned when a payment is started without an order
var ErrOrderRequired = errors.New("order id is required to start a payment")

// Gateway is the part of the store API payments need
type Gateway interface {
	TransactionSource
	PayWithWallet(ctx context.Context, token, orderID string) error
	InitiateSTKPush(ctx context.Context, token, orderID, phoneNumber string) (string, error)
}

// Hooks let the checkout react to settled payments
type Hooks struct {
	// OnSettled runs as soon as a payment completes
	OnSettled func(State)
	// OnAdvance runs once the success display delay has passed
	OnAdvance func(State)
}

// InitiatorConfig configures an initiator
type InitiatorConfig struct {
	UserID       uint
	SuccessDelay time.Duration
}

type paymentRequest struct {
	method  MethodType
	orderID string
	phone   string
}

// Initiator starts wallet and M-Pesa payments for one checkout and tracks the
// attempt until it settles. At most one attempt is in progress at a time.
type Initiator struct {
	gateway Gateway
	poller  *Poller
	journal Journal
	clock   clock.Clock
	config  InitiatorConfig
	hooks   Hooks
	log     *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	last       *paymentRequest
	generation int
	stopPoll   context.CancelFunc
	advance    clock.Timer
	closed     bool
}

// NewInitiator creates an initiator. Polling goroutines live until Close.
func NewInitiator(gateway Gateway, poller *Poller, journal Journal, clk clock.Clock, cfg InitiatorConfig, hooks Hooks, log *logrus.Entry) *Initiator {
	if journal == nil {
		journal = NopJournal{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Initiator{
		gateway: gateway,
		poller:  poller,
		journal: journal,
		clock:   clk,
		config:  cfg,
		hooks:   hooks,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		state:   State{Status: StatusIdle, UpdatedAt: clk.Now()},
	}
}

// State returns the current payment state
func (i *Initiator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// InProgress reports whether an attempt is in flight
func (i *Initiator) InProgress() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state.PaymentInProgress
}

// PayWithWallet debits the wallet for the order. It settles synchronously.
func (i *Initiator) PayWithWallet(ctx context.Context, token, orderID string) error {
	if orderID == "" {
		return ErrOrderRequired
	}

	gen, err := i.begin(paymentRequest{method: MethodWallet, orderID: orderID})
	if err != nil {
		return err
	}

	if err := i.gateway.PayWithWallet(ctx, token, orderID); err != nil {
		i.fail(gen, fmt.Sprintf("wallet payment failed: %v", err))
		return fmt.Errorf("wallet payment failed: %w", err)
	}

	i.succeed(gen)
	return nil
}

// PayWithMpesa sends an STK push for the order and starts tracking the
// returned transaction in the background.
func (i *Initiator) PayWithMpesa(ctx context.Context, token, orderID, phoneNumber string) (string, error) {
	if orderID == "" {
		return "", ErrOrderRequired
	}
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return "", ErrMissingPhone
	}

	gen, err := i.begin(paymentRequest{method: MethodMpesa, orderID: orderID, phone: phoneNumber})
	if err != nil {
		return "", err
	}

	transactionID, err := i.gateway.InitiateSTKPush(ctx, token, orderID, phoneNumber)
	if err == nil && transactionID == "" {
		err = ErrMissingTransactionID
	}
	if err != nil {
		i.fail(gen, fmt.Sprintf("M-Pesa request failed: %v", err))
		return "", fmt.Errorf("M-Pesa request failed: %w", err)
	}

	i.mu.Lock()
	if gen != i.generation || i.closed {
		i.mu.Unlock()
		return transactionID, nil
	}
	pollCtx, stop := context.WithCancel(i.ctx)
	i.stopPoll = stop
	i.state.TransactionID = transactionID
	i.state.CheckingTransactionStatus = true
	i.state.Message = "approve the payment prompt on your phone"
	i.state.UpdatedAt = i.clock.Now()
	snapshot := i.state
	i.mu.Unlock()

	i.record(snapshot)
	go i.track(pollCtx, gen, token, transactionID)
	return transactionID, nil
}

// Retry re-invokes the last failed initiation
func (i *Initiator) Retry(ctx context.Context, token string) error {
	i.mu.Lock()
	last := i.last
	canRetry := i.state.CanRetry()
	i.mu.Unlock()

	if last == nil || !canRetry {
		return ErrNothingToRetry
	}

	switch last.method {
	case MethodWallet:
		return i.PayWithWallet(ctx, token, last.orderID)
	case MethodMpesa:
		_, err := i.PayWithMpesa(ctx, token, last.orderID, last.phone)
		return err
	default:
		return ErrUnsupportedMethod
	}
}

// CancelTracking stops following an in-flight attempt. The store API is not
// told; an STK push already on the phone can still be approved.
func (i *Initiator) CancelTracking(confirm bool) error {
	if !confirm {
		return ErrCancelNotConfirmed
	}

	i.mu.Lock()
	if !i.state.PaymentInProgress {
		if i.state.CanRetry() {
			i.state = State{Status: StatusIdle, Method: i.state.Method, OrderID: i.state.OrderID, UpdatedAt: i.clock.Now()}
		}
		i.mu.Unlock()
		return nil
	}

	i.generation++
	i.haltLocked()
	abandoned := i.state
	i.state = State{
		Status:    StatusIdle,
		Method:    abandoned.Method,
		OrderID:   abandoned.OrderID,
		Message:   "payment tracking cancelled",
		UpdatedAt: i.clock.Now(),
	}
	i.mu.Unlock()

	abandoned.Message = "tracking cancelled by user"
	abandoned.PaymentInProgress = false
	abandoned.CheckingTransactionStatus = false
	i.record(abandoned)
	i.log.WithFields(logrus.Fields{
		"order_id":       abandoned.OrderID,
		"transaction_id": abandoned.TransactionID,
	}).Info("payment tracking cancelled")
	return nil
}

// Reset drops any attempt and returns to idle
func (i *Initiator) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.generation++
	i.haltLocked()
	i.last = nil
	i.state = State{Status: StatusIdle, UpdatedAt: i.clock.Now()}
}

// Close stops polling and pending timers for good
func (i *Initiator) Close() {
	i.mu.Lock()
	i.closed = true
	i.generation++
	i.haltLocked()
	i.mu.Unlock()

	i.cancel()
}

func (i *Initiator) begin(req paymentRequest) (int, error) {
	i.mu.Lock()

	if i.closed {
		i.mu.Unlock()
		return 0, ErrInitiatorClosed
	}
	if i.state.PaymentInProgress {
		i.mu.Unlock()
		return 0, ErrPaymentInProgress
	}
	if i.state.Status == StatusSuccess && i.state.OrderID == req.orderID {
		i.mu.Unlock()
		return 0, ErrAlreadyPaid
	}

	i.generation++
	i.haltLocked()
	i.last = &req
	i.state = State{
		Status:            StatusProcessing,
		Method:            req.method,
		OrderID:           req.orderID,
		PaymentInProgress: true,
		UpdatedAt:         i.clock.Now(),
	}
	gen := i.generation
	snapshot := i.state
	i.mu.Unlock()

	i.record(snapshot)
	i.log.WithFields(logrus.Fields{
		"order_id": req.orderID,
		"method":   req.method,
	}).Info("payment initiated")
	return gen, nil
}

func (i *Initiator) track(ctx context.Context, gen int, token, transactionID string) {
	result, err := i.poller.Poll(ctx, token, transactionID, func(attempt int) {
		i.mu.Lock()
		if gen == i.generation {
			i.state.Attempts = attempt
		}
		i.mu.Unlock()
	})
	if err != nil {
		// cancelled; whoever cancelled owns the state
		return
	}

	switch {
	case result.Status == wallet.TransactionStatusCompleted:
		i.succeed(gen)
	case result.Status == wallet.TransactionStatusFailed:
		i.fail(gen, "payment failed or was declined on the phone")
	default:
		i.settleUnknown(gen)
	}
}

func (i *Initiator) succeed(gen int) {
	i.mu.Lock()
	if gen != i.generation || i.closed {
		i.mu.Unlock()
		return
	}
	i.stopPoll = nil
	i.state.Status = StatusSuccess
	i.state.PaymentInProgress = false
	i.state.CheckingTransactionStatus = false
	i.state.Message = "payment completed"
	i.state.UpdatedAt = i.clock.Now()
	snapshot := i.state
	i.advance = i.clock.AfterFunc(i.config.SuccessDelay, func() { i.fireAdvance(gen) })
	i.mu.Unlock()

	i.record(snapshot)
	if i.hooks.OnSettled != nil {
		i.hooks.OnSettled(snapshot)
	}
}

func (i *Initiator) fireAdvance(gen int) {
	i.mu.Lock()
	if gen != i.generation || i.closed {
		i.mu.Unlock()
		return
	}
	i.advance = nil
	snapshot := i.state
	i.mu.Unlock()

	if i.hooks.OnAdvance != nil {
		i.hooks.OnAdvance(snapshot)
	}
}

func (i *Initiator) fail(gen int, message string) {
	i.settle(gen, StatusFailed, message)
}

func (i *Initiator) settleUnknown(gen int) {
	i.settle(gen, StatusUnknown, MessageStatusUnknown)
}

func (i *Initiator) settle(gen int, status Status, message string) {
	i.mu.Lock()
	if gen != i.generation || i.closed {
		i.mu.Unlock()
		return
	}
	i.stopPoll = nil
	i.state.Status = status
	i.state.PaymentInProgress = false
	i.state.CheckingTransactionStatus = false
	i.state.Message = message
	i.state.UpdatedAt = i.clock.Now()
	snapshot := i.state
	i.mu.Unlock()

	i.record(snapshot)
	i.log.WithFields(logrus.Fields{
		"order_id":       snapshot.OrderID,
		"transaction_id": snapshot.TransactionID,
		"status":         status,
	}).Warn(message)
}

// haltLocked stops polling and the pending advance. Callers hold i.mu.
func (i *Initiator) haltLocked() {
	if i.stopPoll != nil {
		i.stopPoll()
		i.stopPoll = nil
	}
	if i.advance != nil {
		i.advance.Stop()
		i.advance = nil
	}
}

func (i *Initiator) record(st State) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := i.journal.Record(ctx, &Attempt{
		UserID:        i.config.UserID,
		OrderID:       st.OrderID,
		Method:        st.Method,
		TransactionID: st.TransactionID,
		Status:        st.Status,
		Attempts:      st.Attempts,
		Message:       st.Message,
	})
	if err != nil {
		i.log.WithError(err).Warn("failed to record payment attempt")
	}
}
