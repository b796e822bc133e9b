// internal/domain/checkout/flow.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/domain/user"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
	"github.com/your-org/storefront-checkout/internal/pkg/debounce"
)

// Settings tune a checkout flow
type Settings struct {
	TaxRate         decimal.Decimal
	Poller          payment.PollerConfig
	SuccessDelay    time.Duration
	RefreshDebounce time.Duration
	RefreshTimeout  time.Duration
}

// DefaultSettings returns the production timings
func DefaultSettings() Settings {
	return Settings{
		TaxRate:         decimal.RequireFromString("0.18"),
		Poller:          payment.DefaultPollerConfig(),
		SuccessDelay:    2 * time.Second,
		RefreshDebounce: 500 * time.Millisecond,
		RefreshTimeout:  10 * time.Second,
	}
}

// SettingsFromConfig builds settings from the checkout configuration
func SettingsFromConfig(cfg config.CheckoutConfig) (Settings, error) {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid tax rate %q: %w", cfg.TaxRate, err)
	}

	s := DefaultSettings()
	s.TaxRate = rate
	s.Poller = payment.PollerConfig{
		MaxAttempts: cfg.PollMaxAttempts,
		BaseDelay:   cfg.PollBaseDelay,
		MaxDelay:    cfg.PollMaxDelay,
	}
	s.SuccessDelay = cfg.SuccessDisplayDelay
	s.RefreshDebounce = cfg.RefreshDebounce
	return s, nil
}

// Dependencies are the state holders and services a flow composes
type Dependencies struct {
	Cart     *cart.Store
	Wallet   *wallet.Store
	Orders   *order.Store
	Profile  *user.Store
	Gateway  payment.Gateway
	Sessions SessionStore
	Journal  payment.Journal
	Clock    clock.Clock
	Log      *logrus.Entry
}

// DeepLink arrives from outside the checkout, e.g. a pending orders list
type DeepLink struct {
	OrderID string `json:"orderId"`
	PayNow  bool   `json:"payNow"`
}

// Direct reports whether the link asks to pay for an existing order
func (l DeepLink) Direct() bool {
	return l.OrderID != "" && l.PayNow
}

// View is everything the checkout screen renders
type View struct {
	Step              Step            `json:"step"`
	StepNumber        int             `json:"step_number"`
	DirectPayment     bool            `json:"direct_payment"`
	CanGoBack         bool            `json:"can_go_back"`
	ExitedToCart      bool            `json:"exited_to_cart,omitempty"`
	ShippingAddressID string          `json:"shipping_address_id,omitempty"`
	PaymentMethodID   string          `json:"payment_method_id,omitempty"`
	OrderID           string          `json:"order_id,omitempty"`
	Cart              *cart.Cart      `json:"cart"`
	Totals            cart.CartTotals `json:"totals"`
	Order             *order.Order    `json:"order,omitempty"`
	Total             decimal.Decimal `json:"total"`
	WalletBalance     decimal.Decimal `json:"wallet_balance"`
	Payment           payment.State   `json:"payment"`
	PlacingOrder      bool            `json:"placing_order"`
}

// OrderReview is the summary shown before an order is placed
type OrderReview struct {
	Address       *user.Address   `json:"address"`
	Method        *payment.Method `json:"payment_method"`
	Cart          *cart.Cart      `json:"cart"`
	Totals        cart.CartTotals `json:"totals"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
}

// Flow drives one user's checkout. It composes the cart, wallet, order and
// profile stores with the state machine and the payment initiator.
// Lock order is Flow before Initiator; the flow lock is never held across
// store API calls.
type Flow struct {
	userID   uint
	settings Settings

	cart      *cart.Store
	wallet    *wallet.Store
	orders    *order.Store
	profile   *user.Store
	sessions  SessionStore
	clock     clock.Clock
	log       *logrus.Entry
	initiator *payment.Initiator
	refresher *debounce.Debouncer

	mu       sync.Mutex
	machine  *Machine
	token    string
	placing  bool
	restored bool
	closed   bool
	lastUsed time.Time
}

// NewFlow creates a checkout flow for userID
func NewFlow(userID uint, deps Dependencies, settings Settings) *Flow {
	log := deps.Log.WithField("user_id", userID)
	f := &Flow{
		userID:   userID,
		settings: settings,
		cart:     deps.Cart,
		wallet:   deps.Wallet,
		orders:   deps.Orders,
		profile:  deps.Profile,
		sessions: deps.Sessions,
		clock:    deps.Clock,
		log:      log,
		machine:  NewMachine(NewSession(userID)),
		lastUsed: deps.Clock.Now(),
	}

	f.refresher = debounce.New(deps.Clock, settings.RefreshDebounce, f.refreshAfterPayment)
	poller := payment.NewPoller(deps.Gateway, deps.Clock, settings.Poller, log)
	f.initiator = payment.NewInitiator(deps.Gateway, poller, deps.Journal, deps.Clock,
		payment.InitiatorConfig{UserID: userID, SuccessDelay: settings.SuccessDelay},
		payment.Hooks{
			OnSettled: func(payment.State) { f.refresher.Trigger() },
			OnAdvance: f.completePayment,
		},
		log,
	)
	return f
}

// Cart returns the cart store
func (f *Flow) Cart() *cart.Store {
	return f.cart
}

// Begin starts or resumes the checkout. A direct deep link overrides any
// stored session.
func (f *Flow) Begin(ctx context.Context, token string, link DeepLink) (*View, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}

	if link.Direct() {
		return f.beginDirect(ctx, token, link.OrderID)
	}

	f.mu.Lock()
	restore := !f.restored
	f.restored = true
	f.mu.Unlock()

	if restore {
		f.restore(ctx, token)
	}

	f.refreshStores(ctx, token)
	return f.View(), nil
}

func (f *Flow) beginDirect(ctx context.Context, token, orderID string) (*View, error) {
	if f.initiator.InProgress() {
		return nil, payment.ErrPaymentInProgress
	}

	o, err := f.orders.Load(ctx, token, orderID)
	if err != nil {
		return nil, err
	}
	if !o.AwaitingPayment() {
		return nil, ErrOrderNotPayable
	}

	f.mu.Lock()
	previous := f.machine.OrderID()
	if err := f.machine.EnterDirectPayment(o.ID, o.PaymentMethodID); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.restored = true
	f.persistLocked()
	f.mu.Unlock()

	if previous != o.ID {
		f.initiator.Reset()
	}

	f.log.WithField("order_id", o.ID).Info("checkout entered direct payment")
	f.refreshStores(ctx, token)
	return f.View(), nil
}

// restore picks up the stored session. Unusable sessions are dropped.
func (f *Flow) restore(ctx context.Context, token string) {
	if f.sessions == nil {
		return
	}

	stored, err := f.sessions.Load(ctx, f.userID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return
	case errors.Is(err, ErrIncompatibleSession):
		f.log.WithError(err).Warn("discarding stored checkout session")
		f.clearSession()
		return
	case err != nil:
		f.log.WithError(err).Warn("failed to load checkout session")
		return
	}

	if !stored.Resumable(f.userID) {
		f.log.WithField("step", stored.Step).Warn("discarding unusable checkout session")
		f.clearSession()
		return
	}

	if stored.OrderID != "" {
		o, err := f.orders.Load(ctx, token, stored.OrderID)
		if err != nil {
			f.log.WithError(err).WithField("order_id", stored.OrderID).Warn("failed to load checkout order")
		} else if !o.AwaitingPayment() {
			f.log.WithField("order_id", o.ID).Info("stored checkout order is no longer pending, starting over")
			f.orders.Clear()
			f.clearSession()
			return
		}
	}

	f.mu.Lock()
	if !f.initiator.InProgress() {
		f.machine = NewMachine(*stored)
	}
	f.mu.Unlock()

	f.log.WithField("step", stored.Step).Info("checkout session resumed")
}

// View returns the current checkout view
func (f *Flow) View() *View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Flow) viewLocked() *View {
	s := f.machine.Session()
	c := f.cart.Current()
	v := &View{
		Step:              s.Step,
		StepNumber:        s.Step.Number(),
		DirectPayment:     s.DirectPayment,
		CanGoBack:         f.machine.CanGoBack(),
		ShippingAddressID: s.ShippingAddressID,
		PaymentMethodID:   s.PaymentMethodID,
		OrderID:           s.OrderID,
		Cart:              c,
		Totals:            c.Totals(f.settings.TaxRate),
		WalletBalance:     f.wallet.Balance(),
		Payment:           f.initiator.State(),
		PlacingOrder:      f.placing,
	}
	if o := f.currentOrderLocked(); o != nil {
		v.Order = o
	}
	v.Total = f.totalLocked()
	return v
}

// ProceedToShipping leaves the cart review
func (f *Flow) ProceedToShipping(ctx context.Context) (*View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrFlowClosed
	}
	if err := f.machine.ProceedToShipping(f.cart.Current().IsEmpty()); err != nil {
		return nil, err
	}
	f.persistLocked()
	return f.viewLocked(), nil
}

// SelectAddress picks a shipping address from the profile
func (f *Flow) SelectAddress(ctx context.Context, token, addressID string) (*View, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}

	profile, err := f.profile.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, ok := profile.FindAddress(addressID); !ok {
		return nil, ValidationErrors{{
			Field:   "shipping_address_id",
			Code:    CodeAddressRequired,
			Message: "selected address was not found",
		}}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.machine.SelectAddress(addressID); err != nil {
		return nil, err
	}
	f.persistLocked()
	return f.viewLocked(), nil
}

// SelectPaymentMethod picks a payment method from the profile
func (f *Flow) SelectPaymentMethod(ctx context.Context, token, methodID string) (*View, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}

	profile, err := f.profile.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, ok := profile.FindPaymentMethod(methodID); !ok {
		return nil, payment.ErrUnknownPaymentMethod
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initiator.InProgress() {
		return nil, payment.ErrPaymentInProgress
	}
	if err := f.machine.SelectPaymentMethod(methodID); err != nil {
		return nil, err
	}
	f.persistLocked()
	return f.viewLocked(), nil
}

// PaymentOptions lists the user's payment methods with their flags
func (f *Flow) PaymentOptions(ctx context.Context, token string) ([]payment.Option, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}

	profile, err := f.profile.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	selector := payment.NewSelector(profile.ResolvedMethods(), f.wallet.Balance(), f.totalLocked())
	if id := f.machine.Session().PaymentMethodID; id != "" {
		if err := selector.Select(id); err != nil {
			f.log.WithField("payment_method_id", id).Debug("selected payment method no longer on profile")
		}
	}
	return selector.Options(), nil
}

// ReviewOrder runs the shipping gate and returns the summary to confirm
func (f *Flow) ReviewOrder(ctx context.Context, token string) (*OrderReview, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}

	profile, err := f.profile.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	f.refreshWallet(ctx, token)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.shippingStepLocked(); err != nil {
		return nil, err
	}
	s := f.machine.Session()
	if errs := f.gateLocked(profile, s); errs != nil {
		return nil, errs
	}

	address, _ := profile.FindAddress(s.ShippingAddressID)
	method, _ := findMethod(profile, s.PaymentMethodID)
	c := f.cart.Current()
	return &OrderReview{
		Address:       address,
		Method:        method,
		Cart:          c,
		Totals:        c.Totals(f.settings.TaxRate),
		WalletBalance: f.wallet.Balance(),
	}, nil
}

// ConfirmOrder places the order and moves to the payment step. On failure
// the checkout stays on shipping.
func (f *Flow) ConfirmOrder(ctx context.Context, token string) (*View, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}

	profile, err := f.profile.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	f.refreshWallet(ctx, token)

	f.mu.Lock()
	if err := f.shippingStepLocked(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.placing {
		f.mu.Unlock()
		return nil, ErrPlacementInProgress
	}
	s := f.machine.Session()
	if errs := f.gateLocked(profile, s); errs != nil {
		f.mu.Unlock()
		return nil, errs
	}
	f.placing = true
	f.mu.Unlock()

	o, err := f.orders.Place(ctx, token, s.ShippingAddressID, s.PaymentMethodID)

	f.mu.Lock()
	f.placing = false
	if err != nil {
		f.mu.Unlock()
		f.log.WithError(err).Warn("order placement failed")
		return nil, err
	}
	if err := f.machine.EnterPayment(o.ID); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.persistLocked()
	f.mu.Unlock()

	f.initiator.Reset()
	// the store API empties the cart once the order exists
	f.refresher.Trigger()
	return f.View(), nil
}

// Pay starts a payment for the checkout's order with the selected method
func (f *Flow) Pay(ctx context.Context, token string) (*View, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}

	f.mu.Lock()
	s := f.machine.Session()
	f.mu.Unlock()

	if s.Step != StepPayment {
		return nil, ErrInvalidTransition
	}
	if s.OrderID == "" {
		return nil, ErrNoOrder
	}

	profile, err := f.profile.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	o := f.currentOrderLocked()
	f.mu.Unlock()
	// a resumed session may not have its order yet
	if o == nil {
		if o, err = f.orders.Load(ctx, token, s.OrderID); err != nil {
			return nil, err
		}
	}
	if !o.AwaitingPayment() {
		return nil, ErrOrderNotPayable
	}

	balance := f.wallet.Balance()
	selector := payment.NewSelector(profile.ResolvedMethods(), balance, o.TotalAmount)
	if s.PaymentMethodID != "" {
		if err := selector.Select(s.PaymentMethodID); err != nil {
			return nil, err
		}
	}
	if errs := methodViolations(selector.Validate(), balance, o.TotalAmount); errs != nil {
		return nil, errs
	}

	method := selector.Selected()
	switch method.Type {
	case payment.MethodWallet:
		err = f.initiator.PayWithWallet(ctx, token, s.OrderID)
	case payment.MethodMpesa:
		_, err = f.initiator.PayWithMpesa(ctx, token, s.OrderID, profile.MpesaPhone(method))
	default:
		err = payment.ErrUnsupportedMethod
	}
	if err != nil {
		return nil, err
	}
	return f.View(), nil
}

// RetryPayment re-runs the last failed initiation
func (f *Flow) RetryPayment(ctx context.Context, token string) (*View, error) {
	if err := f.touch(token); err != nil {
		return nil, err
	}
	if err := f.initiator.Retry(ctx, token); err != nil {
		return nil, err
	}
	return f.View(), nil
}

// CancelPayment stops tracking the current payment. It cannot recall an STK
// push already delivered to the phone.
func (f *Flow) CancelPayment(confirm bool) (*View, error) {
	if err := f.initiator.CancelTracking(confirm); err != nil {
		return nil, err
	}
	return f.View(), nil
}

// Back navigates to the previous step, or out to the cart in direct mode
func (f *Flow) Back(ctx context.Context) (*View, error) {
	f.mu.Lock()
	if err := f.navigableLocked(); err != nil {
		f.mu.Unlock()
		return nil, err
	}

	abandoned := f.currentOrderLocked()
	exit, err := f.machine.Back()
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}

	if exit {
		f.leaveCheckoutLocked()
		v := f.viewLocked()
		v.ExitedToCart = true
		f.mu.Unlock()
		return v, nil
	}

	if abandoned != nil && !abandonable(f.initiator.State()) {
		f.log.WithField("order_id", abandoned.ID).Info("leaving order with a payment attempt pending")
		abandoned = nil
	}
	if f.machine.Step() == StepShipping {
		f.orders.Clear()
		f.initiator.Reset()
	}
	f.persistLocked()
	v := f.viewLocked()
	token := f.token
	f.mu.Unlock()

	if abandoned != nil && abandoned.AwaitingPayment() {
		f.cancelAbandoned(ctx, token, abandoned)
	}
	return v, nil
}

// cancelAbandoned cancels an order left behind by going back to shipping.
// Confirming shipping again places a new one.
func (f *Flow) cancelAbandoned(ctx context.Context, token string, o *order.Order) {
	log := f.log.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
	})
	if err := f.orders.Cancel(ctx, token, o.OrderNumber); err != nil {
		log.WithError(err).Warn("failed to cancel abandoned order")
		return
	}
	log.Info("abandoned order cancelled")
}

// abandonable reports whether an order may be cancelled after leaving the
// payment step: no payment was tried, or the last one failed outright.
func abandonable(st payment.State) bool {
	switch st.Status {
	case payment.StatusFailed:
		return true
	case payment.StatusIdle:
		return st.Method == ""
	default:
		return false
	}
}

// GoToCart abandons the checkout
func (f *Flow) GoToCart(ctx context.Context) (*View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.navigableLocked(); err != nil {
		return nil, err
	}

	f.machine.GoToCart()
	f.leaveCheckoutLocked()
	v := f.viewLocked()
	v.ExitedToCart = true
	return v, nil
}

// CancelOrder cancels a pending order. Cancelling the checkout's own order
// sends the checkout back to the cart.
func (f *Flow) CancelOrder(ctx context.Context, token, orderNumber string) error {
	if err := f.touch(token); err != nil {
		return err
	}

	f.mu.Lock()
	current := f.currentOrderLocked()
	own := current != nil && current.OrderNumber == orderNumber
	f.mu.Unlock()

	if own && f.initiator.InProgress() {
		return payment.ErrPaymentInProgress
	}

	if err := f.orders.Cancel(ctx, token, orderNumber); err != nil {
		return err
	}

	if own {
		f.mu.Lock()
		if f.machine.Step() == StepPayment {
			f.machine.GoToCart()
			f.leaveCheckoutLocked()
		}
		f.mu.Unlock()
	}
	return nil
}

// Receipt returns the paid order and its payment once the checkout is
// confirmed
func (f *Flow) Receipt() (*order.Order, payment.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.machine.Step() != StepConfirmation {
		return nil, payment.State{}, ErrInvalidTransition
	}
	o := f.currentOrderLocked()
	if o == nil {
		return nil, payment.State{}, ErrNoOrder
	}
	return o, f.initiator.State(), nil
}

// Close stops polling and pending timers. The stored session is kept so the
// checkout can be resumed.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.initiator.Close()
	f.refresher.Stop()
}

// completePayment runs once the success display delay has passed
func (f *Flow) completePayment(st payment.State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.machine.Step() != StepPayment || f.machine.OrderID() != st.OrderID {
		return
	}
	if err := f.machine.Complete(); err != nil {
		f.log.WithError(err).Warn("failed to complete checkout")
		return
	}
	f.clearSession()
	f.log.WithFields(logrus.Fields{
		"order_id": st.OrderID,
		"method":   st.Method,
	}).Info("checkout completed")
}

func (f *Flow) refreshAfterPayment() {
	token := f.currentToken()
	ctx, cancel := context.WithTimeout(context.Background(), f.settings.RefreshTimeout)
	defer cancel()

	f.refreshWallet(ctx, token)
	if _, err := f.cart.Refresh(ctx, token); err != nil {
		f.log.WithError(err).Warn("failed to refresh cart")
	}
	if o := f.orders.Current(); o != nil {
		if _, err := f.orders.Load(ctx, token, o.ID); err != nil {
			f.log.WithError(err).Warn("failed to refresh order")
		}
	}
}

func (f *Flow) refreshStores(ctx context.Context, token string) {
	if _, err := f.profile.Refresh(ctx, token); err != nil {
		f.log.WithError(err).Warn("failed to refresh profile")
	}
	if _, err := f.cart.Refresh(ctx, token); err != nil {
		f.log.WithError(err).Warn("failed to refresh cart")
	}
	f.refreshWallet(ctx, token)
}

func (f *Flow) refreshWallet(ctx context.Context, token string) {
	if _, err := f.wallet.Refresh(ctx, token); err != nil {
		f.log.WithError(err).Warn("failed to refresh wallet")
	}
}

func (f *Flow) touch(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	if token != "" {
		f.token = token
	}
	f.lastUsed = f.clock.Now()
	return nil
}

func (f *Flow) markUsed(now time.Time) {
	f.mu.Lock()
	f.lastUsed = now
	f.mu.Unlock()
}

// Idle reports whether the flow has gone unused for ttl with nothing in
// flight. A paid checkout still waiting to show its confirmation is busy.
func (f *Flow) Idle(now time.Time, ttl time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.placing {
		return false
	}
	st := f.initiator.State()
	if st.PaymentInProgress {
		return false
	}
	if st.Status == payment.StatusSuccess && f.machine.Step() == StepPayment {
		return false
	}
	return now.Sub(f.lastUsed) >= ttl
}

func (f *Flow) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *Flow) shippingStepLocked() error {
	if f.closed {
		return ErrFlowClosed
	}
	if f.machine.DirectPayment() {
		return ErrDirectPaymentMode
	}
	if f.machine.Step() != StepShipping {
		return ErrInvalidTransition
	}
	return nil
}

func (f *Flow) navigableLocked() error {
	if f.closed {
		return ErrFlowClosed
	}
	if f.placing {
		return ErrPlacementInProgress
	}
	st := f.initiator.State()
	if st.PaymentInProgress {
		return payment.ErrPaymentInProgress
	}
	// paid, waiting to show the confirmation
	if st.Status == payment.StatusSuccess && f.machine.Step() == StepPayment {
		return payment.ErrAlreadyPaid
	}
	return nil
}

// leaveCheckoutLocked drops the order and the stored session after the
// machine has been reset.
func (f *Flow) leaveCheckoutLocked() {
	f.orders.Clear()
	f.initiator.Reset()
	f.clearSession()
}

func (f *Flow) gateLocked(profile *user.Profile, s Session) ValidationErrors {
	in := GateInput{
		Balance: f.wallet.Balance(),
		Total:   f.totalLocked(),
	}
	if _, ok := profile.FindAddress(s.ShippingAddressID); ok {
		in.ShippingAddressID = s.ShippingAddressID
	}
	if m, ok := findMethod(profile, s.PaymentMethodID); ok {
		in.Method = m
	}
	return ValidateGate(in)
}

// totalLocked is the amount to pay: the placed order's total once there is
// one, the tax-inclusive cart total before that.
func (f *Flow) totalLocked() decimal.Decimal {
	if o := f.currentOrderLocked(); o != nil {
		return o.TotalAmount
	}
	return f.cart.Current().Totals(f.settings.TaxRate).TotalAmount
}

func (f *Flow) currentOrderLocked() *order.Order {
	id := f.machine.OrderID()
	if id == "" {
		return nil
	}
	if o := f.orders.Current(); o != nil && o.ID == id {
		return o
	}
	return nil
}

func (f *Flow) persistLocked() {
	if f.sessions == nil {
		return
	}
	s := f.machine.Session()
	s.UpdatedAt = f.clock.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.sessions.Save(ctx, &s); err != nil {
		f.log.WithError(err).Warn("failed to save checkout session")
	}
}

func (f *Flow) clearSession() {
	if f.sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.sessions.Clear(ctx, f.userID); err != nil {
		f.log.WithError(err).Warn("failed to clear checkout session")
	}
}

func findMethod(profile *user.Profile, id string) (*payment.Method, bool) {
	if id == "" {
		return nil, false
	}
	for _, m := range profile.ResolvedMethods() {
		if m.ID == id {
			m := m
			return &m, true
		}
	}
	return nil, false
}
