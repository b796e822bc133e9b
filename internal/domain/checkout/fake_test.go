package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/domain/user"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

func testEntry() *logrus.Entry {
	return logrus.NewEntry(testLogger())
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// fakeStore plays the remote store API for one user
type fakeStore struct {
	mu sync.Mutex

	cart    cart.Cart
	balance decimal.Decimal
	profile user.Profile
	orders  map[string]*order.Order

	placeErr  error
	walletErr error
	orderErr  error
	pushID    string
	statuses  []wallet.TransactionStatus

	getCartCalls   int
	getWalletCalls int
	placeCalls     int
	walletPayCalls int
	pushCalls      int
	txCalls        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cart: cart.Cart{ID: "cart-1", Items: []cart.CartItem{{
			ID:        "item-1",
			ProductID: "prod-1",
			Quantity:  2,
			Product:   cart.ProductSnapshot{ID: "prod-1", Name: "Kikoy", Price: decimal.NewFromInt(500)},
		}}},
		balance: decimal.NewFromInt(5000),
		profile: user.Profile{
			ID:    "u-1",
			Email: "jane@example.com",
			Phone: "254700000001",
			Addresses: []user.Address{
				{ID: "addr-1", AddressLine1: "1 Moi Ave", City: "Nairobi", Country: "KE", IsDefault: true},
			},
			PaymentMethods: []payment.Method{
				{ID: "pm-wallet", Type: payment.MethodWallet},
				{ID: "pm-mpesa", Type: payment.MethodMpesa},
			},
		},
		orders: map[string]*order.Order{
			"ord-pending": {
				ID:              "ord-pending",
				OrderNumber:     "ORD-00042",
				Status:          order.OrderStatusPending,
				PaymentMethodID: "pm-mpesa",
				TotalAmount:     decimal.NewFromInt(1180),
			},
		},
		pushID: "TX123",
	}
}

func (f *fakeStore) GetCart(context.Context, string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCartCalls++
	return f.cart.Clone(), nil
}

func (f *fakeStore) AddCartItem(_ context.Context, _ string, productID string, quantity int) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart.Items = append(f.cart.Items, cart.CartItem{ID: "item-" + productID, ProductID: productID, Quantity: quantity})
	return f.cart.Clone(), nil
}

func (f *fakeStore) UpdateCartItem(_ context.Context, _ string, itemID string, quantity int) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.cart.Items {
		if f.cart.Items[i].ID == itemID {
			f.cart.Items[i].Quantity = quantity
		}
	}
	return f.cart.Clone(), nil
}

func (f *fakeStore) RemoveCartItem(_ context.Context, _ string, itemID string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.cart.Items[:0]
	for _, item := range f.cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	f.cart.Items = kept
	return f.cart.Clone(), nil
}

func (f *fakeStore) GetWallet(context.Context, string) (*wallet.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getWalletCalls++
	return &wallet.Wallet{Balance: f.balance}, nil
}

func (f *fakeStore) GetProfile(context.Context, string) (*user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile.Clone(), nil
}

func (f *fakeStore) PlaceOrder(_ context.Context, _ string, req order.PlaceOrderRequest) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placeCalls++
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	totals := f.cart.Totals(decimal.RequireFromString("0.18"))
	o := &order.Order{
		ID:                "ord-new",
		OrderNumber:       "ORD-00043",
		Status:            order.OrderStatusPending,
		PaymentMethodID:   req.PaymentMethodID,
		ShippingAddressID: req.ShippingAddressID,
		SubtotalAmount:    totals.SubTotal,
		TaxAmount:         totals.TaxAmount,
		TotalAmount:       totals.TotalAmount,
	}
	f.orders[o.ID] = o
	f.cart.Items = nil
	c := *o
	return &c, nil
}

func (f *fakeStore) GetOrder(_ context.Context, _ string, orderID string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, errors.New("404 order not found")
	}
	c := *o
	return &c, nil
}

func (f *fakeStore) CancelOrder(_ context.Context, _ string, orderNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			o.Status = order.OrderStatusCancelled
			return nil
		}
	}
	return errors.New("404 order not found")
}

func (f *fakeStore) PayWithWallet(_ context.Context, _ string, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.walletPayCalls++
	if f.walletErr != nil {
		return f.walletErr
	}
	o := f.orders[orderID]
	f.balance = f.balance.Sub(o.TotalAmount)
	o.Status = order.OrderStatusProcessing
	return nil
}

func (f *fakeStore) InitiateSTKPush(context.Context, string, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushCalls++
	return f.pushID, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, _ string, id string) (*wallet.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.txCalls
	f.txCalls++
	status := wallet.TransactionStatusPending
	if len(f.statuses) > 0 {
		if n >= len(f.statuses) {
			n = len(f.statuses) - 1
		}
		status = f.statuses[n]
	}
	return &wallet.Transaction{ID: id, Status: status}, nil
}

func (f *fakeStore) counts() (getCart, getWallet int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCartCalls, f.getWalletCalls
}

func (f *fakeStore) transactionCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txCalls
}

func (f *fakeStore) setOrderErr(err error) {
	f.mu.Lock()
	f.orderErr = err
	f.mu.Unlock()
}

func (f *fakeStore) orderStatus(id string) order.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

func (f *fakeStore) setBalance(b int64) {
	f.mu.Lock()
	f.balance = decimal.NewFromInt(b)
	f.mu.Unlock()
}

// memorySessions keeps sessions in a map and checks versions like the
// Redis store does
type memorySessions struct {
	mu       sync.Mutex
	sessions map[uint]Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[uint]Session)}
}

func (m *memorySessions) Load(_ context.Context, userID uint) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Version != SessionVersion {
		return nil, ErrIncompatibleSession
	}
	return &s, nil
}

func (m *memorySessions) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = *s
	return nil
}

func (m *memorySessions) Clear(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *memorySessions) get(userID uint) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}
