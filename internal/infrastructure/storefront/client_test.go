package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

var _ checkout.StoreAPI = (*Client)(nil)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testConfig(baseURL string) config.StorefrontConfig {
	return config.StorefrontConfig{
		BaseURL:            baseURL,
		Timeout:            5 * time.Second,
		BreakerMaxRequests: 1,
		BreakerInterval:    time.Minute,
		BreakerTimeout:     time.Minute,
		BreakerMinRequests: 3,
		BreakerFailRatio:   0.6,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_PlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"shippingAddressId": "addr-1", "paymentMethodId": "pm-wallet"}, body)

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"order": map[string]interface{}{
				"id":          "ord-1",
				"orderNumber": "ORD-1",
				"status":      "PENDING",
				"totalAmount": 1180,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL+"/api/"), testLogger())
	o, err := c.PlaceOrder(context.Background(), "tok", order.PlaceOrderRequest{ShippingAddressID: "addr-1", PaymentMethodID: "pm-wallet"})
	require.NoError(t, err)

	assert.Equal(t, "ord-1", o.ID)
	assert.Equal(t, order.OrderStatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1180)))
}

func TestClient_PaymentEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mpesa/stk-push", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "254700000001", body["phoneNumber"])
		assert.Equal(t, "ord-1", body["orderId"])
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]string{"transactionId": "TX123"}})
	})
	mux.HandleFunc("/mpesa/transaction/TX123", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"transaction": map[string]interface{}{"id": "TX123", "status": "COMPLETED", "amount": "1180.00", "mpesaReceiptId": "QK123"},
			},
		})
	})
	mux.HandleFunc("/mpesa/wallet/pay", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})
	mux.HandleFunc("/mpesa/wallet/balance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"wallet": map[string]interface{}{"balance": 500, "transactions": []interface{}{}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	ctx := context.Background()

	txID, err := c.InitiateSTKPush(ctx, "tok", "ord-1", "254700000001")
	require.NoError(t, err)
	assert.Equal(t, "TX123", txID)

	tx, err := c.GetTransaction(ctx, "tok", txID)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, "QK123", tx.ReceiptID)

	require.NoError(t, c.PayWithWallet(ctx, "tok", "ord-1"))

	w, err := c.GetWallet(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(500)))
}

func TestClient_APIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Insufficient wallet balance"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	err := c.PayWithWallet(context.Background(), "tok", "ord-1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Insufficient wallet balance", apiErr.Message)
	assert.True(t, apiErr.IsClientError())
}

func TestClient_MissingEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	_, err := c.GetCart(context.Background(), "tok")
	assert.ErrorIs(t, err, errMissingField)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream down"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	for i := 0; i < 3; i++ {
		_, err := c.GetWallet(context.Background(), "tok")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.GetWallet(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "order not found"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	for i := 0; i < 5; i++ {
		_, err := c.GetOrder(context.Background(), "tok", "missing")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}
