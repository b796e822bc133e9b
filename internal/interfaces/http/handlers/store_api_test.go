package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// storeAPI is an in-process stand-in for the store API
type storeAPI struct {
	mu          sync.Mutex
	items       []map[string]interface{}
	balance     decimal.Decimal
	orders      map[string]map[string]interface{}
	failPlace   bool
	walletPays  int
	cancelCalls int
}

func newStoreAPI() *storeAPI {
	return &storeAPI{
		items: []map[string]interface{}{
			{"id": "item-1", "productId": "prod-1", "quantity": 2, "product": map[string]interface{}{"id": "prod-1", "name": "Kettle", "price": 500}},
		},
		balance: decimal.NewFromInt(5000),
		orders:  make(map[string]map[string]interface{}),
	}
}

func (s *storeAPI) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *storeAPI) cartLocked() map[string]interface{} {
	items := make([]map[string]interface{}, len(s.items))
	copy(items, s.items)
	return map[string]interface{}{"cart": map[string]interface{}{"id": "cart-1", "items": items}}
}

func (s *storeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]interface{}{
			"id":        "u-1",
			"email":     "jane@example.com",
			"firstName": "Jane",
			"phone":     "254700000001",
			"addresses": []map[string]interface{}{
				{"id": "addr-1", "type": "shipping", "addressLine1": "1 Moi Ave", "city": "Nairobi", "country": "KE", "isDefault": true},
			},
			"paymentMethods": []map[string]interface{}{
				{"id": "pm-wallet", "type": "WALLET"},
				{"id": "pm-mpesa", "type": "MPESA"},
			},
		}})
	})

	mux.HandleFunc("/mpesa/wallet/balance", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"wallet": map[string]interface{}{"balance": s.balance, "transactions": []interface{}{}}})
	})

	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.writeJSON(w, http.StatusOK, s.cartLocked())
	})

	mux.HandleFunc("/cart/items", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.items = append(s.items, map[string]interface{}{
			"id": fmt.Sprintf("item-%d", len(s.items)+1), "productId": body.ProductID, "quantity": body.Quantity,
			"product": map[string]interface{}{"id": body.ProductID, "name": "Mug", "price": 250},
		})
		s.writeJSON(w, http.StatusOK, s.cartLocked())
	})

	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failPlace {
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Order service unavailable"})
			return
		}
		o := map[string]interface{}{
			"id": "ord-new", "orderNumber": "ORD-00100", "status": "PENDING",
			"paymentMethodId": "pm-wallet", "shippingAddressId": "addr-1",
			"items":    []map[string]interface{}{{"id": "oi-1", "productId": "prod-1", "name": "Kettle", "quantity": 2, "price": 500, "subtotal": 1000}},
			"subtotal": 1000, "tax": 180, "totalAmount": 1180,
		}
		s.orders["ord-new"] = o
		s.items = nil
		s.writeJSON(w, http.StatusCreated, map[string]interface{}{"order": o})
	})

	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/orders/")
		s.mu.Lock()
		defer s.mu.Unlock()

		if r.Method == http.MethodDelete {
			s.cancelCalls++
			for _, o := range s.orders {
				if o["orderNumber"] == key {
					o["status"] = "CANCELLED"
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			s.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
			return
		}

		o, ok := s.orders[key]
		if !ok {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"order": o})
	})

	mux.HandleFunc("/mpesa/wallet/pay", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OrderID string `json:"orderId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.walletPays++
		o, ok := s.orders[body.OrderID]
		if !ok {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
			return
		}
		s.balance = s.balance.Sub(decimal.NewFromInt(1180))
		o["status"] = "PROCESSING"
		s.writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	return mux
}
