// internal/infrastructure/storefront/endpoints.go
package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/user"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

// errMissingField is wrapped when a 2xx answer lacks its envelope
var errMissingField = errors.New("response is missing a field")

type orderEnvelope struct {
	Order *order.Order `json:"order"`
}

type cartEnvelope struct {
	Cart *cart.Cart `json:"cart"`
}

type walletEnvelope struct {
	Wallet *wallet.Wallet `json:"wallet"`
}

type userEnvelope struct {
	User *user.Profile `json:"user"`
}

type stkPushEnvelope struct {
	Data struct {
		TransactionID string `json:"transactionId"`
	} `json:"data"`
}

type transactionEnvelope struct {
	Data struct {
		Transaction *wallet.Transaction `json:"transaction"`
	} `json:"data"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type walletPayRequest struct {
	OrderID string `json:"orderId"`
}

type stkPushRequest struct {
	OrderID     string `json:"orderId"`
	PhoneNumber string `json:"phoneNumber"`
}

// PlaceOrder converts the user's cart into an order
func (c *Client) PlaceOrder(ctx context.Context, token string, req order.PlaceOrderRequest) (*order.Order, error) {
	var resp orderEnvelope
	if err := c.do(ctx, http.MethodPost, "/orders", token, req, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("place order: %w: order", errMissingField)
	}
	return resp.Order, nil
}

// GetOrder fetches one order
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*order.Order, error) {
	var resp orderEnvelope
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("get order: %w: order", errMissingField)
	}
	return resp.Order, nil
}

// CancelOrder cancels a pending order by its number
func (c *Client) CancelOrder(ctx context.Context, token, orderNumber string) error {
	return c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(orderNumber), token, nil, nil)
}

// PayWithWallet debits the wallet for an order
func (c *Client) PayWithWallet(ctx context.Context, token, orderID string) error {
	return c.do(ctx, http.MethodPost, "/mpesa/wallet/pay", token, walletPayRequest{OrderID: orderID}, nil)
}

// InitiateSTKPush asks M-Pesa to prompt the phone and returns the transaction id
func (c *Client) InitiateSTKPush(ctx context.Context, token, orderID, phoneNumber string) (string, error) {
	var resp stkPushEnvelope
	req := stkPushRequest{OrderID: orderID, PhoneNumber: phoneNumber}
	if err := c.do(ctx, http.MethodPost, "/mpesa/stk-push", token, req, &resp); err != nil {
		return "", err
	}
	return resp.Data.TransactionID, nil
}

// GetTransaction fetches a transaction's current state
func (c *Client) GetTransaction(ctx context.Context, token, transactionID string) (*wallet.Transaction, error) {
	var resp transactionEnvelope
	if err := c.do(ctx, http.MethodGet, "/mpesa/transaction/"+url.PathEscape(transactionID), token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Transaction == nil {
		return nil, fmt.Errorf("get transaction: %w: transaction", errMissingField)
	}
	return resp.Data.Transaction, nil
}

// GetWallet fetches the wallet balance and recent transactions
func (c *Client) GetWallet(ctx context.Context, token string) (*wallet.Wallet, error) {
	var resp walletEnvelope
	if err := c.do(ctx, http.MethodGet, "/mpesa/wallet/balance", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Wallet == nil {
		return nil, fmt.Errorf("get wallet: %w: wallet", errMissingField)
	}
	return resp.Wallet, nil
}

// GetCart fetches the user's cart
func (c *Client) GetCart(ctx context.Context, token string) (*cart.Cart, error) {
	return c.cartCall(ctx, http.MethodGet, "/cart", token, nil)
}

// AddCartItem adds a product to the cart
func (c *Client) AddCartItem(ctx context.Context, token, productID string, quantity int) (*cart.Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart/items", token, addItemRequest{ProductID: productID, Quantity: quantity})
}

// UpdateCartItem sets a cart line's quantity
func (c *Client) UpdateCartItem(ctx context.Context, token, itemID string, quantity int) (*cart.Cart, error) {
	return c.cartCall(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(itemID), token, updateItemRequest{Quantity: quantity})
}

// RemoveCartItem removes a cart line
func (c *Client) RemoveCartItem(ctx context.Context, token, itemID string) (*cart.Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), token, nil)
}

// GetProfile fetches the signed-in user's profile
func (c *Client) GetProfile(ctx context.Context, token string) (*user.Profile, error) {
	var resp userEnvelope
	if err := c.do(ctx, http.MethodGet, "/users/profile", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("get profile: %w: user", errMissingField)
	}
	return resp.User, nil
}

func (c *Client) cartCall(ctx context.Context, method, endpoint, token string, data interface{}) (*cart.Cart, error) {
	var resp cartEnvelope
	if err := c.do(ctx, method, endpoint, token, data, &resp); err != nil {
		return nil, err
	}
	if resp.Cart == nil {
		return nil, fmt.Errorf("%s %s: %w: cart", method, endpoint, errMissingField)
	}
	return resp.Cart, nil
}
