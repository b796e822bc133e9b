// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-checkout/internal/pkg/pdf"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	manager  *checkout.Manager
	receipts *pdf.Service
	log      *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(manager *checkout.Manager, receipts *pdf.Service, log *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		manager:  manager,
		receipts: receipts,
		log:      log,
	}
}

// SelectAddressRequest is the body of PUT /checkout/address
type SelectAddressRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

// SelectPaymentMethodRequest is the body of PUT /checkout/payment-method
type SelectPaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

// CancelPaymentRequest is the body of POST /checkout/pay/cancel
type CancelPaymentRequest struct {
	Confirm bool `json:"confirm"`
}

// flow resolves the caller's checkout flow, answering the request on failure
func (h *CheckoutHandler) flow(c *gin.Context) (*checkout.Flow, bool) {
	return flowFor(c, h.manager)
}

func flowFor(c *gin.Context, manager *checkout.Manager) (*checkout.Flow, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	f, err := manager.Flow(userID)
	if err != nil {
		respondError(c, err, nil)
		return nil, false
	}
	return f, true
}

// respondView answers a flow operation. Failed operations still carry the
// current view so the screen can show the payment state next to the error.
func respondView(c *gin.Context, f *checkout.Flow, v *checkout.View, err error) {
	if err != nil {
		respondError(c, err, gin.H{"checkout": f.View()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

// Begin handles POST /checkout/begin
func (h *CheckoutHandler) Begin(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	var link checkout.DeepLink
	if err := c.ShouldBindJSON(&link); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	v, err := f.Begin(c.Request.Context(), middleware.GetAccessTokenFromContext(c), link)
	respondView(c, f, v, err)
}

// GetCheckout handles GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": f.View()})
}

// ProceedToShipping handles POST /checkout/shipping
func (h *CheckoutHandler) ProceedToShipping(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	v, err := f.ProceedToShipping(c.Request.Context())
	respondView(c, f, v, err)
}

// SelectAddress handles PUT /checkout/address
func (h *CheckoutHandler) SelectAddress(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	var req SelectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	v, err := f.SelectAddress(c.Request.Context(), middleware.GetAccessTokenFromContext(c), req.AddressID)
	respondView(c, f, v, err)
}

// SelectPaymentMethod handles PUT /checkout/payment-method
func (h *CheckoutHandler) SelectPaymentMethod(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	var req SelectPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	v, err := f.SelectPaymentMethod(c.Request.Context(), middleware.GetAccessTokenFromContext(c), req.PaymentMethodID)
	respondView(c, f, v, err)
}

// PaymentOptions handles GET /checkout/payment-options
func (h *CheckoutHandler) PaymentOptions(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	options, err := f.PaymentOptions(c.Request.Context(), middleware.GetAccessTokenFromContext(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": options})
}

// ReviewOrder handles POST /checkout/order/review
func (h *CheckoutHandler) ReviewOrder(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	review, err := f.ReviewOrder(c.Request.Context(), middleware.GetAccessTokenFromContext(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

// ConfirmOrder handles POST /checkout/order
func (h *CheckoutHandler) ConfirmOrder(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	v, err := f.ConfirmOrder(c.Request.Context(), middleware.GetAccessTokenFromContext(c))
	respondView(c, f, v, err)
}

// Pay handles POST /checkout/pay
func (h *CheckoutHandler) Pay(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	v, err := f.Pay(c.Request.Context(), middleware.GetAccessTokenFromContext(c))
	respondView(c, f, v, err)
}

// RetryPayment handles POST /checkout/pay/retry
func (h *CheckoutHandler) RetryPayment(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	v, err := f.RetryPayment(c.Request.Context(), middleware.GetAccessTokenFromContext(c))
	respondView(c, f, v, err)
}

// CancelPayment handles POST /checkout/pay/cancel
func (h *CheckoutHandler) CancelPayment(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	var req CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	v, err := f.CancelPayment(req.Confirm)
	respondView(c, f, v, err)
}

// Back handles POST /checkout/back
func (h *CheckoutHandler) Back(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	v, err := f.Back(c.Request.Context())
	respondView(c, f, v, err)
}

// GoToCart handles POST /checkout/cart
func (h *CheckoutHandler) GoToCart(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	v, err := f.GoToCart(c.Request.Context())
	respondView(c, f, v, err)
}

// Leave handles POST /checkout/leave. Polling and timers stop; the stored
// session stays for the next visit.
func (h *CheckoutHandler) Leave(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	h.manager.Release(userID)
	c.Status(http.StatusNoContent)
}

// Receipt handles GET /checkout/receipt. ?format=html skips PDF rendering.
func (h *CheckoutHandler) Receipt(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	o, paid, err := f.Receipt()
	if err != nil {
		respondError(c, err, nil)
		return
	}
	data := h.receipts.NewReceiptData(o, paid)

	if c.Query("format") == "html" {
		body, err := h.receipts.GenerateReceiptHTML(data)
		if err != nil {
			respondError(c, err, nil)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
		return
	}

	body, err := h.receipts.GenerateReceipt(data)
	if err != nil {
		h.log.WithError(err).WithField("order_id", o.ID).Error("Failed to render receipt")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate receipt"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, o.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", body)
}
