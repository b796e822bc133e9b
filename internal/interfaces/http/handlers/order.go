// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	manager *checkout.Manager
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(manager *checkout.Manager) *OrderHandler {
	return &OrderHandler{manager: manager}
}

// CancelOrder handles DELETE /orders/:orderNumber
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	f, ok := flowFor(c, h.manager)
	if !ok {
		return
	}

	orderNumber := c.Param("orderNumber")
	if err := f.CancelOrder(c.Request.Context(), middleware.GetAccessTokenFromContext(c), orderNumber); err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Order cancelled successfully",
		"checkout": f.View(),
	})
}
