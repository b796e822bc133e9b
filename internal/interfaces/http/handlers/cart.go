// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
)

// CartHandler proxies cart changes through the caller's optimistic cart store
type CartHandler struct {
	manager *checkout.Manager
}

// NewCartHandler creates a new cart handler
func NewCartHandler(manager *checkout.Manager) *CartHandler {
	return &CartHandler{manager: manager}
}

// AddToCartRequest is the body of POST /cart/items. The product fields feed
// the optimistic line shown until the store API answers.
type AddToCartRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest is the body of PUT /cart/items/:id
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	f, ok := flowFor(c, h.manager)
	if !ok {
		return
	}

	current, err := f.Cart().Refresh(c.Request.Context(), middleware.GetAccessTokenFromContext(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": current})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	f, ok := flowFor(c, h.manager)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product := cart.ProductSnapshot{ID: req.ProductID, Name: req.Name, Price: req.Price}
	respondMutation(c, f.Cart().Add(c.Request.Context(), middleware.GetAccessTokenFromContext(c), product, req.Quantity))
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	f, ok := flowFor(c, h.manager)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	respondMutation(c, f.Cart().Update(c.Request.Context(), middleware.GetAccessTokenFromContext(c), c.Param("id"), req.Quantity))
}

// RemoveCartItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	f, ok := flowFor(c, h.manager)
	if !ok {
		return
	}
	respondMutation(c, f.Cart().Remove(c.Request.Context(), middleware.GetAccessTokenFromContext(c), c.Param("id")))
}

// respondMutation answers with the settled cart; a reverted mutation is an
// error that still carries the cart the user now sees
func respondMutation(c *gin.Context, res cart.MutationResult) {
	if res.Err != nil {
		respondError(c, res.Err, gin.H{"cart": res.Cart, "state": res.State.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  res.Cart,
		"state": res.State.String(),
	})
}
