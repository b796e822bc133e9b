// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-checkout/internal/pkg/auth"
	"github.com/your-org/storefront-checkout/internal/pkg/pdf"
)

// Deps are what the route handlers are built from
type Deps struct {
	Config   *config.Config
	Manager  *checkout.Manager
	Receipts *pdf.Service
	JWT      *auth.JWTManager
	Redis    *redis.Client
	Log      *logrus.Logger
}

// SetupRoutes registers every API route on rg. All routes require a bearer
// token; rate limiting runs after authentication so that it is per user.
func SetupRoutes(rg *gin.RouterGroup, deps Deps) {
	rg.Use(middleware.AuthMiddleware(deps.JWT))
	if deps.Redis != nil {
		rg.Use(middleware.RateLimit(deps.Config.Security.RateLimitPerMinute, deps.Redis, deps.Log))
	}

	SetupCheckoutRoutes(rg, deps)
	SetupCartRoutes(rg, deps)
	SetupOrderRoutes(rg, deps)
}

// SetupCheckoutRoutes sets up checkout related routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, deps Deps) {
	checkoutHandler := handlers.NewCheckoutHandler(deps.Manager, deps.Receipts, deps.Log)

	co := rg.Group("/checkout")
	{
		co.POST("/begin", checkoutHandler.Begin)
		co.GET("", checkoutHandler.GetCheckout)
		co.POST("/shipping", checkoutHandler.ProceedToShipping)
		co.PUT("/address", checkoutHandler.SelectAddress)
		co.PUT("/payment-method", checkoutHandler.SelectPaymentMethod)
		co.GET("/payment-options", checkoutHandler.PaymentOptions)
		co.POST("/order/review", checkoutHandler.ReviewOrder)
		co.POST("/order", checkoutHandler.ConfirmOrder)
		co.POST("/pay", checkoutHandler.Pay)
		co.POST("/pay/retry", checkoutHandler.RetryPayment)
		co.POST("/pay/cancel", checkoutHandler.CancelPayment)
		co.POST("/back", checkoutHandler.Back)
		co.POST("/cart", checkoutHandler.GoToCart)
		co.POST("/leave", checkoutHandler.Leave)
		co.GET("/receipt", checkoutHandler.Receipt)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Deps) {
	cartHandler := handlers.NewCartHandler(deps.Manager)

	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id", cartHandler.RemoveCartItem)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, deps Deps) {
	orderHandler := handlers.NewOrderHandler(deps.Manager)

	orders := rg.Group("/orders")
	{
		orders.DELETE("/:orderNumber", orderHandler.CancelOrder)
	}
}
