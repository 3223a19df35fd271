package routes

import (
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/handlers/dashboard"
	"storefront_back_end/internal/handlers/order"
	"storefront_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Deps regroupe les handlers et services montés sur le routeur.
type Deps struct {
	JWTSecret   []byte
	RateLimiter *cache.RateLimiter // nil désactive la limitation
	Dashboard   *dashboard.Handler
	Orders      *order.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Stripe signe ses appels : pas de JWT ici
	webhooks := api.Group("/webhooks")
	if d.RateLimiter != nil {
		webhooks.Use(middleware.APIRateLimit(d.RateLimiter, middleware.WebhookMaxRequests))
	}
	webhooks.POST("/stripe", d.Orders.StripeWebhook)

	auth := api.Group("", middleware.AuthRequired(d.JWTSecret))
	if d.RateLimiter != nil {
		auth.Use(middleware.APIRateLimit(d.RateLimiter, middleware.APIMaxRequests))
	}

	orders := auth.Group("/orders")
	{
		orders.POST("", d.Orders.PlaceOrder)
		orders.GET("", d.Orders.ListOrders)
		orders.GET("/:id", d.Orders.GetOrder)
		orders.POST("/:id/pay", d.Orders.PayOrder)
	}

	admin := auth.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/dashboard", d.Dashboard.Summary)
		admin.GET("/sales-data", d.Dashboard.SalesData)
		admin.GET("/filter-catalog", d.Dashboard.FilterCatalog)
		admin.PATCH("/orders/:id/status", d.Orders.UpdateOrderStatus)
	}

	employee := auth.Group("/employee", middleware.RequireStaff())
	{
		employee.GET("/dashboard", d.Dashboard.StaffDashboard)
		employee.GET("/orders-status", d.Dashboard.OrdersStatus)
		employee.GET("/orders-status/ws", d.Dashboard.PendingStream)
	}
}
