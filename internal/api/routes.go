package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
)

type Handlers struct {
	Orders        *OrderHandler
	Menu          *MenuHandler
	Profiles      *ProfileHandler
	Admin         *AdminHandler
	Notifications *NotificationHandler
}

// Register mounts every storefront route on e.
func Register(e *echo.Echo, issuer *auth.Issuer, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "storefront",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.GET("/menu", h.Menu.List)
	e.GET("/schedule", h.Orders.Schedule)
	e.POST("/orders", h.Orders.PlaceOrder, issuer.OptionalMiddleware())
	e.GET("/orders/:token", h.Orders.GetOrder)
	e.GET("/orders/:token/qr", h.Orders.OrderQR)

	profile := e.Group("/profile", issuer.Middleware())
	profile.GET("", h.Profiles.Get)
	profile.PUT("", h.Profiles.Update)
	profile.GET("/orders", h.Profiles.Orders)

	e.POST("/admin/login", h.Admin.Login)

	admin := e.Group("/admin", issuer.Middleware())
	admin.GET("/orders", h.Admin.ListOrders)
	admin.PUT("/orders/:id/status", h.Admin.UpdateOrderStatus)
	admin.PUT("/orders/:id/payment", h.Admin.UpdatePaymentStatus)
	admin.GET("/summary", h.Admin.SalesSummary)
	admin.GET("/menu", h.Admin.ListMenu)
	admin.POST("/menu", h.Admin.CreateMenuItem)
	admin.PUT("/menu/:id", h.Admin.UpdateMenuItem)
	admin.DELETE("/menu/:id", h.Admin.DeleteMenuItem)
	admin.GET("/notifications", h.Notifications.Stream)
}
