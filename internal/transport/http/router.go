package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/metrics"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/middleware/csrf"
	"github.com/Skotchmaster/stepup/internal/tokens"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB       Pinger
	Metrics  *metrics.Metrics
	Identity *authmw.Identity

	// CSRF enables double-submit protection for cookie-authenticated writes.
	CSRF bool

	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	OrderHandler    *OrderHTTP
	AuthHandler     *AuthHTTP
	CheckoutHandler *CheckoutHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	mw := []echo.MiddlewareFunc{d.Identity.Resolve}
	if d.CSRF {
		cfg := csrf.DefaultConfig()
		cfg.SessionCookie = tokens.AccessCookie
		mw = append(mw, csrf.Middleware(cfg))
	}
	v1 := e.Group("/api/v1", mw...)

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/verify-email", d.AuthHandler.VerifyEmail)
	auth.GET("/me", d.AuthHandler.Me)

	products := v1.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	v1.GET("/filters", d.CatalogHandler.GetFilters)

	admin := v1.Group("/admin", authmw.RequireStaff)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.POST("/orders/:id/tracking", d.OrderHandler.AppendTracking)

	cart := v1.Group("/cart")
	cart.GET("/my", d.CartHandler.MyCart)
	cart.POST("", d.CartHandler.CreateCart)
	cart.GET("/:id", d.CartHandler.GetCart)
	cart.PUT("/:id", d.CartHandler.UpdateCart)
	cart.PATCH("/:id", d.CartHandler.UpdateCart)
	cart.POST("/:id/add_item", d.CartHandler.AddItem)
	cart.POST("/:id/remove_item", d.CartHandler.RemoveItem)
	cart.DELETE("/:id/items", d.CartHandler.ClearCart)
	v1.DELETE("/cart-items/:id", d.CartHandler.DeleteCartItem)

	orders := v1.Group("/orders")
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListOrders, authmw.RequireLogin)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.GET("/:id/tracking", d.OrderHandler.ListTracking)

	v1.POST("/checkout-details", d.CheckoutHandler.CreateDetails)
}
