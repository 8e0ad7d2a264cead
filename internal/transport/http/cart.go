package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/models"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/tokens"
	"github.com/Skotchmaster/stepup/internal/transport"
	"github.com/Skotchmaster/stepup/internal/util"
)

const cartHandleTTL = 30 * 24 * time.Hour

type CartHTTP struct {
	Svc   *service.CartService
	Shape transport.Shaper
}

// rememberHandle hands an anonymous cart's handle back to the client.
func rememberHandle(c echo.Context, cart *models.Cart) {
	if cart.UserID != nil || cart.Handle == "" {
		return
	}
	c.SetCookie(tokens.CreateCookie(tokens.CartHandleCookie, cart.Handle, "/", time.Now().Add(cartHandleTTL)))
	c.Response().Header().Set(authmw.CartHandleHeader, cart.Handle)
}

func (h *CartHTTP) cartID(c echo.Context) (uint, bool) {
	return util.ParseID(c.Param("id"))
}

func (h *CartHTTP) MyCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.my")

	cart, err := h.Svc.Mine(ctx, authmw.AccessFrom(c))
	if err != nil {
		return fail(l, "get_my_cart_error", err)
	}
	rememberHandle(c, cart)
	return c.JSON(http.StatusOK, h.Shape.Cart(cart))
}

func (h *CartHTTP) CreateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.create")

	var req transport.CartRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_cart_error", err)
	}

	cart, err := h.Svc.Create(ctx, authmw.AccessFrom(c), req.Lines())
	if err != nil {
		return fail(l, "create_cart_error", err)
	}

	l.Info("create_cart_success", "cart_id", cart.ID)
	rememberHandle(c, cart)
	return c.JSON(http.StatusCreated, h.Shape.Cart(cart))
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	id, ok := h.cartID(c)
	if !ok {
		return badID(l, "get_cart_error", c.Param("id"))
	}
	cart, err := h.Svc.Get(ctx, authmw.AccessFrom(c), id)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, h.Shape.Cart(cart))
}

// UpdateCart merges the submitted lines into the cart. PUT replaces the cart
// contents unless the body sets "replace": false; PATCH merges unless it sets
// "replace": true.
func (h *CartHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	id, ok := h.cartID(c)
	if !ok {
		return badID(l, "update_cart_error", c.Param("id"))
	}

	var req transport.CartRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_cart_error", err)
	}
	replace := c.Request().Method == http.MethodPut
	if req.Replace != nil {
		replace = *req.Replace
	}

	cart, err := h.Svc.Update(ctx, authmw.AccessFrom(c), id, req.Lines(), replace)
	if err != nil {
		return fail(l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, h.Shape.Cart(cart))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	id, ok := h.cartID(c)
	if !ok {
		return badID(l, "add_item_error", c.Param("id"))
	}

	var req transport.LineItemRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "add_item_error", err)
	}

	cart, err := h.Svc.AddItem(ctx, authmw.AccessFrom(c), id, req.CartLine())
	if err != nil {
		return fail(l, "add_item_error", err)
	}

	l.Info("add_item_success", "cart_id", id)
	return c.JSON(http.StatusOK, h.Shape.Cart(cart))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	id, ok := h.cartID(c)
	if !ok {
		return badID(l, "remove_item_error", c.Param("id"))
	}

	var req transport.RemoveItemRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "remove_item_error", err)
	}

	cart, err := h.Svc.RemoveItem(ctx, authmw.AccessFrom(c), id, req.Remove())
	if err != nil {
		return fail(l, "remove_item_error", err)
	}
	return c.JSON(http.StatusOK, h.Shape.Cart(cart))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	id, ok := h.cartID(c)
	if !ok {
		return badID(l, "clear_cart_error", c.Param("id"))
	}
	if err := h.Svc.Clear(ctx, authmw.AccessFrom(c), id); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) DeleteCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_item.delete")

	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		return badID(l, "delete_cart_item_error", c.Param("id"))
	}

	cart, err := h.Svc.RemoveCartItem(ctx, authmw.AccessFrom(c), id)
	if err != nil {
		return fail(l, "delete_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, h.Shape.Cart(cart))
}
