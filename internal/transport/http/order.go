package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/logging"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/transport"
	"github.com/Skotchmaster/stepup/internal/util"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Tracking *service.TrackingService
}

// PlaceOrder orders the submitted lines, or checks out cart_id when given.
func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "place_order_error", err)
	}

	access := authmw.AccessFrom(c)
	in := req.Input()

	var (
		o   *models.Order
		err error
	)
	if req.CartID != nil {
		o, err = h.Svc.CheckoutCart(ctx, access, *req.CartID, in)
	} else {
		in.UserID = access.UserID
		o, err = h.Svc.PlaceOrder(ctx, in)
	}
	if err != nil {
		return fail(l, "place_order_error", err)
	}

	return c.JSON(http.StatusCreated, transport.Order(o))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		return badID(l, "get_order_error", c.Param("id"))
	}

	o, err := h.Svc.Get(ctx, authmw.AccessFrom(c), id, c.QueryParam("email"))
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.Order(o))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListMine(ctx, authmw.AccessFrom(c), offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.Orders(items),
		"meta": transport.Meta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) ListTracking(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.tracking")

	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		return badID(l, "list_tracking_error", c.Param("id"))
	}

	events, err := h.Tracking.List(ctx, authmw.AccessFrom(c), id, c.QueryParam("email"))
	if err != nil {
		return fail(l, "list_tracking_error", err)
	}
	return c.JSON(http.StatusOK, transport.TrackingEvents(events))
}

func (h *OrderHTTP) AppendTracking(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.append_tracking")

	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		return badID(l, "append_tracking_error", c.Param("id"))
	}

	var req transport.TrackingEventRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "append_tracking_error", err)
	}

	ev, err := h.Tracking.Append(ctx, authmw.AccessFrom(c), id, req.Input())
	if err != nil {
		return fail(l, "append_tracking_error", err)
	}

	l.Info("append_tracking_success", "order_id", id, "status", ev.Status)
	return c.JSON(http.StatusCreated, transport.TrackingEvent(ev))
}
