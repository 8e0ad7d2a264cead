package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/logging"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/transport"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutDetailService
}

func (h *CheckoutHTTP) CreateDetails(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create_details")

	var req transport.CheckoutDetailRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "checkout_details_error", err)
	}

	d, err := h.Svc.Create(ctx, authmw.AccessFrom(c), req.Input())
	if err != nil {
		return fail(l, "checkout_details_error", err)
	}

	l.Info("checkout_details_success", "detail_id", d.ID)
	return c.JSON(http.StatusCreated, transport.CheckoutDetail(d))
}
