package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/logging"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/tokens"
	"github.com/Skotchmaster/stepup/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "register_error", err)
	}

	u, err := h.Svc.Register(ctx, req.Input())
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, map[string]any{
		"user":    transport.User(u),
		"message": "check your email to activate the account",
	})
}

func (h *AuthHTTP) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.verify_email")

	u, err := h.Svc.VerifyEmail(ctx, c.QueryParam("token"))
	if err != nil {
		return fail(l, "verify_email_error", err)
	}
	return c.JSON(http.StatusOK, transport.User(u))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req.Identifier(), req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	return c.JSON(http.StatusOK, transport.User(res.User))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	u, err := h.Svc.Me(ctx, authmw.AccessFrom(c))
	if err != nil {
		return fail(l, "me_error", err)
	}
	if u == nil {
		return c.JSON(http.StatusOK, map[string]any{"authenticated": false, "user": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"authenticated": true, "user": transport.User(u)})
}
