// Package authmw resolves the caller's identity from request cookies and
// guards routes that need a logged-in user or staff.
package authmw

import (
	"context"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/tokens"
)

const (
	accessKey = "access"
	claimsKey = "access_claims"

	// CartHandleHeader carries the anonymous cart handle for clients without cookies.
	CartHandleHeader = "X-Cart-Handle"
)

// StaffChecker reports whether a user currently holds staff rights.
type StaffChecker interface {
	IsActiveStaff(ctx context.Context, userID uint) (bool, error)
}

type Identity struct {
	jwt   echo.MiddlewareFunc
	staff StaffChecker
}

// NewIdentity looks the access token up in its cookie. A missing, expired or
// forged token leaves the caller anonymous, and a bad cookie is cleared.
// A staff role claim is confirmed against staff on every request, so a demoted
// user loses staff rights before the token expires. A nil staff trusts the claim.
func NewIdentity(secret []byte, staff StaffChecker) *Identity {
	return &Identity{staff: staff, jwt: echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "cookie:" + tokens.AccessCookie,
		ParseTokenFunc: func(_ echo.Context, raw string) (interface{}, error) {
			return tokens.AccessClaimsFromToken(raw, secret)
		},
		ContinueOnIgnoredError: true,
		ErrorHandler: func(c echo.Context, err error) error {
			if ck, cerr := c.Cookie(tokens.AccessCookie); cerr == nil && ck.Value != "" {
				logging.FromContext(c.Request().Context()).Debug("access_token_rejected", "error", err)
				c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
			}
			return nil
		},
	})}
}

// Resolve stores the caller's service.Access on the context. It never rejects a request.
func (m *Identity) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return m.jwt(func(c echo.Context) error {
		access := service.Anonymous()
		access.CartHandle = cartHandle(c)

		if claims, ok := c.Get(claimsKey).(*tokens.AccessClaims); ok {
			if id, err := claims.UserID(); err == nil {
				access.UserID = &id
				access.Staff = claims.Role == tokens.RoleStaff && m.confirmStaff(c, id)
				access.Email = claims.Email
			}
		}

		c.Set(accessKey, access)
		return next(c)
	})
}

func (m *Identity) confirmStaff(c echo.Context, id uint) bool {
	if m.staff == nil {
		return true
	}
	ctx := c.Request().Context()
	ok, err := m.staff.IsActiveStaff(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Warn("staff_check_failed", "user_id", id, "error", err)
		return false
	}
	return ok
}

func cartHandle(c echo.Context) string {
	if h := strings.TrimSpace(c.Request().Header.Get(CartHandleHeader)); h != "" {
		return h
	}
	if ck, err := c.Cookie(tokens.CartHandleCookie); err == nil {
		return ck.Value
	}
	return ""
}

// AccessFrom returns the identity stored by Resolve, or an anonymous one.
func AccessFrom(c echo.Context) service.Access {
	if a, ok := c.Get(accessKey).(service.Access); ok {
		return a
	}
	return service.Anonymous()
}

func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !AccessFrom(c).Authenticated() {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

func RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		a := AccessFrom(c)
		if !a.Authenticated() {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if !a.Staff {
			return echo.NewHTTPError(http.StatusForbidden, "not permitted")
		}
		return next(c)
	}
}
