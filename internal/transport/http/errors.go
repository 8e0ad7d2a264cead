package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/service"
)

type ErrorBody struct {
	Error     string             `json:"error"`
	Field     string             `json:"field,omitempty"`
	Shortages []service.Shortage `json:"shortages,omitempty"`
}

func httpError(code int, msg string) *echo.HTTPError {
	return echo.NewHTTPError(code, ErrorBody{Error: msg})
}

func badBody(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return httpError(http.StatusBadRequest, "invalid body")
}

func badID(l *slog.Logger, event, raw string) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", "id is not a positive integer", "id", raw)
	return httpError(http.StatusBadRequest, "invalid id")
}

// fail maps a service error onto a status and body and logs it under event.
func fail(l *slog.Logger, event string, err error) error {
	var (
		ve    *service.ValidationError
		short *service.InsufficientStockError
	)
	switch {
	case errors.As(err, &ve):
		l.Warn(event, "status", http.StatusBadRequest, "field", ve.Field, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, ErrorBody{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", http.StatusBadRequest, "error", err)
		return httpError(http.StatusBadRequest, err.Error())
	case errors.As(err, &short):
		l.Warn(event, "status", http.StatusConflict, "shortages", len(short.Shortages))
		return echo.NewHTTPError(http.StatusConflict, ErrorBody{Error: "insufficient stock", Shortages: short.Shortages})
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", http.StatusConflict, "error", err)
		return httpError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "error", err)
		return httpError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAccountInactive):
		l.Warn(event, "status", http.StatusForbidden, "reason", "account not active")
		return httpError(http.StatusForbidden, "account not active")
	case errors.Is(err, service.ErrPermissionDenied):
		l.Warn(event, "status", http.StatusForbidden, "error", err)
		return httpError(http.StatusForbidden, "not permitted")
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "invalid credentials")
		return httpError(http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrUnauthorized):
		l.Warn(event, "status", http.StatusUnauthorized, "error", err)
		return httpError(http.StatusUnauthorized, "authentication required")
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return httpError(http.StatusInternalServerError, "internal error")
	}
}
