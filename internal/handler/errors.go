package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/service"
)

// statusFor maps service errors onto HTTP status codes and client-facing
// messages.  Every session failure collapses to the same 401 body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, service.ErrUnverified):
		return http.StatusForbidden, "email not verified"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrSessionSuperseded):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrEmailExists):
		return http.StatusConflict, "email already exists"
	case errors.Is(err, service.ErrInvalidOTP):
		return http.StatusBadRequest, "invalid or expired otp"
	case errors.Is(err, service.ErrAlreadyVerified):
		return http.StatusBadRequest, "email already verified"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c echo.Context, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}
	return c.JSON(code, echo.Map{"error": msg})
}
