package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// FlushProfileCache drops every cached profile snapshot (ADMIN only).
func (h *AuthHandler) FlushProfileCache(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Svc.FlushProfiles(ctx); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
