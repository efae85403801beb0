package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/handler"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/metrics"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/middleware"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, store handler.Pinger, m *metrics.Collectors) {
	e.GET("/healthz", handler.Health(store))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
}

// RegisterAuth registers the /auth routes.  Register, OTP, login and refresh
// are public; logout and profile sit behind the gate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/verify-otp", a.VerifyOTP)
	g.POST("/resend-otp", a.ResendOTP)
	g.POST("/login", a.Login)
	// Refresh authenticates with the refresh token, not the access token, so
	// it must stay outside the gate: it is how an expired access token is replaced.
	g.POST("/refresh", a.Refresh)

	g.POST("/logout", a.Logout, gate)
	g.GET("/profile", a.Profile, gate)
	g.PATCH("/profile", a.UpdateProfile, gate)

	admin := e.Group("/admin", gate, middleware.RequireRole(model.RoleAdmin))
	admin.DELETE("/profile-cache", a.FlushProfileCache)
}
