package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/middleware"
)

// RegisterRoutes sets up the public auth routes. The guard middleware is
// exported separately for the protected route groups.
//
// POST endpoints are rate-limited per IP: 10 login attempts and 5
// registrations per minute.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.GET("/register", h.RegisterForm)
	e.POST("/register", h.Register, middleware.RateLimit(5, time.Minute))
	e.POST("/logout", h.Logout)

	e.GET("/auth/google", h.GoogleStart, middleware.RateLimit(10, time.Minute))
	e.GET("/auth/google/callback", h.GoogleCallback)
}
