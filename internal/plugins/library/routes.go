package library

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the library pages on a group that already carries
// the auth guard.
func RegisterRoutes(protected *echo.Group, h *Handler) {
	protected.GET("/browse", h.Browse)
	protected.GET("/library", h.Library)
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/profile", h.Profile)
}
